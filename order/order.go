// Package order holds the sales-order domain: the validated order record,
// pricing-table line items, the pricing-mode configuration records and the
// normalisation rules that turn loosely typed wizard input into values the
// layout engine can draw without further checks.
package order

import (
	"math"
	"strings"
)

// Opportunity types and agreement kinds understood by the composer.
const (
	OpportunityNewLogo   = "New Logo"
	OpportunityRenewal   = "Renewal"
	OpportunityExpansion = "Expansion/Upsell"

	TermsOnline = "Online"
	TermsMSA    = "MSA"

	PaymentBankTransfer = "Bank Transfer"
)

// Order is the validated order record handed to the composer.
type Order struct {
	AccountName           string      `json:"account_name"`
	PrimaryContactName    string      `json:"primary_contact_name"`
	PrimaryContactEmail   string      `json:"primary_contact_email"`
	BillingEmail          string      `json:"billing_email"`
	ShippingAddress       string      `json:"shipping_address"`
	BillingAddress        string      `json:"billing_address"`
	StartDate             string      `json:"start_date"`
	TermMonths            int         `json:"subscription_term_months"`
	BillingFrequency      string      `json:"billing_frequency"`
	PaymentTerms          string      `json:"payment_terms"`
	PaymentMethod         string      `json:"payment_method"`
	BillingID             string      `json:"billing_id,omitempty"`
	PONumber              string      `json:"po_number,omitempty"`
	OpportunityType       string      `json:"opportunity_type"`
	AddendumEffectiveDate string      `json:"addendum_effective_date,omitempty"`
	TermsType             string      `json:"terms_type"`
	MSAExecutionDate      string      `json:"msa_execution_date,omitempty"`
	SpecialTerms          []string    `json:"special_terms,omitempty"`
	ExpirationDate        string      `json:"expiration_date,omitempty"`
	UsageTerms            string      `json:"usage_terms,omitempty"`
	PricingMode           PricingMode `json:"pricing_mode"`
}

// DefaultOrder returns an order with the defaults the wizard starts from.
func DefaultOrder() Order {
	return Order{
		BillingAddress:   "Same as shipping address",
		TermMonths:       12,
		BillingFrequency: "Annual",
		PaymentTerms:     "Net 30",
		PaymentMethod:    PaymentBankTransfer,
		TermsType:        TermsOnline,
		PricingMode:      ModeCloud,
	}
}

// FieldKey names a line-item field shown as a table column.
type FieldKey string

const (
	FieldPeriod  FieldKey = "subscription_period"
	FieldService FieldKey = "service"
	FieldUsage   FieldKey = "annual_usage_commitment"
	FieldUnit    FieldKey = "unit"
	FieldFee     FieldKey = "annual_service_fee"
)

// Column pairs a field with its header label.
type Column struct {
	Key   FieldKey
	Label string
}

// ColumnSpec is the ordered column set of the services table. The first
// column is always the merged period column.
type ColumnSpec []Column

// Labels returns the header labels in order.
func (s ColumnSpec) Labels() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Label
	}
	return out
}

// LineItem is one row of the pricing table.
type LineItem struct {
	Period          string  `json:"subscription_period"`
	Label           string  `json:"service"`
	UsageCommitment string  `json:"annual_usage_commitment"`
	Unit            string  `json:"unit"`
	AnnualFee       float64 `json:"annual_service_fee"`
}

// Value returns the display text of the given field. Fees are formatted as
// currency so that measured and drawn text are identical.
func (li LineItem) Value(key FieldKey) string {
	switch key {
	case FieldPeriod:
		return li.Period
	case FieldService:
		return li.Label
	case FieldUsage:
		return li.UsageCommitment
	case FieldUnit:
		return li.Unit
	case FieldFee:
		return FormatMoney(li.AnnualFee)
	}
	return ""
}

// IsSupport reports whether the item is a support tier row.
func (li LineItem) IsSupport() bool {
	return strings.HasSuffix(strings.TrimSpace(li.Label), "Support")
}

// RowInput is a raw row as entered in the wizard. Every field is text; it is
// resolved once into a LineItem by NormalizeRow.
type RowInput struct {
	Period          string `json:"subscription_period"`
	Service         string `json:"service"`
	UsageCommitment string `json:"annual_usage_commitment"`
	Unit            string `json:"unit"`
	AnnualFee       string `json:"annual_service_fee"`
}

// NormalizeRow resolves a raw row. Missing or malformed values become empty
// text, "N/A" or a zero fee; it never fails.
func NormalizeRow(r RowInput) LineItem {
	return LineItem{
		Period:          r.Period,
		Label:           r.Service,
		UsageCommitment: FormatUsageCommitment(r.UsageCommitment),
		Unit:            r.Unit,
		AnnualFee:       ParseMoney(r.AnnualFee),
	}
}

// NormalizeItem applies the row rules to an already typed item: negative or
// non-finite fees become 0 and the usage commitment is reformatted.
func NormalizeItem(li LineItem) LineItem {
	if math.IsNaN(li.AnnualFee) || math.IsInf(li.AnnualFee, 0) || li.AnnualFee < 0 {
		li.AnnualFee = 0
	}
	li.UsageCommitment = FormatUsageCommitment(li.UsageCommitment)
	return li
}

// NormalizeItems applies NormalizeItem to every item.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = NormalizeItem(li)
	}
	return out
}

// NormalizeRows applies NormalizeRow to every row.
func NormalizeRows(rows []RowInput) []LineItem {
	out := make([]LineItem, len(rows))
	for i, r := range rows {
		out[i] = NormalizeRow(r)
	}
	return out
}
