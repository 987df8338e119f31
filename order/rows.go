package order

import (
	"sort"
	"strings"
)

// SortLineItems returns a copy of items ordered for display: support rows
// last, everything else by annual fee, highest first. Ties keep their input
// order.
func SortLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].IsSupport(), out[j].IsSupport()
		if si != sj {
			return !si
		}
		return out[i].AnnualFee > out[j].AnnualFee
	})
	return out
}

// Total sums the annual fees.
func Total(items []LineItem) float64 {
	var sum float64
	for _, li := range items {
		sum += li.AnnualFee
	}
	return sum
}

// WithPeriod stamps every item with the subscription period text.
func WithPeriod(items []LineItem, period string) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		li.Period = period
		out[i] = li
	}
	return out
}

// ProductsFromItems lists the distinct products behind the rows, collapsing
// any "<tier> Support" row to ProductSupport.
func ProductsFromItems(items []LineItem) []string {
	seen := make(map[string]bool)
	var products []string
	for _, li := range items {
		service := strings.TrimSpace(li.Label)
		if service == "" {
			continue
		}
		if li.IsSupport() {
			service = ProductSupport
		}
		if !seen[service] {
			seen[service] = true
			products = append(products, service)
		}
	}
	return products
}

// SupportLabel is the row label of a support tier.
func SupportLabel(tier string) string { return tier + " Support" }

// BuildRows rebuilds the editable rows for a product selection. Values
// already entered for a service in existing are kept; new services start
// from DefaultUsage and DefaultUnit.
func BuildRows(products []string, supportTier string, existing []RowInput) []RowInput {
	byService := make(map[string]RowInput, len(existing))
	for _, r := range existing {
		if s := strings.TrimSpace(r.Service); s != "" {
			byService[s] = r
		}
	}

	rows := make([]RowInput, 0, len(products))
	for _, product := range products {
		service := product
		if product == ProductSupport {
			service = SupportLabel(supportTier)
		}
		row := RowInput{
			Service:         service,
			UsageCommitment: DefaultUsage(service),
			Unit:            DefaultUnit(service),
			AnnualFee:       "0",
		}
		if prev, ok := byService[service]; ok {
			row.UsageCommitment = prev.UsageCommitment
			row.Unit = prev.Unit
			row.AnnualFee = prev.AnnualFee
		}
		row.UsageCommitment = FormatUsageCommitment(row.UsageCommitment)
		rows = append(rows, row)
	}
	return rows
}

// NormalizeSpecialTerms trims entries, drops blanks and "None", and removes
// duplicates while keeping first-seen order.
func NormalizeSpecialTerms(selected []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range selected {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "none") || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
