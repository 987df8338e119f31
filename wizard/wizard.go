// Package wizard holds the state of the four-step order entry flow:
// customer information, terms, product selection and agreement. The state
// is a plain value that round-trips through JSON, so a host can keep it in
// a session, a cookie or a file between requests.
package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wudi/orderkit/order"
)

// Step is a wizard page, numbered from 1.
type Step int

const (
	StepCustomer Step = iota + 1
	StepTerms
	StepProducts
	StepAgreement
)

func (s Step) String() string {
	switch s {
	case StepCustomer:
		return "customer"
	case StepTerms:
		return "terms"
	case StepProducts:
		return "products"
	case StepAgreement:
		return "agreement"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// WNExperimentationNone is the warehouse native "no experimentation" choice.
const WNExperimentationNone = "None"

var (
	ErrIncomplete         = errors.New("step is incomplete")
	ErrNoPreviousStep     = errors.New("already at the first step")
	ErrNoNextStep         = errors.New("already at the last step")
	ErrUnknownProduct     = errors.New("product not offered in this pricing mode")
	ErrUnknownSupportTier = errors.New("unknown support tier")
)

// StepError lists what keeps a step from completing.
type StepError struct {
	Step     Step
	Problems []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step: %s", e.Step, strings.Join(e.Problems, " "))
}

func (e *StepError) Unwrap() error { return ErrIncomplete }

// State is the wizard state.
type State struct {
	Step              Step             `json:"step"`
	Order             order.Order      `json:"order"`
	Products          []string         `json:"selected_products"`
	SupportTier       string           `json:"support_tier"`
	WNExperimentation string           `json:"warehouse_native_experimentation,omitempty"`
	Rows              []order.RowInput `json:"services_rows"`
	// Signature identifies the selection Rows were built for; rows are
	// rebuilt only when it changes.
	Signature string `json:"product_signature"`
}

// New returns a wizard on the first step with default order values and a
// start date on the first of next month.
func New(now time.Time) *State {
	o := order.DefaultOrder()
	o.StartDate = order.DisplayDate(order.DefaultStartDate(now))
	o.OpportunityType = order.OpportunityNewLogo
	s := &State{
		Step:        StepCustomer,
		Order:       o,
		SupportTier: order.SupportTiers[0],
	}
	s.rebuild()
	return s
}

func (s *State) mode() order.ModeConfig {
	cfg, err := order.LookupMode(s.Order.PricingMode)
	if err != nil {
		cfg, _ = order.LookupMode(order.ModeCloud)
	}
	return cfg
}

// SetPricingMode switches the pricing mode, keeping only the products the
// new mode offers. Credit pricing always selects its required products.
func (s *State) SetPricingMode(m order.PricingMode) error {
	cfg, err := order.LookupMode(m)
	if err != nil {
		return err
	}
	s.Order.PricingMode = m
	if m != order.ModeWarehouseNative {
		s.WNExperimentation = ""
	}
	var kept []string
	for _, p := range s.Products {
		if contains(cfg.Products, p) {
			kept = append(kept, p)
		}
	}
	s.Products = kept
	if len(cfg.RequiredProducts) > 0 {
		s.Products = append([]string{}, cfg.RequiredProducts...)
	}
	s.rebuild()
	return nil
}

// SetProducts selects products for the current mode. In warehouse native
// mode wnExperimentation picks at most one experimentation product;
// "Analysis + Assignment" brings Feature Gates with it and "Analysis Only"
// excludes it. Support is always added through the support tier.
func (s *State) SetProducts(products []string, wnExperimentation string) error {
	cfg := s.mode()
	switch cfg.Mode {
	case order.ModeCredit:
		s.Products = append([]string{}, cfg.RequiredProducts...)
		s.WNExperimentation = ""

	case order.ModeWarehouseNative:
		switch wnExperimentation {
		case "", WNExperimentationNone:
			wnExperimentation = ""
		case order.ProductWNAnalysisOnly, order.ProductWNAnalysisAssign:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownProduct, wnExperimentation)
		}
		var others []string
		for _, p := range products {
			if p == order.ProductSupport || cfg.IsExperimentation(p) {
				continue
			}
			if !contains(cfg.Products, p) {
				return fmt.Errorf("%w: %q", ErrUnknownProduct, p)
			}
			if p == order.ProductFeatureGates && wnExperimentation == order.ProductWNAnalysisOnly {
				continue
			}
			others = appendUnique(others, p)
		}
		if wnExperimentation == order.ProductWNAnalysisAssign {
			others = appendUnique(others, order.ProductFeatureGates)
		}
		if wnExperimentation != "" {
			others = append(others, wnExperimentation)
		}
		s.Products = others
		s.WNExperimentation = wnExperimentation

	default:
		var selected []string
		for _, p := range products {
			if p == order.ProductSupport {
				continue
			}
			if !contains(cfg.Products, p) {
				return fmt.Errorf("%w: %q", ErrUnknownProduct, p)
			}
			selected = appendUnique(selected, p)
		}
		s.Products = selected
		s.WNExperimentation = ""
	}
	s.rebuild()
	return nil
}

// SetSupportTier selects the support tier.
func (s *State) SetSupportTier(tier string) error {
	if !contains(order.SupportTiers, tier) {
		return fmt.Errorf("%w: %q", ErrUnknownSupportTier, tier)
	}
	s.SupportTier = tier
	s.rebuild()
	return nil
}

// SelectedProducts is the product selection with Support last.
func (s *State) SelectedProducts() []string {
	out := make([]string, 0, len(s.Products)+1)
	for _, p := range s.Products {
		if p != order.ProductSupport {
			out = append(out, p)
		}
	}
	return append(out, order.ProductSupport)
}

func (s *State) signature() string {
	return strings.Join([]string{
		string(s.mode().Mode),
		strings.Join(s.SelectedProducts(), ","),
		s.WNExperimentation,
		s.SupportTier,
	}, "|")
}

func (s *State) rebuild() {
	sig := s.signature()
	if sig == s.Signature {
		return
	}
	s.Rows = order.BuildRows(s.SelectedProducts(), s.SupportTier, s.Rows)
	s.Signature = sig
}

// SetRows stores edited table rows. Usage commitments of products without
// one are forced to "N/A", the rest are normalised, and rows are re-sorted
// by fee with support last. Fees keep their entered text for validation.
func (s *State) SetRows(rows []order.RowInput) {
	cfg := s.mode()
	out := make([]order.RowInput, len(rows))
	for i, r := range rows {
		r.Period = ""
		service := strings.TrimSpace(r.Service)
		if cfg.Mode != order.ModeCredit && !cfg.IsExperimentation(service) {
			r.UsageCommitment = order.RateNotApplicable
		} else {
			r.UsageCommitment = order.FormatUsageCommitment(r.UsageCommitment)
		}
		out[i] = r
	}
	sort.SliceStable(out, func(i, j int) bool {
		si := strings.HasSuffix(strings.TrimSpace(out[i].Service), "Support")
		sj := strings.HasSuffix(strings.TrimSpace(out[j].Service), "Support")
		if si != sj {
			return !si
		}
		return order.ParseMoney(out[i].AnnualFee) > order.ParseMoney(out[j].AnnualFee)
	})
	s.Rows = out
}

// Period is the subscription period text of the current terms.
func (s *State) Period(now time.Time) string {
	start := order.FirstOfMonth(order.ParseDate(s.Order.StartDate, now))
	end := order.EndDate(start, s.Order.TermMonths)
	return order.DisplayDate(start) + " - " + order.DisplayDate(end)
}

// Items returns the rows as sorted, normalised line items stamped with the
// subscription period.
func (s *State) Items(now time.Time) []order.LineItem {
	return order.WithPeriod(order.SortLineItems(order.NormalizeRows(s.Rows)), s.Period(now))
}

// CustomerProblems lists missing customer information.
func (s *State) CustomerProblems() []string {
	o := s.Order
	var p []string
	for _, f := range []struct{ name, value string }{
		{"Customer/Account Name", o.AccountName},
		{"Primary Contact", o.PrimaryContactName},
		{"Primary Contact Email", o.PrimaryContactEmail},
		{"Billing Email", o.BillingEmail},
		{"Ship To Address", o.ShippingAddress},
		{"Bill To Address", o.BillingAddress},
		{"Opportunity Type", o.OpportunityType},
	} {
		if strings.TrimSpace(f.value) == "" {
			p = append(p, f.name+" is required.")
		}
	}
	if o.OpportunityType == order.OpportunityExpansion && strings.TrimSpace(o.AddendumEffectiveDate) == "" {
		p = append(p, "Upsell Effective Date is required when Opportunity Type is Expansion/Upsell.")
	}
	return p
}

// CustomerComplete reports whether the customer step can be left.
func (s *State) CustomerComplete() bool { return len(s.CustomerProblems()) == 0 }

// TermsProblems lists invalid or missing terms.
func (s *State) TermsProblems() []string {
	o := s.Order
	var p []string
	if start, ok := order.LookupDate(o.StartDate); !ok || start.Day() != 1 {
		p = append(p, "Subscription Start Date must be the 1st day of a month.")
	}
	if o.TermMonths < 1 {
		p = append(p, "Subscription Term must be at least 1 month.")
	}
	for _, f := range []struct{ name, value string }{
		{"Billing Frequency", o.BillingFrequency},
		{"Payment Terms", o.PaymentTerms},
		{"Payment Method", o.PaymentMethod},
	} {
		if strings.TrimSpace(f.value) == "" {
			p = append(p, f.name+" is required.")
		}
	}
	if o.PaymentMethod != order.PaymentBankTransfer && strings.TrimSpace(o.BillingID) == "" {
		p = append(p, "Billing ID is required unless Payment Method is Bank Transfer.")
	}
	return p
}

// TermsComplete reports whether the terms step can be left.
func (s *State) TermsComplete() bool { return len(s.TermsProblems()) == 0 }

// AgreementProblems lists what blocks generating the document.
func (s *State) AgreementProblems(now time.Time) []string {
	o := s.Order
	var p []string
	if o.TermsType == order.TermsMSA && strings.TrimSpace(o.MSAExecutionDate) == "" {
		p = append(p, "MSA Execution Date is required when Terms is MSA.")
	}
	if exp := strings.TrimSpace(o.ExpirationDate); exp != "" {
		d, ok := order.LookupDate(exp)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !ok || d.Before(today) {
			p = append(p, "Expiration Date must be today or later.")
		}
	}
	return p
}

// Next moves to the following step once the current one is complete. The
// product step runs the line-item validator.
func (s *State) Next(v *order.Validator) error {
	var problems []string
	switch s.Step {
	case StepCustomer:
		problems = s.CustomerProblems()
	case StepTerms:
		problems = s.TermsProblems()
	case StepProducts:
		msgs, err := v.Validate(s.mode().Mode, s.Rows)
		if err != nil {
			return err
		}
		problems = msgs
	default:
		return ErrNoNextStep
	}
	if len(problems) > 0 {
		return &StepError{Step: s.Step, Problems: problems}
	}
	s.Step++
	return nil
}

// Back moves to the previous step.
func (s *State) Back() error {
	if s.Step <= StepCustomer {
		return ErrNoPreviousStep
	}
	s.Step--
	return nil
}

// Finalize checks the agreement step and the line items and returns the
// order and items ready for rendering.
func (s *State) Finalize(v *order.Validator, now time.Time) (order.Order, []order.LineItem, error) {
	if problems := s.AgreementProblems(now); len(problems) > 0 {
		return order.Order{}, nil, &StepError{Step: StepAgreement, Problems: problems}
	}
	mode := s.mode().Mode
	msgs, err := v.Validate(mode, s.Rows)
	if err != nil {
		return order.Order{}, nil, err
	}
	if len(msgs) > 0 {
		return order.Order{}, nil, &StepError{Step: StepProducts, Problems: msgs}
	}
	o := s.Order
	o.PricingMode = mode
	o.SpecialTerms = order.NormalizeSpecialTerms(o.SpecialTerms)
	if o.TermsType != order.TermsMSA {
		o.MSAExecutionDate = ""
	}
	if o.OpportunityType != order.OpportunityExpansion {
		o.AddendumEffectiveDate = ""
	}
	return o, s.Items(now), nil
}

// Import fills order fields from extracted values, keeping current values
// where nothing was extracted.
func (s *State) Import(x order.Order) {
	o := &s.Order
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&o.AccountName, x.AccountName)
	set(&o.PrimaryContactName, x.PrimaryContactName)
	set(&o.PrimaryContactEmail, x.PrimaryContactEmail)
	set(&o.BillingEmail, x.BillingEmail)
	set(&o.ShippingAddress, x.ShippingAddress)
	set(&o.BillingAddress, x.BillingAddress)
	set(&o.StartDate, x.StartDate)
	set(&o.BillingFrequency, x.BillingFrequency)
	set(&o.PaymentTerms, x.PaymentTerms)
	set(&o.PaymentMethod, x.PaymentMethod)
	set(&o.PONumber, x.PONumber)
	set(&o.UsageTerms, x.UsageTerms)
	if x.TermMonths > 0 {
		o.TermMonths = x.TermMonths
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}
