package order

import (
	"errors"
	"fmt"
	"strings"
)

// PricingMode selects the column set, product catalogue, excess-rate rule
// and validation rules of an order.
type PricingMode string

const (
	ModeCloud           PricingMode = "cloud"
	ModeWarehouseNative PricingMode = "warehouse_native"
	ModeCredit          PricingMode = "credit"
)

// ErrUnknownPricingMode is returned for modes with no configuration record.
var ErrUnknownPricingMode = errors.New("unknown pricing mode")

var modeAliases = map[string]PricingMode{
	"cloud":               ModeCloud,
	"warehouse native":    ModeWarehouseNative,
	"warehouse_native":    ModeWarehouseNative,
	"credit":              ModeCredit,
	"credit/usage based":  ModeCredit,
	"usage based pricing": ModeCredit,
}

// ParsePricingMode accepts the canonical names and the display labels used by
// the order wizard ("Cloud", "Warehouse Native", "Credit/Usage Based", ...).
func ParsePricingMode(s string) (PricingMode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPricingMode, s)
}

// UnmarshalText lets JSON documents use either form of the mode name.
func (m *PricingMode) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*m = ModeCloud
		return nil
	}
	parsed, err := ParsePricingMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsCredit reports whether m uses the credit column set.
func (m PricingMode) IsCredit() bool { return m == ModeCredit }

// Product names offered by the wizard.
const (
	ProductFeatureGates      = "Feature Gates and SDKs"
	ProductExperimentation   = "Experimentation"
	ProductAnalytics         = "Advanced Product Analytics"
	ProductPlatformFee       = "Platform Fee"
	ProductSessionReplay     = "Session Replay"
	ProductWNAnalysisOnly    = "Experimentation: Analysis Only"
	ProductWNAnalysisAssign  = "Experimentation: Analysis + Assignment"
	ProductWarehouseNative   = "Warehouse Native"
	ProductSupport           = "Support"
	legacyWNAnalysisAssign   = "Warehouse Native: Experimentation (Analysis + Assignment)"
	legacyWNAnalysisOnly     = "Warehouse Native: Analysis"
	defaultUnitExperiments   = "Billable Events"
	defaultUnitSessionReplay = "Sessions"
)

// SupportTiers lists the selectable support levels.
var SupportTiers = []string{"Premium", "Standard", "Community"}

// RateRule derives the excess usage rate from the first line item whose
// label matches one of Services: fee / usage * Scale, printed with Decimals
// places.
type RateRule struct {
	Services []string
	Scale    float64
	Decimals int
}

// ModeConfig is the configuration record for one pricing mode.
type ModeConfig struct {
	Mode  PricingMode
	Label string

	Columns ColumnSpec
	Weights []float64

	Products         []string
	RequiredProducts []string
	Experimentation  []string

	Rate  RateRule
	Rules []Rule
}

// IsExperimentation reports whether service carries a usage commitment in
// this mode.
func (c ModeConfig) IsExperimentation(service string) bool {
	for _, s := range c.Experimentation {
		if s == service {
			return true
		}
	}
	return false
}

var standardColumns = ColumnSpec{
	{FieldPeriod, "Subscription Period"},
	{FieldService, "Service"},
	{FieldUsage, "Annual Usage Commitment"},
	{FieldUnit, "Unit"},
	{FieldFee, "Annual Service Fee"},
}

var creditColumns = ColumnSpec{
	{FieldPeriod, "Subscription Term"},
	{FieldService, "Services"},
	{FieldUsage, "Credits"},
	{FieldFee, "Annual Fee"},
}

var modes = map[PricingMode]ModeConfig{
	ModeCloud: {
		Mode:            ModeCloud,
		Label:           "Cloud",
		Columns:         standardColumns,
		Weights:         []float64{0.25, 0.23, 0.21, 0.12, 0.19},
		Products:        []string{ProductFeatureGates, ProductExperimentation, ProductAnalytics, ProductPlatformFee, ProductSessionReplay},
		Experimentation: []string{ProductExperimentation},
		Rate:            RateRule{Services: []string{ProductExperimentation}, Scale: 1000, Decimals: 4},
		Rules:           []Rule{feeRule, commitmentRule, notApplicableRule},
	},
	ModeWarehouseNative: {
		Mode:            ModeWarehouseNative,
		Label:           "Warehouse Native",
		Columns:         standardColumns,
		Weights:         []float64{0.25, 0.23, 0.21, 0.12, 0.19},
		Products:        []string{ProductFeatureGates, ProductAnalytics, ProductPlatformFee, ProductSessionReplay, ProductWNAnalysisOnly, ProductWNAnalysisAssign},
		Experimentation: []string{ProductWNAnalysisOnly, ProductWNAnalysisAssign},
		Rate:            RateRule{Services: []string{ProductWNAnalysisOnly, ProductWNAnalysisAssign}, Scale: 1, Decimals: 2},
		Rules:           []Rule{feeRule, commitmentRule, notApplicableRule},
	},
	ModeCredit: {
		Mode:             ModeCredit,
		Label:            "Credit/Usage Based",
		Columns:          creditColumns,
		Weights:          []float64{0.27, 0.33, 0.20, 0.20},
		Products:         []string{ProductWarehouseNative, ProductPlatformFee},
		RequiredProducts: []string{ProductWarehouseNative, ProductPlatformFee},
		Experimentation:  []string{ProductExperimentation, ProductWNAnalysisOnly, ProductWNAnalysisAssign},
		Rate:             RateRule{Services: []string{ProductWarehouseNative}, Scale: 1, Decimals: 4},
		Rules:            []Rule{feeRule, creditsRule},
	},
}

// LookupMode returns the configuration record of m.
func LookupMode(m PricingMode) (ModeConfig, error) {
	cfg, ok := modes[m]
	if !ok {
		return ModeConfig{}, fmt.Errorf("%w: %q", ErrUnknownPricingMode, string(m))
	}
	return cfg, nil
}

// Modes returns the configured pricing modes in display order.
func Modes() []PricingMode {
	return []PricingMode{ModeCloud, ModeWarehouseNative, ModeCredit}
}

// DefaultUnit is the unit a freshly added row starts with.
func DefaultUnit(service string) string {
	switch service {
	case ProductExperimentation:
		return defaultUnitExperiments
	case ProductSessionReplay:
		return defaultUnitSessionReplay
	}
	return "N/A"
}

// DefaultUsage is the usage commitment a freshly added row starts with:
// empty for experimentation services, "N/A" for everything else.
func DefaultUsage(service string) string {
	switch service {
	case ProductExperimentation, ProductWNAnalysisOnly, ProductWNAnalysisAssign:
		return ""
	}
	return "N/A"
}
