package order

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Rule is a row validation rule. Expr is a CEL expression over the row
// variables service, usage, fee and experimentation; the row fails the rule
// when Expr evaluates to false. fee has "$" and "," removed.
type Rule struct {
	Name    string
	Expr    string
	Message string
}

const (
	wholePattern   = `r'^,*[0-9][0-9,]*$'`
	numericPattern = `r'^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$'`
)

var (
	feeRule = Rule{
		Name:    "fee_numeric",
		Expr:    `fee.matches(` + numericPattern + `)`,
		Message: "Annual Service Fee is required and must be numeric.",
	}
	creditsRule = Rule{
		Name:    "credits_whole",
		Expr:    `usage.matches(` + wholePattern + `)`,
		Message: "Credits must be a whole number.",
	}
	commitmentRule = Rule{
		Name:    "commitment_whole",
		Expr:    `!experimentation || usage.matches(` + wholePattern + `)`,
		Message: "Annual Usage Commitment must be a whole number.",
	}
	notApplicableRule = Rule{
		Name:    "commitment_not_applicable",
		Expr:    `experimentation || usage.matches(r'^(?i)n/a$')`,
		Message: "Annual Usage Commitment must be N/A for non-experimentation products.",
	}
)

// Validator checks raw wizard rows against the CEL rules of their pricing
// mode. It is safe for concurrent use.
type Validator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewValidator compiles the rules of every configured pricing mode.
func NewValidator() (*Validator, error) {
	env, err := cel.NewEnv(
		cel.Variable("service", cel.StringType),
		cel.Variable("usage", cel.StringType),
		cel.Variable("fee", cel.StringType),
		cel.Variable("experimentation", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	v := &Validator{env: env, programs: make(map[string]cel.Program)}
	for _, m := range Modes() {
		cfg, _ := LookupMode(m)
		for _, r := range cfg.Rules {
			if err := v.compile(r); err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Name, err)
			}
		}
	}
	return v, nil
}

func (v *Validator) compile(r Rule) error {
	v.mu.RLock()
	_, ok := v.programs[r.Name]
	v.mu.RUnlock()
	if ok {
		return nil
	}
	ast, issues := v.env.Compile(r.Expr)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}
	prog, err := v.env.Program(ast, cel.CostLimit(100000))
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}
	v.mu.Lock()
	v.programs[r.Name] = prog
	v.mu.Unlock()
	return nil
}

// Validate returns one message per failed check, numbered from 1 in row
// order. Rows without a service report only the missing service.
func (v *Validator) Validate(mode PricingMode, rows []RowInput) ([]string, error) {
	cfg, err := LookupMode(mode)
	if err != nil {
		return nil, err
	}
	var errs []string
	for i, row := range rows {
		idx := i + 1
		service := strings.TrimSpace(row.Service)
		if service == "" {
			errs = append(errs, fmt.Sprintf("Row %d: Service is required.", idx))
			continue
		}
		facts := map[string]any{
			"service":         service,
			"usage":           strings.TrimSpace(row.UsageCommitment),
			"fee":             strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(row.AnnualFee)),
			"experimentation": cfg.IsExperimentation(service),
		}
		for _, r := range cfg.Rules {
			ok, err := v.eval(r, facts)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s on row %d: %w", r.Name, idx, err)
			}
			if !ok {
				errs = append(errs, fmt.Sprintf("Row %d (%s): %s", idx, service, r.Message))
			}
		}
	}
	return errs, nil
}

// ValidateItems validates already normalised line items.
func (v *Validator) ValidateItems(mode PricingMode, items []LineItem) ([]string, error) {
	rows := make([]RowInput, len(items))
	for i, li := range items {
		rows[i] = RowFromItem(li)
	}
	return v.Validate(mode, rows)
}

func (v *Validator) eval(r Rule, facts map[string]any) (bool, error) {
	if err := v.compile(r); err != nil {
		return false, err
	}
	v.mu.RLock()
	prog := v.programs[r.Name]
	v.mu.RUnlock()
	out, _, err := prog.Eval(facts)
	if err != nil {
		return false, err
	}
	ok, _ := out.Value().(bool)
	return ok, nil
}

// RowFromItem turns a line item back into raw row text.
func RowFromItem(li LineItem) RowInput {
	return RowInput{
		Period:          li.Period,
		Service:         li.Label,
		UsageCommitment: li.UsageCommitment,
		Unit:            li.Unit,
		AnnualFee:       fmt.Sprintf("%.2f", li.AnnualFee),
	}
}
