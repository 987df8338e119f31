package order

import (
	"strconv"
	"strings"
)

// RateNotApplicable is the excess rate when no rate can be derived.
const RateNotApplicable = "N/A"

// ExcessUsageRate derives the per-unit overage rate from the mode's rate
// rule. It returns RateNotApplicable when the mode is unknown, no matching
// row exists or its usage commitment is not a positive whole number.
func ExcessUsageRate(items []LineItem, mode PricingMode) string {
	cfg, err := LookupMode(mode)
	if err != nil {
		return RateNotApplicable
	}
	var row *LineItem
	for _, service := range cfg.Rate.Services {
		if row = findItem(items, service); row != nil {
			break
		}
	}
	if row == nil {
		return RateNotApplicable
	}
	usage := ParseWhole(row.UsageCommitment)
	if usage <= 0 {
		return RateNotApplicable
	}
	rate := row.AnnualFee / float64(usage) * cfg.Rate.Scale
	return strconv.FormatFloat(rate, 'f', cfg.Rate.Decimals, 64)
}

func findItem(items []LineItem, service string) *LineItem {
	for i := range items {
		if strings.TrimSpace(items[i].Label) == service {
			return &items[i]
		}
	}
	return nil
}

const sessionReplayTerm = "Customer will have access to 50,000 recorded user sessions on a rolling 30-day basis, for a total " +
	"of 600,000 during the Paid Subscription Term. New sessions above 50,000 in a 30-day window will not " +
	"be recorded or stored. Customer can control session recording frequency by adjusting sample rate."

const cloudFeatureGatesTerm = "Customer may use up to 100,000,000,000 non-analytic Feature Gate and config checks through all " +
	"server and client-side SDKs during each subscription period."

const cloudExperimentationTerm = "Customer has access to the number of billable events specified in the table above during the " +
	"applicable subscription period (\"Annual Usage Commitment\"). Unused billable events expire at the " +
	"end of the applicable subscription period and cannot be rolled over to a future subscription period.\n\n" +
	"Statsig records a billable event when Customer's application uses Statsig SDKs or APIs to check " +
	"the value of an experiment, analytics-enabled gate, or layer. Statsig deduplicates exposure events " +
	"for identical users and features or experiments within each hour on a client-side SDK and within " +
	"each minute on a server-side SDK.\n\n" +
	"Statsig also records a billable event each time Customer logs an event to Statsig via Statsig SDKs, " +
	"ingests a metric, or computes a custom metric. Customer can add one event dimension for each logged " +
	"event, without incurring an additional billable event. For every additional dimension added, an extra " +
	"log event will be recorded.\n\n" +
	"Checks for experiments that result in no allocation (i.e., if the experiment hasn't commenced or has " +
	"concluded) or Feature Gates that are deactivated (i.e., fully launched or discarded without any rule " +
	"evaluation) do not generate billable events.\n\n" +
	"Customer may use up to 100,000,000,000 non-analytic Feature Gate and config checks through all server " +
	"and client-side SDKs during each subscription period.\n\n" +
	"If Customer exceeds the Annual Usage Commitment during the applicable subscription period, Customer " +
	"shall be invoiced monthly in arrears for any excess usage at a rate of {rate} per " +
	"1,000 billable events."

const wnAnalysisAssignmentTerm = "If Customer has access to the number of experiments specified in the table above during the " +
	"applicable subscription period (\"Annual Usage Commitment\"). Unused experiments expire at the end " +
	"of the applicable subscription period and cannot be rolled over to a future subscription period.\n\n" +
	"Experiment is defined as an experiment or a feature rollout that results in metric lifts being " +
	"computed. Feature rollouts configured to not compute metric lifts are not counted as experiments. " +
	"The same experiment being restarted is not counted as a new experiment.\n\n" +
	"Customer may use up to 100,000,000,000 Feature Gate checks through all server and client-side SDKs. " +
	"Customers may also forward up to 100,000,000,000 exposures to their data warehouse using Statsig's SDKs.\n\n" +
	"If Customer exceeds the Annual Usage Commitment during the applicable subscription period, Customer " +
	"shall be invoiced monthly in arrears for any excess usage at a rate of {rate} per experiment."

const wnAnalysisOnlyTerm = "Customer has access to the number of experiments specified in the table above during the applicable " +
	"subscription period (\"Annual Usage Commitment\"). Unused experiments expire at the end of the " +
	"applicable subscription period and cannot be rolled over to a future subscription period.\n\n" +
	"Experiment is defined as an experiment or a feature rollout that results in metric lifts being computed. " +
	"Feature rollouts configured to not compute metric lifts are not counted as experiments. The same " +
	"experiment being restarted is not counted as a new experiment.\n\n" +
	"If Customer exceeds the Annual Usage Commitment during the applicable subscription period, Customer " +
	"shall be invoiced monthly in arrears for any excess usage at a rate of {rate} per experiment."

// UsageTerms builds the usage terms paragraph text for the selected
// products. Paragraphs are separated by blank lines. The rate is shown as
// currency; RateNotApplicable renders as $0.00. Credit mode has no
// generated terms.
func UsageTerms(mode PricingMode, products []string, rate string) string {
	selected := make(map[string]bool, len(products))
	for _, p := range products {
		selected[p] = true
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if selected[n] {
				return true
			}
		}
		return false
	}

	var base string
	switch mode {
	case ModeCloud:
		hasExperimentation := has(ProductExperimentation, ProductWNAnalysisOnly, ProductWNAnalysisAssign)
		switch {
		case selected[ProductFeatureGates] && hasExperimentation:
			base = cloudExperimentationTerm
		case selected[ProductFeatureGates]:
			base = cloudFeatureGatesTerm
		}
	case ModeWarehouseNative:
		switch {
		case has(ProductWNAnalysisAssign, legacyWNAnalysisAssign):
			base = wnAnalysisAssignmentTerm
		case has(ProductWNAnalysisOnly, legacyWNAnalysisOnly):
			base = wnAnalysisOnlyTerm
		}
	default:
		return ""
	}

	base = strings.ReplaceAll(base, "{rate}", FormatMoney(ParseMoney(rate)))
	if selected[ProductSessionReplay] {
		if base == "" {
			return sessionReplayTerm
		}
		return base + "\n\n" + sessionReplayTerm
	}
	return base
}
