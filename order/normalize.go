package order

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var wholeNumber = regexp.MustCompile(`^\d+$`)

// ParseMoney parses "$1,234.50"-style text. Anything unparsable, negative or
// non-finite yields 0.
func ParseMoney(s string) float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// IsNumericAmount reports whether s parses as an amount.
func IsNumericAmount(s string) bool {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if cleaned == "" {
		return false
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

// ParseWhole parses a thousands-separated whole number, returning 0 for
// anything else.
func ParseWhole(s string) int64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if !wholeNumber.MatchString(cleaned) {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// IsWholeNumber reports whether s is a thousands-separated whole number.
func IsWholeNumber(s string) bool {
	return wholeNumber.MatchString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
}

// FormatMoney renders v as US currency with thousands separators and two
// decimals, e.g. "$1,299.75".
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	p := message.NewPrinter(language.AmericanEnglish)
	if v < 0 {
		return "-$" + p.Sprintf("%.2f", -v)
	}
	return "$" + p.Sprintf("%.2f", v)
}

// FormatWhole renders n with thousands separators.
func FormatWhole(n int64) string {
	return message.NewPrinter(language.AmericanEnglish).Sprintf("%d", n)
}

// FormatUsageCommitment normalises a usage commitment cell: "N/A" in any
// case becomes "N/A", whole numbers gain thousands separators, empty stays
// empty and other text is kept verbatim.
func FormatUsageCommitment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.EqualFold(raw, "N/A") {
		return "N/A"
	}
	n := ParseWhole(raw)
	if n <= 0 && raw != "0" && raw != "0.0" && raw != "0.00" {
		return raw
	}
	return FormatWhole(n)
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// ParseDate accepts ISO, US and slash-ISO dates. Empty or malformed input
// falls back to the first day of now's month.
func ParseDate(s string, now time.Time) time.Time {
	if t, ok := LookupDate(s); ok {
		return t
	}
	return FirstOfMonth(now)
}

// LookupDate parses s with the accepted layouts and reports whether one
// matched.
func LookupDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstOfMonth truncates t to midnight UTC on the first of its month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the first of the month months after t's month.
func AddMonths(t time.Time, months int) time.Time {
	idx := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(idx, 12)
	month := time.Month(idx-floorDiv(idx, 12)*12 + 1)
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EndDate is the last day of a term of termMonths (at least one) months
// starting on start's month.
func EndDate(start time.Time, termMonths int) time.Time {
	if termMonths < 1 {
		termMonths = 1
	}
	return AddMonths(FirstOfMonth(start), termMonths).AddDate(0, 0, -1)
}

// DefaultStartDate is the first day of the month after now.
func DefaultStartDate(now time.Time) time.Time {
	return AddMonths(FirstOfMonth(now), 1)
}

// DisplayDate formats t as MM/DD/YYYY.
func DisplayDate(t time.Time) string { return t.Format("01/02/2006") }

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
