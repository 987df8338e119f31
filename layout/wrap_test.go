package layout

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/fonts"
)

func TestWrap(t *testing.T) {
	m := builder.NewRecorder(builder.Letter)
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"empty", "", 100, []string{""}},
		{"whitespace only", "  \t ", 100, []string{""}},
		{"fits exactly", "aaaa bbbb", 45, []string{"aaaa bbbb"}},
		{"greedy", "aaaa bbbb cccc", 45, []string{"aaaa bbbb", "cccc"}},
		{"collapses spaces", "  one   two  ", 100, []string{"one two"}},
		{"over-wide word", "supercalifragilistic x", 30, []string{"supercalifragilistic", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width, m, builder.Helvetica, 10)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Wrap(%q, %v) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

var wrapCorpus = []string{
	"The pricing and terms in this Order Form are Statsig, LLC's Proprietary Information. All fees are in U.S. dollars and exclude all taxes.",
	"Customer may use up to 100,000,000,000 non-analytic Feature Gate and config checks through all server and client-side SDKs during each subscription period.",
	"Experimentation: Analysis + Assignment",
	"a bb ccc dddd eeeee ffffff ggggggg hhhhhhhh iiiiiiiii jjjjjjjjjj",
	"https://docs.statsig.com/support-options is a long unbreakable token",
}

func wrapMeasurers(t *testing.T) map[string]Measurer {
	t.Helper()
	tt, err := fonts.LoadTrueType("GoRegular", goregular.TTF)
	if err != nil {
		t.Fatalf("LoadTrueType: %v", err)
	}
	return map[string]Measurer{
		"recorder": builder.NewRecorder(builder.Letter),
		"truetype": tt,
		"fpdf":     builder.NewFPDF(builder.Letter),
	}
}

func TestWrap_WidthInvariant(t *testing.T) {
	for name, m := range wrapMeasurers(t) {
		for _, width := range []float64{40, 95.4, 116.2, 200, 540} {
			for _, text := range wrapCorpus {
				for _, line := range Wrap(text, width, m, builder.Helvetica, 10) {
					if w := m.MeasureText(line, 10, builder.Helvetica); w > width && strings.Contains(line, " ") {
						t.Errorf("%s: line %q is %.2f wide, limit %.2f", name, line, w, width)
					}
				}
			}
		}
	}
}

func TestWrap_Idempotent(t *testing.T) {
	for name, m := range wrapMeasurers(t) {
		for _, width := range []float64{40, 95.4, 116.2, 200, 540} {
			for _, text := range wrapCorpus {
				lines := Wrap(text, width, m, builder.Helvetica, 10)
				again := Wrap(strings.Join(lines, " "), width, m, builder.Helvetica, 10)
				if !reflect.DeepEqual(lines, again) {
					t.Errorf("%s width %v: rewrap changed lines\n%q\n%q", name, width, lines, again)
				}
				for _, line := range lines {
					if got := Wrap(line, width, m, builder.Helvetica, 10); len(got) != 1 || got[0] != line {
						t.Errorf("%s width %v: line %q splits further into %q", name, width, line, got)
					}
				}
			}
		}
	}
}

func TestWrapLines(t *testing.T) {
	m := builder.NewRecorder(builder.Letter)
	got := WrapLines("123 Main St\n\nSpringfield, IL 62701", 60, m, builder.Helvetica, 10)
	want := []string{"123 Main St", "", "Springfield,", "IL 62701"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WrapLines = %q, want %q", got, want)
	}
	if got := SplitLines(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("SplitLines(\"\") = %q", got)
	}
}
