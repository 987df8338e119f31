package layout

import (
	"reflect"
	"testing"
)

func TestParseMarkdown_Links(t *testing.T) {
	src := "This Order Form is subject to the [Enterprise Subscription Agreement](https://www.statsig.com/enterprise-terms) " +
		"and [Data Processing Addendum](https://statsig.com/legal/online-dpa) (together, the“MSA”) governing Customer’s use of the Services described herein."

	paras := ParseMarkdown(src)
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	want := []Segment{
		{Text: "This Order Form is subject to the "},
		{Text: "Enterprise Subscription Agreement", Link: "https://www.statsig.com/enterprise-terms"},
		{Text: " and "},
		{Text: "Data Processing Addendum", Link: "https://statsig.com/legal/online-dpa"},
		{Text: " (together, the“MSA”) governing Customer’s use of the Services described herein."},
	}
	if !reflect.DeepEqual(paras[0], want) {
		t.Fatalf("segments =\n%+v\nwant\n%+v", paras[0], want)
	}
}

func TestParseMarkdown_Linkify(t *testing.T) {
	paras := ParseMarkdown("For information on Statsig support, refer to https://docs.statsig.com/support-options")
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	segs := paras[0]
	last := segs[len(segs)-1]
	if last.Link != "https://docs.statsig.com/support-options" || last.Text != "https://docs.statsig.com/support-options" {
		t.Fatalf("bare URL not linked: %+v", segs)
	}
	if got := PlainText(segs); got != "For information on Statsig support, refer to https://docs.statsig.com/support-options" {
		t.Fatalf("PlainText = %q", got)
	}
}

func TestParseMarkdown_Blocks(t *testing.T) {
	src := "# Usage\n\nFirst *paragraph* text\ncontinues here.\n\n- one\n- two\n"
	paras := ParseMarkdown(src)
	var got []string
	for _, p := range paras {
		got = append(got, PlainText(p))
	}
	want := []string{"Usage", "First paragraph text continues here.", "• one", "• two"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("paragraphs = %q, want %q", got, want)
	}
}

func TestParseHTML(t *testing.T) {
	src := `<p>See <a href="https://example.com/terms">the
	terms</a> now.</p><ul><li>One</li>
	<li>Two <b>bold</b></li></ul><p>line<br>break</p><script>ignored()</script>`

	paras, err := ParseHTML(src)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if len(paras) != 5 {
		t.Fatalf("expected 5 paragraphs, got %d: %+v", len(paras), paras)
	}
	want := []Segment{
		{Text: "See "},
		{Text: "the terms", Link: "https://example.com/terms"},
		{Text: " now."},
	}
	if !reflect.DeepEqual(paras[0], want) {
		t.Fatalf("first paragraph = %+v, want %+v", paras[0], want)
	}
	var got []string
	for _, p := range paras[1:] {
		got = append(got, PlainText(p))
	}
	if !reflect.DeepEqual(got, []string{"• One", "• Two bold", "line", "break"}) {
		t.Fatalf("paragraphs = %q", got)
	}
}
