package fonts_test

import (
	"testing"

	"github.com/go-text/typesetting/language"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/orderkit/fonts"
)

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"Latin", "Acme Corporation", language.Latin},
		{"Cyrillic", "Привет мир", language.Cyrillic},
		{"Greek", "Γειά σου Κόσμε", language.Greek},
		{"Mixed Latin dominant", "Hello World Привет", language.Latin},
		{"Han", "你好世界", language.Han},
		{"Digits only", "2026", language.Latin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fonts.DetectScript([]rune(tc.input)); got != tc.expect {
				t.Errorf("Expected %v, got %v", tc.expect, got)
			}
		})
	}
}

func TestNeedsUnicodeFont(t *testing.T) {
	if fonts.NeedsUnicodeFont("Café Zürich, 10/01/2026") {
		t.Errorf("Latin text with accents should not need a Unicode font")
	}
	if !fonts.NeedsUnicodeFont("ООО Ромашка") {
		t.Errorf("Cyrillic text should need a Unicode font")
	}
}

func TestCovers(t *testing.T) {
	tt, err := fonts.LoadTrueType("GoRegular", goregular.TTF)
	if err != nil {
		t.Fatalf("LoadTrueType: %v", err)
	}
	tests := []struct {
		text string
		want bool
	}{
		{"Acme Corp", true},
		{"1 Main St\nSpringfield", true},
		{"ООО Ромашка", true},
		{"你好", false},
		{"Acme 株式会社", false},
	}
	for _, tc := range tests {
		if got := tt.Covers(tc.text); got != tc.want {
			t.Errorf("Covers(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
	if (&fonts.TrueType{Data: []byte("not a font")}).Covers("A") {
		t.Errorf("unparseable font reported as covering text")
	}
}
