package fonts

import (
	"bytes"
	"fmt"
	"unicode"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
)

// RequiredRunes are the characters every order form font must provide:
// printable ASCII, which covers labels, dates, amounts and URLs.
var RequiredRunes = func() []rune {
	rs := make([]rune, 0, 0x7e-0x20+1)
	for r := rune(0x20); r <= 0x7e; r++ {
		rs = append(rs, r)
	}
	return rs
}()

// MissingGlyphs parses data with go-text and reports which of runes have no
// glyph in the font's cmap. Whitespace is never reported missing.
func MissingGlyphs(data []byte, runes []rune) ([]rune, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse face: %w", err)
	}
	var missing []rune
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := face.NominalGlyph(r); !ok {
			missing = append(missing, r)
		}
	}
	return missing, nil
}

// Covers reports whether the font can draw every rune of text.
func (t *TrueType) Covers(text string) bool {
	missing, err := MissingGlyphs(t.Data, []rune(text))
	return err == nil && len(missing) == 0
}

// DetectScript returns the dominant script of runes, defaulting to Latin.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	bestScript := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			bestScript = script
		}
	}
	return bestScript
}

// NeedsUnicodeFont reports whether text leaves the Latin script, which the
// built-in cp1252 fonts cannot draw.
func NeedsUnicodeFont(text string) bool {
	for _, r := range text {
		s := scriptFromRune(r)
		if s != language.Unknown && s != language.Latin {
			return true
		}
	}
	return false
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Devanagari, r):
		return language.Devanagari
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
