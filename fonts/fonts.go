package fonts

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrEmptyFont is returned for zero-length font data.
	ErrEmptyFont = errors.New("truetype font data is empty")
	// ErrMissingGlyphs is returned when a font lacks glyphs the order form needs.
	ErrMissingGlyphs = errors.New("font is missing required glyphs")
)

// TrueType is a parsed TrueType/OpenType font ready for registration with a
// canvas. It also measures text with the font's own advance widths.
type TrueType struct {
	Name           string
	PostScriptName string
	Data           []byte
	UnitsPerEm     int
	ItalicAngle    float64

	font *sfnt.Font

	mu       sync.Mutex
	advances map[rune]float64 // in 1/1000 em
}

// LoadTrueType parses a TrueType/OpenType font, extracts basic metrics and
// verifies it can draw every rune in RequiredRunes.
func LoadTrueType(name string, data []byte) (*TrueType, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	if missing, err := MissingGlyphs(data, RequiredRunes); err != nil {
		return nil, err
	} else if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingGlyphs, string(missing))
	}

	buf := &sfnt.Buffer{}
	baseName := strings.TrimSpace(name)
	if ps, _ := font.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomTT"
	}
	if strings.TrimSpace(name) == "" {
		name = baseName
	}

	return &TrueType{
		Name:           name,
		PostScriptName: baseName,
		Data:           data,
		UnitsPerEm:     int(unitsPerEm),
		ItalicAngle:    italicAngle(font),
		font:           font,
		advances:       make(map[rune]float64),
	}, nil
}

// MeasureText returns the advance width of text at fontSize points. The
// font name argument is ignored; it exists to satisfy the layout measurer.
func (t *TrueType) MeasureText(text string, fontSize float64, _ string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total float64
	var buf sfnt.Buffer
	for _, r := range text {
		adv, ok := t.advances[r]
		if !ok {
			adv = t.advance(&buf, r)
			t.advances[r] = adv
		}
		total += adv
	}
	return total * fontSize / 1000
}

func (t *TrueType) advance(buf *sfnt.Buffer, r rune) float64 {
	gid, err := t.font.GlyphIndex(buf, r)
	if err != nil {
		return 0
	}
	ppem := fixed.Int26_6(t.UnitsPerEm << 6)
	adv, err := t.font.GlyphAdvance(buf, gid, ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return scaleFixed(adv, sfnt.Units(t.UnitsPerEm))
}

// Family names the fonts used for the three text styles of a document.
type Family struct {
	Regular string
	Bold    string
	Italic  string
}

// Builtin is the standard font family that needs no registration.
var Builtin = Family{
	Regular: "Helvetica",
	Bold:    "Helvetica-Bold",
	Italic:  "Helvetica-Oblique",
}

func italicAngle(font *sfnt.Font) float64 {
	post := font.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
