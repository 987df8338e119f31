package layout

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/wudi/orderkit/builder"
)

// Segment is a run of text with an optional hyperlink target.
type Segment struct {
	Text string
	Link string
}

// Token is a whitespace-delimited run of a segment, including its trailing
// whitespace, tagged with the segment's link.
type Token struct {
	Text string
	Link string
}

// Placement is a token as drawn.
type Placement struct {
	Token
	Page  int
	X, Y  float64
	Width float64
}

var tokenPattern = regexp.MustCompile(`\S+\s*`)

// Tokenize explodes segments into tokens, keeping each token's link.
// Whitespace leading a segment is appended to the previous token so that
// the gap between segments is kept.
func Tokenize(segments []Segment) []Token {
	var tokens []Token
	for _, seg := range segments {
		trimmed := strings.TrimLeftFunc(seg.Text, unicode.IsSpace)
		if lead := seg.Text[:len(seg.Text)-len(trimmed)]; lead != "" && len(tokens) > 0 {
			tokens[len(tokens)-1].Text += lead
		}
		for _, run := range tokenPattern.FindAllString(trimmed, -1) {
			tokens = append(tokens, Token{Text: run, Link: seg.Link})
		}
	}
	return tokens
}

// RichOptions configures RenderRichText. Zero Left/Right use the page
// margins.
type RichOptions struct {
	Font       string
	Size       float64
	LineHeight float64
	Left       float64
	Right      float64
}

func (f *Flow) richDefaults(opts RichOptions) RichOptions {
	if opts.Font == "" {
		opts.Font = f.DefaultFont
	}
	if opts.Size == 0 {
		opts.Size = f.DefaultFontSize
	}
	if opts.LineHeight == 0 {
		opts.LineHeight = opts.Size * 1.2
	}
	if opts.Left == 0 {
		opts.Left = f.Left()
	}
	if opts.Right == 0 {
		opts.Right = f.Right()
	}
	return opts
}

// RenderRichText lays segments out left to right from the cursor's line,
// wrapping to the left edge when a token does not fit before the right edge.
// Each wrapped line is space-checked, so a paragraph may continue on the
// next page. Linked tokens are drawn in the link colour and registered as
// clickable regions. The cursor is left on the last line's baseline.
func (f *Flow) RenderRichText(segments []Segment, opts RichOptions) []Placement {
	opts = f.richDefaults(opts)
	tokens := Tokenize(segments)
	placements := make([]Placement, 0, len(tokens))

	f.c.SetFont(opts.Font, opts.Size)
	x := opts.Left
	for _, tok := range tokens {
		w := f.c.MeasureText(tok.Text, opts.Size, opts.Font)
		if x+w > opts.Right && x > opts.Left {
			f.y -= opts.LineHeight
			if f.EnsureSpace(opts.LineHeight) {
				f.c.SetFont(opts.Font, opts.Size)
			}
			x = opts.Left
		}

		if tok.Link != "" {
			f.c.SetFillColor(f.LinkColor)
			f.c.DrawText(tok.Text, x, f.y, builder.HAlignLeft)
			f.c.LinkURL(tok.Link, builder.Rect{LLX: x, LLY: f.y - 1, URX: x + w, URY: f.y + opts.Size})
		} else {
			f.c.SetFillColor(f.DefaultColor)
			f.c.DrawText(tok.Text, x, f.y, builder.HAlignLeft)
		}
		placements = append(placements, Placement{
			Token: tok,
			Page:  f.c.PageNumber(),
			X:     x,
			Y:     f.y,
			Width: w,
		})
		x += w
	}
	f.c.SetFillColor(f.DefaultColor)
	return placements
}

// RenderRichParagraphs renders each paragraph with RenderRichText, moving
// down one line plus gap between paragraphs. The cursor ends one line below
// the last paragraph.
func (f *Flow) RenderRichParagraphs(paragraphs [][]Segment, opts RichOptions, gap float64) []Placement {
	opts = f.richDefaults(opts)
	var all []Placement
	for i, para := range paragraphs {
		if i > 0 {
			f.y -= gap
		}
		f.EnsureSpace(opts.LineHeight)
		all = append(all, f.RenderRichText(para, opts)...)
		f.y -= opts.LineHeight
	}
	return all
}
