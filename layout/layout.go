// Package layout places order-form content onto fixed-size pages: greedy
// word wrapping, hyperlinked rich text, the merged-period services table and
// the page flow controller that keeps atomic units off page boundaries.
package layout

import (
	"io"
	"strings"

	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/observability"
)

// FlowState is the state of the page flow controller.
type FlowState int

const (
	// StateDrawing is the steady state: content is drawn on the current page.
	StateDrawing FlowState = iota
	// StatePaginating is held only while a page transition is in progress.
	StatePaginating
)

func (s FlowState) String() string {
	if s == StatePaginating {
		return "paginating"
	}
	return "drawing"
}

// Margins defines page margins in points. Top applies to continuation
// pages; the first page is laid out from absolute positions.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// DefaultMargins are the order form margins.
var DefaultMargins = Margins{Top: 56, Bottom: 40, Left: 36, Right: 36}

// Cursor is the current page index and vertical position.
type Cursor struct {
	Page int
	Y    float64
}

// Flow tracks the vertical cursor over a canvas and starts new pages when
// content would cross the bottom margin.
type Flow struct {
	c builder.Canvas

	// Configuration
	DefaultFont     string
	DefaultFontSize float64
	DefaultColor    builder.Color
	LinkColor       builder.Color
	Margins         Margins

	log observability.Logger

	// State
	y          float64
	state      FlowState
	breaks     int
	pageWidth  float64
	pageHeight float64
}

// Option defines a configuration option for the Flow.
type Option func(*Flow)

// WithDefaultFont sets the font restored after every page break.
func WithDefaultFont(font string, size float64) Option {
	return func(f *Flow) {
		f.DefaultFont = font
		f.DefaultFontSize = size
	}
}

// WithMargins sets the page margins.
func WithMargins(margins Margins) Option {
	return func(f *Flow) {
		f.Margins = margins
	}
}

// WithLinkColor sets the colour of hyperlinked text.
func WithLinkColor(c builder.Color) Option {
	return func(f *Flow) {
		f.LinkColor = c
	}
}

// WithLogger sets the logger used for page break events.
func WithLogger(l observability.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFlow creates a flow controller over c with the cursor at the top
// margin of the current page.
func NewFlow(c builder.Canvas, opts ...Option) *Flow {
	w, h := c.PageSize()
	f := &Flow{
		c:               c,
		DefaultFont:     builder.Helvetica,
		DefaultFontSize: 10,
		DefaultColor:    builder.Black,
		LinkColor:       builder.Hex("#194b7d"),
		Margins:         DefaultMargins,
		log:             observability.NopLogger{},
		pageWidth:       w,
		pageHeight:      h,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.y = f.TopY()
	return f
}

// Canvas returns the underlying drawing surface.
func (f *Flow) Canvas() builder.Canvas { return f.c }

// PageWidth returns the page width in points.
func (f *Flow) PageWidth() float64 { return f.pageWidth }

// PageHeight returns the page height in points.
func (f *Flow) PageHeight() float64 { return f.pageHeight }

// Left is the x of the left margin.
func (f *Flow) Left() float64 { return f.Margins.Left }

// Right is the x of the right margin.
func (f *Flow) Right() float64 { return f.pageWidth - f.Margins.Right }

// ContentWidth is the width between the margins.
func (f *Flow) ContentWidth() float64 { return f.Right() - f.Left() }

// TopY is the cursor position at the top of a continuation page.
func (f *Flow) TopY() float64 { return f.pageHeight - f.Margins.Top }

// Y returns the vertical cursor.
func (f *Flow) Y() float64 { return f.y }

// SetY moves the vertical cursor.
func (f *Flow) SetY(y float64) { f.y = y }

// Advance moves the cursor down by dy.
func (f *Flow) Advance(dy float64) { f.y -= dy }

// Cursor returns the current page and vertical position.
func (f *Flow) Cursor() Cursor {
	return Cursor{Page: f.c.PageNumber(), Y: f.y}
}

// Remaining is the space left above the bottom margin.
func (f *Flow) Remaining() float64 { return f.y - f.Margins.Bottom }

// State returns the controller state.
func (f *Flow) State() FlowState { return f.state }

// Breaks returns the number of page transitions so far.
func (f *Flow) Breaks() int { return f.breaks }

// EnsureSpace starts a new page when fewer than h points remain above the
// bottom margin. It reports whether a page break happened.
func (f *Flow) EnsureSpace(h float64) bool {
	if f.Remaining() >= h {
		return false
	}
	f.pageBreak(h)
	return true
}

// pageBreak finishes the current page, resets the cursor to the top margin
// and restores the default graphics state, which does not survive a page
// break on the canvas.
func (f *Flow) pageBreak(required float64) {
	f.state = StatePaginating
	from := f.c.PageNumber()
	f.c.ShowPage()
	f.y = f.TopY()
	f.ResetGraphics()
	f.breaks++
	f.state = StateDrawing
	f.log.Debug("page break",
		observability.Int("from_page", from),
		observability.Int("to_page", f.c.PageNumber()),
		observability.Float64("required", required),
	)
}

// ResetGraphics restores the default font and colours.
func (f *Flow) ResetGraphics() {
	f.c.SetFont(f.DefaultFont, f.DefaultFontSize)
	f.c.SetFillColor(f.DefaultColor)
	f.c.SetStrokeColor(f.DefaultColor)
}

// AtTop reports whether the cursor sits at the top of a continuation page.
func (f *Flow) AtTop() bool { return f.y == f.TopY() && f.c.PageNumber() > 1 }

// Finish finalises the last page and writes the document.
func (f *Flow) Finish(w io.Writer) error {
	return f.c.Finish(w)
}

// Text draws a single line at the cursor without moving it.
func (f *Flow) Text(text string, x float64, align builder.HAlign) {
	f.c.DrawText(text, x, f.y, align)
}

// Rule draws a horizontal line across the content width at the cursor.
func (f *Flow) Rule(c builder.Color) {
	f.c.SetStrokeColor(c)
	f.c.DrawLine(f.Left(), f.y, f.Right(), f.y)
}

// WriteLines draws lines at x, one per lineHeight. Each line is
// space-checked on its own so long blocks may span pages.
func (f *Flow) WriteLines(lines []string, x, lineHeight float64) {
	for _, line := range lines {
		f.EnsureSpace(lineHeight)
		f.c.DrawText(line, x, f.y, builder.HAlignLeft)
		f.y -= lineHeight
	}
}

// ParagraphStyle configures WriteParagraphs.
type ParagraphStyle struct {
	Font       string
	Size       float64
	LineHeight float64
	// BlankGap is the space taken by an empty paragraph.
	BlankGap float64
}

// WriteParagraphs flows newline-separated paragraphs across the content
// width. Blank paragraphs advance the cursor by BlankGap.
func (f *Flow) WriteParagraphs(text string, style ParagraphStyle) {
	font := style.Font
	if font == "" {
		font = f.DefaultFont
	}
	f.c.SetFont(font, style.Size)
	for _, para := range SplitLines(text) {
		if strings.TrimSpace(para) == "" {
			f.y -= style.BlankGap
			continue
		}
		lines := Wrap(para, f.ContentWidth(), f.c, font, style.Size)
		for _, line := range lines {
			if f.EnsureSpace(style.LineHeight) {
				f.c.SetFont(font, style.Size)
			}
			f.c.DrawText(line, f.Left(), f.y, builder.HAlignLeft)
			f.y -= style.LineHeight
		}
	}
}

