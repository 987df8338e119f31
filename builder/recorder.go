package builder

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// OpKind identifies a recorded drawing operation.
type OpKind string

const (
	OpText  OpKind = "text"
	OpLine  OpKind = "line"
	OpRect  OpKind = "rect"
	OpImage OpKind = "image"
	OpLink  OpKind = "link"
	OpPage  OpKind = "page"
)

// Op is one drawing call captured by a Recorder, tagged with the page it
// landed on and the graphics state in effect.
type Op struct {
	Kind     OpKind
	Page     int
	Text     string
	Align    HAlign
	X, Y     float64
	X2, Y2   float64
	W, H     float64
	Font     string
	FontSize float64
	Fill     Color
	Stroke   Color
	Rect     RectOptions
	URL      string
	Image    string
}

// Recorder is an in-memory Canvas. Text width is approximated as half the
// font size per rune, which keeps layout deterministic without font files.
type Recorder struct {
	Size  PaperSize
	Ops   []Op
	Fonts map[string][]byte

	page     int
	font     string
	fontSize float64
	fill     Color
	stroke   Color
}

// NewRecorder returns a recorder positioned on page 1.
func NewRecorder(size PaperSize) *Recorder {
	return &Recorder{
		Size:     size,
		Fonts:    make(map[string][]byte),
		page:     1,
		font:     Helvetica,
		fontSize: 10,
	}
}

// RecorderFactory adapts NewRecorder to Factory and keeps every canvas it
// creates in *sink so tests can inspect them.
func RecorderFactory(sink *[]*Recorder) Factory {
	return func(size PaperSize) Canvas {
		r := NewRecorder(size)
		if sink != nil {
			*sink = append(*sink, r)
		}
		return r
	}
}

func (r *Recorder) PageSize() (float64, float64) { return r.Size.Width, r.Size.Height }

func (r *Recorder) PageNumber() int { return r.page }

func (r *Recorder) ShowPage() {
	r.page++
	r.Ops = append(r.Ops, Op{Kind: OpPage, Page: r.page})
}

func (r *Recorder) SetFont(name string, size float64) { r.font, r.fontSize = name, size }

func (r *Recorder) SetFillColor(c Color) { r.fill = c }

func (r *Recorder) SetStrokeColor(c Color) { r.stroke = c }

func (r *Recorder) DrawText(text string, x, y float64, align HAlign) {
	r.record(Op{Kind: OpText, Text: text, X: x, Y: y, Align: align})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2 float64) {
	r.record(Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2})
}

func (r *Recorder) DrawRectangle(x, y, width, height float64, opts RectOptions) {
	r.record(Op{Kind: OpRect, X: x, Y: y, W: width, H: height, Rect: opts})
}

func (r *Recorder) DrawImage(img *Image, x, y, width, height float64) {
	if img == nil {
		return
	}
	r.record(Op{Kind: OpImage, Image: img.Name, X: x, Y: y, W: width, H: height})
}

func (r *Recorder) LinkURL(url string, rect Rect) {
	r.record(Op{Kind: OpLink, URL: url, X: rect.LLX, Y: rect.LLY, W: rect.Width(), H: rect.Height()})
}

func (r *Recorder) MeasureText(text string, fontSize float64, _ string) float64 {
	return float64(utf8.RuneCountInString(text)) * fontSize * 0.5
}

func (r *Recorder) RegisterTrueTypeFont(name string, data []byte) error {
	if _, ok := r.Fonts[name]; ok {
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("register %s: empty font data", name)
	}
	r.Fonts[name] = data
	return nil
}

// Finish writes one line per recorded operation.
func (r *Recorder) Finish(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "pages %d\n", r.page); err != nil {
		return err
	}
	for _, op := range r.Ops {
		if _, err := fmt.Fprintf(w, "%d %s %q %.2f %.2f\n", op.Page, op.Kind, op.Text, op.X, op.Y); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) record(op Op) {
	op.Page = r.page
	op.Font = r.font
	op.FontSize = r.fontSize
	op.Fill = r.fill
	op.Stroke = r.stroke
	r.Ops = append(r.Ops, op)
}

// Filter returns the recorded operations of the given kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// TextCount reports how many times text was drawn verbatim.
func (r *Recorder) TextCount(text string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == OpText && op.Text == text {
			n++
		}
	}
	return n
}
