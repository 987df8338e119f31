package builder

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

type fontRef struct {
	family string
	style  string
	utf8   bool
}

var coreFonts = map[string]fontRef{
	Helvetica:            {family: "Helvetica"},
	HelveticaBold:        {family: "Helvetica", style: "B"},
	HelveticaOblique:     {family: "Helvetica", style: "I"},
	HelveticaBoldOblique: {family: "Helvetica", style: "BI"},
	"Times-Roman":        {family: "Times"},
	"Times-Bold":         {family: "Times", style: "B"},
	"Times-Italic":       {family: "Times", style: "I"},
	"Courier":            {family: "Courier"},
	"Courier-Bold":       {family: "Courier", style: "B"},
	"Courier-Oblique":    {family: "Courier", style: "I"},
}

// FPDF is a Canvas backed by github.com/go-pdf/fpdf.
type FPDF struct {
	pdf    *fpdf.Fpdf
	size   PaperSize
	fonts  map[string]fontRef
	images map[string]bool
	tr     func(string) string

	font     string
	fontSize float64
}

// FPDFOption configures an FPDF canvas.
type FPDFOption func(*fpdf.Fpdf)

// WithTitle sets the document title metadata.
func WithTitle(title string) FPDFOption {
	return func(p *fpdf.Fpdf) { p.SetTitle(title, true) }
}

// WithAuthor sets the document author metadata.
func WithAuthor(author string) FPDFOption {
	return func(p *fpdf.Fpdf) { p.SetAuthor(author, true) }
}

// WithCreationDate pins the creation and modification dates, making output reproducible.
func WithCreationDate(t time.Time) FPDFOption {
	return func(p *fpdf.Fpdf) {
		p.SetCreationDate(t)
		p.SetModificationDate(t)
		p.SetCatalogSort(true)
	}
}

// NewFPDF creates a canvas with one blank page of the given size.
func NewFPDF(size PaperSize, opts ...FPDFOption) *FPDF {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("orderkit", true)
	for _, opt := range opts {
		opt(pdf)
	}

	c := &FPDF{
		pdf:    pdf,
		size:   size,
		fonts:  make(map[string]fontRef, len(coreFonts)),
		images: make(map[string]bool),
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	for name, ref := range coreFonts {
		c.fonts[name] = ref
	}
	pdf.AddPage()
	pdf.SetLineWidth(1)
	c.SetFont(Helvetica, 10)
	return c
}

// FPDFFactory returns a Factory producing FPDF canvases with opts applied.
func FPDFFactory(opts ...FPDFOption) Factory {
	return func(size PaperSize) Canvas { return NewFPDF(size, opts...) }
}

func (c *FPDF) PageSize() (float64, float64) { return c.size.Width, c.size.Height }

func (c *FPDF) PageNumber() int { return c.pdf.PageNo() }

func (c *FPDF) ShowPage() {
	c.pdf.AddPage()
	c.pdf.SetLineWidth(1)
}

func (c *FPDF) SetFont(name string, size float64) {
	ref, ok := c.fonts[name]
	if !ok {
		name, ref = Helvetica, c.fonts[Helvetica]
	}
	c.font, c.fontSize = name, size
	c.pdf.SetFont(ref.family, ref.style, size)
}

func (c *FPDF) SetFillColor(col Color) {
	r, g, b := col.RGB8()
	c.pdf.SetTextColor(r, g, b)
	c.pdf.SetFillColor(r, g, b)
}

func (c *FPDF) SetStrokeColor(col Color) {
	r, g, b := col.RGB8()
	c.pdf.SetDrawColor(r, g, b)
}

func (c *FPDF) DrawText(text string, x, y float64, align HAlign) {
	if text == "" {
		return
	}
	s := c.encode(c.font, text)
	switch align {
	case HAlignCenter:
		x -= c.pdf.GetStringWidth(s) / 2
	case HAlignRight:
		x -= c.pdf.GetStringWidth(s)
	}
	c.pdf.Text(x, c.flip(y), s)
}

func (c *FPDF) DrawLine(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, c.flip(y1), x2, c.flip(y2))
}

func (c *FPDF) DrawRectangle(x, y, width, height float64, opts RectOptions) {
	style := "D"
	switch {
	case opts.Fill && opts.Stroke:
		style = "FD"
	case opts.Fill:
		style = "F"
	}
	c.pdf.Rect(x, c.flip(y+height), width, height, style)
}

func (c *FPDF) DrawImage(img *Image, x, y, width, height float64) {
	if img == nil || len(img.Data) == 0 {
		return
	}
	opts := fpdf.ImageOptions{ImageType: img.Format}
	if !c.images[img.Name] {
		c.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		c.images[img.Name] = true
	}
	c.pdf.ImageOptions(img.Name, x, c.flip(y+height), width, height, false, opts, 0, "")
}

func (c *FPDF) LinkURL(url string, rect Rect) {
	c.pdf.LinkString(rect.LLX, c.flip(rect.URY), rect.Width(), rect.Height(), url)
}

func (c *FPDF) MeasureText(text string, fontSize float64, fontName string) float64 {
	if text == "" {
		return 0
	}
	ref, ok := c.fonts[fontName]
	if !ok {
		fontName, ref = Helvetica, c.fonts[Helvetica]
	}
	c.pdf.SetFont(ref.family, ref.style, fontSize)
	w := c.pdf.GetStringWidth(c.encode(fontName, text))
	cur := c.fonts[c.font]
	c.pdf.SetFont(cur.family, cur.style, c.fontSize)
	return w
}

func (c *FPDF) RegisterTrueTypeFont(name string, data []byte) error {
	if _, ok := c.fonts[name]; ok {
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("register %s: empty font data", name)
	}
	c.pdf.AddUTF8FontFromBytes(name, "", data)
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return fmt.Errorf("register %s: %w", name, err)
	}
	c.fonts[name] = fontRef{family: name, utf8: true}
	return nil
}

func (c *FPDF) Finish(w io.Writer) error {
	if c.pdf.Err() {
		return fmt.Errorf("render pdf: %w", c.pdf.Error())
	}
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (c *FPDF) flip(y float64) float64 { return c.size.Height - y }

// encode converts text for the font's encoding. Core fonts use cp1252, so
// typographic quotes survive while TrueType fonts take UTF-8 as is.
func (c *FPDF) encode(fontName, text string) string {
	if ref, ok := c.fonts[fontName]; ok && ref.utf8 {
		return text
	}
	return c.tr(text)
}
