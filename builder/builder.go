package builder

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Canvas is the drawing surface the layout engine renders onto.
//
// Coordinates are PDF points with the origin at the bottom-left corner of
// the page, so y grows upwards. Text is positioned by its baseline.
type Canvas interface {
	PageSize() (width, height float64)
	PageNumber() int
	// ShowPage finishes the current page and starts a new blank one.
	ShowPage()

	SetFont(name string, size float64)
	SetFillColor(c Color)
	SetStrokeColor(c Color)

	DrawText(text string, x, y float64, align HAlign)
	DrawLine(x1, y1, x2, y2 float64)
	DrawRectangle(x, y, width, height float64, opts RectOptions)
	DrawImage(img *Image, x, y, width, height float64)
	// LinkURL registers a clickable region opening url.
	LinkURL(url string, rect Rect)

	MeasureText(text string, fontSize float64, fontName string) float64
	// RegisterTrueTypeFont makes a TrueType font available under name.
	// Registering a name twice is a no-op.
	RegisterTrueTypeFont(name string, data []byte) error

	// Finish finalises the last page and writes the document to w.
	Finish(w io.Writer) error
}

// Factory creates a fresh canvas for one render.
type Factory func(size PaperSize) Canvas

// PaperSize is a page size in points.
type PaperSize struct {
	Width, Height float64
}

var (
	Letter = PaperSize{Width: 612, Height: 792}
	A4     = PaperSize{Width: 595.28, Height: 841.89}
)

// Standard font names available without registration.
const (
	Helvetica            = "Helvetica"
	HelveticaBold        = "Helvetica-Bold"
	HelveticaOblique     = "Helvetica-Oblique"
	HelveticaBoldOblique = "Helvetica-BoldOblique"
)

// RectOptions configures rectangle drawing (defaults to stroke if neither fill nor stroke is set).
type RectOptions struct {
	Fill   bool
	Stroke bool
}

// Rect is an axis-aligned box given by its lower-left and upper-right corners.
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Color represents an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	Black = Color{}
	White = Color{R: 1, G: 1, B: 1}
)

// Hex parses "#rrggbb". Malformed input yields black.
func Hex(s string) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black
	}
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

// RGB8 returns the color as 8-bit channels.
func (c Color) RGB8() (r, g, b int) {
	return to8(c.R), to8(c.G), to8(c.B)
}

func (c Color) String() string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func to8(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v*255 + 0.5)
}

// HAlign controls horizontal text alignment relative to the anchor x.
type HAlign string

const (
	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"
)

// Image is an encoded raster ready for embedding.
type Image struct {
	Name   string
	Format string // "PNG" or "JPG"
	Data   []byte
	Width  int
	Height int
}
