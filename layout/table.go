package layout

import (
	"errors"
	"strings"

	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/order"
)

// ErrNoColumns is returned when a table is laid out with an empty column
// spec.
var ErrNoColumns = errors.New("table has no columns")

// TableStyle holds the fonts and metrics of the services table.
type TableStyle struct {
	Font     string
	BoldFont string
	FontSize float64

	LineHeight      float64
	Padding         float64
	MinHeaderHeight float64
	MinRowHeight    float64
	TotalRowHeight  float64
	// FeeInset is the gap between right-aligned text and the cell border.
	FeeInset float64

	HeaderFill builder.Color
	HeaderText builder.Color
	Border     builder.Color
	Text       builder.Color

	TotalLabel string
	// Paginate breaks tables taller than a page at row boundaries and
	// repeats the header row. When false the table is drawn in one pass
	// without space checks.
	Paginate bool
}

// DefaultTableStyle returns the order form table style.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Font:            builder.Helvetica,
		BoldFont:        builder.HelveticaBold,
		FontSize:        10,
		LineHeight:      10,
		Padding:         8,
		MinHeaderHeight: 24,
		MinRowHeight:    22,
		TotalRowHeight:  22,
		FeeInset:        4,
		HeaderFill:      builder.Hex("#1f4675"),
		HeaderText:      builder.White,
		Border:          builder.Black,
		Text:            builder.Black,
		TotalLabel:      "Total:",
		Paginate:        true,
	}
}

// TableRow is a laid-out line item. Cells and Values are indexed like the
// table columns; index 0 (the merged period column) is left empty.
type TableRow struct {
	Item   order.LineItem
	Values []string
	Cells  [][]string
	Height float64
}

// Table is the computed geometry of the services table.
type Table struct {
	Columns order.ColumnSpec
	Widths  []float64
	Width   float64
	Style   TableStyle

	Header       [][]string
	HeaderHeight float64
	Rows         []TableRow

	Period    string
	Total     float64
	TotalText string
}

// Height is header + rows + total row.
func (t *Table) Height() float64 {
	h := t.HeaderHeight + t.Style.TotalRowHeight
	for _, r := range t.Rows {
		h += r.Height
	}
	return h
}

// LayoutTable computes column widths, wrapped header and cell text and row
// heights. Items are laid out in the order given. Weights that do not match
// the column count are replaced by equal weights. Fee values are formatted
// as currency before they are measured.
func LayoutTable(items []order.LineItem, spec order.ColumnSpec, weights []float64, period string, width float64, style TableStyle, m Measurer) (*Table, error) {
	if len(spec) == 0 {
		return nil, ErrNoColumns
	}
	if len(weights) != len(spec) {
		weights = make([]float64, len(spec))
		for i := range weights {
			weights[i] = 1 / float64(len(spec))
		}
	}

	t := &Table{
		Columns: spec,
		Widths:  make([]float64, len(spec)),
		Width:   width,
		Style:   style,
		Period:  period,
		Total:   order.Total(items),
	}
	t.TotalText = order.FormatMoney(t.Total)
	for i, w := range weights {
		t.Widths[i] = width * w
	}

	t.Header = make([][]string, len(spec))
	maxLines := 1
	for i, col := range spec {
		t.Header[i] = Wrap(col.Label, t.Widths[i]-style.Padding, m, style.BoldFont, style.FontSize)
		maxLines = max(maxLines, len(t.Header[i]))
	}
	t.HeaderHeight = max(style.MinHeaderHeight, float64(maxLines)*style.LineHeight+style.Padding)

	t.Rows = make([]TableRow, len(items))
	for r, item := range items {
		row := TableRow{
			Item:   item,
			Values: make([]string, len(spec)),
			Cells:  make([][]string, len(spec)),
		}
		lines := 1
		for i := 1; i < len(spec); i++ {
			v := item.Value(spec[i].Key)
			row.Values[i] = v
			row.Cells[i] = Wrap(v, t.Widths[i]-style.Padding, m, style.Font, style.FontSize)
			lines = max(lines, len(row.Cells[i]))
		}
		row.Height = max(style.MinRowHeight, float64(lines)*style.LineHeight+style.Padding)
		t.Rows[r] = row
	}
	return t, nil
}

// DrawTable draws t with its top edge at the cursor and leaves the cursor
// at the table's bottom edge.
//
// With pagination enabled a table that fits on a fresh page is kept whole,
// moving to the next page if needed. A taller table is split at row
// boundaries; each continuation page repeats the header, the period column
// is bordered on every page but its text is drawn once, and the total row
// follows the last row.
func (f *Flow) DrawTable(t *Table) {
	if !t.Style.Paginate {
		f.drawTableSegment(t, t.Rows, true, true)
		return
	}

	fresh := f.TopY() - f.Margins.Bottom
	if t.Height() <= fresh || len(t.Rows) == 0 {
		f.EnsureSpace(t.Height())
		f.drawTableSegment(t, t.Rows, true, true)
		return
	}

	start := 0
	for start < len(t.Rows) {
		avail := f.Remaining()
		used := t.HeaderHeight
		n := 0
		for start+n < len(t.Rows) {
			need := t.Rows[start+n].Height
			if start+n == len(t.Rows)-1 {
				need += t.Style.TotalRowHeight
			}
			if used+need > avail {
				break
			}
			used += need
			n++
		}
		if n == 0 {
			if !f.AtTop() {
				f.pageBreak(used + t.Rows[start].Height)
				continue
			}
			// A single row taller than a page is drawn anyway.
			n = 1
		}
		end := start + n
		f.drawTableSegment(t, t.Rows[start:end], start == 0, end == len(t.Rows))
		start = end
		if start < len(t.Rows) {
			f.pageBreak(t.HeaderHeight + t.Rows[start].Height)
		}
	}
}

// drawTableSegment draws the header, rows and, when last is set, the total
// row. The period text is drawn only when first is set.
func (f *Flow) drawTableSegment(t *Table, rows []TableRow, first, last bool) {
	c := f.c
	st := t.Style
	left := f.Left()
	right := left + t.Width
	top := f.y
	headH := t.HeaderHeight

	// Header
	c.SetStrokeColor(st.Border)
	c.SetFillColor(st.HeaderFill)
	c.DrawRectangle(left, top-headH, t.Width, headH, builder.RectOptions{Fill: true, Stroke: true})
	c.SetFillColor(st.HeaderText)
	c.SetFont(st.BoldFont, st.FontSize)
	x := left
	for i, lines := range t.Header {
		blockH := float64(len(lines)) * st.LineHeight
		y0 := top - (headH-blockH)/2 - st.Padding
		for j, line := range lines {
			c.DrawText(line, x+t.Widths[i]/2, y0-float64(j)*st.LineHeight, builder.HAlignCenter)
		}
		x += t.Widths[i]
	}
	x = left
	for _, w := range t.Widths[:len(t.Widths)-1] {
		x += w
		c.DrawLine(x, top, x, top-headH)
	}

	// Body
	var bodyH float64
	for _, r := range rows {
		bodyH += r.Height
	}
	mergedTop := top - headH
	mergedBottom := mergedTop - bodyH
	c.DrawLine(left, mergedBottom, right, mergedBottom)

	c.SetFillColor(st.Text)
	c.SetFont(st.Font, st.FontSize)
	if first && t.Period != "" {
		mid := (mergedTop+mergedBottom)/2 - 4
		c.DrawText(t.Period, left+t.Widths[0]/2, mid, builder.HAlignCenter)
	}
	if strings.TrimSpace(t.Period) != "" && bodyH > 0 {
		c.DrawRectangle(left, mergedBottom, t.Widths[0], bodyH, builder.RectOptions{Stroke: true})
	}

	rowTop := mergedTop
	for _, r := range rows {
		x := left + t.Widths[0]
		for i := 1; i < len(t.Columns); i++ {
			w := t.Widths[i]
			lines := r.Cells[i]
			blockH := float64(len(lines)) * st.LineHeight
			lineY := rowTop - (r.Height-blockH)/2 - st.Padding
			for _, line := range lines {
				if t.Columns[i].Key == order.FieldFee {
					c.DrawText(line, x+w-st.FeeInset, lineY, builder.HAlignRight)
				} else {
					c.DrawText(line, x+w/2, lineY, builder.HAlignCenter)
				}
				lineY -= st.LineHeight
			}
			if strings.TrimSpace(r.Values[i]) != "" {
				c.DrawRectangle(x, rowTop-r.Height, w, r.Height, builder.RectOptions{Stroke: true})
			}
			x += w
		}
		rowTop -= r.Height
	}

	f.y = mergedBottom
	if !last {
		return
	}

	// Total row
	n := len(t.Widths)
	totalH := st.TotalRowHeight
	totalY := mergedBottom - 15
	lastLeft := right - t.Widths[n-1]
	// The label needs a data column of its own left of the sum.
	if n > 2 {
		c.DrawText(st.TotalLabel, lastLeft-st.FeeInset, totalY, builder.HAlignRight)
		c.DrawRectangle(lastLeft-t.Widths[n-2], mergedBottom-totalH, t.Widths[n-2], totalH, builder.RectOptions{Stroke: true})
	}
	c.DrawText(t.TotalText, right-st.FeeInset, totalY, builder.HAlignRight)
	c.DrawRectangle(lastLeft, mergedBottom-totalH, t.Widths[n-1], totalH, builder.RectOptions{Stroke: true})
	f.y = mergedBottom - totalH
}
