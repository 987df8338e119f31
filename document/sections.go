package document

import (
	"fmt"
	"strings"

	"github.com/wudi/orderkit/assets"
	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/fonts"
	"github.com/wudi/orderkit/layout"
	"github.com/wudi/orderkit/order"
)

var divider = builder.Hex("#aaaaaa")

const (
	leftX  = 36.0
	rightX = 312.0
	// Signature columns.
	vendorX   = 36.0
	customerX = 330.0

	bodySize   = 10.0
	bodyLine   = 12.0
	headerSize = 12.0
)

var legalLines = []string{
	"The pricing and terms in this Order Form are %s's Proprietary Information. All fees are in U.S. dollars and",
	"exclude all taxes. Customer is responsible for all applicable taxes, including, but not limited to, U.S. sales,",
	"withholding tax, GST, and VAT. Capitalized terms not defined in this Order Form have the meanings assigned in the MSA.",
	"If a direct conflict exists between this Order Form and the MSA, the terms of this Order Form will control.",
	"",
	"The parties through their duly authorized representative agree to the terms of this Order Form, effective as of",
	"last signature date.",
}

type composer struct {
	f     *layout.Flow
	c     builder.Canvas
	fam   fonts.Family
	brand Brand
	ord   order.Order
	mode  order.ModeConfig
	d     derived
	set   *assets.Set

	paginate bool
}

func (p *composer) compose() error {
	p.header()
	p.customer()
	p.terms()
	if err := p.services(); err != nil {
		return err
	}
	p.usageTerms()
	p.specialTerms()
	p.agreement()
	p.legal()
	p.signature()
	return nil
}

func (p *composer) width() float64 { return p.f.PageWidth() }

func (p *composer) text(font string, size float64, s string, x float64, align builder.HAlign) {
	p.c.SetFont(font, size)
	p.c.SetFillColor(builder.Black)
	p.f.Text(s, x, align)
}

func (p *composer) rule() {
	p.f.Rule(divider)
}

// labelValue draws a bold label and its value directly after it.
func (p *composer) labelValue(x float64, label, value string) {
	p.c.SetFillColor(builder.Black)
	p.c.SetFont(p.fam.Bold, bodySize)
	p.f.Text(label, x, builder.HAlignLeft)
	p.c.SetFont(p.fam.Regular, bodySize)
	p.f.Text(value, x+p.c.MeasureText(label, bodySize, p.fam.Bold), builder.HAlignLeft)
}

// termValue is labelValue with a one-space gap measured in the regular font.
func (p *composer) termValue(x float64, label, value string) {
	gap := p.c.MeasureText(" ", bodySize, p.fam.Regular)
	p.c.SetFillColor(builder.Black)
	p.c.SetFont(p.fam.Bold, bodySize)
	p.f.Text(label, x, builder.HAlignLeft)
	p.c.SetFont(p.fam.Regular, bodySize)
	p.f.Text(value, x+p.c.MeasureText(label, bodySize, p.fam.Bold)+gap, builder.HAlignLeft)
}

// header draws the first-page header and leaves the cursor on the divider.
func (p *composer) header() {
	w, h := p.width(), p.f.PageHeight()
	center := w / 2

	if logo := p.set.HeaderLogo; logo != nil {
		const boxW, boxH = 190.0, 38.0
		lw, lh := builder.Fit(float64(logo.Width), float64(logo.Height), boxW, boxH)
		x := (w-boxW)/2 + (boxW-lw)/2
		y := h - 92 + (boxH-lh)/2
		p.c.DrawImage(logo, x, y, lw, lh)
	} else {
		p.f.SetY(h - 82)
		p.text(p.fam.Bold, 26, p.brand.Name, center, builder.HAlignCenter)
	}

	p.f.SetY(h - 112)
	p.text(p.fam.Bold, headerSize, "Order Form", center, builder.HAlignCenter)

	if exp := strings.TrimSpace(p.ord.ExpirationDate); exp != "" {
		p.f.Advance(16)
		date := order.ParseDate(exp, p.d.now).Format("01.02.2006")
		p.text(p.fam.Italic, bodySize, fmt.Sprintf("Order Form expires on %s without signature", date), center, builder.HAlignCenter)
	}
	if p.ord.OpportunityType == order.OpportunityExpansion && strings.TrimSpace(p.ord.AddendumEffectiveDate) != "" {
		p.f.Advance(16)
		date := order.ParseDate(p.ord.AddendumEffectiveDate, p.d.now).Format("01/02/2006")
		p.text(p.fam.Regular, 11, fmt.Sprintf("This order form is an addendum to the order form with an effective date of %s.", date), center, builder.HAlignCenter)
	}

	p.f.Advance(18)
	p.rule()
}

func (p *composer) customer() {
	p.f.Advance(40)
	p.text(p.fam.Bold, headerSize, "Customer Information", leftX, builder.HAlignLeft)

	p.f.Advance(26)
	p.labelValue(leftX, "Customer: ", p.ord.AccountName)

	p.f.Advance(26)
	p.labelValue(leftX, "Customer Contact: ", p.ord.PrimaryContactName)
	p.labelValue(rightX, "Billing Email: ", p.ord.BillingEmail)

	p.f.Advance(16)
	p.labelValue(leftX, "Email: ", p.ord.PrimaryContactEmail)

	p.f.Advance(24)
	p.c.SetFont(p.fam.Bold, bodySize)
	p.f.Text("Ship To Address:", leftX, builder.HAlignLeft)
	p.f.Text("Bill to Address:", rightX, builder.HAlignLeft)

	ship := layout.SplitLines(p.ord.ShippingAddress)
	bill := layout.SplitLines(p.ord.BillingAddress)
	n := max(len(ship), len(bill))
	p.f.Advance(14)
	p.c.SetFont(p.fam.Regular, bodySize)
	for i := 0; i < n; i++ {
		if p.f.EnsureSpace(bodyLine) {
			p.c.SetFont(p.fam.Regular, bodySize)
		}
		if i < len(ship) {
			p.f.Text(ship[i], leftX, builder.HAlignLeft)
		}
		if i < len(bill) {
			p.f.Text(bill[i], rightX, builder.HAlignLeft)
		}
		p.f.Advance(bodyLine)
	}

	p.f.Advance(6)
	p.rule()
}

func (p *composer) terms() {
	p.f.Advance(23)
	p.f.EnsureSpace(25 + 16*3 + 12)
	p.text(p.fam.Bold, headerSize, "Terms", leftX, builder.HAlignLeft)

	p.f.Advance(25)
	p.termValue(leftX, "Paid Subscription Term Start Date:", order.DisplayDate(p.d.start))
	p.termValue(rightX, "Billing Frequency:", p.ord.BillingFrequency)

	p.f.Advance(16)
	p.termValue(leftX, "Paid Subscription Term End Date:", order.DisplayDate(p.d.end))
	p.termValue(rightX, "Payment Terms:", p.ord.PaymentTerms)

	p.f.Advance(16)
	p.termValue(leftX, "Payment Method:", p.ord.PaymentMethod)
	p.termValue(rightX, "PO (if applicable):", p.ord.PONumber)

	if id := strings.TrimSpace(p.ord.BillingID); id != "" && p.ord.PaymentMethod != order.PaymentBankTransfer {
		p.f.Advance(16)
		p.termValue(leftX, "Billing ID:", id)
	}

	p.f.Advance(12)
	p.rule()
}

// services draws the heading, the table and the documentation links.
func (p *composer) services() error {
	style := layout.DefaultTableStyle()
	style.Font, style.BoldFont = p.fam.Regular, p.fam.Bold
	style.Paginate = p.paginate

	tbl, err := layout.LayoutTable(p.d.items, p.mode.Columns, p.mode.Weights, p.d.period, p.f.ContentWidth(), style, p.c)
	if err != nil {
		return fmt.Errorf("services table: %w", err)
	}

	p.f.Advance(26)
	if p.paginate {
		// Keep the heading with the table, or with its first rows when the
		// table is taller than a page.
		need := tbl.Height()
		if fresh := p.f.TopY() - p.f.Margins.Bottom; need+16 > fresh && len(tbl.Rows) > 0 {
			need = tbl.HeaderHeight + tbl.Rows[0].Height
		}
		p.f.EnsureSpace(16 + need)
	}
	p.text(p.fam.Bold, headerSize, "Services", leftX, builder.HAlignLeft)
	p.f.Advance(16)
	p.f.DrawTable(tbl)

	p.f.Advance(22)
	opts := layout.RichOptions{Font: p.fam.Regular, Size: bodySize, LineHeight: 14}
	name := p.brand.displayName()
	for i, line := range []string{
		"For information on the " + name + " platform, refer to " + p.brand.PlatformDocsURL,
		"For information on " + name + " support, refer to " + p.brand.SupportDocsURL,
	} {
		if i > 0 {
			p.f.Advance(14)
		}
		p.f.EnsureSpace(14)
		for _, para := range layout.ParseMarkdown(line) {
			p.f.RenderRichText(para, opts)
		}
	}
	p.f.Advance(10)
	p.rule()
	return nil
}

// usageTerms draws the generated or entered usage terms. Entered terms may
// be HTML, in which case links are kept.
func (p *composer) usageTerms() {
	p.f.Advance(23)
	p.f.EnsureSpace(20 + bodyLine)
	p.text(p.fam.Bold, headerSize, "Usage Terms", leftX, builder.HAlignLeft)
	p.f.Advance(20)
	p.c.SetFont(p.fam.Regular, bodySize)
	p.c.SetFillColor(builder.Black)

	text := p.d.usageTerms
	if looksLikeHTML(text) {
		if paras, err := layout.ParseHTML(text); err == nil {
			p.f.RenderRichParagraphs(paras, layout.RichOptions{Font: p.fam.Regular, Size: bodySize, LineHeight: bodyLine}, 0)
			p.f.Advance(5)
			p.rule()
			return
		}
	}
	if strings.TrimSpace(text) != "" {
		p.f.WriteParagraphs(text, layout.ParagraphStyle{Font: p.fam.Regular, Size: bodySize, LineHeight: bodyLine, BlankGap: 7})
	}
	p.f.Advance(5)
	p.rule()
}

func (p *composer) specialTerms() {
	if len(p.d.special) == 0 {
		return
	}
	p.f.Advance(23)
	p.f.EnsureSpace(20 + bodyLine)
	p.text(p.fam.Bold, headerSize, "Special Terms", leftX, builder.HAlignLeft)
	p.f.Advance(20)
	lines := make([]string, len(p.d.special))
	for i, term := range p.d.special {
		lines[i] = "• " + term
	}
	p.f.WriteParagraphs(strings.Join(lines, "\n"), layout.ParagraphStyle{Font: p.fam.Regular, Size: bodySize, LineHeight: bodyLine, BlankGap: 7})
	p.f.Advance(5)
	p.rule()
}

func (p *composer) agreement() {
	p.f.Advance(23)
	p.f.EnsureSpace(24)
	p.text(p.fam.Bold, headerSize, "Agreement", leftX, builder.HAlignLeft)

	p.f.Advance(20)
	p.f.EnsureSpace(14)
	p.c.SetFont(p.fam.Regular, bodySize)

	if p.ord.TermsType == order.TermsMSA {
		date := strings.TrimSpace(p.ord.MSAExecutionDate)
		if date == "" {
			date = "MM/DD/YYYY"
		}
		text := fmt.Sprintf("This Order Form is subject to the Master Subscription Agreement (“MSA”) between Customer and "+
			"%s, executed on %s , governing Customer’s use of the Service described herein.", p.brand.ContractingEntity, date)
		p.f.WriteParagraphs(text, layout.ParagraphStyle{Font: p.fam.Regular, Size: bodySize, LineHeight: bodyLine})
		p.f.Advance(bodyLine)
		return
	}

	src := fmt.Sprintf("This Order Form is subject to the [Enterprise Subscription Agreement](%s) and "+
		"[Data Processing Addendum](%s) (together, the“MSA”) governing Customer’s use of the Services described herein.",
		p.brand.EnterpriseTermsURL, p.brand.DPAURL)
	opts := layout.RichOptions{Font: p.fam.Regular, Size: bodySize, LineHeight: bodyLine}
	for _, para := range layout.ParseMarkdown(src) {
		p.f.RenderRichText(para, opts)
	}
	p.f.Advance(24)
}

func (p *composer) legal() {
	p.c.SetFont(p.fam.Regular, bodySize)
	for _, line := range legalLines {
		if line == "" {
			p.f.Advance(bodyLine)
			continue
		}
		if strings.Contains(line, "%s") {
			line = fmt.Sprintf(line, p.brand.LegalName)
		}
		p.c.SetFont(p.fam.Regular, bodySize)
		p.f.WriteLines([]string{line}, leftX, bodyLine)
	}
}

// signature draws the two signature columns as one block.
func (p *composer) signature() {
	p.f.Advance(30)
	p.f.EnsureSpace(132)

	w := p.width()
	y := p.f.Y()
	p.c.SetStrokeColor(divider)
	p.c.DrawLine(leftX, y+23, w-36, y+23)

	vendor := p.brand.LegalName + ":"
	p.text(p.fam.Bold, headerSize, vendor, vendorX, builder.HAlignLeft)
	p.text(p.fam.Bold, headerSize, "Customer:", customerX, builder.HAlignLeft)
	if mark := p.set.SignatureLogo; mark != nil {
		mw, mh := builder.Fit(float64(mark.Width), float64(mark.Height), 48, 14)
		p.c.DrawImage(mark, vendorX+p.c.MeasureText(vendor, headerSize, p.fam.Bold)+6, y-2, mw, mh)
	}

	leftEnd := w/2 - 16
	rightEnd := w - 36
	p.c.SetFont(p.fam.Regular, bodySize)
	gaps := []float64{28, 24, 24, 24}
	for i, row := range []struct {
		label       string
		left, right float64
	}{
		{"By:", 62, 356},
		{"Name:", 70, 364},
		{"Title:", 66, 360},
		{"Date:", 66, 360},
	} {
		p.f.Advance(gaps[i])
		y := p.f.Y()
		p.f.Text(row.label, vendorX, builder.HAlignLeft)
		p.c.DrawLine(row.left, y-2, leftEnd, y-2)
		p.f.Text(row.label, customerX, builder.HAlignLeft)
		p.c.DrawLine(row.right, y-2, rightEnd, y-2)
	}
}

func looksLikeHTML(s string) bool {
	s = strings.ToLower(s)
	for _, tag := range []string{"<p", "<br", "<a ", "<ul", "<ol", "<li", "<div", "</"} {
		if strings.Contains(s, tag) {
			return true
		}
	}
	return false
}
