package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/orderkit/assets"
	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/observability"
	"github.com/wudi/orderkit/order"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

const samplePeriod = "04/01/2024 - 03/31/2025"

func sampleOrder() order.Order {
	o := order.DefaultOrder()
	o.AccountName = "Acme Corp"
	o.PrimaryContactName = "Jordan Lee"
	o.PrimaryContactEmail = "jordan@acme.test"
	o.BillingEmail = "billing@acme.test"
	o.ShippingAddress = "1 Main St\nSpringfield, IL 62701"
	o.BillingAddress = "PO Box 9\nSpringfield, IL 62705"
	o.StartDate = "2024-04-01"
	o.OpportunityType = order.OpportunityNewLogo
	return o
}

func sampleItems() []order.LineItem {
	return []order.LineItem{
		{Label: "Premium Support", UsageCommitment: "N/A", Unit: "N/A", AnnualFee: 5000},
		{Label: "Feature Gates and SDKs", UsageCommitment: "N/A", Unit: "N/A", AnnualFee: 10000},
		{Label: "Experimentation", UsageCommitment: "1,000,000", Unit: "Billable Events", AnnualFee: 25000},
	}
}

func emptyAssets(t *testing.T) *assets.Resolver {
	t.Helper()
	return assets.NewResolver(assets.WithOnlyDirs(t.TempDir()))
}

func renderRecorded(t *testing.T, ord order.Order, items []order.LineItem, opts ...Option) (*Result, *builder.Recorder) {
	t.Helper()
	var sink []*builder.Recorder
	opts = append([]Option{
		WithCanvasFactory(builder.RecorderFactory(&sink)),
		WithAssets(emptyAssets(t)),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	res, err := Render(context.Background(), ord, items, opts...)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("expected one canvas per render, got %d", len(sink))
	}
	return res, sink[0]
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 400, 80))); err != nil {
		t.Fatalf("encode logo: %v", err)
	}
	return buf.Bytes()
}

func writeFile(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func indexOf(rec *builder.Recorder, text string) int {
	for i, op := range rec.Ops {
		if op.Kind == builder.OpText && op.Text == text {
			return i
		}
	}
	return -1
}

func containsText(rec *builder.Recorder, sub string) bool {
	for _, op := range rec.Filter(builder.OpText) {
		if strings.Contains(op.Text, sub) {
			return true
		}
	}
	return false
}

func TestRender_FallbackAssetsProducePDF(t *testing.T) {
	res, err := Render(context.Background(), sampleOrder(), sampleItems(),
		WithAssets(emptyAssets(t)),
		WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(res.Bytes, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", res.Bytes[:min(len(res.Bytes), 16)])
	}
	if res.Pages < 1 {
		t.Fatalf("Pages = %d", res.Pages)
	}
	if res.Filename != "03.2024 Statsig Order Form - Acme Corp.pdf" {
		t.Fatalf("Filename = %q", res.Filename)
	}
	if res.Total != 40000 {
		t.Fatalf("Total = %v", res.Total)
	}
	if res.Rate != "25.0000" {
		t.Fatalf("Rate = %q", res.Rate)
	}
}

func TestRender_SectionOrder(t *testing.T) {
	_, rec := renderRecorded(t, sampleOrder(), sampleItems())

	headings := []string{"STATSIG", "Order Form", "Customer Information", "Terms", "Services", "Usage Terms", "Agreement", "Customer:"}
	prev := -1
	for _, h := range headings {
		i := indexOf(rec, h)
		if i < 0 {
			t.Fatalf("heading %q not drawn", h)
		}
		if i <= prev {
			t.Fatalf("heading %q out of order", h)
		}
		prev = i
	}
	if rec.TextCount("Statsig, LLC:") != 1 {
		t.Fatalf("vendor signature label missing")
	}
}

func TestRender_DerivedValuesAgree(t *testing.T) {
	_, rec := renderRecorded(t, sampleOrder(), sampleItems())

	if rec.TextCount("$40,000.00") != 1 {
		t.Fatalf("table total not drawn once")
	}
	if rec.TextCount(samplePeriod) != 1 {
		t.Fatalf("period drawn %d times", rec.TextCount(samplePeriod))
	}
	if rec.TextCount("04/01/2024") != 1 || rec.TextCount("03/31/2025") != 1 {
		t.Fatalf("term dates not drawn in the terms section")
	}
	// Rows are sorted by fee with support last.
	exp, gates, support := indexOf(rec, "Experimentation"), indexOf(rec, "Feature Gates and SDKs"), indexOf(rec, "Premium Support")
	if !(exp < gates && gates < support) {
		t.Fatalf("rows not sorted: %d %d %d", exp, gates, support)
	}
	if !containsText(rec, "$25.00") {
		t.Fatalf("usage terms do not carry the excess usage rate")
	}
}

func TestRender_LineItemsNormalized(t *testing.T) {
	items := []order.LineItem{
		{Label: "Experimentation", UsageCommitment: "1000000", Unit: "Billable Events", AnnualFee: 100},
		{Label: "Platform Fee", UsageCommitment: "N/A", Unit: "N/A", AnnualFee: -50},
	}
	res, rec := renderRecorded(t, sampleOrder(), items)

	if res.Total != 100 {
		t.Fatalf("Total = %v, want negative fee counted as 0", res.Total)
	}
	if rec.TextCount("$100.00") != 2 || rec.TextCount("$0.00") != 1 {
		t.Fatalf("fee cells: $100.00 x%d, $0.00 x%d", rec.TextCount("$100.00"), rec.TextCount("$0.00"))
	}
	if containsText(rec, "-$") {
		t.Fatalf("negative fee drawn")
	}
	if rec.TextCount("1,000,000") != 1 || rec.TextCount("1000000") != 0 {
		t.Fatalf("usage commitment not formatted")
	}
}

// joinedText concatenates every drawn text run in drawing order.
func joinedText(rec *builder.Recorder) string {
	var b strings.Builder
	for _, op := range rec.Filter(builder.OpText) {
		b.WriteString(op.Text)
	}
	return b.String()
}

func TestRender_DocsFooterUsesBrand(t *testing.T) {
	brand := DefaultBrand
	brand.Name = "ACME"
	brand.LegalName = "Acme, LLC"
	brand.DisplayName = "Acme"
	brand.FilePrefix = "Acme"
	_, rec := renderRecorded(t, sampleOrder(), sampleItems(), WithBrand(brand))

	text := joinedText(rec)
	for _, want := range []string{"on the Acme platform,", "on Acme support,"} {
		if !strings.Contains(text, want) {
			t.Errorf("footer missing %q", want)
		}
	}
	if strings.Contains(text, "Statsig platform") || strings.Contains(text, "Statsig support") {
		t.Fatalf("footer names the default brand")
	}

	brand.DisplayName = ""
	brand.FilePrefix = "Initech"
	_, rec = renderRecorded(t, sampleOrder(), sampleItems(), WithBrand(brand))
	if !strings.Contains(joinedText(rec), "on the Initech platform,") {
		t.Fatalf("footer does not fall back to the file prefix")
	}
}

func TestRender_OnlineAgreementLinks(t *testing.T) {
	_, rec := renderRecorded(t, sampleOrder(), sampleItems())

	urls := map[string]int{}
	for _, op := range rec.Filter(builder.OpLink) {
		urls[op.URL]++
	}
	if urls[DefaultBrand.EnterpriseTermsURL] != 3 || urls[DefaultBrand.DPAURL] != 3 {
		t.Fatalf("agreement links = %v", urls)
	}
	if urls[DefaultBrand.SupportDocsURL] == 0 {
		t.Fatalf("support docs URL not linked: %v", urls)
	}
	if containsText(rec, "Master") {
		t.Fatalf("online terms must not mention the MSA execution")
	}
}

func TestRender_MSAAgreement(t *testing.T) {
	ord := sampleOrder()
	ord.TermsType = order.TermsMSA
	ord.MSAExecutionDate = "02/01/2024"
	_, rec := renderRecorded(t, ord, sampleItems())

	for _, op := range rec.Filter(builder.OpLink) {
		if op.URL == DefaultBrand.EnterpriseTermsURL || op.URL == DefaultBrand.DPAURL {
			t.Fatalf("MSA agreement must not link the online terms")
		}
	}
	if !containsText(rec, "Master Subscription Agreement") {
		t.Fatalf("MSA paragraph missing")
	}
	if !containsText(rec, "02/01/2024") {
		t.Fatalf("MSA execution date missing")
	}
}

func TestRender_HeaderLines(t *testing.T) {
	ord := sampleOrder()
	ord.ExpirationDate = "2024-04-30"
	ord.OpportunityType = order.OpportunityExpansion
	ord.AddendumEffectiveDate = "01/01/2024"
	_, rec := renderRecorded(t, ord, sampleItems())

	if rec.TextCount("Order Form expires on 04.30.2024 without signature") != 1 {
		t.Fatalf("expiration line missing")
	}
	if rec.TextCount("This order form is an addendum to the order form with an effective date of 01/01/2024.") != 1 {
		t.Fatalf("addendum line missing")
	}
	title := rec.Ops[indexOf(rec, "Order Form")]
	exp := rec.Ops[indexOf(rec, "Order Form expires on 04.30.2024 without signature")]
	if exp.Y != title.Y-16 || exp.Font != "Helvetica-Oblique" {
		t.Fatalf("expiration line at %v in %s", exp.Y, exp.Font)
	}
}

func TestRender_LogoReplacesBrandText(t *testing.T) {
	dir := t.TempDir()
	var sink []*builder.Recorder
	logo := pngLogo(t)
	if err := writeFile(dir, "statsig-header.png", logo); err != nil {
		t.Fatal(err)
	}
	_, err := Render(context.Background(), sampleOrder(), sampleItems(),
		WithCanvasFactory(builder.RecorderFactory(&sink)),
		WithAssets(assets.NewResolver(assets.WithOnlyDirs(dir))),
		WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	rec := sink[0]
	if rec.TextCount("STATSIG") != 0 {
		t.Fatalf("brand text drawn although a logo was found")
	}
	imgs := rec.Filter(builder.OpImage)
	if len(imgs) != 1 || imgs[0].W > 190 || imgs[0].H > 38 {
		t.Fatalf("logo not drawn inside its box: %+v", imgs)
	}
}

func TestRender_WarnsOnUncoveredText(t *testing.T) {
	fontDir := t.TempDir()
	if err := writeFile(fontDir, "OpenSans-Regular.ttf", goregular.TTF); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(fontDir, "OpenSans-Bold.ttf", gobold.TTF); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		dir     string
		account string
		want    string
	}{
		{"builtin latin", t.TempDir(), "Café Zürich AG", ""},
		{"builtin cyrillic", t.TempDir(), "ООО Ромашка", `"script":"cyrl"`},
		{"custom covers cyrillic", fontDir, "ООО Ромашка", ""},
		{"custom misses han", fontDir, "株式会社テスト", `"script":"hani"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := observability.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
			ord := sampleOrder()
			ord.AccountName = tt.account
			renderRecorded(t, ord, sampleItems(),
				WithAssets(assets.NewResolver(assets.WithOnlyDirs(tt.dir))),
				WithLogger(log))

			warned := strings.Contains(buf.String(), `"field":"account_name"`)
			if tt.want == "" {
				if warned {
					t.Fatalf("unexpected warning: %s", buf.String())
				}
				return
			}
			if !warned || !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("missing warning with %s: %s", tt.want, buf.String())
			}
		})
	}
}

func TestRender_LongTablePaginates(t *testing.T) {
	items := make([]order.LineItem, 60)
	for i := range items {
		items[i] = order.LineItem{Label: fmt.Sprintf("Service %02d", i+1), UsageCommitment: "N/A", Unit: "N/A", AnnualFee: float64(100 * (i + 1))}
	}
	res, rec := renderRecorded(t, sampleOrder(), items)

	if res.Pages < 3 {
		t.Fatalf("Pages = %d, want the table and trailing sections to span pages", res.Pages)
	}
	if rec.TextCount(samplePeriod) != 1 {
		t.Fatalf("period drawn %d times", rec.TextCount(samplePeriod))
	}
	for _, op := range rec.Ops {
		if op.Kind == builder.OpRect && op.Y < 40-1e-9 {
			t.Fatalf("table cell below the bottom margin on page %d", op.Page)
		}
		if op.Kind == builder.OpText && op.Y < 40-1e-9 {
			t.Fatalf("text %q below the bottom margin on page %d", op.Text, op.Page)
		}
	}
	sig := rec.Ops[indexOf(rec, "Customer:")]
	by := 0
	for _, op := range rec.Filter(builder.OpText) {
		if op.Text == "Date:" && op.Page != sig.Page {
			t.Fatalf("signature block split across pages")
		}
		if op.Text == "By:" {
			by++
		}
	}
	if by != 2 {
		t.Fatalf("By: drawn %d times", by)
	}
}

func TestRender_UsageTermsFallbackHTML(t *testing.T) {
	ord := sampleOrder()
	ord.PricingMode = order.ModeCredit
	ord.UsageTerms = `<p>See <a href="https://example.com/credits">credit terms</a>.</p>`
	items := []order.LineItem{
		{Label: "Warehouse Native", UsageCommitment: "1,000", Unit: "Credits", AnnualFee: 1000},
		{Label: "Platform Fee", UsageCommitment: "", Unit: "N/A", AnnualFee: 100},
	}
	res, rec := renderRecorded(t, ord, items)

	found := false
	for _, op := range rec.Filter(builder.OpLink) {
		if op.URL == "https://example.com/credits" {
			found = true
		}
	}
	if !found {
		t.Fatalf("entered HTML usage terms lost their link")
	}
	if rec.TextCount("Credits") != 1 || rec.TextCount("Annual Fee") != 1 {
		t.Fatalf("credit columns not used")
	}
	if res.Rate != "1.0000" {
		t.Fatalf("Rate = %q", res.Rate)
	}
}

func TestRender_SpecialTerms(t *testing.T) {
	ord := sampleOrder()
	ord.SpecialTerms = []string{"price cap", "None", " price cap ", "no logo rights"}
	_, rec := renderRecorded(t, ord, sampleItems())

	if rec.TextCount("• price cap") != 1 || rec.TextCount("• no logo rights") != 1 {
		t.Fatalf("special terms not listed once each")
	}
	if indexOf(rec, "Special Terms") < indexOf(rec, "Usage Terms") || indexOf(rec, "Special Terms") > indexOf(rec, "Agreement") {
		t.Fatalf("special terms out of order")
	}
}

func TestRender_Errors(t *testing.T) {
	ord := sampleOrder()
	ord.PricingMode = "enterprise"
	_, err := Render(context.Background(), ord, sampleItems(), WithAssets(emptyAssets(t)))
	if !errors.Is(err, order.ErrUnknownPricingMode) {
		t.Fatalf("expected ErrUnknownPricingMode, got %v", err)
	}
}

func TestRender_ConcurrentSharedResolver(t *testing.T) {
	resolver := emptyAssets(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ord := sampleOrder()
			ord.AccountName = fmt.Sprintf("Account %d", i)
			res, err := Render(context.Background(), ord, sampleItems(),
				WithAssets(resolver),
				WithCanvasFactory(func(size builder.PaperSize) builder.Canvas { return builder.NewRecorder(size) }),
			)
			if err == nil && !bytes.Contains(res.Bytes, []byte(ord.AccountName)) {
				err = fmt.Errorf("render %d lost its account name", i)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		account string
		want    string
	}{
		{"Acme Corp", "03.2024 Statsig Order Form - Acme Corp.pdf"},
		{"  ", "03.2024 Statsig Order Form - Account Name.pdf"},
		{"A/B Testing Co", "03.2024 Statsig Order Form - A-B Testing Co.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(DefaultBrand, tt.account, fixedNow); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.account, got, tt.want)
		}
	}
}
