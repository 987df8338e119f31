// Package document composes the order form: header, customer information,
// terms, the services table, usage terms, the agreement and the signature
// block, in that fixed order, on one canvas per render.
//
// Values that appear in more than one place (the subscription period, the
// contract total, the excess usage rate) are derived once per render and
// handed to the sections, so the table total and every other display of it
// cannot disagree.
//
// Render keeps no state between calls. Concurrent renders are safe; they
// may share one assets.Resolver, which caches the font and logo lookup.
package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/orderkit/assets"
	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/fonts"
	"github.com/wudi/orderkit/layout"
	"github.com/wudi/orderkit/observability"
	"github.com/wudi/orderkit/order"
)

// Brand holds the seller identity printed on the form.
type Brand struct {
	// Name is the header text used when no logo is found.
	Name string
	// LegalName signs the form and owns the pricing terms.
	LegalName string
	// ContractingEntity is the MSA counterparty.
	ContractingEntity string
	// DisplayName is the product name used in running text. FilePrefix, then
	// Name, stand in when it is empty.
	DisplayName string
	// FilePrefix appears in generated file names.
	FilePrefix string

	PlatformDocsURL    string
	SupportDocsURL     string
	EnterpriseTermsURL string
	DPAURL             string
}

func (b Brand) displayName() string {
	switch {
	case b.DisplayName != "":
		return b.DisplayName
	case b.FilePrefix != "":
		return b.FilePrefix
	}
	return b.Name
}

// DefaultBrand is the Statsig identity.
var DefaultBrand = Brand{
	Name:               "STATSIG",
	LegalName:          "Statsig, LLC",
	ContractingEntity:  "Statsig, Inc.",
	DisplayName:        "Statsig",
	FilePrefix:         "Statsig",
	PlatformDocsURL:    "https://docs.statsig.com/",
	SupportDocsURL:     "https://docs.statsig.com/support-options",
	EnterpriseTermsURL: "https://www.statsig.com/enterprise-terms",
	DPAURL:             "https://statsig.com/legal/online-dpa",
}

// Result is a rendered order form.
type Result struct {
	ID       uuid.UUID
	Bytes    []byte
	Pages    int
	Breaks   int
	Filename string
	Total    float64
	Rate     string
}

type config struct {
	factory  builder.Factory
	paper    builder.PaperSize
	resolver *assets.Resolver
	log      observability.Logger
	tracer   observability.Tracer
	now      func() time.Time
	brand    Brand
	paginate bool
}

// Option configures a render.
type Option func(*config)

// WithCanvasFactory sets the drawing surface. The default is an FPDF canvas.
func WithCanvasFactory(f builder.Factory) Option {
	return func(c *config) { c.factory = f }
}

// WithPaperSize sets the page size; the default is US Letter.
func WithPaperSize(size builder.PaperSize) Option {
	return func(c *config) { c.paper = size }
}

// WithAssets sets the asset resolver. Renders without one share a resolver
// over the default search path.
func WithAssets(r *assets.Resolver) Option {
	return func(c *config) { c.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithClock sets the clock used for date defaults and file names.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBrand sets the seller identity.
func WithBrand(b Brand) Option {
	return func(c *config) { c.brand = b }
}

// WithTablePagination controls whether a services table taller than the
// space left is split across pages. It is on by default; off reproduces a
// single-pass table that may run past the bottom margin.
func WithTablePagination(on bool) Option {
	return func(c *config) { c.paginate = on }
}

var defaultResolver = sync.OnceValue(func() *assets.Resolver {
	return assets.NewResolver()
})

// Render lays out ord with its line items and returns the encoded document.
// Line items are sorted for display and stamped with the subscription
// period. An unknown pricing mode or an empty column spec fails the render;
// missing assets never do.
func Render(ctx context.Context, ord order.Order, items []order.LineItem, opts ...Option) (*Result, error) {
	cfg := config{
		paper:    builder.Letter,
		log:      observability.NopLogger{},
		tracer:   observability.NopTracer(),
		now:      time.Now,
		brand:    DefaultBrand,
		paginate: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	_, span := cfg.tracer.StartSpan(ctx, "orderform.render")
	defer span.Finish()

	mode := ord.PricingMode
	if mode == "" {
		mode = order.ModeCloud
	}
	modeCfg, err := order.LookupMode(mode)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("render order form: %w", err)
	}

	now := cfg.now()
	id := uuid.New()
	log := cfg.log.With(observability.String("render_id", id.String()))
	began := time.Now()

	d := derive(ord, items, modeCfg, now)

	resolver := cfg.resolver
	if resolver == nil {
		resolver = defaultResolver()
	}
	set := resolver.Resolve()

	canvas := cfg.newCanvas(ord, now)
	fam := set.Register(canvas, log)
	warnUncovered(log, ord, d, set, fam)

	flow := layout.NewFlow(canvas,
		layout.WithDefaultFont(fam.Regular, 10),
		layout.WithLogger(log),
	)
	comp := &composer{
		f:        flow,
		c:        canvas,
		fam:      fam,
		brand:    cfg.brand,
		ord:      ord,
		mode:     modeCfg,
		d:        d,
		set:      set,
		paginate: cfg.paginate,
	}
	if err := comp.compose(); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("render order form: %w", err)
	}

	var buf bytes.Buffer
	if err := flow.Finish(&buf); err != nil {
		span.SetError(err)
		return nil, err
	}

	res := &Result{
		ID:       id,
		Bytes:    buf.Bytes(),
		Pages:    canvas.PageNumber(),
		Breaks:   flow.Breaks(),
		Filename: Filename(cfg.brand, ord.AccountName, now),
		Total:    d.total,
		Rate:     d.rate,
	}
	span.SetTag("pages", res.Pages)
	span.SetTag("line_items", len(d.items))
	span.SetTag("pricing_mode", string(modeCfg.Mode))
	log.Info("order form rendered",
		observability.Int(observability.MetricPageCount, res.Pages),
		observability.Int(observability.MetricPageBreaks, res.Breaks),
		observability.Int(observability.MetricLineItems, len(d.items)),
		observability.Int(observability.MetricOutputSize, len(res.Bytes)),
		observability.Int64(observability.MetricRenderTime, time.Since(began).Milliseconds()),
	)
	return res, nil
}

func (cfg config) newCanvas(ord order.Order, now time.Time) builder.Canvas {
	if cfg.factory != nil {
		return cfg.factory(cfg.paper)
	}
	title := "Order Form"
	if name := strings.TrimSpace(ord.AccountName); name != "" {
		title += " - " + name
	}
	return builder.NewFPDF(cfg.paper,
		builder.WithTitle(title),
		builder.WithAuthor(cfg.brand.LegalName),
		builder.WithCreationDate(now),
	)
}

// derived holds the values computed once per render.
type derived struct {
	now        time.Time
	start, end time.Time
	period     string
	items      []order.LineItem
	total      float64
	rate       string
	usageTerms string
	special    []string
}

func derive(ord order.Order, items []order.LineItem, mode order.ModeConfig, now time.Time) derived {
	start := order.FirstOfMonth(order.ParseDate(ord.StartDate, now))
	end := order.EndDate(start, ord.TermMonths)
	period := order.DisplayDate(start) + " - " + order.DisplayDate(end)

	sorted := order.WithPeriod(order.SortLineItems(order.NormalizeItems(items)), period)
	rate := order.ExcessUsageRate(sorted, mode.Mode)
	terms := order.UsageTerms(mode.Mode, order.ProductsFromItems(sorted), rate)
	if terms == "" {
		terms = ord.UsageTerms
	}
	return derived{
		now:        now,
		start:      start,
		end:        end,
		period:     period,
		items:      sorted,
		total:      order.Total(sorted),
		rate:       rate,
		usageTerms: terms,
		special:    order.NormalizeSpecialTerms(ord.SpecialTerms),
	}
}

// warnUncovered logs order text the regular font cannot draw. A registered
// custom font is checked glyph by glyph; the builtin fonts only cover Latin.
func warnUncovered(log observability.Logger, ord order.Order, d derived, set *assets.Set, fam fonts.Family) {
	var custom *fonts.TrueType
	if set != nil && set.Regular != nil && fam.Regular == set.Regular.Name {
		custom = set.Regular
	}
	for field, text := range map[string]string{
		"account_name":     ord.AccountName,
		"primary_contact":  ord.PrimaryContactName,
		"shipping_address": ord.ShippingAddress,
		"billing_address":  ord.BillingAddress,
		"usage_terms":      d.usageTerms,
	} {
		if strings.TrimSpace(text) == "" {
			continue
		}
		uncovered := fonts.NeedsUnicodeFont(text)
		if custom != nil {
			uncovered = !custom.Covers(text)
		}
		if uncovered {
			log.Warn("text not covered by the regular font, glyphs will be substituted",
				observability.String("field", field),
				observability.String("font", fam.Regular),
				observability.String("script", fonts.DetectScript([]rune(text)).String()))
		}
	}
}

// Filename is the download name of the form: "MM.YYYY <prefix> Order Form -
// <account>.pdf". Path separators in the account name are replaced.
func Filename(b Brand, account string, now time.Time) string {
	account = strings.TrimSpace(account)
	if account == "" {
		account = "Account Name"
	}
	account = strings.NewReplacer("/", "-", "\\", "-").Replace(account)
	prefix := b.FilePrefix
	if prefix == "" {
		prefix = DefaultBrand.FilePrefix
	}
	return fmt.Sprintf("%s %s Order Form - %s.pdf", now.Format("01.2006"), prefix, account)
}
