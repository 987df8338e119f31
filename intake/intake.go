// Package intake pre-fills an order from an uploaded source document. Plain
// text, HTML and DOCX files are reduced to lines of text, and order fields
// are picked out of "Label: value" lines.
package intake

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/wudi/orderkit/layout"
	"github.com/wudi/orderkit/order"
)

// ErrUnsupportedFormat is returned for uploads that are not .txt, .html or
// .docx files.
var ErrUnsupportedFormat = errors.New("unsupported upload format")

// MaxUploadSize caps the bytes read from an upload.
const MaxUploadSize = 10 << 20

// ReadText returns the text of an uploaded file, picking the reader from the
// file extension.
func ReadText(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return strings.ToValidUTF8(string(data), ""), nil
	case ".html", ".htm":
		return htmlText(string(data))
	case ".docx":
		return docxText(data)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

func htmlText(source string) (string, error) {
	paras, err := layout.ParseHTML(source)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	lines := make([]string, len(paras))
	for i, p := range paras {
		lines[i] = layout.PlainText(p)
	}
	return strings.Join(lines, "\n"), nil
}

// docxText returns the paragraphs of word/document.xml, one per line.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		text, err := docxParagraphs(xml.NewDecoder(io.LimitReader(rc, MaxUploadSize)))
		if err != nil {
			return "", fmt.Errorf("parse document part: %w", err)
		}
		return text, nil
	}
	return "", errors.New("open docx: missing word/document.xml")
}

// docxParagraphs walks the WordprocessingML token stream. Text runs inside
// hyperlinks are kept in document order.
func docxParagraphs(dec *xml.Decoder) (string, error) {
	var (
		lines  []string
		cur    strings.Builder
		inPara bool
		inRun  bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				cur.Reset()
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if inPara && inRun {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara && inRun {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				lines = append(lines, cur.String())
				inPara = false
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				cur.Write(t)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// NormalizeText trims every line and drops blank ones.
func NormalizeText(text string) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

func labelPattern(label string) *regexp.Regexp {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	re, ok := patterns[label]
	if !ok {
		re = regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(label) + `[ \t]*[:\-][ \t]*(.+)$`)
		patterns[label] = re
	}
	return re
}

// FindField returns the value of the first "label: value" or "label - value"
// line, trying labels in order. Labels match case-insensitively at the start
// of a line.
func FindField(text string, labels ...string) string {
	for _, label := range labels {
		if m := labelPattern(label).FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// Field label lists, in priority order.
var (
	AccountLabels         = []string{"customer", "account", "account name", "customer name"}
	ContactLabels         = []string{"primary contact", "contact", "contact name"}
	ContactEmailLabels    = []string{"contact email", "customer contact", "email"}
	BillingEmailLabels    = []string{"billing email", "invoice email"}
	ShippingAddressLabels = []string{"shipping address", "ship to", "address"}
	BillingAddressLabels  = []string{"billing address", "bill to"}
	StartDateLabels       = []string{"start date", "subscription start"}
	TermLabels            = []string{"subscription term (months)", "subscription term", "term months", "term"}
	FrequencyLabels       = []string{"billing frequency", "frequency"}
	PaymentTermsLabels    = []string{"payment terms", "terms"}
	PaymentMethodLabels   = []string{"payment method"}
	BillingIDLabels       = []string{"billing id", "aws billing id", "gcp billing id", "azure billing id"}
	PONumberLabels        = []string{"po", "po number", "purchase order"}
	OpportunityLabels     = []string{"opportunity type", "deal type", "deal label"}
	AddendumDateLabels    = []string{"addendum effective date", "effective date", "upsell effective date"}
	TermsTypeLabels       = []string{"terms", "terms type", "agreement type"}
	MSADateLabels         = []string{"msa execution date", "msa executed on", "msa date"}
	ExpirationLabels      = []string{"expiration date", "quote expiration", "expires on"}
	UsageTermsLabels      = []string{"usage terms", "terms details", "notes"}
)

// DefaultTermMonths is used when a term is present but not a number.
const DefaultTermMonths = 12

// ExtractFields picks order fields out of document text. Fields that are
// not found stay empty; TermMonths stays 0 when no term line exists.
func ExtractFields(text string) order.Order {
	t := NormalizeText(text)
	return order.Order{
		AccountName:           FindField(t, AccountLabels...),
		PrimaryContactName:    FindField(t, ContactLabels...),
		PrimaryContactEmail:   FindField(t, ContactEmailLabels...),
		BillingEmail:          FindField(t, BillingEmailLabels...),
		ShippingAddress:       FindField(t, ShippingAddressLabels...),
		BillingAddress:        FindField(t, BillingAddressLabels...),
		StartDate:             FindField(t, StartDateLabels...),
		TermMonths:            termMonths(FindField(t, TermLabels...)),
		BillingFrequency:      FindField(t, FrequencyLabels...),
		PaymentTerms:          FindField(t, PaymentTermsLabels...),
		PaymentMethod:         FindField(t, PaymentMethodLabels...),
		BillingID:             FindField(t, BillingIDLabels...),
		PONumber:              FindField(t, PONumberLabels...),
		OpportunityType:       FindField(t, OpportunityLabels...),
		AddendumEffectiveDate: FindField(t, AddendumDateLabels...),
		TermsType:             FindField(t, TermsTypeLabels...),
		MSAExecutionDate:      FindField(t, MSADateLabels...),
		ExpirationDate:        FindField(t, ExpirationLabels...),
		UsageTerms:            FindField(t, UsageTermsLabels...),
	}
}

func termMonths(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultTermMonths
	}
	return max(1, n)
}

// ErrNoText is returned when an upload holds no readable text.
var ErrNoText = errors.New("no readable text found")

// Extract reads an upload and picks order fields out of it. It also returns
// the text the fields were taken from.
func Extract(name string, r io.Reader) (order.Order, string, error) {
	text, err := ReadText(name, r)
	if err != nil {
		return order.Order{}, "", err
	}
	if strings.TrimSpace(text) == "" {
		return order.Order{}, "", ErrNoText
	}
	return ExtractFields(text), text, nil
}
