package layout

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// ParseMarkdown converts markdown into rich paragraphs. Inline links and
// bare URLs become linked segments; emphasis and code are kept as plain
// text. Headings and list items each form their own paragraph.
func ParseMarkdown(source string) [][]Segment {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var paragraphs [][]Segment
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
				if segs := inlineSegments(c, src, ""); len(segs) > 0 {
					paragraphs = append(paragraphs, segs)
				}
			case *ast.ListItem:
				before := len(paragraphs)
				walk(c)
				if len(paragraphs) > before {
					paragraphs[before] = append([]Segment{{Text: "• "}}, paragraphs[before]...)
				}
			default:
				walk(c)
			}
		}
	}
	walk(doc)
	return paragraphs
}

func inlineSegments(n ast.Node, src []byte, link string) []Segment {
	var segs []Segment
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			s := string(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				s += " "
			}
			segs = appendSegment(segs, s, link)
		case *ast.String:
			segs = appendSegment(segs, string(c.Value), link)
		case *ast.Link:
			segs = append(segs, inlineSegments(c, src, string(c.Destination))...)
		case *ast.AutoLink:
			url := string(c.URL(src))
			segs = appendSegment(segs, string(c.Label(src)), url)
		case *ast.CodeSpan, *ast.Emphasis:
			segs = append(segs, inlineSegments(c, src, link)...)
		case *ast.Image:
			// images have no place in flowing text
		default:
			segs = append(segs, inlineSegments(c, src, link)...)
		}
	}
	return segs
}

// appendSegment merges adjacent runs that share a link. Whitespace-only runs
// join the previous run so the gap survives tokenization.
func appendSegment(segs []Segment, s, link string) []Segment {
	if s == "" {
		return segs
	}
	if n := len(segs); n > 0 && (segs[n-1].Link == link || strings.TrimSpace(s) == "") {
		segs[n-1].Text += s
		return segs
	}
	return append(segs, Segment{Text: s, Link: link})
}

// PlainText joins segment text, dropping links.
func PlainText(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
