package layout

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML converts an HTML fragment into rich paragraphs. Block elements
// start a new paragraph, <a href> produces linked segments and <br> ends the
// current line. Whitespace is collapsed as a browser would.
func ParseHTML(source string) ([][]Segment, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	p := &htmlParser{}
	p.walk(doc, "")
	p.flush()
	return p.paragraphs, nil
}

type htmlParser struct {
	paragraphs [][]Segment
	current    []Segment
}

func (p *htmlParser) flush() {
	segs := trimSegments(p.current)
	if len(segs) > 0 {
		p.paragraphs = append(p.paragraphs, segs)
	}
	p.current = nil
}

func (p *htmlParser) walk(n *html.Node, link string) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data, link)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Img:
			return
		case atom.Br:
			p.flush()
			return
		case atom.A:
			for _, a := range n.Attr {
				if a.Key == "href" && strings.TrimSpace(a.Val) != "" {
					link = strings.TrimSpace(a.Val)
				}
			}
		case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.Blockquote, atom.Pre, atom.Tr:
			p.flush()
			defer p.flush()
		case atom.Li:
			p.flush()
			p.current = append(p.current, Segment{Text: "• "})
			defer p.flush()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, link)
	}
}

func (p *htmlParser) text(data, link string) {
	if data == "" {
		return
	}
	collapsed := strings.Join(strings.Fields(data), " ")
	if collapsed == "" {
		collapsed = " "
	} else {
		if isSpace(data[0]) {
			collapsed = " " + collapsed
		}
		if isSpace(data[len(data)-1]) {
			collapsed += " "
		}
	}
	p.current = appendSegment(p.current, collapsed, link)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}

// trimSegments removes leading and trailing whitespace of a paragraph and
// drops runs that end up empty.
func trimSegments(segs []Segment) []Segment {
	for len(segs) > 0 {
		segs[0].Text = strings.TrimLeft(segs[0].Text, " ")
		if segs[0].Text != "" {
			break
		}
		segs = segs[1:]
	}
	for len(segs) > 0 {
		last := len(segs) - 1
		segs[last].Text = strings.TrimRight(segs[last].Text, " ")
		if segs[last].Text != "" {
			break
		}
		segs = segs[:last]
	}
	return segs
}
