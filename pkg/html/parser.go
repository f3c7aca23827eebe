package html

import (
	"fmt"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

const svgNamespace = "http://www.w3.org/2000/svg"
const mathMLNamespace = "http://www.w3.org/1998/Math/MathML"

// Parse builds a Document from HTML source.
func Parse(htmlContent string) (*Document, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader builds a Document from an HTML stream. Tree construction
// follows the HTML5 algorithm, so implied html/head/body/tbody elements are
// present in the result.
func ParseReader(r io.Reader) (*Document, error) {
	root, err := xhtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		doc.convert(doc.Root, c)
	}
	return doc, nil
}

func (d *Document) convert(parent *Node, src *xhtml.Node) {
	switch src.Type {
	case xhtml.TextNode:
		parent.AppendText(src.Data)
		return
	case xhtml.ElementNode:
	default:
		return
	}

	var attrs map[string]string
	if len(src.Attr) > 0 {
		attrs = make(map[string]string, len(src.Attr))
		for _, a := range src.Attr {
			key := strings.ToLower(a.Key)
			if a.Namespace != "" {
				key = a.Namespace + ":" + key
			}
			attrs[key] = a.Val
		}
	}

	n := d.CreateElement(src.Data, attrs)
	switch src.Namespace {
	case "svg":
		n.Namespace = svgNamespace
	case "math":
		n.Namespace = mathMLNamespace
	}
	parent.AddChild(n)

	switch n.TagName {
	case "style":
		media, _ := n.GetAttribute("media")
		d.Stylesheets = append(d.Stylesheets, StyleSource{Text: textOf(src), Media: media})
	case "link":
		rel, _ := n.GetAttribute("rel")
		href, ok := n.GetAttribute("href")
		if ok && strings.EqualFold(strings.TrimSpace(rel), "stylesheet") {
			media, _ := n.GetAttribute("media")
			d.Stylesheets = append(d.Stylesheets, StyleSource{Href: href, Media: media})
		}
	}

	for c := src.FirstChild; c != nil; c = c.NextSibling {
		d.convert(n, c)
	}
}

func textOf(n *xhtml.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
