// Package htmltree turns raw HTML into the model.Node tree the extractor reads.
//
// It produces the same shape the scraping service returns: elements with
// their attributes, trimmed text leaves, and no comments or
// whitespace-only text, so positional child offsets line up.
package htmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/robertmeta/tvfixtures/model"
)

// ErrNoRoot is returned when a document has no <html> element.
var ErrNoRoot = errors.New("document has no html element")

// Parse reads an HTML document and converts its <html> element.
func Parse(r io.Reader) (*model.Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument converts the <html> element of a goquery document.
func FromDocument(doc *goquery.Document) (*model.Node, error) {
	root := doc.Find("html").First()
	if root.Length() == 0 {
		return nil, ErrNoRoot
	}
	return Convert(root.Get(0)), nil
}

// Convert copies an element and its descendants. Non-element input yields nil.
func Convert(n *html.Node) *model.Node {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	out := &model.Node{Tag: strings.ToLower(n.Data)}
	if len(n.Attr) > 0 {
		out.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			out.Attrs[a.Key] = a.Val
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			out.Children = append(out.Children, model.ElementChild(Convert(c)))
		case html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				out.Children = append(out.Children, model.TextChild(text))
			}
		}
	}
	return out
}
