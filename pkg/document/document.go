// Package document exposes a parsed HTML page through a small typed
// interface so that extraction never touches parser internals.
package document

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "galleryscraper/pkg/errors"
)

// Element is a read-only view of one element of a parsed page
type Element interface {
	// Tag is the lower-case element name
	Tag() string
	Attr(name string) (string, bool)
	// Attrs returns every attribute; the map is a copy
	Attrs() map[string]string
	// Parent returns nil for the root element
	Parent() Element
	Children() []Element
}

// Document is a parsed page together with the URL relative references
// resolve against
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse reads an HTML document. Malformed markup is repaired by the parser;
// only a failure to read r or an unusable page URL is reported, as a
// parse error.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errs.NewParseError(pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errs.NewParseError(pageURL, err)
	}

	// <base href> overrides the page URL for relative references
	if href, ok := doc.Find("head base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	return &Document{doc: doc, base: base}, nil
}

// ParseBytes is Parse for an in-memory body
func ParseBytes(body []byte, pageURL string) (*Document, error) {
	return Parse(bytes.NewReader(body), pageURL)
}

// Resolve turns ref into an absolute URL. It returns "" when ref is empty or
// cannot be parsed.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(u).String()
}

// Title returns the trimmed page title, if any
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// FindAll returns the elements matching a CSS selector in document order
func (d *Document) FindAll(selector string) []Element {
	var out []Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &node{sel: s})
	})
	return out
}

// node implements Element over a single-node goquery selection
type node struct {
	sel *goquery.Selection
}

func (n *node) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *node) Attrs() map[string]string {
	attrs := make(map[string]string)
	if len(n.sel.Nodes) == 0 {
		return attrs
	}
	for _, a := range n.sel.Nodes[0].Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}

func (n *node) Parent() Element {
	parent := n.sel.Parent()
	if parent.Length() == 0 {
		return nil
	}
	return &node{sel: parent}
}

func (n *node) Children() []Element {
	var out []Element
	n.sel.Children().Each(func(_ int, s *goquery.Selection) {
		out = append(out, &node{sel: s})
	})
	return out
}
