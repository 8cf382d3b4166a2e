// Package extract turns a parsed page into ImageElement records.
package extract

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"galleryscraper/pkg/document"
)

// containerDepth is how many ancestors take part in the structural signature
const containerDepth = 3

// lazyAttrs hold the real source on lazy-loading pages
var lazyAttrs = []string{"data-src", "data-lazy-src", "data-original", "data-full"}

var (
	styleWidth   = regexp.MustCompile(`(?i)(?:^|;)\s*width\s*:\s*(\d+)(?:\.\d+)?px`)
	styleHeight  = regexp.MustCompile(`(?i)(?:^|;)\s*height\s*:\s*(\d+)(?:\.\d+)?px`)
	urlDimension = regexp.MustCompile(`(\d{2,5})[xX](\d{2,5})`)
	srcsetWidth  = regexp.MustCompile(`^(\d+(?:\.\d+)?)([wx])$`)
)

// Images extracts every <img> of the document in document order
func Images(doc *document.Document) []ImageElement {
	var out []ImageElement
	for i, el := range doc.FindAll("img") {
		out = append(out, FromElement(doc, el, i))
	}
	return out
}

// FromElement builds the ImageElement for one <img>
func FromElement(doc *document.Document, el document.Element, index int) ImageElement {
	source := sourceOf(doc, el)
	alt, _ := el.Attr("alt")

	return ImageElement{
		Source:    source,
		Link:      linkOf(doc, el),
		Size:      sizeOf(el, source),
		Index:     index,
		Markers:   markersOf(el),
		Container: containerOf(el),
		Alt:       strings.TrimSpace(alt),
	}
}

func usableSource(s string) bool {
	return s != "" && !strings.HasPrefix(strings.ToLower(s), "data:")
}

// sourceOf prefers src, then the known lazy-loading attributes, then the
// widest srcset entry, then any other data-* attribute holding an image URL.
// An inline data: URI is kept as-is so it can be rejected later.
func sourceOf(doc *document.Document, el document.Element) string {
	attrs := el.Attrs()
	src := strings.TrimSpace(attrs["src"])
	if usableSource(src) {
		return doc.Resolve(src)
	}

	for _, attr := range lazyAttrs {
		if v := strings.TrimSpace(attrs[attr]); usableSource(v) {
			return doc.Resolve(v)
		}
	}
	for _, attr := range []string{"srcset", "data-srcset"} {
		if v, ok := attrs[attr]; ok {
			if best := pickFromSrcset(v); usableSource(best) {
				return doc.Resolve(best)
			}
		}
	}

	var extra []string
	for name := range attrs {
		if strings.HasPrefix(name, "data-") && !strings.HasSuffix(name, "srcset") {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		v := strings.TrimSpace(attrs[name])
		if !usableSource(v) {
			continue
		}
		if abs := doc.Resolve(v); abs != "" && IsImageURL(abs) {
			return abs
		}
	}

	return src
}

// pickFromSrcset returns the candidate with the largest width or density
// descriptor
func pickFromSrcset(srcset string) string {
	best, bestValue := "", -1.0
	for _, item := range strings.Split(srcset, ",") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		value := 1.0
		if len(fields) > 1 {
			if m := srcsetWidth.FindStringSubmatch(fields[1]); m != nil {
				value, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if value > bestValue {
			best, bestValue = fields[0], value
		}
	}
	return best
}

// linkOf returns the absolute target of the nearest enclosing anchor
func linkOf(doc *document.Document, el document.Element) string {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.Tag() != "a" {
			continue
		}
		href, ok := p.Attr("href")
		if !ok {
			return ""
		}
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
			return ""
		}
		u, err := url.Parse(doc.Resolve(href))
		if err != nil || u.Host == "" {
			return ""
		}
		u.Fragment = ""
		return u.String()
	}
	return ""
}

// sizeOf reads width/height attributes, then inline style, then a
// WIDTHxHEIGHT pattern in the file name
func sizeOf(el document.Element, source string) *Size {
	w := dimensionAttr(el, "width")
	h := dimensionAttr(el, "height")
	if style, ok := el.Attr("style"); ok {
		if w == 0 {
			w = styleDimension(styleWidth, style)
		}
		if h == 0 {
			h = styleDimension(styleHeight, style)
		}
	}
	if w > 0 && h > 0 {
		return &Size{Width: w, Height: h}
	}

	if fw, fh := dimensionsFromURL(source); fw > 0 && fh > 0 {
		return &Size{Width: fw, Height: fh, Inferred: true}
	}
	return nil
}

// dimensionAttr parses "640" or "640px"; percentages and garbage yield 0
func dimensionAttr(el document.Element, name string) int {
	v, ok := el.Attr(name)
	if !ok {
		return 0
	}
	v = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(v)), "px")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func styleDimension(re *regexp.Regexp, style string) int {
	m := re.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func dimensionsFromURL(raw string) (int, int) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, 0
	}
	m := urlDimension.FindStringSubmatch(path.Base(u.Path))
	if m == nil {
		return 0, 0
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h
}

// markersOf collects id and class tokens of the image, its parent and its
// enclosing anchor
func markersOf(el document.Element) []string {
	set := make(map[string]struct{})
	add := func(e document.Element) {
		attrs := e.Attrs()
		for _, attr := range []string{"id", "class"} {
			for _, tok := range strings.Fields(strings.ToLower(attrs[attr])) {
				set[tok] = struct{}{}
			}
		}
	}

	add(el)
	if parent := el.Parent(); parent != nil {
		add(parent)
		if parent.Tag() != "a" {
			for p := parent.Parent(); p != nil; p = p.Parent() {
				if p.Tag() == "a" {
					add(p)
					break
				}
			}
		}
	}

	markers := make([]string, 0, len(set))
	for tok := range set {
		markers = append(markers, tok)
	}
	sort.Strings(markers)
	return markers
}

func containerOf(el document.Element) Container {
	c := Container{Siblings: 1}

	for p := el.Parent(); p != nil && len(c.Path) < containerDepth; p = p.Parent() {
		c.Path = append(c.Path, p.Tag())
	}

	cur := el
	for i := 0; i < containerDepth; i++ {
		parent := cur.Parent()
		if parent == nil {
			break
		}
		if n := len(parent.Children()); n > 1 {
			c.Siblings = n
			break
		}
		cur = parent
	}
	return c
}
