package extract

import (
	"math/bits"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Size holds declared or inferred pixel dimensions
type Size struct {
	Width  int
	Height int
	// Inferred is set when the dimensions come from the URL rather than markup
	Inferred bool
}

// Area returns the pixel area
func (s *Size) Area() int {
	if s == nil {
		return 0
	}
	return s.Width * s.Height
}

// Container describes where an image sits in the page structure
type Container struct {
	// Path lists ancestor tag names, nearest first
	Path []string
	// Siblings is the element count of the nearest ancestor level that holds
	// more than one element
	Siblings int
}

// ImageElement is one image-bearing element of a page. All URLs are absolute.
type ImageElement struct {
	Source string
	// Link is the enclosing anchor target, "" when there is none
	Link string
	// Size is nil when neither markup nor URL give both dimensions
	Size      *Size
	Index     int
	Markers   []string
	Container Container
	Alt       string
}

// HasLink reports whether the image sits inside a followable anchor
func (e ImageElement) HasLink() bool {
	return e.Link != ""
}

// Area returns the known pixel area and whether it is known
func (e ImageElement) Area() (int, bool) {
	if e.Size == nil {
		return 0, false
	}
	return e.Size.Area(), true
}

// Signature fingerprints the element's structural position: ancestor tag
// chain, sibling-count bucket and marker pattern. Elements of one repeated
// layout share a signature.
func (e ImageElement) Signature() string {
	path, markers := e.layoutParts()
	return path + "|" + strconv.Itoa(bits.Len(uint(e.Container.Siblings))) + "|" + markers
}

// Layout is the signature without the sibling-count bucket. Rows of one
// grid share a layout even when the last row is short.
func (e ImageElement) Layout() string {
	path, markers := e.layoutParts()
	return path + "|" + markers
}

func (e ImageElement) layoutParts() (string, string) {
	return strings.Join(e.Container.Path, ">"), markerPattern(e.Markers)
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// markerPattern collapses numbered tokens ("photo-12", "photo-13") so that
// per-item ids do not split a group
func markerPattern(markers []string) string {
	seen := make(map[string]struct{}, len(markers))
	var pattern []string
	for _, m := range markers {
		p := digitRun.ReplaceAllString(m, "#")
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pattern = append(pattern, p)
	}
	sort.Strings(pattern)
	return strings.Join(pattern, ".")
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".avif": true,
	".svg":  true,
}

// IsImageURL reports whether the URL path ends in an image file extension
func IsImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Largest returns the element with the largest known area. Ties, and the case
// where no area is known at all, go to the earliest element.
func Largest(elems []ImageElement) (ImageElement, bool) {
	if len(elems) == 0 {
		return ImageElement{}, false
	}
	best, bestArea := 0, -1
	for i, e := range elems {
		area, _ := e.Area()
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	return elems[best], true
}
