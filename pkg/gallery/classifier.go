// Package gallery decides which images of a page form its gallery.
//
// Images are filtered (unusable sources, denylisted markers, decorative
// sizes), de-duplicated, then grouped by structural signature. The largest
// repeated group wins; without one, the single largest image stands in as a
// one-image gallery. An empty result means no gallery was detected and is
// not an error.
package gallery

import (
	"sort"
	"strings"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/extract"
	"galleryscraper/pkg/logger"
)

// Candidate is an image selected as part of the gallery. ResolvedURL is
// filled in once, by the resolver.
type Candidate struct {
	extract.ImageElement
	ResolvedURL string
}

// Options are the heuristic thresholds
type Options struct {
	// MinGroupSize is how often a structure must repeat to count as a gallery
	MinGroupSize int
	// MinArea excludes images whose known pixel area is smaller
	MinArea int
	// Denylist holds marker tokens of non-content images
	Denylist []string
}

// DefaultOptions returns the default thresholds
func DefaultOptions() Options {
	return OptionsFromConfig(&config.DefaultConfig().Classifier)
}

// OptionsFromConfig maps the classifier config section to Options
func OptionsFromConfig(cfg *config.ClassifierConfig) Options {
	return Options{
		MinGroupSize: cfg.MinGroupSize,
		MinArea:      cfg.MinArea,
		Denylist:     append([]string(nil), cfg.Denylist...),
	}
}

// Classifier selects gallery candidates from a page's images
type Classifier struct {
	opts     Options
	denylist [][]string
	logger   logger.Logger
}

// NewClassifier creates a classifier. A MinGroupSize below 2 is raised to 2.
func NewClassifier(opts Options, log logger.Logger) *Classifier {
	if opts.MinGroupSize < 2 {
		opts.MinGroupSize = 2
	}
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Classifier{
		opts:   opts,
		logger: log.WithField("component", "classifier"),
	}
	for _, entry := range opts.Denylist {
		if parts := tokenParts(entry); len(parts) > 0 {
			c.denylist = append(c.denylist, parts)
		}
	}
	return c
}

type group struct {
	signature string
	members   []extract.ImageElement
	meanArea  float64
	first     int
}

// Classify returns the gallery candidates in document order
func (c *Classifier) Classify(images []extract.ImageElement) []*Candidate {
	eligible := c.filter(images)
	if len(eligible) == 0 {
		c.logger.InfoWithFields("no gallery detected", map[string]interface{}{
			"images": len(images),
		})
		return nil
	}

	groups := groupBySignature(eligible)
	best := c.pickGroup(groups)

	var selected []extract.ImageElement
	if best != nil {
		selected = best.members
		c.logger.InfoWithFields("gallery detected", map[string]interface{}{
			"images":    len(images),
			"eligible":  len(eligible),
			"groups":    len(groups),
			"selected":  len(selected),
			"signature": best.signature,
		})
	} else {
		largest, _ := extract.Largest(eligible)
		selected = []extract.ImageElement{largest}
		c.logger.InfoWithFields("no repeated structure, using largest image", map[string]interface{}{
			"images":   len(images),
			"eligible": len(eligible),
			"index":    largest.Index,
		})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Index < selected[j].Index
	})

	candidates := make([]*Candidate, 0, len(selected))
	for _, img := range selected {
		candidates = append(candidates, &Candidate{ImageElement: img})
	}
	return candidates
}

// filter drops unusable, denylisted, undersized and repeated images
func (c *Classifier) filter(images []extract.ImageElement) []extract.ImageElement {
	type key struct{ source, link string }
	seen := make(map[key]struct{}, len(images))

	var out []extract.ImageElement
	for _, img := range images {
		switch {
		case img.Source == "" || strings.HasPrefix(strings.ToLower(img.Source), "data:"):
			c.logger.DebugWithFields("image skipped: no usable source", map[string]interface{}{"index": img.Index})
			continue
		case c.Denied(img):
			c.logger.DebugWithFields("image skipped: denylisted marker", map[string]interface{}{
				"index":   img.Index,
				"markers": img.Markers,
			})
			continue
		}
		if area, ok := img.Area(); ok && area < c.opts.MinArea {
			c.logger.DebugWithFields("image skipped: below minimum area", map[string]interface{}{
				"index": img.Index,
				"area":  area,
			})
			continue
		}

		k := key{img.Source, img.Link}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, img)
	}
	return out
}

// Denied reports whether any marker of img matches the denylist. An entry
// matches a marker equal to it or containing its dash/underscore parts in
// sequence, so "logo" matches "site-logo" but not "logotype".
func (c *Classifier) Denied(img extract.ImageElement) bool {
	for _, marker := range img.Markers {
		parts := tokenParts(marker)
		for _, entry := range c.denylist {
			if containsRun(parts, entry) {
				return true
			}
		}
	}
	return false
}

func tokenParts(token string) []string {
	return strings.FieldsFunc(strings.ToLower(token), func(r rune) bool {
		return r == '-' || r == '_'
	})
}

func containsRun(parts, run []string) bool {
	for i := 0; i+len(run) <= len(parts); i++ {
		match := true
		for j := range run {
			if parts[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// groupBySignature groups images by signature, then folds signature groups
// that share a layout into one. A row-chunked grid whose last row is short
// lands in two sibling buckets but is still one gallery.
func groupBySignature(images []extract.ImageElement) []*group {
	bySig := make(map[string]*group)
	var sigGroups []*group
	for _, img := range images {
		sig := img.Signature()
		g, ok := bySig[sig]
		if !ok {
			g = &group{signature: sig, first: img.Index}
			bySig[sig] = g
			sigGroups = append(sigGroups, g)
		}
		g.members = append(g.members, img)
	}

	byLayout := make(map[string]*group)
	var groups []*group
	for _, sg := range sigGroups {
		layout := sg.members[0].Layout()
		g, ok := byLayout[layout]
		if !ok {
			byLayout[layout] = sg
			groups = append(groups, sg)
			continue
		}
		if len(sg.members) > len(g.members) {
			g.signature = sg.signature
		}
		g.members = append(g.members, sg.members...)
		if sg.first < g.first {
			g.first = sg.first
		}
	}

	for _, g := range groups {
		total := 0
		for _, m := range g.members {
			area, _ := m.Area()
			total += area
		}
		g.meanArea = float64(total) / float64(len(g.members))
	}
	return groups
}

// pickGroup returns the winning group, or nil when none repeats often enough.
// Larger groups win; ties go to the larger mean known area, then to the group
// that appears first.
func (c *Classifier) pickGroup(groups []*group) *group {
	var best *group
	for _, g := range groups {
		if len(g.members) < c.opts.MinGroupSize {
			continue
		}
		if best == nil || better(g, best) {
			best = g
		}
	}
	return best
}

func better(a, b *group) bool {
	if len(a.members) != len(b.members) {
		return len(a.members) > len(b.members)
	}
	if a.meanArea != b.meanArea {
		return a.meanArea > b.meanArea
	}
	return a.first < b.first
}
