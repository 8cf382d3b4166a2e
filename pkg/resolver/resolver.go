// Package resolver finds the full-size image URL behind a gallery candidate.
package resolver

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"galleryscraper/pkg/document"
	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/extract"
	"galleryscraper/pkg/fetch"
	"galleryscraper/pkg/gallery"
	"galleryscraper/pkg/logger"
)

// PageFetcher is the part of the HTTP client the resolver needs
type PageFetcher interface {
	GetPage(ctx context.Context, pageURL string) (*fetch.Page, error)
	Head(ctx context.Context, rawURL string) (*fetch.HeadInfo, error)
}

// Resolver resolves candidates. It is safe for concurrent use; detail pages
// and HEAD requests are issued at most once per URL.
type Resolver struct {
	fetcher PageFetcher
	exclude func(extract.ImageElement) bool
	logger  logger.Logger

	group  singleflight.Group
	mu     sync.Mutex
	pages  map[string]string
	heads  map[string]headResult
}

type headResult struct {
	info *fetch.HeadInfo
	err  error
}

// New creates a resolver. exclude, when set, removes images of a detail
// page from consideration (typically the classifier's denylist).
func New(fetcher PageFetcher, exclude func(extract.ImageElement) bool, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		fetcher: fetcher,
		exclude: exclude,
		logger:  log.WithField("component", "resolver"),
		pages:   make(map[string]string),
		heads:   make(map[string]headResult),
	}
}

// Resolve returns the full-size image URL of cand and records it on the
// candidate. A candidate that is already resolved keeps its URL.
//
//  1. A link with an image extension is used as-is.
//  2. Any other link is a detail page; its largest image wins.
//  3. Without a link, or when the detail page has no image, the element's
//     own source is used.
//
// A detail page that cannot be fetched is a fetch error; a candidate with
// nothing usable is a resolution error.
func (r *Resolver) Resolve(ctx context.Context, cand *gallery.Candidate) (string, error) {
	if cand.ResolvedURL != "" {
		return cand.ResolvedURL, nil
	}

	resolved, err := r.resolve(ctx, cand.ImageElement)
	if err != nil {
		return "", err
	}

	cand.ResolvedURL = resolved
	r.logger.DebugWithFields("candidate resolved", map[string]interface{}{
		"index":    cand.Index,
		"source":   cand.Source,
		"link":     cand.Link,
		"resolved": resolved,
	})
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, img extract.ImageElement) (string, error) {
	if img.HasLink() {
		if extract.IsImageURL(img.Link) {
			return img.Link, nil
		}

		full, err := r.fromDetailPage(ctx, img.Link)
		if err != nil {
			return "", err
		}
		if full != "" {
			return full, nil
		}
		r.logger.DebugWithFields("detail page has no image, using own source", map[string]interface{}{
			"link": img.Link,
		})
	}

	if usable(img.Source) {
		return img.Source, nil
	}

	target := img.Link
	if target == "" {
		target = img.Source
	}
	return "", errs.NewResolutionError(target, "no usable full-size image URL")
}

// fromDetailPage returns the largest image of the page at link, or "" when
// the page holds none. Results are shared between concurrent callers.
func (r *Resolver) fromDetailPage(ctx context.Context, link string) (string, error) {
	r.mu.Lock()
	if cached, ok := r.pages[link]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("page:"+link, func() (interface{}, error) {
		r.mu.Lock()
		cached, ok := r.pages[link]
		r.mu.Unlock()
		if ok {
			return cached, nil
		}

		page, err := r.fetcher.GetPage(ctx, link)
		if err != nil {
			return "", err
		}

		// The link served an image without an image extension
		if isImageContentType(page.ContentType) {
			r.mu.Lock()
			r.pages[link] = page.URL
			r.mu.Unlock()
			return page.URL, nil
		}

		doc, err := document.ParseBytes(page.Body, page.URL)
		if err != nil {
			return "", err
		}
		full := r.largestImage(ctx, extract.Images(doc))

		r.mu.Lock()
		r.pages[link] = full
		r.mu.Unlock()
		return full, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// largestImage picks the largest usable image by known area. When no image
// declares its dimensions, each image gets a HEAD request and the longest
// image body wins; if every HEAD request fails, the first image is used.
func (r *Resolver) largestImage(ctx context.Context, images []extract.ImageElement) string {
	var usableImages []extract.ImageElement
	sized := false
	for _, img := range images {
		if !usable(img.Source) || (r.exclude != nil && r.exclude(img)) {
			continue
		}
		usableImages = append(usableImages, img)
		if img.Size != nil {
			sized = true
		}
	}
	if len(usableImages) == 0 {
		return ""
	}

	if sized {
		best, _ := extract.Largest(usableImages)
		return best.Source
	}

	best, bestLength := "", int64(-1)
	measured := false
	for _, img := range usableImages {
		info, err := r.head(ctx, img.Source)
		if err != nil {
			continue
		}
		measured = true
		if info.ContentType != "" && !isImageContentType(info.ContentType) {
			continue
		}
		if info.Length > bestLength {
			best, bestLength = img.Source, info.Length
		}
	}
	if !measured {
		return usableImages[0].Source
	}
	return best
}

// head issues a HEAD request once per URL
func (r *Resolver) head(ctx context.Context, rawURL string) (*fetch.HeadInfo, error) {
	r.mu.Lock()
	if cached, ok := r.heads[rawURL]; ok {
		r.mu.Unlock()
		return cached.info, cached.err
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("head:"+rawURL, func() (interface{}, error) {
		r.mu.Lock()
		cached, ok := r.heads[rawURL]
		r.mu.Unlock()
		if ok {
			return cached.info, cached.err
		}

		info, err := r.fetcher.Head(ctx, rawURL)
		if ctx.Err() == nil {
			r.mu.Lock()
			r.heads[rawURL] = headResult{info: info, err: err}
			r.mu.Unlock()
		}
		if err != nil {
			r.logger.DebugWithFields("image HEAD request failed", map[string]interface{}{
				"url":   rawURL,
				"error": err.Error(),
			})
		}
		return info, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*fetch.HeadInfo), nil
}

func usable(src string) bool {
	return src != "" && !strings.HasPrefix(strings.ToLower(src), "data:")
}

func isImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
