package scraper

import (
	"galleryscraper/internal/downloader"
	"galleryscraper/pkg/resolver"
)

// HTTPClient is everything the scraper fetches through: the gallery page,
// detail pages, HEAD requests and image bodies
type HTTPClient interface {
	resolver.PageFetcher
	downloader.ImageFetcher
}

// Reporter receives progress as candidates finish
type Reporter interface {
	Start(total int)
	Record(outcome, url string, size int64, err error)
	Finish()
}
