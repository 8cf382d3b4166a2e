package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galleryscraper/pkg/config"
	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/extract"
	"galleryscraper/pkg/fetch"
	"galleryscraper/pkg/gallery"
	"galleryscraper/pkg/logger"
)

// fakeFetcher serves canned pages and HEAD responses and counts requests
type fakeFetcher struct {
	mu        sync.Mutex
	pages     map[string]*fetch.Page
	heads     map[string]*fetch.HeadInfo
	pageCalls map[string]int
	headCalls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:     make(map[string]*fetch.Page),
		heads:     make(map[string]*fetch.HeadInfo),
		pageCalls: make(map[string]int),
		headCalls: make(map[string]int),
	}
}

func (f *fakeFetcher) addPage(url, html string) {
	f.pages[url] = &fetch.Page{URL: url, ContentType: "text/html", Body: []byte(html)}
}

func (f *fakeFetcher) GetPage(ctx context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls[url]++
	page, ok := f.pages[url]
	if !ok {
		return nil, errs.NewFetchError(url, http.StatusNotFound, "resource not found", nil)
	}
	return page, nil
}

func (f *fakeFetcher) Head(ctx context.Context, url string) (*fetch.HeadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headCalls[url]++
	info, ok := f.heads[url]
	if !ok {
		return nil, errs.NewFetchError(url, http.StatusMethodNotAllowed, "unexpected status code: 405", nil)
	}
	return info, nil
}

func (f *fakeFetcher) calls(m map[string]int, url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return m[url]
}

func candidate(source, link string) *gallery.Candidate {
	return &gallery.Candidate{ImageElement: extract.ImageElement{Source: source, Link: link}}
}

func TestResolveDirectImageLink(t *testing.T) {
	f := newFakeFetcher()
	r := New(f, nil, logger.NewNopLogger())

	cand := candidate("http://example.com/t/1.jpg", "http://example.com/full/1.JPEG")
	got, err := r.Resolve(context.Background(), cand)

	require.NoError(t, err)
	assert.Equal(t, "http://example.com/full/1.JPEG", got)
	assert.Equal(t, got, cand.ResolvedURL)
	assert.Empty(t, f.pageCalls, "image links are not fetched")
}

func TestResolveDetailPagePicksLargestSizedImage(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/photo/1", `<html><body>
<img class="logo" src="/logo.png" width="2000" height="400">
<img src="/small.jpg" width="320" height="240">
<img src="/full/1.jpg" width="1600" height="1200">
<img src="/related.jpg">
</body></html>`)

	c := gallery.NewClassifier(gallery.DefaultOptions(), logger.NewNopLogger())
	r := New(f, c.Denied, logger.NewNopLogger())

	got, err := r.Resolve(context.Background(), candidate("http://example.com/t/1.jpg", "http://example.com/photo/1"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/full/1.jpg", got, "the denylisted logo is ignored")
}

func TestResolveDetailPageMeasuresUnsizedImages(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/photo/2", `<html><body>
<img src="/a.jpg"><img src="/b.jpg"><img src="/page.html"><img src="/c.jpg">
</body></html>`)
	f.heads["http://example.com/a.jpg"] = &fetch.HeadInfo{ContentType: "image/jpeg", Length: 1000}
	f.heads["http://example.com/b.jpg"] = &fetch.HeadInfo{ContentType: "image/jpeg", Length: 90000}
	f.heads["http://example.com/page.html"] = &fetch.HeadInfo{ContentType: "text/html", Length: 500000}
	f.heads["http://example.com/c.jpg"] = &fetch.HeadInfo{ContentType: "image/jpeg", Length: 90000}

	r := New(f, nil, logger.NewNopLogger())
	got, err := r.Resolve(context.Background(), candidate("http://example.com/t/2.jpg", "http://example.com/photo/2"))

	require.NoError(t, err)
	assert.Equal(t, "http://example.com/b.jpg", got, "longest image body wins, ties go to the earliest")

	// A second candidate linking the same page reuses the cached result
	_, err = r.Resolve(context.Background(), candidate("http://example.com/t/2b.jpg", "http://example.com/photo/2"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls(f.pageCalls, "http://example.com/photo/2"))
	assert.Equal(t, 1, f.calls(f.headCalls, "http://example.com/a.jpg"))
}

func TestResolveHeadFailuresFallBackToFirstImage(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/photo/3", `<img src="/x.jpg"><img src="/y.jpg">`)

	r := New(f, nil, logger.NewNopLogger())
	got, err := r.Resolve(context.Background(), candidate("http://example.com/t/3.jpg", "http://example.com/photo/3"))

	require.NoError(t, err)
	assert.Equal(t, "http://example.com/x.jpg", got)
}

func TestResolveFallsBackToOwnSource(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/article", `<html><body><p>No pictures here</p></body></html>`)
	r := New(f, nil, logger.NewNopLogger())

	got, err := r.Resolve(context.Background(), candidate("http://example.com/img/own.jpg", "http://example.com/article"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/img/own.jpg", got)

	got, err = r.Resolve(context.Background(), candidate("http://example.com/img/nolink.jpg", ""))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/img/nolink.jpg", got)
}

func TestResolveDetailPageFetchError(t *testing.T) {
	r := New(newFakeFetcher(), nil, logger.NewNopLogger())

	cand := candidate("http://example.com/t/4.jpg", "http://example.com/photo/missing")
	_, err := r.Resolve(context.Background(), cand)

	require.Error(t, err)
	assert.True(t, errs.IsFetch(err))
	assert.Empty(t, cand.ResolvedURL)
}

func TestResolveNothingUsable(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/empty", `<html></html>`)
	r := New(f, nil, logger.NewNopLogger())

	_, err := r.Resolve(context.Background(), candidate("data:image/gif;base64,R0lGOD", ""))
	require.Error(t, err)
	assert.True(t, errs.IsResolution(err))

	_, err = r.Resolve(context.Background(), candidate("", "http://example.com/empty"))
	require.Error(t, err)
	assert.True(t, errs.IsResolution(err))
}

func TestResolveIsIdempotent(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/photo/5", `<img src="/full/5.jpg" width="1000" height="800">`)
	r := New(f, nil, logger.NewNopLogger())

	cand := candidate("http://example.com/t/5.jpg", "http://example.com/photo/5")
	first, err := r.Resolve(context.Background(), cand)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), cand)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A fresh copy of the same candidate with a fresh resolver agrees too
	again, err := New(f, nil, logger.NewNopLogger()).Resolve(context.Background(), candidate(cand.Source, cand.Link))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestResolveConcurrentCallersShareDetailPage(t *testing.T) {
	f := newFakeFetcher()
	f.addPage("http://example.com/photo/6", `<img src="/full/6.jpg" width="1000" height="800">`)
	r := New(f, nil, logger.NewNopLogger())

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background(), candidate(fmt.Sprintf("http://example.com/t/%d.jpg", i), "http://example.com/photo/6"))
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "http://example.com/full/6.jpg", got)
	}
	assert.Equal(t, 1, f.calls(f.pageCalls, "http://example.com/photo/6"))
}

func TestResolveOverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/photo/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><img src="/full/7a.jpg"><img src="/full/7b.jpg"></body></html>`)
	})
	mux.HandleFunc("/full/7a.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "100")
		w.Write(make([]byte, 100))
	})
	mux.HandleFunc("/full/7b.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "5000")
		w.Write(make([]byte, 5000))
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := fetch.NewClient(&config.HTTPConfig{Timeout: 5 * time.Second, RetryDelay: time.Millisecond}, logger.NewNopLogger())
	r := New(client, nil, logger.NewNopLogger())

	got, err := r.Resolve(context.Background(), candidate(server.URL+"/t/7.jpg", server.URL+"/photo/7"))
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/full/7b.jpg", got)

	got, err = r.Resolve(context.Background(), candidate(server.URL+"/t/8.jpg", server.URL+"/view?id=8"))
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/view?id=8", got, "a link serving an image is the image")
}
