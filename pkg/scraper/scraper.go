package scraper

import (
	"context"
	"fmt"
	"time"

	"galleryscraper/internal/downloader"
	"galleryscraper/pkg/config"
	"galleryscraper/pkg/document"
	"galleryscraper/pkg/extract"
	"galleryscraper/pkg/fetch"
	"galleryscraper/pkg/gallery"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/resolver"
	"galleryscraper/pkg/storage"
	"galleryscraper/pkg/ui"
)

// Summary is the tally of one run
type Summary struct {
	PageURL    string
	Title      string
	OutputDir  string
	Images     int
	Candidates int
	Downloaded int
	Existing   int
	Duplicates int
	Failed     int
	Bytes      int64
	Duration   time.Duration
	Files      []string
}

func (s *Summary) add(r downloader.Result) {
	switch r.Outcome {
	case downloader.OutcomeDownloaded:
		s.Downloaded++
		s.Bytes += int64(r.Size)
		s.Files = append(s.Files, r.Path)
	case downloader.OutcomeExisting:
		s.Existing++
	case downloader.OutcomeDuplicate:
		s.Duplicates++
	default:
		s.Failed++
	}
}

// Stats converts the summary for terminal rendering
func (s *Summary) Stats() ui.Stats {
	return ui.Stats{
		PageURL:    s.PageURL,
		Title:      s.Title,
		OutputDir:  s.OutputDir,
		Images:     s.Images,
		Candidates: s.Candidates,
		Downloaded: s.Downloaded,
		Existing:   s.Existing,
		Duplicates: s.Duplicates,
		Failed:     s.Failed,
		Bytes:      s.Bytes,
		Duration:   s.Duration,
	}
}

// Scraper orchestrates the gallery download process
type Scraper struct {
	client     HTTPClient
	classifier *gallery.Classifier
	config     *config.Config
	logger     logger.Logger
	reporter   Reporter
}

// New creates a Scraper that fetches through a fetch.Client built from cfg
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return NewWithClient(cfg, fetch.NewClient(&cfg.HTTP, log), log)
}

// NewWithClient creates a Scraper around an existing client
func NewWithClient(cfg *config.Config, client HTTPClient, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:     client,
		classifier: gallery.NewClassifier(gallery.OptionsFromConfig(&cfg.Classifier), log),
		config:     cfg,
		logger:     log.WithField("component", "scraper"),
	}
}

// SetReporter attaches a progress reporter. nil disables reporting.
func (s *Scraper) SetReporter(r Reporter) {
	s.reporter = r
}

// Run scrapes the configured page. The returned error is non-nil only when
// the run could not start (unusable output directory, unreachable page) or
// when ctx was cancelled; per-candidate failures are counted in the Summary.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	pageURL := s.config.Scrape.URL
	log := s.logger.WithField("page", pageURL)

	store, err := storage.NewManager(s.config.Scrape.OutputDir)
	if err != nil {
		log.WithError(err).Error("Output directory is not usable")
		return nil, err
	}
	logger.LogComponentStart(log, map[string]interface{}{
		"output_dir":      store.GetOutputDir(),
		"threads":         s.config.Scrape.Threads,
		"skip_duplicates": s.config.Scrape.SkipDuplicates,
	})

	page, err := s.client.GetPage(ctx, pageURL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch page")
		return nil, err
	}

	doc, err := document.ParseBytes(page.Body, page.URL)
	if err != nil {
		log.WithError(err).Error("Failed to parse page")
		return nil, err
	}

	summary := &Summary{
		PageURL:   page.URL,
		Title:     doc.Title(),
		OutputDir: store.GetOutputDir(),
	}

	images := extract.Images(doc)
	candidates := s.classifier.Classify(images)
	summary.Images = len(images)
	summary.Candidates = len(candidates)

	log.InfoWithFields("Page classified", map[string]interface{}{
		"title":      summary.Title,
		"images":     summary.Images,
		"candidates": summary.Candidates,
	})

	if len(candidates) == 0 {
		log.Warn("No gallery images found")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	s.dispatch(ctx, candidates, store, summary)
	summary.Duration = time.Since(start)

	log.InfoWithFields("Scrape finished", map[string]interface{}{
		"downloaded":  summary.Downloaded,
		"existing":    summary.Existing,
		"duplicates":  summary.Duplicates,
		"failed":      summary.Failed,
		"bytes":       summary.Bytes,
		"duration_ms": summary.Duration.Milliseconds(),
	})

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("scrape interrupted: %w", err)
	}
	return summary, nil
}

// dispatch runs every candidate through the worker pool and folds the
// results into summary
func (s *Scraper) dispatch(ctx context.Context, candidates []*gallery.Candidate, store *storage.Manager, summary *Summary) {
	res := resolver.New(s.client, s.classifier.Denied, s.logger)
	pool := downloader.NewWorkerPool(ctx, downloader.Options{
		Workers:        s.config.Scrape.Threads,
		SkipDuplicates: s.config.Scrape.SkipDuplicates,
	}, res, s.client, store, s.logger)

	pool.Start()
	if s.reporter != nil {
		s.reporter.Start(len(candidates))
	}

	// Written before Stop closes Results, read after the drain below
	unsent := 0
	go func() {
		defer pool.Stop()
		for i, cand := range candidates {
			if err := pool.Submit(downloader.Job{Candidate: cand}); err != nil {
				unsent = len(candidates) - i
				return
			}
		}
	}()

	for result := range pool.Results() {
		summary.add(result)

		url := result.URL
		if url == "" {
			url = result.Job.Candidate.Source
		}
		logger.LogDownload(s.logger, result.Job.Candidate.Index, url, result.Path, string(result.Outcome), result.Error)
		if s.reporter != nil {
			s.reporter.Record(string(result.Outcome), url, int64(result.Size), result.Error)
		}
	}

	if unsent > 0 {
		s.logger.WarnWithFields("Candidates not dispatched", map[string]interface{}{
			"count": unsent,
		})
		summary.Failed += unsent
	}
	if s.reporter != nil {
		s.reporter.Finish()
	}
}
