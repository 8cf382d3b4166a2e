package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/fetch"
	"galleryscraper/pkg/gallery"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/storage"
)

// Job is one gallery candidate to resolve, download and save
type Job struct {
	Candidate *gallery.Candidate
}

// Outcome classifies a finished job
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeExisting means skip-duplicates left an existing file alone
	OutcomeExisting Outcome = "existing"
	// OutcomeDuplicate means another candidate already claimed the same image URL
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Result represents the result of a job
type Result struct {
	Job      Job
	Outcome  Outcome
	URL      string
	Path     string
	Size     int
	Error    error
	Duration time.Duration
}

// Resolver finds the full-size image URL of a candidate
type Resolver interface {
	Resolve(ctx context.Context, cand *gallery.Candidate) (string, error)
}

// ImageFetcher downloads image bodies
type ImageFetcher interface {
	Download(ctx context.Context, imageURL string) (*fetch.Image, error)
}

// ImageStorage stores images in the output directory
type ImageStorage interface {
	Exists(name string) bool
	Path(name string) string
	Save(r io.Reader, name string) (string, error)
}

// Options configure the pool
type Options struct {
	Workers        int
	SkipDuplicates bool
}

// WorkerPool runs resolve, download and save for each job on a fixed number
// of workers. One job failing never affects the others.
type WorkerPool struct {
	numWorkers     int
	skipDuplicates bool
	jobQueue       chan Job
	resultQueue    chan Result
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	resolver       Resolver
	client         ImageFetcher
	storage        ImageStorage
	logger         logger.Logger

	mu      sync.Mutex
	claimed map[string]*urlClaim
}

// urlClaim tracks the job that owns an image URL. done closes when that job
// finishes; saved tells waiters whether the image made it to disk.
type urlClaim struct {
	done  chan struct{}
	saved bool
}

// NewWorkerPool creates a new worker pool. Cancelling ctx makes the workers
// fail the remaining jobs quickly instead of fetching them.
func NewWorkerPool(
	ctx context.Context,
	opts Options,
	resolver Resolver,
	client ImageFetcher,
	store ImageStorage,
	log logger.Logger,
) *WorkerPool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:     opts.Workers,
		skipDuplicates: opts.SkipDuplicates,
		jobQueue:       make(chan Job, opts.Workers*2), // Buffer size = 2x workers
		resultQueue:    make(chan Result, opts.Workers),
		ctx:            ctx,
		cancel:         cancel,
		resolver:       resolver,
		client:         client,
		storage:        store,
		logger:         log.WithField("component", "downloader"),
		claimed:        make(map[string]*urlClaim),
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	logger.LogComponentStart(wp.logger, map[string]interface{}{
		"num_workers":     wp.numWorkers,
		"skip_duplicates": wp.skipDuplicates,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers and closes Results.
// The caller must keep draining Results until it is closed.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming job results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Outcome: OutcomeFailed, Error: err}
		} else {
			result = wp.processJob(job, id)
		}
		wp.resultQueue <- result
	}
}

// claim makes the caller the owner of url. If another job owns it, claim
// waits for that job: a saved image makes this one a duplicate, a failed one
// hands the URL over.
func (wp *WorkerPool) claim(url string) (bool, error) {
	for {
		wp.mu.Lock()
		c, ok := wp.claimed[url]
		if !ok {
			wp.claimed[url] = &urlClaim{done: make(chan struct{})}
			wp.mu.Unlock()
			return true, nil
		}
		wp.mu.Unlock()

		select {
		case <-c.done:
		case <-wp.ctx.Done():
			return false, wp.ctx.Err()
		}
		if c.saved {
			return false, nil
		}
	}
}

// release ends ownership of url. A failed owner drops its claim so the next
// candidate with the same URL gets a try.
func (wp *WorkerPool) release(url string, saved bool) {
	wp.mu.Lock()
	c := wp.claimed[url]
	c.saved = saved
	if !saved {
		delete(wp.claimed, url)
	}
	wp.mu.Unlock()
	close(c.done)
}

func (wp *WorkerPool) processJob(job Job, workerID int) (res Result) {
	start := time.Now()
	cand := job.Candidate
	result := Result{Job: job, Outcome: OutcomeFailed}
	fail := func(err error) Result {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	wp.logger.DebugWithFields("Worker processing candidate", map[string]interface{}{
		"worker_id": workerID,
		"index":     cand.Index,
		"source":    cand.Source,
	})

	imageURL, err := wp.resolver.Resolve(wp.ctx, cand)
	if err != nil {
		return fail(err)
	}
	result.URL = imageURL

	owned, err := wp.claim(imageURL)
	if err != nil {
		return fail(err)
	}
	if !owned {
		result.Outcome = OutcomeDuplicate
		result.Duration = time.Since(start)
		return result
	}
	defer func() {
		wp.release(imageURL, res.Outcome != OutcomeFailed)
	}()

	name := storage.FilenameFromURL(imageURL)
	if wp.skipDuplicates && wp.storage.Exists(name) {
		return wp.existing(result, name, start)
	}

	img, err := wp.client.Download(wp.ctx, imageURL)
	if err != nil {
		return fail(err)
	}
	result.Size = len(img.Data)

	mediaType, ok := storage.DetectImage(img.Data, img.ContentType)
	if !ok {
		return fail(errs.NewResolutionError(imageURL, fmt.Sprintf("not an image (content type %q)", img.ContentType)))
	}

	// The extension may only be known now
	if withExt := storage.WithExtension(name, mediaType); withExt != name {
		name = withExt
		if wp.skipDuplicates && wp.storage.Exists(name) {
			return wp.existing(result, name, start)
		}
	}

	path, err := wp.storage.Save(bytes.NewReader(img.Data), name)
	if err != nil {
		return fail(err)
	}

	result.Outcome = OutcomeDownloaded
	result.Path = path
	result.Duration = time.Since(start)
	return result
}

func (wp *WorkerPool) existing(result Result, name string, start time.Time) Result {
	result.Outcome = OutcomeExisting
	result.Path = wp.storage.Path(name)
	result.Duration = time.Since(start)
	return result
}
