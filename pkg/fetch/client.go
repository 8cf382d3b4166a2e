package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"galleryscraper/pkg/config"
	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/retry"
)

// Page is a fetched HTML document
type Page struct {
	// URL is the final URL after redirects; relative references resolve against it
	URL         string
	ContentType string
	Body        []byte
}

// HeadInfo is the result of a HEAD request
type HeadInfo struct {
	ContentType string
	// Length is -1 when the server did not report it
	Length int64
}

// Image is a downloaded image body
type Image struct {
	URL         string
	ContentType string
	Data        []byte
}

// Client fetches pages, detail pages and images
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewClient creates a new HTTP client from the http config section
func NewClient(cfg *config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultConfig().HTTP.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     log.WithField("component", "fetch"),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// GetPage fetches an HTML page. Any non-2xx status is a fetch error.
func (c *Client) GetPage(ctx context.Context, pageURL string) (*Page, error) {
	return retry.DoWithResult(func() (*Page, error) {
		resp, err := c.do(ctx, http.MethodGet, pageURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.NewFetchError(pageURL, 0, "failed to read response body", err)
		}

		return &Page{
			URL:         resp.Request.URL.String(),
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}, nil
	}, c.retryConfig(ctx))
}

// Head fetches the content type and length of a URL
func (c *Client) Head(ctx context.Context, rawURL string) (*HeadInfo, error) {
	return retry.DoWithResult(func() (*HeadInfo, error) {
		resp, err := c.do(ctx, http.MethodHead, rawURL)
		if err != nil {
			return nil, err
		}
		resp.Body.Close()

		return &HeadInfo{
			ContentType: resp.Header.Get("Content-Type"),
			Length:      resp.ContentLength,
		}, nil
	}, c.retryConfig(ctx))
}

// Download fetches an image body
func (c *Client) Download(ctx context.Context, imageURL string) (*Image, error) {
	c.logger.DebugWithFields("downloading image", map[string]interface{}{
		"url": imageURL,
	})

	img, err := retry.DoWithResult(func() (*Image, error) {
		resp, err := c.do(ctx, http.MethodGet, imageURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.NewFetchError(imageURL, 0, "failed to read image data", err)
		}

		return &Image{
			URL:         resp.Request.URL.String(),
			ContentType: resp.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":  imageURL,
		"size": len(img.Data),
	})
	return img, nil
}

func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	return retry.ForHTTP(ctx, c.maxRetries, c.retryDelay, c.logger)
}

// do performs one request with the configured headers and maps transport
// failures and error statuses to fetch errors
func (c *Client) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errs.NewFetchError(rawURL, http.StatusBadRequest, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.NewFetchError(rawURL, 0, "network error", err)
	}

	logger.LogRequest(c.logger, method, rawURL, resp.StatusCode, float64(duration.Microseconds())/1000)

	if err := checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkResponseStatus turns non-2xx responses into fetch errors
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	rawURL := resp.Request.URL.String()
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return errs.NewFetchError(rawURL, resp.StatusCode, "resource not found", nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.NewFetchError(rawURL, resp.StatusCode, "access denied", nil)
	case http.StatusTooManyRequests:
		return errs.NewFetchError(rawURL, resp.StatusCode, "too many requests", nil)
	default:
		if resp.StatusCode >= 500 {
			return errs.NewFetchError(rawURL, resp.StatusCode, "server error", nil)
		}
		return errs.NewFetchError(rawURL, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
}
