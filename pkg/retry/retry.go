package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// BackoffFor, when set, picks the strategy per error and overrides Backoff
	BackoffFor func(error) BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// ForHTTP builds the policy used for page, detail page and image requests:
// maxRetries extra attempts after the first, status-aware backoff starting at
// baseDelay.
func ForHTTP(ctx context.Context, maxRetries int, baseDelay time.Duration, log logger.Logger) *Config {
	statusBackoff := NewStatusBackoff(baseDelay)
	return &Config{
		MaxAttempts: maxRetries + 1,
		Backoff:     statusBackoff.DefaultBackoff,
		BackoffFor:  statusBackoff.ForError,
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation is never retried
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pipelineErr *errs.Error
	if errors.As(err, &pipelineErr) {
		return errs.IsRetryable(pipelineErr)
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		// Do not sleep when no attempt is left
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			continue
		}

		backoff := cfg.Backoff
		if cfg.BackoffFor != nil {
			backoff = cfg.BackoffFor(err)
		}
		var delay time.Duration
		if backoff != nil {
			delay = backoff.NextDelay(attempt)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// StatusBackoff provides different backoff strategies based on the HTTP
// status carried by a fetch error
type StatusBackoff struct {
	// NetworkErrorBackoff for transport failures (status 0)
	NetworkErrorBackoff BackoffStrategy
	// TooManyRequestsBackoff for 429 responses, a steady pause rather than
	// a growing one
	TooManyRequestsBackoff BackoffStrategy
	// ServerErrorBackoff for 5xx responses
	ServerErrorBackoff BackoffStrategy
	// DefaultBackoff for other retryable errors
	DefaultBackoff BackoffStrategy
}

// NewStatusBackoff creates status-aware strategies scaled from base
func NewStatusBackoff(base time.Duration) *StatusBackoff {
	if base <= 0 {
		base = time.Second
	}
	return &StatusBackoff{
		NetworkErrorBackoff: &ExponentialBackoff{
			BaseDelay:    base,
			MaxDelay:     30 * base,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
		TooManyRequestsBackoff: &ConstantBackoff{Delay: 5 * base},
		ServerErrorBackoff: &ExponentialBackoff{
			BaseDelay:    2 * base,
			MaxDelay:     30 * base,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		DefaultBackoff: &ExponentialBackoff{
			BaseDelay:    base,
			MaxDelay:     30 * base,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
	}
}

// ForError returns the strategy matching err's status code
func (sb *StatusBackoff) ForError(err error) BackoffStrategy {
	var pipelineErr *errs.Error
	if !errors.As(err, &pipelineErr) || pipelineErr.Type != errs.ErrorTypeFetch {
		return sb.DefaultBackoff
	}
	switch {
	case pipelineErr.Code == 0:
		return sb.NetworkErrorBackoff
	case pipelineErr.Code == http.StatusTooManyRequests:
		return sb.TooManyRequestsBackoff
	case pipelineErr.Code >= 500:
		return sb.ServerErrorBackoff
	default:
		return sb.DefaultBackoff
	}
}
