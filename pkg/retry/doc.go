// Package retry retries transient failures of page, detail page and image
// requests.
//
// Only fetch errors caused by the network, 429 or a 5xx status are retried;
// a 404 or a parse failure fails immediately. ForHTTP builds the policy used
// by the fetch client: a constant pause after 429 responses, exponential
// backoff after network and server errors.
//
//	cfg := retry.ForHTTP(ctx, 5, 2*time.Second, log)
//	body, err := retry.DoWithResult(func() ([]byte, error) {
//		return fetchOnce(ctx, pageURL)
//	}, cfg)
//
// Strategies: ExponentialBackoff with optional jitter and ConstantBackoff.
// Wait honours context cancellation.
package retry
