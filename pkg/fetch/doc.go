// Package fetch is the HTTP side of the scraper: the gallery page, detail
// pages, HEAD requests and image bodies all go through Client.
//
// Every request carries browser-like headers and the configured timeout.
// Transport failures, 429 and 5xx responses are retried with status-aware
// backoff; other non-2xx statuses fail at once. All failures are
// errors.ErrorTypeFetch errors carrying the status code (0 for transport
// failures).
package fetch
