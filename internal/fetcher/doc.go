// Package fetcher performs the crawler's HTTP requests.
//
// Each fetch is one GET with a per-attempt deadline, up to five redirect
// hops confined to the start domain, a hard cap on body bytes, and
// charset-aware decoding of the response. Transient failures (connect
// errors, timeouts, and HTTP 429/500/502/503/504) are retried with
// exponential backoff; a parseable Retry-After header overrides the
// computed delay for 429 and 503.
//
// The fetcher never returns a Go error to the engine: every outcome is a
// model.FetchResult whose Failure field classifies what happened, so the
// engine can absorb failures without special cases.
package fetcher
