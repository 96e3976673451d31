// Package api exposes the crawler over HTTP.
//
// Routes:
//
//	POST /api/parse   run a crawl: {"url": ..., "config": ..., "overrides": {...}}
//	GET  /api/health  liveness probe, {"status":"ok"}
//	GET  /metrics     Prometheus metrics
//
// The parse endpoint validates overrides with bounded ranges before
// touching the network, so one request cannot commandeer the service with
// an hour-long crawl or an unbounded page budget.
package api
