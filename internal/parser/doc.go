// Package parser implements the crawl engine: the priority frontier, the
// seen-set, the worker pool, budget enforcement, and result aggregation.
//
// # Control flow
//
// ParseSite seeds the frontier with the canonicalized start URL and runs a
// single coordinator loop. The coordinator pops URLs in priority order and
// hands them to fetch workers, at most MaxConcurrency at a time. Workers
// fetch, parse, and extract on their own goroutine, then deliver the page
// outcome back to the coordinator, which merges contacts, applies the
// domain gate and seen-set to discovered links, and enqueues survivors.
//
// All shared state (frontier, seen-set, aggregated contact sets, counters)
// is confined to the coordinator goroutine; workers communicate through a
// channel, so no lock is needed and heap operations stay serialized.
//
// # Stop conditions
//
// The crawl drains when the wall-clock budget expires (in-flight fetches
// are cancelled), when the page budget is exhausted (in-flight fetches
// complete), or when the frontier is empty with no work in flight. A page
// that fails never aborts the crawl; the only error ParseSite can return
// is an invalid start URL.
package parser
