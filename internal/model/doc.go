// Package model defines the data types shared across the crawl pipeline:
// the per-page fetch outcome, the per-page extraction result, and the final
// crawl result returned to callers and serialized as JSON.
//
// Types in this package carry no behavior beyond formatting and
// classification helpers; all crawl logic lives in the parser, fetcher, and
// extract packages.
package model
