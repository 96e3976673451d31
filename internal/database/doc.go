// Package database persists finished crawl results to SQLite so repeated
// runs against the same site can be compared over time.
//
// Only completed results are written; the crawler never checkpoints
// in-progress state. The store uses modernc.org/sqlite, a pure-Go driver,
// so the binary stays cgo-free.
package database
