// Package log builds the slog loggers used across the crawler.
//
// It provides a wrapping slog.Handler that keeps log output safe to ship:
// attribute values carrying page bodies are truncated to a bounded length,
// and values under credential-like keys (Authorization, Cookie, api_key)
// are masked. The wrapper delegates to any underlying handler, so text and
// JSON output work unchanged.
package log
