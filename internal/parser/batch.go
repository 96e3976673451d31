package parser

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/model"
)

// BatchResult pairs one start URL with its crawl outcome. Err is non-nil
// only when the start URL itself was invalid.
type BatchResult struct {
	// StartURL is the URL as the caller supplied it.
	StartURL string

	// Result is the crawl result, nil when Err is set.
	Result *model.CrawlResult

	// Err is ErrInvalidURL-wrapped when the start URL failed
	// canonicalization.
	Err error
}

// Batch crawls several sites concurrently, at most concurrency at a time.
// Each site gets a fresh engine over the shared configuration; results
// come back in the same order as startURLs. An invalid URL fails only its
// own slot.
func Batch(ctx context.Context, startURLs []string, cfg *config.Config, concurrency int, logger *slog.Logger) []BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]BatchResult, len(startURLs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, startURL := range startURLs {
		g.Go(func() error {
			res, err := ParseSite(gctx, startURL, cfg, WithLogger(logger))
			mu.Lock()
			results[i] = BatchResult{StartURL: startURL, Result: res, Err: err}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return results
}
