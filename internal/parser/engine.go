package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/extract"
	"github.com/nao1215/siteparser/internal/fetcher"
	"github.com/nao1215/siteparser/internal/metrics"
	"github.com/nao1215/siteparser/internal/model"
	"github.com/nao1215/siteparser/internal/urlnorm"
)

// ErrInvalidURL is returned when the start URL fails canonicalization.
// It is the only error ParseSite can return; every per-page failure is
// absorbed into the result.
var ErrInvalidURL = errors.New("invalid start URL")

// Stop reasons recorded in diagnostics.
const (
	stopCompleted  = "completed"
	stopMaxSeconds = "max_seconds"
	stopMaxPages   = "max_pages"
)

// Fetcher fetches one URL. The production implementation is
// fetcher.Client; tests inject deterministic fakes.
type Fetcher interface {
	Fetch(ctx context.Context, u *urlnorm.URL) model.FetchResult
}

// Engine crawls one site and aggregates its contacts.
type Engine struct {
	cfg         *config.Config
	fetcher     Fetcher
	logger      *slog.Logger
	diagnostics bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher replaces the HTTP fetcher, primarily for tests.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDiagnostics attaches crawl diagnostics to the result.
func WithDiagnostics() Option {
	return func(e *Engine) {
		e.diagnostics = true
	}
}

// New creates an Engine for the given configuration.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ParseSite crawls startURL and the pages reachable from it within the
// configured budgets, returning the deduplicated, sorted contact harvest.
func ParseSite(ctx context.Context, startURL string, cfg *config.Config, opts ...Option) (*model.CrawlResult, error) {
	return New(cfg, opts...).ParseSite(ctx, startURL)
}

// pageOutcome carries one worker's finished page back to the coordinator.
type pageOutcome struct {
	depth  int
	fetch  model.FetchResult
	parsed bool
	emails []string
	phones []string
	links  []model.Link
}

// crawlState is the coordinator-owned mutable state of one run.
type crawlState struct {
	frontier frontier
	seen     map[string]bool
	emails   map[string]bool
	phones   map[string]bool

	dispatched     int
	fetchedOK      int
	failed         int
	processed      int
	linksExamined  int
	linksEnqueued  int
	maxDepthSeen   int
	failureReasons map[string]int
}

// ParseSite implements the crawl described in the package documentation.
func (e *Engine) ParseSite(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	started := time.Now()

	start, err := urlnorm.Parse(startURL, e.cfg.IncludeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, startURL, err)
	}

	cfg := e.cfg.ForHost(start.Host)
	regions := cfg.PhoneRegions
	if len(regions) == 0 {
		if inferred := extract.InferRegion(start.Host); inferred != "" {
			regions = []string{inferred}
		}
	}

	fetch := e.fetcher
	if fetch == nil {
		fetch = fetcher.New(cfg, e.logger, start.Host)
	}
	emailExtractor := extract.NewEmailExtractor(cfg.EmailDomainAllowlist)
	phoneExtractor := extract.NewPhoneExtractor(regions)

	crawlCtx := ctx
	cancel := context.CancelFunc(func() {})
	if budget := cfg.Budget(); budget > 0 {
		crawlCtx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	e.logger.Info("crawl started",
		"start", start.Key(),
		"max_pages", cfg.MaxPages,
		"max_depth", cfg.MaxDepth,
		"max_seconds", cfg.MaxSeconds,
	)

	state := &crawlState{
		seen:           map[string]bool{start.Key(): true},
		emails:         make(map[string]bool),
		phones:         make(map[string]bool),
		failureReasons: make(map[string]int),
	}
	state.frontier.push(start, 0, priorityFor(start, "", 0, cfg.FocusedCrawling))

	stopReason := e.run(crawlCtx, cfg, fetch, emailExtractor, phoneExtractor, start, state)

	result := &model.CrawlResult{
		URL:    start.Origin(),
		Emails: sortedKeys(state.emails),
		Phones: sortedKeys(state.phones),
	}
	duration := time.Since(started)
	if e.diagnostics {
		result.Diagnostics = e.buildDiagnostics(cfg, state, stopReason, duration)
	}
	metrics.ObserveCrawl(duration, len(result.Emails), len(result.Phones))

	e.logger.Info("crawl finished",
		"start", start.Key(),
		"emails", len(result.Emails),
		"phones", len(result.Phones),
		"pages", state.dispatched,
		"duration", duration.Round(time.Millisecond),
		"stop_reason", stopReason,
	)
	return result, nil
}

// run executes the coordinator loop and returns the stop reason.
func (e *Engine) run(
	ctx context.Context,
	cfg *config.Config,
	fetch Fetcher,
	emails *extract.EmailExtractor,
	phones *extract.PhoneExtractor,
	start *urlnorm.URL,
	state *crawlState,
) string {
	results := make(chan pageOutcome)
	inFlight := 0

	dispatch := func(item *frontierItem) {
		state.dispatched++
		inFlight++
		go func() {
			results <- e.crawlPage(ctx, cfg, fetch, emails, phones, item)
		}()
	}

	for {
		for inFlight < cfg.MaxConcurrency && state.dispatched < cfg.MaxPages && ctx.Err() == nil {
			item := state.frontier.pop()
			if item == nil {
				break
			}
			dispatch(item)
		}

		if inFlight == 0 {
			if ctx.Err() != nil {
				return stopMaxSeconds
			}
			if state.frontier.len() > 0 && state.dispatched >= cfg.MaxPages {
				return stopMaxPages
			}
			return stopCompleted
		}

		select {
		case out := <-results:
			inFlight--
			e.merge(cfg, start, state, out)
		case <-ctx.Done():
			// Time budget exhausted: in-flight fetches see the cancelled
			// context and return promptly; their contacts still count.
			for inFlight > 0 {
				out := <-results
				inFlight--
				e.merge(cfg, start, state, out)
			}
			return stopMaxSeconds
		}
	}
}

// crawlPage runs on a worker goroutine: fetch, parse, extract.
func (e *Engine) crawlPage(
	ctx context.Context,
	cfg *config.Config,
	fetch Fetcher,
	emails *extract.EmailExtractor,
	phones *extract.PhoneExtractor,
	item *frontierItem,
) pageOutcome {
	out := pageOutcome{depth: item.depth}
	out.fetch = fetch.Fetch(ctx, item.url)
	metrics.ObservePage(out.fetch.Failure.String(), out.fetch.BytesRead)

	if out.fetch.Failure != model.FailureNone || out.fetch.Body == "" {
		return out
	}

	finalURL := out.fetch.FinalURL
	if finalURL == nil {
		finalURL = item.url
	}
	page, err := extract.ParseHTML(out.fetch.Body, finalURL, cfg.IncludeQuery, cfg.MaxLinksPerPage)
	if err != nil {
		e.logger.Warn("page parse failed", "url", item.url.Key(), "error", err)
		out.fetch.Failure = model.FailureParse
		out.fetch.Err = err
		return out
	}

	out.parsed = true
	out.emails = emails.Extract(page)
	out.phones = phones.Extract(page)
	if item.depth < cfg.MaxDepth {
		out.links = page.Links
	}
	return out
}

// merge folds one page outcome into the coordinator state: aggregate
// contacts, then gate, dedupe, and enqueue discovered links.
func (e *Engine) merge(cfg *config.Config, start *urlnorm.URL, state *crawlState, out pageOutcome) {
	if out.depth > state.maxDepthSeen {
		state.maxDepthSeen = out.depth
	}

	if out.fetch.Failure.IsError() {
		state.failed++
		state.failureReasons[out.fetch.Failure.String()]++
		return
	}
	state.fetchedOK++
	if out.fetch.Failure == model.FailureUnsupportedContent {
		state.failureReasons[out.fetch.Failure.String()]++
		return
	}
	if !out.parsed {
		return
	}
	state.processed++

	for _, email := range out.emails {
		state.emails[email] = true
	}
	for _, phone := range out.phones {
		state.phones[phone] = true
	}

	// Mark the redirect target as seen so it is never fetched twice.
	if out.fetch.FinalURL != nil {
		state.seen[out.fetch.FinalURL.Key()] = true
	}

	childDepth := out.depth + 1
	if childDepth > cfg.MaxDepth {
		return
	}
	for _, link := range out.links {
		state.linksExamined++
		if !urlnorm.InScope(link.URL, start.Host) {
			continue
		}
		key := link.URL.Key()
		if state.seen[key] {
			continue
		}
		state.seen[key] = true
		state.linksEnqueued++
		state.frontier.push(link.URL, childDepth, priorityFor(link.URL, link.AnchorText, childDepth, cfg.FocusedCrawling))
	}
}

// buildDiagnostics assembles the optional diagnostics block.
func (e *Engine) buildDiagnostics(cfg *config.Config, state *crawlState, stopReason string, duration time.Duration) *model.Diagnostics {
	return &model.Diagnostics{
		StopReason:      stopReason,
		DurationSeconds: float64(duration.Round(time.Millisecond)) / float64(time.Second),
		Limits: model.DiagnosticsLimits{
			MaxPages:   cfg.MaxPages,
			MaxDepth:   cfg.MaxDepth,
			MaxSeconds: cfg.MaxSeconds,
		},
		Counters: model.DiagnosticsCounters{
			ScheduledPages:   state.dispatched,
			FetchedPages:     state.fetchedOK,
			FailedPages:      state.failed,
			ProcessedPages:   state.processed,
			DiscoveredURLs:   len(state.seen),
			LinksExamined:    state.linksExamined,
			LinksEnqueued:    state.linksEnqueued,
			FrontierRemained: state.frontier.len(),
			MaxDepthReached:  state.maxDepthSeen,
		},
		FailureReasons: state.failureReasons,
		ContactsFound: model.DiagnosticsContacts{
			Emails: len(state.emails),
			Phones: len(state.phones),
		},
	}
}

// sortedKeys returns the keys of set in ascending order. The result is
// never nil so it serializes as [] rather than null.
func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
