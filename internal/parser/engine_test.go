package parser

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/model"
	"github.com/nao1215/siteparser/internal/urlnorm"
)

// fakeResponse is one canned page served by the fake fetcher.
type fakeResponse struct {
	body        string
	status      int
	contentType string
	finalURL    string
	failure     model.FailureKind
	delay       time.Duration
}

// fakeFetcher serves canned responses keyed by canonical URL. Unknown
// URLs fail with a 404 so tests notice unexpected fetches.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	fetched   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]fakeResponse)}
}

func (f *fakeFetcher) page(key, body string) *fakeFetcher {
	f.responses[key] = fakeResponse{body: body}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, u *urlnorm.URL) model.FetchResult {
	f.mu.Lock()
	f.fetched = append(f.fetched, u.Key())
	resp, ok := f.responses[u.Key()]
	f.mu.Unlock()

	if resp.delay > 0 {
		select {
		case <-ctx.Done():
			return model.FetchResult{Failure: model.FailureTimeout, Err: ctx.Err()}
		case <-time.After(resp.delay):
		}
	}
	if !ok {
		return model.FetchResult{
			FinalURL:   u,
			StatusCode: 404,
			Failure:    model.FailureHTTPStatus,
			Err:        errors.New("no canned response"),
		}
	}
	if resp.failure != model.FailureNone {
		return model.FetchResult{FinalURL: u, Failure: resp.failure, Err: errors.New("canned failure")}
	}

	finalURL := u
	if resp.finalURL != "" {
		parsed, err := urlnorm.Parse(resp.finalURL, false)
		if err == nil {
			finalURL = parsed
		}
	}
	status := resp.status
	if status == 0 {
		status = 200
	}
	contentType := resp.contentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	return model.FetchResult{
		FinalURL:    finalURL,
		StatusCode:  status,
		Body:        resp.body,
		ContentType: contentType,
		BytesRead:   int64(len(resp.body)),
	}
}

func (f *fakeFetcher) fetchedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// testCrawlConfig returns a config suited to deterministic engine tests.
func testCrawlConfig() *config.Config {
	cfg := config.New()
	cfg.MaxDepth = 2
	cfg.MaxPages = 50
	cfg.MaxSeconds = 10
	cfg.MaxConcurrency = 1
	return cfg
}

// TestParseSiteScenarios tests the crawl contract end to end against a
// deterministic fetcher.
func TestParseSiteScenarios(t *testing.T) {
	t.Parallel()

	t.Run("single page with mailto link", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/", `<a href="mailto:info@A.test">x</a>`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.URL != "http://a.test" {
			t.Errorf("url = %q, want http://a.test", result.URL)
		}
		if !reflect.DeepEqual(result.Emails, []string{"info@a.test"}) {
			t.Errorf("emails = %v, want [info@a.test]", result.Emails)
		}
		if len(result.Phones) != 0 {
			t.Errorf("phones = %v, want []", result.Phones)
		}
	})

	t.Run("cloaked email in text", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/", `contact us at info [at] a.test`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Emails, []string{"info@a.test"}) {
			t.Errorf("emails = %v, want [info@a.test]", result.Emails)
		}
	})

	t.Run("phone in tel link", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/", `<a href="tel:+74951234567">c</a>`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Phones, []string{"+74951234567"}) {
			t.Errorf("phones = %v, want [+74951234567]", result.Phones)
		}
	})

	t.Run("local phone needs region hint", func(t *testing.T) {
		t.Parallel()

		body := `(495) 123-45-67`
		withRegion := testCrawlConfig()
		withRegion.PhoneRegions = []string{"RU"}
		fetch := newFakeFetcher().page("http://a.test/", body)
		result, err := ParseSite(context.Background(), "http://a.test/", withRegion, WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Phones, []string{"+74951234567"}) {
			t.Errorf("phones = %v, want [+74951234567]", result.Phones)
		}

		fetch = newFakeFetcher().page("http://a.test/", body)
		result, err = ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Phones) != 0 {
			t.Errorf("phones = %v, want [] without region hint", result.Phones)
		}
	})

	t.Run("off-domain links are not followed", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().
			page("http://a.test/", `<a href="http://b.test/contact">other</a>`).
			page("http://b.test/contact", `foo@b.test`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Emails) != 0 {
			t.Errorf("emails = %v, want none from off-domain page", result.Emails)
		}
		for _, key := range fetch.fetchedKeys() {
			if key == "http://b.test/contact" {
				t.Error("off-domain URL must never be fetched")
			}
		}
	})

	t.Run("cycles fetch each page once", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().
			page("http://a.test/", `root@a.test <a href="/about">about</a>`).
			page("http://a.test/about", `about@a.test <a href="/">home</a>`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fetch.fetchedKeys(); len(got) != 2 {
			t.Errorf("fetched %v, want exactly 2 pages", got)
		}
		want := []string{"about@a.test", "root@a.test"}
		if !reflect.DeepEqual(result.Emails, want) {
			t.Errorf("emails = %v, want %v", result.Emails, want)
		}
	})

	t.Run("domain allowlist filters harvested emails", func(t *testing.T) {
		t.Parallel()

		cfg := testCrawlConfig()
		cfg.EmailDomainAllowlist = []string{"a.test"}
		fetch := newFakeFetcher().page("http://a.test/", `x@a.test y@evil.test`)
		result, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Emails, []string{"x@a.test"}) {
			t.Errorf("emails = %v, want [x@a.test]", result.Emails)
		}
	})

	t.Run("depth zero page budget one fetches exactly the start URL", func(t *testing.T) {
		t.Parallel()

		cfg := testCrawlConfig()
		cfg.MaxDepth = 0
		cfg.MaxPages = 1
		fetch := newFakeFetcher().page("http://a.test/", `<a href="/next">next</a> info@a.test`)
		result, err := ParseSite(context.Background(), "http://a.test", cfg, WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fetch.fetchedKeys(); !reflect.DeepEqual(got, []string{"http://a.test/"}) {
			t.Errorf("fetched %v, want exactly the canonicalized start URL", got)
		}
		if !reflect.DeepEqual(result.Emails, []string{"info@a.test"}) {
			t.Errorf("emails = %v", result.Emails)
		}
	})

	t.Run("page budget bounds dispatches", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/",
			`<a href="/p1">1</a><a href="/p2">2</a><a href="/p3">3</a><a href="/p4">4</a>`)
		for i := 1; i <= 4; i++ {
			fetch.page(fmt.Sprintf("http://a.test/p%d", i), "nothing here")
		}
		cfg := testCrawlConfig()
		cfg.MaxPages = 3
		_, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(fetch.fetchedKeys()); got != 3 {
			t.Errorf("fetched %d pages, want 3", got)
		}
	})

	t.Run("time budget returns partial result quickly", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher()
		fetch.responses["http://a.test/"] = fakeResponse{
			body:  "late@a.test",
			delay: 10 * time.Second,
		}
		cfg := testCrawlConfig()
		cfg.MaxSeconds = 0.1

		start := time.Now()
		result, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(fetch))
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("time budget must not surface an error: %v", err)
		}
		if elapsed > 5*time.Second {
			t.Errorf("engine took %v, want prompt return after budget", elapsed)
		}
		if len(result.Emails) != 0 {
			t.Errorf("emails = %v, want none from the stalled page", result.Emails)
		}
	})

	t.Run("failed pages never abort the crawl", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().
			page("http://a.test/", `<a href="/broken">b</a><a href="/good">g</a>`).
			page("http://a.test/good", "good@a.test")
		fetch.responses["http://a.test/broken"] = fakeResponse{failure: model.FailureNetwork}

		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Emails, []string{"good@a.test"}) {
			t.Errorf("emails = %v, want [good@a.test]", result.Emails)
		}
	})

	t.Run("non-HTML pages count against the budget but yield nothing", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/", `<a href="/file.pdf">pdf</a>`)
		fetch.responses["http://a.test/file.pdf"] = fakeResponse{
			failure: model.FailureUnsupportedContent,
		}
		cfg := testCrawlConfig()
		result, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(fetch), WithDiagnostics())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Emails) != 0 || len(result.Phones) != 0 {
			t.Errorf("non-HTML page yielded extracts: %v %v", result.Emails, result.Phones)
		}
		if result.Diagnostics == nil {
			t.Fatal("diagnostics requested but missing")
		}
		if result.Diagnostics.Counters.ScheduledPages != 2 {
			t.Errorf("scheduled = %d, want 2 (PDF counts against the budget)",
				result.Diagnostics.Counters.ScheduledPages)
		}
	})

	t.Run("invalid start URL is the only surfaced error", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "javascript:void(0)", "::/bad"} {
			_, err := ParseSite(context.Background(), raw, testCrawlConfig(), WithFetcher(newFakeFetcher()))
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("ParseSite(%q) error = %v, want ErrInvalidURL", raw, err)
			}
		}
	})

	t.Run("deterministic output for identical inputs", func(t *testing.T) {
		t.Parallel()

		build := func() *fakeFetcher {
			return newFakeFetcher().
				page("http://a.test/", `a@a.test <a href="/x">x</a><a href="/y">y</a>`).
				page("http://a.test/x", `b@a.test +7 495 123-45-67`).
				page("http://a.test/y", `c@a.test`)
		}
		cfg := testCrawlConfig()
		cfg.PhoneRegions = []string{"RU"}

		first, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(build()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(build()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		firstJSON, err := first.AsJSON(false)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		secondJSON, err := second.AsJSON(false)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(firstJSON) != string(secondJSON) {
			t.Errorf("runs differ:\n%s\n%s", firstJSON, secondJSON)
		}
	})

	t.Run("results are sorted and unique", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().page("http://a.test/",
			`z@a.test a@a.test z@a.test tel stuff <a href="tel:+74951234567">c</a> <a href="tel:+74951234567">c2</a>`)
		result, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(result.Emails, []string{"a@a.test", "z@a.test"}) {
			t.Errorf("emails not sorted/unique: %v", result.Emails)
		}
		if !reflect.DeepEqual(result.Phones, []string{"+74951234567"}) {
			t.Errorf("phones not unique: %v", result.Phones)
		}
	})

	t.Run("depth limit is honored", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher().
			page("http://a.test/", `<a href="/d1">1</a>`).
			page("http://a.test/d1", `<a href="/d2">2</a>`).
			page("http://a.test/d2", `<a href="/d3">3</a>`).
			page("http://a.test/d3", `deep@a.test`)
		cfg := testCrawlConfig()
		cfg.MaxDepth = 2
		_, err := ParseSite(context.Background(), "http://a.test/", cfg, WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, key := range fetch.fetchedKeys() {
			if key == "http://a.test/d3" {
				t.Error("depth 3 page fetched with max_depth=2")
			}
		}
	})

	t.Run("redirect target marked seen", func(t *testing.T) {
		t.Parallel()

		fetch := newFakeFetcher()
		fetch.responses["http://a.test/"] = fakeResponse{
			body:     `<a href="/home">home</a> hello@a.test`,
			finalURL: "http://a.test/home",
		}
		fetch.page("http://a.test/home", "should not be refetched")

		_, err := ParseSite(context.Background(), "http://a.test/", testCrawlConfig(), WithFetcher(fetch))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, key := range fetch.fetchedKeys() {
			if key == "http://a.test/home" {
				t.Error("redirect target fetched again after being seen")
			}
		}
	})
}

// TestBatch tests the multi-site batch runner.
func TestBatch(t *testing.T) {
	t.Parallel()

	// Batch uses the real fetcher per engine, so feed it only invalid
	// URLs, which fail before any fetch.
	results := Batch(context.Background(), []string{"::/bad", "also bad"}, testCrawlConfig(), 2, nil)
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, br := range results {
		if !errors.Is(br.Err, ErrInvalidURL) {
			t.Errorf("Batch(%q) error = %v, want ErrInvalidURL", br.StartURL, br.Err)
		}
	}
}
