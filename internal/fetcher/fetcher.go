package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/model"
	"github.com/nao1215/siteparser/internal/urlnorm"
)

// maxRedirects bounds the redirect chain per fetch.
const maxRedirects = 5

// acceptHeader advertises a strong preference for HTML.
const acceptHeader = "text/html, */*;q=0.1"

// ErrRedirectOutOfScope is returned through the redirect checker when a
// hop leaves the start domain. The chain stops and the fetch fails.
var ErrRedirectOutOfScope = errors.New("redirect out of scope")

// errTooManyRedirects is returned when a chain exceeds maxRedirects hops.
var errTooManyRedirects = errors.New("too many redirects")

// retryableStatuses are HTTP statuses treated as transient.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client fetches pages for one crawl. It is safe for concurrent use; all
// workers share its connection pool.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *slog.Logger
	scopeHost  string
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a Client scoped to the registered domain of scopeHost.
// Redirect targets outside that domain terminate the follow chain.
func New(cfg *config.Config, logger *slog.Logger, scopeHost string) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:       cfg,
		logger:    logger,
		scopeHost: scopeHost,
		sleep:     sleepCtx,
	}
	c.httpClient = &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if !urlnorm.SameRegisteredDomain(req.URL.Hostname(), scopeHost) {
				return fmt.Errorf("%w: %s", ErrRedirectOutOfScope, req.URL.Host)
			}
			return nil
		},
	}
	return c
}

// Fetch performs one GET with retries and returns the classified outcome.
// The context carries the crawl-wide deadline; each attempt additionally
// respects the per-request timeout, so the effective deadline is the
// earlier of the two.
func (c *Client) Fetch(ctx context.Context, u *urlnorm.URL) model.FetchResult {
	attempts := 1 + c.cfg.RetryTotal
	var last model.FetchResult

	for attempt := 1; attempt <= attempts; attempt++ {
		result, retryable, retryAfter := c.fetchOnce(ctx, u)
		last = result
		if !retryable || attempt == attempts {
			break
		}
		delay := c.backoff(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.logger.Debug("retrying fetch",
			"url", u.Key(),
			"attempt", attempt,
			"delay", delay,
			"reason", result.Failure.String(),
		)
		if err := c.sleep(ctx, delay); err != nil {
			break
		}
	}

	if last.Failure.IsError() {
		c.logger.Warn("fetch failed",
			"url", u.Key(),
			"reason", last.Failure.String(),
			"error", last.Err,
		)
	}
	return last
}

// fetchOnce performs a single attempt. It reports whether the failure is
// retryable and any server-requested retry delay.
func (c *Client) fetchOnce(ctx context.Context, u *urlnorm.URL) (result model.FetchResult, retryable bool, retryAfter time.Duration) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.FetchResult{Failure: model.FailureNetwork, Err: err}, false, 0
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err), isRetryableTransport(err, ctx), 0
	}
	defer resp.Body.Close()

	finalURL, normErr := urlnorm.Parse(resp.Request.URL.String(), c.cfg.IncludeQuery)
	if normErr != nil {
		return model.FetchResult{Failure: model.FailureNetwork, Err: normErr}, false, 0
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result := model.FetchResult{
			FinalURL:   finalURL,
			StatusCode: resp.StatusCode,
			Failure:    model.FailureHTTPStatus,
			Err:        fmt.Errorf("HTTP status %d", resp.StatusCode),
		}
		if retryableStatuses[resp.StatusCode] {
			return result, true, parseRetryAfter(resp)
		}
		return result, false, 0
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLLike(contentType) {
		// Drain a little so the connection can be reused, then discard.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return model.FetchResult{
			FinalURL:    finalURL,
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			Failure:     model.FailureUnsupportedContent,
		}, false, 0
	}

	body, n, err := c.readBody(resp.Body, contentType)
	if err != nil {
		return model.FetchResult{
			FinalURL:   finalURL,
			StatusCode: resp.StatusCode,
			Failure:    classifyReadError(err),
			Err:        err,
		}, true, 0
	}

	return model.FetchResult{
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: contentType,
		BytesRead:   n,
	}, false, 0
}

// readBody reads at most MaxBodyBytes and decodes the result to UTF-8
// according to the declared charset, falling back to a lossy UTF-8 read.
func (c *Client) readBody(r io.Reader, contentType string) (string, int64, error) {
	capped := io.LimitReader(r, c.cfg.MaxBodyBytes)
	raw, err := io.ReadAll(capped)
	if err != nil {
		return "", int64(len(raw)), err
	}
	return decodeBody(raw, contentType), int64(len(raw)), nil
}

// decodeBody converts raw bytes to UTF-8 text. A declared charset is
// honored when the encoding is known; otherwise the bytes pass through,
// which is correct for UTF-8 and lossy-but-usable for everything else.
func decodeBody(raw []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if name := params["charset"]; name != "" && !strings.EqualFold(name, "utf-8") {
			if enc, _ := charset.Lookup(name); enc != nil {
				decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
				if err == nil {
					return string(decoded)
				}
			}
		}
	}
	return string(raw)
}

// backoff computes the delay before retry n (1-indexed):
// factor * 2^(n-1) seconds.
func (c *Client) backoff(retry int) time.Duration {
	seconds := c.cfg.RetryBackoffFactor * math.Pow(2, float64(retry-1))
	return time.Duration(seconds * float64(time.Second))
}

// parseRetryAfter reads a Retry-After header as either delta-seconds or
// an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// isHTMLLike reports whether a content type is worth parsing. An absent
// header is treated as HTML, matching how servers that omit it behave.
func isHTMLLike(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// classifyTransportError maps a transport failure onto a FailureKind.
func classifyTransportError(err error) model.FetchResult {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, ErrRedirectOutOfScope) {
			return model.FetchResult{Failure: model.FailureRedirectOutOfScope, Err: err}
		}
		if errors.Is(urlErr.Err, errTooManyRedirects) {
			return model.FetchResult{Failure: model.FailureNetwork, Err: err}
		}
	}
	if isTimeout(err) {
		return model.FetchResult{Failure: model.FailureTimeout, Err: err}
	}
	return model.FetchResult{Failure: model.FailureNetwork, Err: err}
}

// isRetryableTransport reports whether a transport failure is worth
// retrying. Redirect policy violations are final, and a dead parent
// context means the crawl is shutting down.
func isRetryableTransport(err error, ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, ErrRedirectOutOfScope) || errors.Is(urlErr.Err, errTooManyRedirects) {
			return false
		}
	}
	return true
}

// classifyReadError distinguishes a mid-body timeout from other read
// failures.
func classifyReadError(err error) model.FailureKind {
	if isTimeout(err) {
		return model.FailureTimeout
	}
	return model.FailureNetwork
}

// isTimeout reports whether err is a deadline or net timeout error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
