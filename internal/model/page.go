package model

import "github.com/nao1215/siteparser/internal/urlnorm"

// FailureKind classifies why a page yielded no content. The crawl engine
// absorbs every kind; none of them abort the crawl. The zero value means
// the fetch succeeded.
type FailureKind int

const (
	// FailureNone means the fetch succeeded.
	FailureNone FailureKind = iota

	// FailureNetwork covers DNS, connect, and read errors after retries.
	FailureNetwork

	// FailureTimeout covers per-request deadline expiry after retries.
	FailureTimeout

	// FailureHTTPStatus covers non-2xx terminal statuses, including
	// retryable statuses whose retry budget was exhausted.
	FailureHTTPStatus

	// FailureRedirectOutOfScope means a redirect hop left the start
	// domain; the follow chain stops and the fetch is treated as failed.
	FailureRedirectOutOfScope

	// FailureUnsupportedContent means the response was not HTML-like.
	// This is not an error: the page counts against the budget but
	// yields no text, extracts, or links.
	FailureUnsupportedContent

	// FailureParse means the HTML parser gave up on the body.
	FailureParse
)

// String returns the diagnostics label for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureHTTPStatus:
		return "http_status"
	case FailureRedirectOutOfScope:
		return "redirect_out_of_scope"
	case FailureUnsupportedContent:
		return "content_type"
	case FailureParse:
		return "parse"
	default:
		return "unknown"
	}
}

// IsError reports whether the kind represents a failed page. Unsupported
// content types are pages that fetched fine but carry nothing to extract.
func (k FailureKind) IsError() bool {
	return k != FailureNone && k != FailureUnsupportedContent
}

// FetchResult is the outcome of one HTTP GET, after redirects, retries,
// body capping, and charset decoding.
type FetchResult struct {
	// FinalURL is the canonical URL of the last redirect hop. It is nil
	// when the request never produced a response.
	FinalURL *urlnorm.URL

	// StatusCode is the final HTTP status, or 0 when no response arrived.
	StatusCode int

	// Body is the decoded response text. Empty for failed fetches and
	// for non-HTML content types.
	Body string

	// ContentType is the raw Content-Type header of the final response.
	ContentType string

	// BytesRead is the number of body bytes consumed, at most the
	// configured cap.
	BytesRead int64

	// Failure classifies the outcome; FailureNone for usable pages.
	Failure FailureKind

	// Err holds the underlying error for logging. It is nil whenever
	// Failure.IsError() is false.
	Err error
}

// Link is a candidate link discovered on a page, paired with the anchor
// text that referenced it so the scheduler can score it.
type Link struct {
	// URL is the canonicalized link target.
	URL *urlnorm.URL

	// AnchorText is the visible text of the referencing anchor, possibly
	// empty for image links and area elements.
	AnchorText string
}

// PageExtract holds everything harvested from a single fetched page. It is
// derived purely from the fetch result and configuration.
type PageExtract struct {
	// Emails are validated, canonicalized addresses found on the page.
	Emails []string

	// Phones are E.164-formatted numbers found on the page.
	Phones []string

	// Links are in-document order, deduplicated by canonical key, and
	// truncated to the per-page cap.
	Links []Link
}
