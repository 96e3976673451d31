package model

import "encoding/json"

// CrawlResult is the final, deduplicated contact harvest for one site.
// It is the value returned by parser.ParseSite and serialized by the CLI
// and the HTTP API.
type CrawlResult struct {
	// URL is the base of the start URL, scheme://host with no trailing
	// slash.
	URL string `json:"url"`

	// Emails is sorted ascending and deduplicated.
	Emails []string `json:"emails"`

	// Phones is sorted ascending and deduplicated; every entry is E.164.
	Phones []string `json:"phones"`

	// Diagnostics is present only when diagnostics were requested.
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// AsJSON serializes the result. Indent selects pretty-printing with
// two-space indentation.
func (r *CrawlResult) AsJSON(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}

// Diagnostics captures how a crawl ended and what it did along the way.
// All counters are monotonic over the run.
type Diagnostics struct {
	// StopReason is one of "completed", "max_seconds", "max_pages".
	StopReason string `json:"stop_reason"`

	// DurationSeconds is wall-clock time from start to result assembly.
	DurationSeconds float64 `json:"duration_seconds"`

	// Limits echoes the budgets the crawl ran under.
	Limits DiagnosticsLimits `json:"limits"`

	// Counters summarizes dispatch and extraction activity.
	Counters DiagnosticsCounters `json:"counters"`

	// FailureReasons counts failed pages by failure kind label.
	FailureReasons map[string]int `json:"failure_reasons"`

	// ContactsFound counts the distinct contacts in the result.
	ContactsFound DiagnosticsContacts `json:"contacts_found"`
}

// DiagnosticsLimits echoes the configured budgets.
type DiagnosticsLimits struct {
	MaxPages   int     `json:"max_pages"`
	MaxDepth   int     `json:"max_depth"`
	MaxSeconds float64 `json:"max_seconds"`
}

// DiagnosticsCounters summarizes crawl activity.
type DiagnosticsCounters struct {
	ScheduledPages   int `json:"scheduled_pages"`
	FetchedPages     int `json:"fetched_pages"`
	FailedPages      int `json:"failed_pages"`
	ProcessedPages   int `json:"processed_pages"`
	DiscoveredURLs   int `json:"discovered_urls"`
	LinksExamined    int `json:"links_examined"`
	LinksEnqueued    int `json:"links_enqueued"`
	FrontierRemained int `json:"frontier_remaining"`
	MaxDepthReached  int `json:"max_depth_reached"`
}

// DiagnosticsContacts counts distinct harvested contacts.
type DiagnosticsContacts struct {
	Emails int `json:"emails"`
	Phones int `json:"phones"`
}
