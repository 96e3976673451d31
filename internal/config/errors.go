package config

import "errors"

// Validation errors returned by Config.Validate and the override casters.
// They are package-level sentinels so callers can branch with errors.Is
// while the messages stay human-readable.
var (
	// ErrInvalidMaxSeconds is returned when the time budget is negative.
	ErrInvalidMaxSeconds = errors.New("invalid max_seconds: must be non-negative")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("invalid max_depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is below one.
	ErrInvalidMaxPages = errors.New("invalid max_pages: must be at least 1")

	// ErrInvalidMaxLinksPerPage is returned when the link cap is below one.
	ErrInvalidMaxLinksPerPage = errors.New("invalid max_links_per_page: must be at least 1")

	// ErrInvalidMaxBodyBytes is returned when the body cap is below one.
	ErrInvalidMaxBodyBytes = errors.New("invalid max_body_bytes: must be at least 1")

	// ErrInvalidMaxConcurrency is returned when the worker bound is below one.
	ErrInvalidMaxConcurrency = errors.New("invalid max_concurrency: must be at least 1")

	// ErrInvalidRequestTimeout is returned when the per-request timeout is
	// zero or negative.
	ErrInvalidRequestTimeout = errors.New("invalid request_timeout: must be positive")

	// ErrInvalidRetryTotal is returned when the retry count is negative.
	ErrInvalidRetryTotal = errors.New("invalid retry_total: must be non-negative")

	// ErrInvalidRetryBackoff is returned when the backoff factor is negative.
	ErrInvalidRetryBackoff = errors.New("invalid retry_backoff_factor: must be non-negative")

	// ErrEmptyUserAgent is returned when the user agent is blank.
	ErrEmptyUserAgent = errors.New("user_agent must not be empty")

	// ErrUnknownOverride is returned for override keys that do not name a
	// configurable field.
	ErrUnknownOverride = errors.New("unsupported override key")

	// ErrUnsupportedConfigFormat is returned for config files whose
	// extension is neither .toml nor .json.
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
)
