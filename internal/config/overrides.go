package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Override ranges. The HTTP API accepts overrides from untrusted callers,
// so each field is clamped to a range that keeps a single request from
// monopolizing the service.
const (
	overrideMaxPagesMin       = 1
	overrideMaxPagesMax       = 5000
	overrideMaxDepthMax       = 50
	overrideMaxSecondsMin     = 1.0
	overrideMaxSecondsMax     = 3600.0
	overrideConcurrencyMax    = 64
	overrideTimeoutMin        = 0.5
	overrideTimeoutMax        = 120.0
	overrideBodyBytesMin      = 1024
	overrideBodyBytesMax      = 50_000_000
	overrideLinksPerPageMax   = 5000
	overrideRetryTotalMax     = 10
	overrideBackoffFactorMax  = 10.0
	overrideUserAgentMaxBytes = 512
)

// ApplyOverrides merges a partial override map over base and returns a new
// validated Config. Base is never mutated. Unknown keys and out-of-range
// values are rejected.
func ApplyOverrides(base *Config, overrides map[string]any) (*Config, error) {
	cfg := base.Clone()
	for key, value := range overrides {
		if err := applyOverride(cfg, key, value); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverride(cfg *Config, key string, value any) error {
	var err error
	switch key {
	case "max_pages":
		cfg.MaxPages, err = coerceInt(key, value, overrideMaxPagesMin, overrideMaxPagesMax)
	case "max_depth":
		cfg.MaxDepth, err = coerceInt(key, value, 0, overrideMaxDepthMax)
	case "max_seconds":
		cfg.MaxSeconds, err = coerceFloat(key, value, overrideMaxSecondsMin, overrideMaxSecondsMax)
	case "max_concurrency":
		cfg.MaxConcurrency, err = coerceInt(key, value, 1, overrideConcurrencyMax)
	case "request_timeout":
		cfg.RequestTimeout, err = coerceFloat(key, value, overrideTimeoutMin, overrideTimeoutMax)
	case "max_body_bytes":
		var n int
		n, err = coerceInt(key, value, overrideBodyBytesMin, overrideBodyBytesMax)
		cfg.MaxBodyBytes = int64(n)
	case "max_links_per_page":
		cfg.MaxLinksPerPage, err = coerceInt(key, value, 1, overrideLinksPerPageMax)
	case "retry_total":
		cfg.RetryTotal, err = coerceInt(key, value, 0, overrideRetryTotalMax)
	case "retry_backoff_factor":
		cfg.RetryBackoffFactor, err = coerceFloat(key, value, 0, overrideBackoffFactorMax)
	case "user_agent":
		cfg.UserAgent, err = coerceUserAgent(value)
	case "include_query":
		cfg.IncludeQuery, err = coerceBool(key, value)
	case "focused_crawling":
		cfg.FocusedCrawling, err = coerceBool(key, value)
	case "phone_regions":
		var items []string
		items, err = coerceStringList(key, value)
		cfg.PhoneRegions = NormalizeRegions(items)
	case "email_domain_allowlist":
		var items []string
		items, err = coerceStringList(key, value)
		cfg.EmailDomainAllowlist = NormalizeDomainSuffixes(items)
	case "log_level":
		cfg.LogLevel, err = coerceLogLevel(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOverride, key)
	}
	return err
}

func coerceInt(name string, value any, minVal, maxVal int) (int, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("%s must be between %d and %d", name, minVal, maxVal)
	}
	return n, nil
}

func coerceFloat(name string, value any, minVal, maxVal float64) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if f < minVal || f > maxVal {
		return 0, fmt.Errorf("%s must be between %g and %g", name, minVal, maxVal)
	}
	return f, nil
}

func coerceBool(name string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("%s must be a boolean", name)
}

func coerceStringList(name string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return splitList(v), nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string or array of strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}

func coerceUserAgent(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", ErrEmptyUserAgent
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyUserAgent
	}
	if len(s) > overrideUserAgentMaxBytes {
		return "", fmt.Errorf("user_agent is too long (max %d bytes)", overrideUserAgentMaxBytes)
	}
	return s, nil
}

func coerceLogLevel(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("log_level must be a string")
	}
	level := strings.ToUpper(strings.TrimSpace(s))
	switch level {
	case "DEBUG", "INFO", "WARNING", "ERROR":
		return level, nil
	}
	return "", fmt.Errorf("invalid log_level: %q", s)
}
