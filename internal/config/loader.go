package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvConfigFile names the environment variable that points at a config
// file when --config is not given.
const EnvConfigFile = "PARSER_CONFIG_FILE"

// Load builds a Config from defaults, an optional config file, and
// PARSER_-prefixed environment variables, then validates it.
//
// Precedence, lowest to highest: built-in defaults, config file,
// environment. Explicit overrides are applied separately by
// ApplyOverrides so the HTTP API can validate them with tighter ranges.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARSER")
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".toml" && ext != ".json" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, ext)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Viper delivers env-provided lists as single strings; AutomaticEnv plus
	// a string check below keeps "RU,BY" working alongside TOML arrays.
	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if raw := v.GetString("phone_regions"); raw != "" && len(cfg.PhoneRegions) <= 1 {
		cfg.PhoneRegions = splitList(raw)
	}
	if raw := v.GetString("email_domain_allowlist"); raw != "" && len(cfg.EmailDomainAllowlist) <= 1 {
		cfg.EmailDomainAllowlist = splitList(raw)
	}
	cfg.PhoneRegions = NormalizeRegions(cfg.PhoneRegions)
	cfg.EmailDomainAllowlist = NormalizeDomainSuffixes(cfg.EmailDomainAllowlist)
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_seconds", DefaultMaxSeconds)
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("max_pages", DefaultMaxPages)
	v.SetDefault("max_links_per_page", DefaultMaxLinksPerPage)
	v.SetDefault("max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("max_concurrency", DefaultMaxConcurrency)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("retry_total", DefaultRetryTotal)
	v.SetDefault("retry_backoff_factor", DefaultRetryBackoffFactor)
	v.SetDefault("phone_regions", []string{})
	v.SetDefault("email_domain_allowlist", []string{})
	v.SetDefault("focused_crawling", true)
	v.SetDefault("include_query", false)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("log_level", DefaultLogLevel)
}
