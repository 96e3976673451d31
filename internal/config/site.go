package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSiteFile is the per-site overrides file searched for in the
// current directory and the user's home directory.
const DefaultSiteFile = ".siteparser"

// ErrSiteFileNotFound is returned when an explicitly given site file does
// not exist.
var ErrSiteFileNotFound = errors.New("site config file not found")

// SiteConfig holds per-host tweaks applied on top of the base config when
// crawling a matching host. Zero/nil fields leave the base value alone.
type SiteConfig struct {
	// PhoneRegions replaces the base region hints for this host.
	PhoneRegions []string `yaml:"phone_regions" mapstructure:"phone_regions"`

	// EmailDomainAllowlist replaces the base allowlist for this host.
	EmailDomainAllowlist []string `yaml:"email_domain_allowlist" mapstructure:"email_domain_allowlist"`

	// MaxDepth overrides the crawl depth for this host when non-nil.
	MaxDepth *int `yaml:"max_depth" mapstructure:"max_depth"`

	// MaxPages overrides the page budget for this host when non-nil.
	MaxPages *int `yaml:"max_pages" mapstructure:"max_pages"`

	// UserAgent overrides the request User-Agent for this host.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

func (s SiteConfig) clone() SiteConfig {
	dup := s
	dup.PhoneRegions = append([]string(nil), s.PhoneRegions...)
	dup.EmailDomainAllowlist = append([]string(nil), s.EmailDomainAllowlist...)
	if s.MaxDepth != nil {
		v := *s.MaxDepth
		dup.MaxDepth = &v
	}
	if s.MaxPages != nil {
		v := *s.MaxPages
		dup.MaxPages = &v
	}
	return dup
}

// siteFile is the YAML document shape of the per-site overrides file.
type siteFile struct {
	Sites map[string]SiteConfig `yaml:"sites"`
}

// LoadSiteFile reads per-host overrides from a YAML file and merges them
// into cfg.Sites. A missing file at an explicit path is an error.
func LoadSiteFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSiteFileNotFound, path)
		}
		return err
	}

	var sf siteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse site config %s: %w", path, err)
	}
	if cfg.Sites == nil {
		cfg.Sites = make(map[string]SiteConfig, len(sf.Sites))
	}
	for host, sc := range sf.Sites {
		cfg.Sites[host] = sc
	}
	return nil
}

// FindSiteFile locates the per-site overrides file. An explicit path wins;
// otherwise the current directory is checked, then the home directory.
// Returns "" when no file exists.
func FindSiteFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultSiteFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultSiteFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ForHost returns the effective config for a start host, applying any
// matching site override. The receiver is never mutated.
func (c *Config) ForHost(host string) *Config {
	sc, ok := c.Sites[host]
	if !ok {
		return c
	}
	cfg := c.Clone()
	if len(sc.PhoneRegions) > 0 {
		cfg.PhoneRegions = NormalizeRegions(sc.PhoneRegions)
	}
	if len(sc.EmailDomainAllowlist) > 0 {
		cfg.EmailDomainAllowlist = NormalizeDomainSuffixes(sc.EmailDomainAllowlist)
	}
	if sc.MaxDepth != nil {
		cfg.MaxDepth = *sc.MaxDepth
	}
	if sc.MaxPages != nil {
		cfg.MaxPages = *sc.MaxPages
	}
	if sc.UserAgent != "" {
		cfg.UserAgent = sc.UserAgent
	}
	return cfg
}
