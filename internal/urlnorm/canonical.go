package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

// Canonicalization errors. Callers use errors.Is to distinguish a URL that
// is malformed from one that merely uses a scheme we do not crawl.
var (
	// ErrUnsupportedScheme is returned for schemes other than http and https,
	// including javascript:, data:, mailto:, and tel: hrefs.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrMissingHost is returned when a URL has no hostname after resolution.
	ErrMissingHost = errors.New("URL hostname is missing")

	// ErrEmptyURL is returned for empty or fragment-only references.
	ErrEmptyURL = errors.New("empty URL reference")
)

// URL is a canonicalized URL. The zero value is not valid; construct values
// through Parse or Resolve.
type URL struct {
	// Scheme is "http" or "https", lowercase.
	Scheme string

	// Host is the lowercase ASCII (Punycode) hostname, without port.
	Host string

	// Port is the explicit port, or empty when the URL uses the scheme's
	// default port (80 for http, 443 for https).
	Port string

	// Path is the normalized path. It is never empty and always starts
	// with "/". Dot segments are collapsed; existing percent-encodings are
	// preserved byte for byte.
	Path string

	// RawQuery is the query string in its original parameter order, or
	// empty when the URL was canonicalized with includeQuery=false.
	RawQuery string
}

// Parse canonicalizes an absolute URL string.
func Parse(raw string, includeQuery bool) (*URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse URL %q: %w", raw, err)
	}
	return canonicalize(u, includeQuery)
}

// Resolve canonicalizes href relative to base using standard URL join
// semantics. Fragment-only and unsupported-scheme references are rejected.
func Resolve(base *URL, href string, includeQuery bool) (*URL, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, ErrEmptyURL
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.Scheme != "" && !isSupportedScheme(ref.Scheme) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref.Scheme)
	}
	return canonicalize(base.stdURL().ResolveReference(ref), includeQuery)
}

// canonicalize applies the normalization rules to a resolved *url.URL.
func canonicalize(u *url.URL, includeQuery bool) (*URL, error) {
	scheme := strings.ToLower(u.Scheme)
	if !isSupportedScheme(scheme) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, ErrMissingHost
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// idna.Lookup rejects some hosts that are nonetheless fetchable
		// (underscores, already-encoded labels); keep the lowercase form
		// for pure-ASCII hosts and reject only non-ASCII ones.
		if !isASCII(host) {
			return nil, fmt.Errorf("IDN host %q: %w", host, err)
		}
		ascii = host
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	query := ""
	if includeQuery {
		query = u.RawQuery
	}

	return &URL{
		Scheme:   scheme,
		Host:     ascii,
		Port:     port,
		Path:     normalizePath(u.EscapedPath()),
		RawQuery: query,
	}, nil
}

// normalizePath collapses dot segments while preserving a trailing slash
// and existing percent-encodings. The result always starts with "/".
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	trailing := strings.HasSuffix(p, "/")
	cleaned := path.Clean(p)
	if trailing && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// Key returns the deduplication key: scheme://host[:port]path[?query].
func (u *URL) Key() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	if u.Port != "" {
		b.WriteString(":")
		b.WriteString(u.Port)
	}
	b.WriteString(u.Path)
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// String returns the fetchable form of the URL, identical to Key.
func (u *URL) String() string {
	return u.Key()
}

// Origin returns scheme://host[:port] without path or query.
func (u *URL) Origin() string {
	if u.Port != "" {
		return u.Scheme + "://" + u.Host + ":" + u.Port
	}
	return u.Scheme + "://" + u.Host
}

// stdURL converts back to net/url form for reference resolution. Parsing
// the string form keeps existing percent-encodings intact.
func (u *URL) stdURL() *url.URL {
	parsed, err := url.Parse(u.Key())
	if err != nil {
		return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}
	return parsed
}

func isSupportedScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
