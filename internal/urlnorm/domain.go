package urlnorm

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegisteredDomain returns the eTLD+1 of host, lowercase. When the public
// suffix list cannot derive one (single-label hosts, IP literals), the host
// itself is returned so that scope checks degrade to exact host equality.
func RegisteredDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

// SameRegisteredDomain reports whether two hosts share a registered domain.
// The comparison is case-insensitive on the ASCII form.
func SameRegisteredDomain(a, b string) bool {
	return RegisteredDomain(a) == RegisteredDomain(b)
}

// InScope reports whether candidate is crawlable from a start URL on
// startHost. This is the domain gate applied before enqueueing.
func InScope(candidate *URL, startHost string) bool {
	if candidate == nil {
		return false
	}
	return SameRegisteredDomain(candidate.Host, startHost)
}
