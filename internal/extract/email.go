package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// emailPattern harvests address-shaped candidates from page text. The
// pattern is permissive; validateEmail is the real filter.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// candidateTrimSet strips the punctuation that commonly clings to
// addresses embedded in prose.
const candidateTrimSet = ".,;:()[]<>\"'"

// EmailExtractor harvests and validates email addresses from page text,
// mailto: targets, and cloaked scripts.
type EmailExtractor struct {
	// allowlist is the normalized domain suffix allowlist; empty keeps
	// every valid address.
	allowlist []string
}

// NewEmailExtractor creates an EmailExtractor. The allowlist must already
// be normalized (lowercase, no leading "@" or ".").
func NewEmailExtractor(allowlist []string) *EmailExtractor {
	return &EmailExtractor{allowlist: allowlist}
}

// Extract returns the deduplicated valid addresses found on a page.
// Deduplication is case-insensitive on the domain and case-sensitive on
// the local part; domains are lowercased in the output.
func (e *EmailExtractor) Extract(page *Page) []string {
	found := make(map[string]bool)
	var out []string
	add := func(candidate string) {
		normalized, ok := e.normalize(candidate)
		if !ok || found[normalized] {
			return
		}
		found[normalized] = true
		out = append(out, normalized)
	}

	for _, m := range emailPattern.FindAllString(DecloakText(page.Text), -1) {
		add(strings.Trim(m, candidateTrimSet))
	}
	for _, href := range page.MailtoTargets {
		if addr := parseMailto(href); addr != "" {
			add(addr)
		}
	}
	for _, cloaked := range CloakedEmails(page.Scripts) {
		add(cloaked)
	}
	return out
}

// normalize validates a candidate and returns its canonical form:
// local part unchanged, domain lowercased, allowlist applied.
func (e *EmailExtractor) normalize(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	local, domain, ok := splitAddress(candidate)
	if !ok {
		return "", false
	}
	domain = strings.ToLower(domain)
	if !validLocalPart(local) || !validDomain(domain) {
		return "", false
	}
	if len(e.allowlist) > 0 && !domainAllowed(domain, e.allowlist) {
		return "", false
	}
	return local + "@" + domain, true
}

// parseMailto extracts the first address from a mailto: href, dropping
// header parameters such as ?subject=.
func parseMailto(href string) string {
	_, raw, ok := strings.Cut(href, ":")
	if !ok {
		return ""
	}
	raw, _, _ = strings.Cut(raw, "?")
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	first, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(first)
}

// splitAddress splits on the single "@"; addresses with zero or multiple
// "@" are invalid.
func splitAddress(addr string) (local, domain string, ok bool) {
	if strings.Count(addr, "@") != 1 {
		return "", "", false
	}
	local, domain, _ = strings.Cut(addr, "@")
	if local == "" || domain == "" {
		return "", "", false
	}
	return local, domain, true
}

// validLocalPart checks the dot-atom subset of RFC 5322: atext characters
// separated by single dots, no quoted strings or comments.
func validLocalPart(local string) bool {
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	for i := 0; i < len(local); i++ {
		if !isAtext(local[i]) && local[i] != '.' {
			return false
		}
	}
	return true
}

// validDomain checks a lowercase domain: at least two labels, LDH labels
// only, and an alphabetic top-level label of two or more characters.
func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !isAlphaNum(c) && c != '-' {
				return false
			}
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		if !isAlpha(tld[i]) {
			return false
		}
	}
	return true
}

// domainAllowed reports whether domain equals or is a subdomain of any
// allowlist entry.
func domainAllowed(domain string, allowlist []string) bool {
	for _, suffix := range allowlist {
		if domain == suffix || strings.HasSuffix(domain, "."+suffix) {
			return true
		}
	}
	return false
}

func isAtext(c byte) bool {
	if isAlphaNum(c) {
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '/', '=', '?', '^', '_', '`', '{', '|', '}', '~':
		return true
	}
	return false
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}
