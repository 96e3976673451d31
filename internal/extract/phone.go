package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// phoneCandidate loosely matches phone-shaped runs in body text: an
// optional "+", then a run of at least eight digits and common visual
// separators that starts and ends with a digit.
var phoneCandidate = regexp.MustCompile(`\+?[0-9][0-9\s().\-]{6,}[0-9]`)

// iddCandidate matches numbers written with the 00/011 international
// dialing prefix instead of "+".
var iddCandidate = regexp.MustCompile(`(?:^|[^0-9+])((?:00|011)[\s().\-]*[1-9](?:[\s().\-]*[0-9]){6,})`)

// iddPrefix rewrites a leading 00 or 011 to "+".
var iddPrefix = regexp.MustCompile(`^(?:00|011)`)

// visualChars are the separators stripped from tel: targets before
// parsing.
var visualChars = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\u00a0", "")

// PhoneExtractor harvests phone numbers from page text and tel: targets,
// canonicalizing accepted numbers to E.164.
type PhoneExtractor struct {
	// regions are ISO-3166-1 alpha-2 hints tried in order for numbers
	// without an international prefix.
	regions []string
}

// NewPhoneExtractor creates a PhoneExtractor with the given region hints.
func NewPhoneExtractor(regions []string) *PhoneExtractor {
	return &PhoneExtractor{regions: regions}
}

// Extract returns the deduplicated E.164 numbers found on a page.
func (p *PhoneExtractor) Extract(page *Page) []string {
	found := make(map[string]bool)
	var out []string
	add := func(formatted string) {
		if formatted == "" || found[formatted] {
			return
		}
		found[formatted] = true
		out = append(out, formatted)
	}

	for _, candidate := range phoneCandidate.FindAllString(page.Text, -1) {
		add(p.parseCandidate(candidate))
	}
	for _, m := range iddCandidate.FindAllStringSubmatch(page.Text, -1) {
		normalized := normalizeIDDPrefix(m[1])
		if strings.HasPrefix(normalized, "+") {
			add(parseInternational(normalized))
		}
	}
	for _, href := range page.TelTargets {
		raw := parseTel(href)
		if raw == "" {
			continue
		}
		// tel: targets legitimately use the 00/011 dialing prefix, so the
		// whole dial string gets the rewrite; body text gets it only
		// through the stricter iddCandidate pattern above, because 011 is
		// also a valid national prefix in some regions.
		add(p.parseCandidate(normalizeIDDPrefix(visualChars.Replace(raw))))
	}
	return out
}

// parseCandidate runs the shared parse routine: international numbers
// parse without a region hint, everything else tries the configured
// regions in order. Only numbers that are both possible and valid pass.
func (p *PhoneExtractor) parseCandidate(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "+") {
		return parseInternational(candidate)
	}
	for _, region := range p.regions {
		num, err := phonenumbers.Parse(candidate, region)
		if err != nil {
			continue
		}
		if isAcceptable(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}
	return ""
}

// parseInternational parses a "+"-prefixed number with no region hint.
func parseInternational(candidate string) string {
	num, err := phonenumbers.Parse(candidate, "ZZ")
	if err != nil {
		return ""
	}
	if !isAcceptable(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// isAcceptable requires the library to report the number as both possible
// and valid; either check alone lets too much noise through.
func isAcceptable(num *phonenumbers.PhoneNumber) bool {
	return phonenumbers.IsPossibleNumber(num) && phonenumbers.IsValidNumber(num)
}

// normalizeIDDPrefix rewrites the 00/011 international prefix to "+".
func normalizeIDDPrefix(raw string) string {
	if strings.HasPrefix(raw, "00") || strings.HasPrefix(raw, "011") {
		return iddPrefix.ReplaceAllString(raw, "+")
	}
	return raw
}

// parseTel extracts the dial string from a tel: href, dropping query
// parameters and ;ext-style suffixes.
func parseTel(href string) string {
	_, raw, ok := strings.Cut(href, ":")
	if !ok {
		return ""
	}
	raw, _, _ = strings.Cut(raw, "?")
	raw, _, _ = strings.Cut(raw, ";")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(raw)
}
