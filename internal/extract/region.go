package extract

import "strings"

// tldRegions maps country-code TLDs onto phone region hints. Generic TLDs
// carry no hint; numbers on those sites must be international or covered
// by configured regions.
var tldRegions = map[string]string{
	"ru": "RU", "by": "BY", "kz": "KZ", "ua": "UA", "kg": "KG",
	"uz": "UZ", "am": "AM", "az": "AZ", "ge": "GE", "md": "MD",
	"ee": "EE", "lv": "LV", "lt": "LT", "pl": "PL", "de": "DE",
	"fr": "FR", "it": "IT", "es": "ES", "pt": "PT", "nl": "NL",
	"be": "BE", "ch": "CH", "at": "AT", "se": "SE", "no": "NO",
	"fi": "FI", "dk": "DK", "ie": "IE", "uk": "GB", "gb": "GB",
	"us": "US", "ca": "CA", "au": "AU", "nz": "NZ", "jp": "JP",
	"cn": "CN", "in": "IN",
}

// InferRegion guesses a phone region from a hostname's TLD. Returns ""
// when the TLD carries no hint. Used only when no regions are configured.
func InferRegion(host string) string {
	host = strings.Trim(strings.ToLower(host), ".")
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	return tldRegions[labels[len(labels)-1]]
}
