// Package extract turns fetched page bodies into structured data: visible
// text, candidate links with their anchor text, and the contact payload
// this crawler exists for — validated email addresses and E.164 phone
// numbers.
//
// # HTML parsing
//
// Pages are parsed leniently with golang.org/x/net/html; broken markup
// never aborts a crawl. Visible text excludes script, style, and noscript
// subtrees, but script bodies are retained separately because one common
// email-cloaking scheme (the Joomla address cloak) hides addresses inside
// inline scripts.
//
// # Contact extraction
//
// Emails are harvested by pattern matching over de-cloaked text plus
// mailto: targets, then validated against a dot-atom subset of RFC 5322.
// Phones are parsed with the phonenumbers library: tel: targets and loose
// text candidates are tried against the configured region hints, and only
// numbers the library reports as both possible and valid are kept.
package extract
