// Package urlnorm normalizes URLs into a canonical, comparable form and
// decides whether a candidate URL belongs to the crawl's registered domain.
//
// # Canonical form
//
// A canonical URL always has a lowercase http or https scheme, a lowercase
// ASCII host (international hostnames are converted to Punycode), no default
// port, a non-empty path with dot segments collapsed, and no fragment. The
// query string is preserved in its original parameter order only when the
// crawl is configured to treat query strings as significant.
//
// Two URLs are the same page for deduplication purposes if and only if their
// Key() strings are equal.
//
// # Domain scope
//
// Scope checks compare registered domains (eTLD+1) using the public suffix
// list, so "sub.example.com" and "example.com" are in scope for each other
// while "example.org" is not. Hosts the public suffix list cannot classify
// (single-label hosts, IP literals) fall back to exact host comparison.
package urlnorm
