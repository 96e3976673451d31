// Package main provides the entry point for the siteparser CLI.
//
// siteparser crawls the pages of a single web site and harvests contact
// data: email addresses and phone numbers. Results are reported as
// deduplicated, sorted JSON.
//
// Usage:
//
//	siteparser parse <url>
//	siteparser serve --addr :8080
//
// See --help for all available options.
package main

import "os"

// main is the entry point for siteparser.
func main() {
	os.Exit(Execute())
}
