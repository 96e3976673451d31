// Package config defines the crawl configuration and loads it from built-in
// defaults, an optional TOML/JSON config file, PARSER_-prefixed environment
// variables, and an explicit override map, in increasing order of
// precedence.
//
// The resulting Config is immutable by convention: it is built once before
// engine construction and passed by pointer to every component.
package config
