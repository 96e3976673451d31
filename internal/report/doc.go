// Package report writes crawl results in the formats the CLI offers:
// compact or pretty-printed JSON for tooling, and a Markdown summary for
// humans. Writers share one interface so the CLI can fan a result out to
// several destinations at once.
package report
