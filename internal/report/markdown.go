package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/siteparser/internal/model"
)

// MarkdownWriter outputs a human-readable contact summary in GitHub
// Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the result as a Markdown document.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Contact report")
	md.PlainText("Site: " + result.URL)
	md.PlainText("")

	md.H2("Summary")
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{"Emails", strconv.Itoa(len(result.Emails))},
			{"Phones", strconv.Itoa(len(result.Phones))},
		},
	})

	md.H2("Emails")
	if len(result.Emails) == 0 {
		md.PlainText("None found.")
	} else {
		md.BulletList(result.Emails...)
	}

	md.H2("Phones")
	if len(result.Phones) == 0 {
		md.PlainText("None found.")
	} else {
		md.BulletList(result.Phones...)
	}

	if d := result.Diagnostics; d != nil {
		md.H2("Crawl diagnostics")
		md.Table(markdown.TableSet{
			Header: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Stop reason", d.StopReason},
				{"Duration (s)", strconv.FormatFloat(d.DurationSeconds, 'f', 3, 64)},
				{"Pages scheduled", strconv.Itoa(d.Counters.ScheduledPages)},
				{"Pages fetched", strconv.Itoa(d.Counters.FetchedPages)},
				{"Pages failed", strconv.Itoa(d.Counters.FailedPages)},
				{"Links enqueued", strconv.Itoa(d.Counters.LinksEnqueued)},
			},
		})
	}

	if err := md.Build(); err != nil {
		return 0, err
	}
	return len(md.String()), nil
}
