package report

import (
	"io"

	"github.com/nao1215/siteparser/internal/model"
)

// JSONWriter outputs results as JSON, the shape model.CrawlResult
// defines: {"url": ..., "emails": [...], "phones": [...]}.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output with two-space indentation.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write serializes the result and appends a trailing newline for clean
// terminal output.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	data, err := result.AsJSON(w.indent)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
