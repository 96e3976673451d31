package report

import (
	"io"

	"github.com/nao1215/siteparser/internal/model"
)

// Writer outputs one crawl result to a configured destination.
type Writer interface {
	// Write outputs the result. Returns the number of bytes written and
	// any error encountered.
	Write(result *model.CrawlResult) (int, error)
}

// baseWriter holds the shared output destination.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// MultiWriter writes a result to several Writers, stopping on the first
// error. Useful for emitting to stdout and a file in one run.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers and returns the
// total bytes written.
func (w *MultiWriter) Write(result *model.CrawlResult) (int, error) {
	total := 0
	for _, writer := range w.writers {
		n, err := writer.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
