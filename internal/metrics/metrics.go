// Package metrics exposes Prometheus collectors for the crawler.
//
// Collectors are created by Init and recorded through nil-safe helpers,
// so library callers that never serve /metrics pay nothing: until Init
// runs, every Observe helper is a no-op.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal     *prometheus.CounterVec
	bodyBytesTotal prometheus.Counter
	crawlDuration  prometheus.Histogram
	contactsTotal  *prometheus.CounterVec

	once        sync.Once
	initialized bool
)

// Init registers the collectors on the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteparser_pages_total",
				Help: "Pages fetched, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		bodyBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "siteparser_body_bytes_total",
				Help: "Response body bytes read across all fetches.",
			},
		)
		crawlDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "siteparser_crawl_duration_seconds",
				Help:    "Histogram of whole-crawl wall-clock durations.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		)
		contactsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteparser_contacts_total",
				Help: "Distinct contacts harvested, labeled by kind.",
			},
			[]string{"kind"},
		)
		initialized = true
	})
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one page fetch outcome.
func ObservePage(outcome string, bodyBytes int64) {
	if !initialized {
		return
	}
	pagesTotal.WithLabelValues(outcome).Inc()
	if bodyBytes > 0 {
		bodyBytesTotal.Add(float64(bodyBytes))
	}
}

// ObserveCrawl records a finished crawl.
func ObserveCrawl(duration time.Duration, emails, phones int) {
	if !initialized {
		return
	}
	crawlDuration.Observe(duration.Seconds())
	contactsTotal.WithLabelValues("email").Add(float64(emails))
	contactsTotal.WithLabelValues("phone").Add(float64(phones))
}
