// Package metrics exposes Prometheus collectors for paged listings.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maxviazov/pagekit/pkg/pagination"
)

// Paginator modes, used as the "mode" label.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Metrics holds the pagination collectors. A nil *Metrics records nothing.
type Metrics struct {
	pagesServed   *prometheus.CounterVec
	pagesClamped  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	pageItems     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagekit",
			Name:      "pages_served_total",
			Help:      "Pages resolved, by resource and paginator mode.",
		}, []string{"resource", "mode"}),
		pagesClamped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagekit",
			Name:      "page_clamped_total",
			Help:      "Requests for a page past the last one that were served page 1 instead.",
		}, []string{"resource", "mode"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pagekit",
			Name:      "page_query_duration_seconds",
			Help:      "Time spent counting and fetching one page.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "mode"}),
		pageItems: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pagekit",
			Name:      "page_items",
			Help:      "Items returned per page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"resource", "mode"}),
	}
	reg.MustRegister(m.pagesServed, m.pagesClamped, m.queryDuration, m.pageItems)
	return m
}

// ObservePage records one resolved page. requested is the page the caller asked for.
func (m *Metrics) ObservePage(resource, mode string, requested int, s pagination.Summary, items int, took time.Duration) {
	if m == nil {
		return
	}
	m.pagesServed.WithLabelValues(resource, mode).Inc()
	if requested != s.Page {
		m.pagesClamped.WithLabelValues(resource, mode).Inc()
	}
	m.queryDuration.WithLabelValues(resource, mode).Observe(took.Seconds())
	m.pageItems.WithLabelValues(resource, mode).Observe(float64(items))
}
