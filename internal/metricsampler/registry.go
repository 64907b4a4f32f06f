// Package metricsampler implements the Metrics Sampler (C8): a supervised,
// once-a-second loop that pulls counts and ages from the search backend into
// a Prometheus registry, then publishes a text-format snapshot into the KV
// store for the read façade's /metrics route to serve. It never blocks
// ingestion — MetricsUnavailable is skipped silently, per label, every
// round.
package metricsampler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every gauge/counter this service publishes.
type Registry struct {
	reg *prometheus.Registry

	searchableTotal    prometheus.Gauge
	nonSearchableTotal prometheus.Gauge
	verificationAge    prometheus.Gauge

	feedSearchable    *prometheus.GaugeVec
	feedNonSearchable *prometheus.GaugeVec

	pullDuration *prometheus.HistogramVec
	pushDuration *prometheus.HistogramVec
	totalDuration *prometheus.HistogramVec
	itemsPushed  *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		searchableTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_stream_searchable_total",
			Help: "Number of activities visible through the activities alias.",
		}),
		nonSearchableTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_stream_nonsearchable_total",
			Help: "Number of activities indexed but not yet visible through the alias.",
		}),
		verificationAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_stream_verification_feed_age_seconds",
			Help: "Age in seconds of the most recently published verification-feed activity.",
		}),
		feedSearchable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "activity_stream_feed_searchable_total",
			Help: "Number of searchable activities for one feed.",
		}, []string{"feed_id"}),
		feedNonSearchable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "activity_stream_feed_nonsearchable_total",
			Help: "Number of nonsearchable activities for one feed.",
		}, []string{"feed_id"}),
		pullDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "activity_stream_page_pull_duration_seconds",
			Help: "Time spent fetching one page from a feed.",
		}, []string{"feed_id", "ingest_type"}),
		pushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "activity_stream_page_push_duration_seconds",
			Help: "Time spent bulk-indexing one page.",
		}, []string{"feed_id", "ingest_type"}),
		totalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "activity_stream_page_total_duration_seconds",
			Help: "Total time spent processing one page end to end.",
		}, []string{"feed_id", "ingest_type"}),
		itemsPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_stream_items_pushed_total",
			Help: "Number of activity documents pushed to the backend.",
		}, []string{"feed_id"}),
	}

	reg.MustRegister(
		r.searchableTotal, r.nonSearchableTotal, r.verificationAge,
		r.feedSearchable, r.feedNonSearchable,
		r.pullDuration, r.pushDuration, r.totalDuration, r.itemsPushed,
	)
	return r
}

// ObservePull records the duration of a page fetch.
func (r *Registry) ObservePull(feedID, ingestType string, seconds float64) {
	r.pullDuration.WithLabelValues(feedID, ingestType).Observe(seconds)
}

// ObservePush records the duration of one page's bulk index call.
func (r *Registry) ObservePush(feedID, ingestType string, seconds float64) {
	r.pushDuration.WithLabelValues(feedID, ingestType).Observe(seconds)
}

// ObserveTotal records the end-to-end duration of one page pipeline.
func (r *Registry) ObserveTotal(feedID, ingestType string, seconds float64) {
	r.totalDuration.WithLabelValues(feedID, ingestType).Observe(seconds)
}

// IncItemsPushed increments the items-pushed counter for feedID by n.
func (r *Registry) IncItemsPushed(feedID string, n int) {
	r.itemsPushed.WithLabelValues(feedID).Add(float64(n))
}

func (r *Registry) setSearchableTotal(v float64)    { r.searchableTotal.Set(v) }
func (r *Registry) setNonSearchableTotal(v float64) { r.nonSearchableTotal.Set(v) }
func (r *Registry) setVerificationAge(v float64)    { r.verificationAge.Set(v) }
func (r *Registry) setFeedSearchable(feedID string, v float64) {
	r.feedSearchable.WithLabelValues(feedID).Set(v)
}
func (r *Registry) setFeedNonSearchable(feedID string, v float64) {
	r.feedNonSearchable.WithLabelValues(feedID).Set(v)
}
