// Package metrics exposes Prometheus instrumentation for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the import pipeline metric set.
type Pipeline struct {
	ImportsStarted    prometheus.Counter
	ImportsCompleted  *prometheus.CounterVec
	RecordsParsed     prometheus.Counter
	RecordsProcessed  prometheus.Counter
	RecordsSkipped    prometheus.Counter
	ChunksProcessed   prometheus.Counter
	ClassifierHits    *prometheus.CounterVec
	BatchInsertSizes  prometheus.Histogram
	ProcessDuration   prometheus.Histogram
	PromotionsCreated prometheus.Counter
}

// NewPipeline registers pipeline metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)

	return &Pipeline{
		ImportsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_imports_started_total",
			Help: "Number of OFX import jobs started.",
		}),
		ImportsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ofx_imports_completed_total",
			Help: "Number of OFX import jobs that reached a terminal processing state.",
		}, []string{"status"}),
		RecordsParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_records_parsed_total",
			Help: "Raw statement records extracted from uploaded files.",
		}),
		RecordsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_records_processed_total",
			Help: "Statement records successfully normalized.",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_records_skipped_total",
			Help: "Malformed statement records skipped during normalization.",
		}),
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_chunks_processed_total",
			Help: "Worker chunks completed.",
		}),
		ClassifierHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ofx_classifier_hits_total",
			Help: "Rule engine matches by dimension.",
		}, []string{"dimension"}),
		BatchInsertSizes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ofx_batch_insert_rows",
			Help:    "Rows per pending-transaction batch insert.",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500},
		}),
		ProcessDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ofx_import_duration_seconds",
			Help:    "Wall time of the asynchronous import pipeline per job.",
			Buckets: prometheus.DefBuckets,
		}),
		PromotionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ofx_promotions_created_total",
			Help: "Ledger transactions created by import approval.",
		}),
	}
}
