// Package metrics exposes Prometheus instrumentation for the write queue,
// secondary index scans, and ranked feed streamer, grounded on the
// teacher's internal/wal.metrics.go counters/gauges/histograms for its
// own embedded-store write path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WriteTxnLatency measures end-to-end Update() latency, from submit to
	// committed (or failed) db.Update return.
	WriteTxnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ludwig_write_txn_latency_seconds",
		Help:    "Latency of write transactions from submission to commit",
		Buckets: prometheus.DefBuckets,
	})

	// WriteTxnTotal counts completed write transactions by outcome.
	WriteTxnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ludwig_write_txn_total",
		Help: "Total write transactions by priority and outcome",
	}, []string{"priority", "outcome"})

	// WriteQueueDepth is the current number of queued-but-not-yet-running
	// write jobs, sampled at submit time.
	WriteQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ludwig_write_queue_depth",
		Help: "Current depth of the write queue by priority",
	}, []string{"priority"})

	// IndexScanTotal counts secondary-index scans by direction
	// (forward/reverse).
	IndexScanTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ludwig_index_scan_total",
		Help: "Total secondary index scans",
	}, []string{"direction"})

	// IndexScanSkippedReferents counts index entries skipped because their
	// referent was missing (§7 "logged and skipped" read-path policy).
	IndexScanSkippedReferents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ludwig_index_scan_skipped_referents_total",
		Help: "Total index entries skipped because their referent row was missing",
	})

	// FeedEarlyTerminations counts ranked-feed scans that stopped before
	// exhausting the underlying index, because the provable upper bound on
	// remaining candidates' rank fell below the current heap floor (§4.5).
	FeedEarlyTerminations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ludwig_feed_early_terminations_total",
		Help: "Total ranked feed scans that stopped via the early-termination bound",
	}, []string{"sort"})

	// FeedCandidatesScanned measures how many candidate posts a ranked
	// feed query examined before returning a page, for tuning the early
	// termination heuristics.
	FeedCandidatesScanned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ludwig_feed_candidates_scanned",
		Help:    "Number of candidate posts examined per ranked feed query",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	})

	// EventsPublished counts eventbus publishes by topic.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ludwig_events_published_total",
		Help: "Total events published on the in-process event bus",
	}, []string{"topic"})

	// RateLimitRejections counts requests denied by the admission limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ludwig_ratelimit_rejections_total",
		Help: "Total operations rejected by the rate limiter",
	}, []string{"op"})
)
