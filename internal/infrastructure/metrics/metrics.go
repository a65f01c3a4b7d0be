package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/palletledger/internal/domain"
)

const namespace = "palletledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesRecorded      *prometheus.CounterVec
	ClosuresCreated      prometheus.Counter
	DuplicateClosures    prometheus.Counter
	ClosureLockRejection *prometheus.CounterVec
	BalanceDuration      prometheus.Histogram
	BalanceCacheRequests *prometheus.CounterVec

	// Partner metrics
	PartnersCreated prometheus.Counter
	PartnersDeleted prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailed    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_recorded_total",
				Help:      "Total number of entries recorded by direction",
			},
			[]string{"richtung"},
		),
		ClosuresCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closures_created_total",
			Help:      "Total number of month closures created",
		}),
		DuplicateClosures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_closures_total",
			Help:      "Total number of rejected attempts to close a month twice",
		}),
		ClosureLockRejection: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "closure_lock_rejections_total",
				Help:      "Total number of bookings rejected because the period is closed",
			},
			[]string{"path"},
		),
		BalanceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_computation_duration_seconds",
			Help:      "Duration of balance computations",
			Buckets:   prometheus.DefBuckets,
		}),
		BalanceCacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_cache_requests_total",
				Help:      "Balance cache lookups by result",
			},
			[]string{"result"},
		),

		PartnersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partners_created_total",
			Help:      "Total number of partners created",
		}),
		PartnersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partners_deleted_total",
			Help:      "Total number of partners deleted",
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_published_total",
			Help:      "Total number of outbox events published",
		}),
		OutboxFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of outbox events that failed to publish",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by the rate limiter",
		}),
	}
}

// EntryRecorded counts a stored entry or correction.
func (m *Metrics) EntryRecorded(direction domain.Direction) {
	m.EntriesRecorded.WithLabelValues(string(direction)).Inc()
}

func (m *Metrics) ClosureCreated() {
	m.ClosuresCreated.Inc()
}

func (m *Metrics) DuplicateClosure() {
	m.DuplicateClosures.Inc()
}

// ClosureLockRejected counts a booking refused by a closure; path is "entry"
// or "correction".
func (m *Metrics) ClosureLockRejected(path string) {
	m.ClosureLockRejection.WithLabelValues(path).Inc()
}

// BalanceComputed observes a balance request. Cache hits are counted but not
// timed.
func (m *Metrics) BalanceComputed(duration time.Duration, cacheHit bool) {
	if cacheHit {
		m.BalanceCacheRequests.WithLabelValues("hit").Inc()
		return
	}

	m.BalanceCacheRequests.WithLabelValues("miss").Inc()
	m.BalanceDuration.Observe(duration.Seconds())
}

func (m *Metrics) PartnerCreated() {
	m.PartnersCreated.Inc()
}

func (m *Metrics) PartnerDeleted() {
	m.PartnersDeleted.Inc()
}

// OutboxEventPublished counts an event handed to the broker.
func (m *Metrics) OutboxEventPublished() {
	m.OutboxPublished.Inc()
}

func (m *Metrics) OutboxEventFailed() {
	m.OutboxFailed.Inc()
}

// AuthFailure counts a rejected bearer token; reason is "missing",
// "malformed", "expired" or "invalid".
func (m *Metrics) AuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RateLimitHit() {
	m.RateLimitHits.Inc()
}
