package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records order transitions, inventory sync runs and
// outbox publishing. A nil receiver or nil registerer makes every method a no-op.
type LifecycleMetrics struct {
	transitions    *prometheus.CounterVec
	created        *prometheus.CounterVec
	codeCollisions prometheus.Counter
	syncDuration   prometheus.Histogram
	syncFailures   prometheus.Counter
	lowStock       *prometheus.CounterVec
	published      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobFailures    *prometheus.CounterVec
	httpRequests   *prometheus.HistogramVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	m := &LifecycleMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions by source and target status.",
		}, []string{"from", "to"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created by origin.",
		}, []string{"origin"}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_code_collisions_total",
			Help: "Order code draws rejected because the code already existed.",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "inventory_sync_duration_seconds",
			Help:    "Duration of catalog to inventory syncs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sync_failures_total",
			Help: "Catalog to inventory syncs that returned an error.",
		}),
		lowStock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_low_stock_signals_total",
			Help: "Low-stock signals by outcome (emitted or suppressed).",
		}, []string{"outcome"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Outbox publish attempts by event type and result.",
		}, []string{"event_type", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduled_job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduled_job_failures_total",
			Help: "Scheduled job runs that returned an error.",
		}, []string{"job"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		m.transitions, m.created, m.codeCollisions,
		m.syncDuration, m.syncFailures, m.lowStock,
		m.published, m.jobDuration, m.jobFailures,
		m.httpRequests,
	)
	return m
}

func (m *LifecycleMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *LifecycleMetrics) IncCreated(origin string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(origin)).Inc()
}

func (m *LifecycleMetrics) IncCodeCollision() {
	if m == nil || m.codeCollisions == nil {
		return
	}
	m.codeCollisions.Inc()
}

// ObserveSync records one sync run; failed runs also bump the failure counter.
func (m *LifecycleMetrics) ObserveSync(duration time.Duration, err error) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Observe(duration.Seconds())
	if err != nil {
		m.syncFailures.Inc()
	}
}

func (m *LifecycleMetrics) IncLowStock(outcome string) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *LifecycleMetrics) IncPublished(eventType, result string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// ObserveJob records one scheduled job run.
func (m *LifecycleMetrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
	if err != nil {
		m.jobFailures.WithLabelValues(normalizeLabel(job)).Inc()
	}
}

// ObserveRequest records one served HTTP request. Status is bucketed into
// its class (2xx, 4xx, ...) to keep cardinality bounded.
func (m *LifecycleMetrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(normalizeLabel(route), method, statusClass(status)).Observe(duration.Seconds())
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
