package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rec_admin"

// Metrics holds the Prometheus collectors for storage and upload instrumentation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	storageOps       *prometheus.CounterVec
	storageLatency   *prometheus.HistogramVec
	variantUploads   *prometheus.CounterVec
	rollbacks        *prometheus.CounterVec
	rollbackFailures *prometheus.CounterVec
	finalized        *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "ops_total",
			Help:      "Total object storage operations by result.",
		}, []string{"op", "bucket", "result"}),
		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "op_duration_seconds",
			Help:      "Object storage operation durations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "bucket"}),
		variantUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "variant_uploads_total",
			Help:      "Variant uploads by category and result.",
		}, []string{"category", "result"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "rollbacks_total",
			Help:      "Multi-variant uploads rolled back after a partial failure.",
		}, []string{"category"}),
		rollbackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "rollback_delete_failures_total",
			Help:      "Deletes that failed while rolling back, leaving an orphaned object.",
		}, []string{"category"}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "finalized_total",
			Help:      "Assets recorded after a successful finalize or direct upload.",
		}, []string{"category"}),
	}

	reg.MustRegister(m.storageOps, m.storageLatency, m.variantUploads, m.rollbacks, m.rollbackFailures, m.finalized)
	return m
}

// ObserveStorageOp records one storage call.
func (m *Metrics) ObserveStorageOp(op, bucket string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.storageOps.WithLabelValues(op, bucket, result(err)).Inc()
	m.storageLatency.WithLabelValues(op, bucket).Observe(dur.Seconds())
}

// ObserveVariantUpload records the outcome of a single variant write.
func (m *Metrics) ObserveVariantUpload(category string, err error) {
	if m == nil {
		return
	}
	m.variantUploads.WithLabelValues(category, result(err)).Inc()
}

func (m *Metrics) IncRollback(category string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(category).Inc()
}

func (m *Metrics) IncRollbackFailure(category string) {
	if m == nil {
		return
	}
	m.rollbackFailures.WithLabelValues(category).Inc()
}

func (m *Metrics) IncFinalized(category string) {
	if m == nil {
		return
	}
	m.finalized.WithLabelValues(category).Inc()
}

// Handler exposes the registry in Prometheus text format.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
