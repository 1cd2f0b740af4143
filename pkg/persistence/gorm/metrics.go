package gorm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Filter pushdown outcomes.
const (
	PushdownExact   = "exact"
	PushdownPartial = "partial"
	PushdownNone    = "none"
)

// Metrics records provider executions.
type Metrics struct {
	executions *prometheus.CounterVec
	pushdowns  *prometheus.CounterVec
	rows       *prometheus.HistogramVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the provider metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querykit",
			Subsystem: "gorm",
			Name:      "executions_total",
			Help:      "Query executions by entity, evaluation mode and result",
		}, []string{"entity", "mode", "result"}),
		pushdowns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querykit",
			Subsystem: "gorm",
			Name:      "filter_pushdowns_total",
			Help:      "Where stages by pushdown outcome",
		}, []string{"entity", "outcome"}),
		rows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "querykit",
			Subsystem: "gorm",
			Name:      "loaded_rows",
			Help:      "Rows loaded from the database per execution",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000},
		}, []string{"entity"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "querykit",
			Subsystem: "gorm",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading rows from the database",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"entity"}),
	}
}

func (m *Metrics) observeExecution(entity, mode, result string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(entity, mode, result).Inc()
}

func (m *Metrics) observePushdown(entity, outcome string) {
	if m == nil {
		return
	}
	m.pushdowns.WithLabelValues(entity, outcome).Inc()
}

func (m *Metrics) observeLoad(entity string, rows int, seconds float64) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(entity).Observe(float64(rows))
	m.duration.WithLabelValues(entity).Observe(seconds)
}
