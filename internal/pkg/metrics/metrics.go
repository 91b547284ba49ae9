package metrics

import (
	"errors"
	"time"

	"chainstate/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RPCRequests       *prometheus.CounterVec
	RPCLatency        *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	StatusEvaluations *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chainstate_rpc_requests_total",
			Help: "Upstream JSON-RPC requests by method and outcome",
		}, []string{"method", "outcome"}),
		RPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainstate_rpc_latency_seconds",
			Help:    "Upstream JSON-RPC round trip latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"method"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chainstate_cache_lookups_total",
			Help: "Result cache lookups by operation and result",
		}, []string{"operation", "result"}),
		StatusEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chainstate_status_evaluations_total",
			Help: "Chain status evaluations by resulting level",
		}, []string{"level"}),
	}
}

// ObserveRPC records one upstream call.
func (m *Metrics) ObserveRPC(method string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(method, Outcome(err)).Inc()
	m.RPCLatency.WithLabelValues(method).Observe(took.Seconds())
}

// CacheLookup records a hit or miss for operation.
func (m *Metrics) CacheLookup(operation string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(operation, result).Inc()
}

// StatusEvaluated records the level of a finished evaluation.
func (m *Metrics) StatusEvaluated(level string) {
	if m == nil {
		return
	}
	m.StatusEvaluations.WithLabelValues(level).Inc()
}

// Outcome maps an RPC error onto a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	case errors.Is(err, domain.ErrRemote):
		return "remote"
	case errors.Is(err, domain.ErrDecode):
		return "decode"
	default:
		return "other"
	}
}
