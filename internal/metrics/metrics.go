// Package metrics exposes Prometheus counters for the booking engine.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booking"

// Recorder owns the engine's collectors.
type Recorder struct {
	claims      *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	txRetries   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_created_total",
			Help:      "Claims accepted, by claim kind.",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_rejections_total",
			Help:      "Claims refused by the availability checker, by kind and reason.",
		}, []string{"kind", "reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Claim status transitions, by kind and target status.",
		}, []string{"kind", "to"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Transactions replayed after a transient data-store failure.",
		}),
	}
	reg.MustRegister(r.claims, r.rejections, r.transitions, r.txRetries)
	return r
}

// ClaimCreated counts an accepted claim.
func (r *Recorder) ClaimCreated(kind string) {
	if r == nil {
		return
	}
	r.claims.WithLabelValues(kind).Inc()
}

// Rejected counts a claim refused with reason "conflict" or "unavailable".
func (r *Recorder) Rejected(kind, reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(kind, reason).Inc()
}

// Transition counts a committed status change.
func (r *Recorder) Transition(kind, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(kind, to).Inc()
}

// TxRetry counts a replayed transaction.
func (r *Recorder) TxRetry() {
	if r == nil {
		return
	}
	r.txRetries.Inc()
}

// Handler serves the collectors gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
