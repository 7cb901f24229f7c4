// Package metrics exposes Prometheus counters for authentication and sync.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finsync"

// Outcomes recorded for auth attempts.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Prometheus struct {
	authAttempts     *prometheus.CounterVec
	syncTransactions *prometheus.CounterVec
}

// New registers the counters with reg. Passing a fresh prometheus.Registry
// keeps tests independent of the global default registry.
func New(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Register, login, refresh and logout attempts by outcome.",
		}, []string{"op", "outcome"}),
		syncTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_transactions_total",
			Help:      "Transactions received in sync batches, accepted or skipped.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(p.authAttempts, p.syncTransactions)
	return p
}

func (p *Prometheus) AuthAttempt(op, outcome string) {
	p.authAttempts.WithLabelValues(op, outcome).Inc()
}

func (p *Prometheus) SyncTransactions(accepted, skipped int) {
	p.syncTransactions.WithLabelValues("accepted").Add(float64(accepted))
	p.syncTransactions.WithLabelValues("skipped").Add(float64(skipped))
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
