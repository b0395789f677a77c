// Package metrics exposes Prometheus collectors for the secure-access engine.
// The engine works without them; components simply skip recording when no
// Metrics instance was supplied.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's collectors, registered once at construction.
type Metrics struct {
	authentications *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	sessionsSwept   prometheus.Counter
}

// New registers the engine collectors with reg. sessionCount feeds the live
// session gauge and is read on every scrape.
func New(reg prometheus.Registerer, sessionCount func() int) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "secure_access_active_sessions",
		Help: "Number of live (unexpired) sessions in the store.",
	}, func() float64 { return float64(sessionCount()) })

	return &Metrics{
		authentications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secure_access_authentications_total",
			Help: "Authentication attempts by outcome reason.",
		}, []string{"reason"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secure_access_decisions_total",
			Help: "Access decisions by outcome reason.",
		}, []string{"reason"}),
		sessionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "secure_access_sessions_swept_total",
			Help: "Expired sessions removed by explicit sweeps.",
		}),
	}
}

// ObserveAuthentication counts one authenticate call by its outcome reason.
func (m *Metrics) ObserveAuthentication(reason string) {
	m.authentications.WithLabelValues(reason).Inc()
}

// ObserveDecision counts one access decision by its reason.
func (m *Metrics) ObserveDecision(reason string) {
	m.decisions.WithLabelValues(reason).Inc()
}

// AddSwept counts sessions removed by a sweep.
func (m *Metrics) AddSwept(count int) {
	if count > 0 {
		m.sessionsSwept.Add(float64(count))
	}
}
