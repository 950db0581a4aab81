package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts login and verification outcomes for the scrape endpoint.
// A nil *Metrics is a no-op so handlers never need a guard.
type Metrics struct {
	loginAttempts        *prometheus.CounterVec
	verificationAttempts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		verificationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Subsystem: "auth",
			Name:      "verification_attempts_total",
			Help:      "Verification code submissions by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) CountLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountVerification(outcome string) {
	if m == nil {
		return
	}
	m.verificationAttempts.WithLabelValues(outcome).Inc()
}
