// Package metrics holds the Prometheus collectors exported by the server.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gophauth"

// Token validation results.
const (
	TokenValid        = "ok"
	TokenMalformed    = "malformed"
	TokenBadSignature = "bad_signature"
	TokenExpired      = "expired"
	TokenBadIssuer    = "bad_issuer"
	TokenBadSubject   = "bad_subject"
	TokenInvalid      = "invalid"
)

type Metrics struct {
	lifecycle *prometheus.CounterVec
	tokens    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_outcomes_total",
			Help:      "Terminal responses of account lifecycle operations.",
		}, []string{"action", "code", "success"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Bearer token validations by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.lifecycle, m.tokens)
	return m
}

func (m *Metrics) ObserveLifecycle(action, code string, success bool) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(action, code, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) ObserveTokenValidation(result string) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(result).Inc()
}
