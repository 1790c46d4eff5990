// Package metrics holds the Prometheus collectors exposed on the /metrics endpoint.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Audit sinks used as the "sink" label of audit_write_failures_total.
const (
	SinkSession = "session"
	SinkAction  = "action"
)

// AuditWriteFailures counts audit entries that were dropped, labelled by sink.
var AuditWriteFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit entries that could not be persisted and were dropped.",
	},
	[]string{"sink"},
)

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by outcome reason.",
		},
		[]string{"reason"},
	)

	policyDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_decisions_total",
			Help: "Authorization decisions by action and result.",
		},
		[]string{"action", "decision"},
	)

	passwordResetTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reset_transitions_total",
			Help: "Password reset requests entering each status.",
		},
		[]string{"status"},
	)

	registry     = prometheus.NewRegistry()
	registerOnce sync.Once
)

// Init registers the collectors, plus Go runtime and process collectors, on the package registry.
// Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		registry.MustRegister(
			AuditWriteFailures, loginAttempts, policyDecisions, passwordResetTransitions,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves the package registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// AuditWriteFailed counts one dropped audit entry for sink.
func AuditWriteFailed(sink string) {
	AuditWriteFailures.WithLabelValues(sink).Inc()
}

// LoginAttempt counts one login attempt with the given outcome reason.
func LoginAttempt(reason string) {
	loginAttempts.WithLabelValues(reason).Inc()
}

// PolicyDecision counts one authorization decision.
func PolicyDecision(action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	policyDecisions.WithLabelValues(action, decision).Inc()
}

// PasswordResetTransition counts a reset request entering status.
func PasswordResetTransition(status string) {
	passwordResetTransitions.WithLabelValues(status).Inc()
}
