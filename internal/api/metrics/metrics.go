// Package metrics defines and registers all custom Prometheus metrics for the
// user service. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_service"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthDecisionsTotal counts authenticator outcomes per request.
// Label:
//   - result: "skipped", "authenticated", "token_missing", "invalid_token",
//     "invalid_credentials" or "error"
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Total number of authentication decisions, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - role: the role the login was attempted under
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// TokensIssuedTotal counts token pairs minted.
// Label:
//   - grant: "login" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of access/refresh token pairs issued.",
	},
	[]string{"grant"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AccessDecisionsTotal counts role and ownership checks.
// Labels:
//   - check: "role" or "owner"
//   - result: "allowed" or "denied"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of authorization decisions.",
	},
	[]string{"check", "result"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersCreatedTotal counts newly created accounts.
// Label:
//   - role: role of the created account
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// UsersDeletedTotal counts soft deletions.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of user accounts soft-deleted.",
	},
)

// ObserveAccess records an authorization decision.
func ObserveAccess(check string, err error) {
	result := "allowed"
	if err != nil {
		result = "denied"
	}
	AccessDecisionsTotal.WithLabelValues(check, result).Inc()
}
