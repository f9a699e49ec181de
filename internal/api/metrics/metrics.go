// Package metrics defines all custom Prometheus metrics for the FHIR API.
// It is the single source of truth for metric names, labels and help strings.
//
// Collectors are registered with the default registry on package init via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fhir_api"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "throttled", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "duplicate", "invalid", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts bearer token checks on protected routes.
// Label:
//   - result: "valid", "invalid_signature", "expired", "inactive", "unauthorized"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_validations_total",
		Help:      "Total number of access token validations, by result.",
	},
	[]string{"result"},
)

// AccessDeniedTotal counts requests rejected by a role guard.
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected by role guards, by role.",
	},
	[]string{"role"},
)

// ── Resource metrics ──────────────────────────────────────────────────────────

// ResourceOperationsTotal counts successful resource operations.
// Labels:
//   - resource_type: FHIR type, e.g. "Patient"
//   - operation: "create", "read", "list", "update", "delete"
var ResourceOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_operations_total",
		Help:      "Total number of successful FHIR resource operations.",
	},
	[]string{"resource_type", "operation"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

var AuditEventsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "events_written_total",
		Help:      "Total number of audit events persisted, by action.",
	},
	[]string{"action"},
)

var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "events_dropped_total",
		Help:      "Total number of audit events dropped because a worker queue was full.",
	},
)

// AuditQueueDepth tracks pending events per audit worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "queue_depth",
		Help:      "Current number of audit events pending in each worker channel.",
	},
	[]string{"worker_id"},
)
