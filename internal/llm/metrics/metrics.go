// Package metrics exposes Prometheus collectors for the resilience core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal counts provider candidacies per outcome.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbiter_provider_attempts_total",
			Help: "Total provider attempts by the fallback orchestrator",
		},
		[]string{"provider", "outcome"},
	)

	// DegradedTotal counts orchestrator calls that exhausted every provider.
	DegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arbiter_degraded_responses_total",
			Help: "Total synthesized degraded responses after full provider exhaustion",
		},
	)

	// CacheOpsTotal counts response cache lookups by result.
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbiter_cache_ops_total",
			Help: "Total response cache lookups",
		},
		[]string{"result"},
	)

	// ProviderHealthState reports the derived provider state
	// (0=healthy, 1=degraded, 2=unhealthy).
	ProviderHealthState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arbiter_provider_health_state",
			Help: "Derived provider health state (0 healthy, 1 degraded, 2 unhealthy)",
		},
		[]string{"provider"},
	)
)

// Cache lookup result labels.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Attempt outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
