// Package health maintains rolling health records per provider and derives
// the HEALTHY/DEGRADED/UNHEALTHY state used for failover routing. The state
// machine is a simple circuit breaker: any single success returns a
// provider directly to HEALTHY, because provider outages in this domain are
// typically binary rather than gradually degrading.
package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/asheridan/go-arbiter/internal/llm/configuration"
	"github.com/asheridan/go-arbiter/internal/llm/metrics"
)

// minWindowSamples is the minimum number of trailing outcomes before the
// windowed success rate is considered meaningful; below it a provider
// cannot be DEGRADED, only UNHEALTHY via the failure streak.
const minWindowSamples = 3

// State is the derived health of one provider.
type State int

const (
	// StateHealthy routes traffic normally.
	StateHealthy State = iota
	// StateDegraded still receives traffic, ordered after healthy providers.
	StateDegraded
	// StateUnhealthy is circuit-open: skipped except for occasional probes.
	StateUnhealthy
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// record is the rolling health signal for one provider. Counters are only
// mutated under the record's own mutex; different providers never contend.
type record struct {
	mu sync.Mutex

	totalAttempts       int64
	failedAttempts      int64
	consecutiveFailures int
	lastSuccessAt       time.Time
	lastFailureAt       time.Time

	// Trailing window of recent outcomes (true = success), used for the
	// DEGRADED derivation.
	window  []bool
	pos     int
	samples int
}

// Monitor tracks health records for a fixed provider set. Records are
// created at construction and never deleted, so the record map itself is
// read-only after NewMonitor returns.
type Monitor struct {
	cfg     configuration.HealthConfig
	records map[string]*record
	logger  *slog.Logger

	// now is swapped in tests to control timestamps.
	now func() time.Time
}

// NewMonitor creates health records for the given providers.
func NewMonitor(cfg configuration.HealthConfig, providers []string) *Monitor {
	records := make(map[string]*record, len(providers))
	for _, name := range providers {
		records[name] = &record{window: make([]bool, cfg.WindowSize)}
	}
	return &Monitor{
		cfg:     cfg,
		records: records,
		logger:  slog.Default().With("component", "health"),
		now:     time.Now,
	}
}

// RecordSuccess registers a successful attempt. Any success fully resets
// the provider to HEALTHY: the failure streak and the trailing window are
// both cleared (half-open-on-probe semantics, no graduated recovery).
func (m *Monitor) RecordSuccess(provider string) {
	rec, ok := m.records[provider]
	if !ok {
		m.logger.Warn("success recorded for unknown provider", "provider", provider)
		return
	}

	rec.mu.Lock()
	prev := rec.deriveLocked(m.cfg)
	rec.totalAttempts++
	rec.consecutiveFailures = 0
	rec.lastSuccessAt = m.now()
	rec.resetWindowLocked()
	rec.pushOutcomeLocked(true)
	next := rec.deriveLocked(m.cfg)
	rec.mu.Unlock()

	m.observeTransition(provider, prev, next)
}

// RecordFailure registers a failed attempt.
func (m *Monitor) RecordFailure(provider string) {
	rec, ok := m.records[provider]
	if !ok {
		m.logger.Warn("failure recorded for unknown provider", "provider", provider)
		return
	}

	rec.mu.Lock()
	prev := rec.deriveLocked(m.cfg)
	rec.totalAttempts++
	rec.failedAttempts++
	rec.consecutiveFailures++
	rec.lastFailureAt = m.now()
	rec.pushOutcomeLocked(false)
	next := rec.deriveLocked(m.cfg)
	rec.mu.Unlock()

	m.observeTransition(provider, prev, next)
}

// State derives the current health state for one provider. Unknown
// providers report UNHEALTHY so they are never preferred.
func (m *Monitor) State(provider string) State {
	rec, ok := m.records[provider]
	if !ok {
		return StateUnhealthy
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.deriveLocked(m.cfg)
}

// Snapshot returns the derived state of every tracked provider.
func (m *Monitor) Snapshot() map[string]State {
	snap := make(map[string]State, len(m.records))
	for name, rec := range m.records {
		rec.mu.Lock()
		snap[name] = rec.deriveLocked(m.cfg)
		rec.mu.Unlock()
	}
	return snap
}

// RankCandidates filters and orders the priority list for one orchestrator
// call. HEALTHY providers keep their priority order, followed by DEGRADED
// ones. UNHEALTHY providers are excluded except for a single probe: the
// least-recently-failed UNHEALTHY provider is appended last, so it is only
// reached after every routable candidate has failed. When all candidates
// are UNHEALTHY the full list is returned least-recently-failed first, so
// the system always attempts something rather than failing closed.
func (m *Monitor) RankCandidates(priority []string) []string {
	var healthy, degraded, unhealthy []string
	for _, name := range priority {
		switch m.State(name) {
		case StateHealthy:
			healthy = append(healthy, name)
		case StateDegraded:
			degraded = append(degraded, name)
		default:
			unhealthy = append(unhealthy, name)
		}
	}

	if len(healthy)+len(degraded) == 0 {
		m.sortByLeastRecentFailure(unhealthy)
		return unhealthy
	}

	ranked := make([]string, 0, len(healthy)+len(degraded)+1)
	ranked = append(ranked, healthy...)
	ranked = append(ranked, degraded...)

	if len(unhealthy) > 0 {
		m.sortByLeastRecentFailure(unhealthy)
		ranked = append(ranked, unhealthy[0])
	}
	return ranked
}

// LastFailureAt returns when the provider last failed, for introspection.
func (m *Monitor) LastFailureAt(provider string) time.Time {
	rec, ok := m.records[provider]
	if !ok {
		return time.Time{}
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.lastFailureAt
}

// sortByLeastRecentFailure orders providers by ascending lastFailureAt.
func (m *Monitor) sortByLeastRecentFailure(providers []string) {
	sort.SliceStable(providers, func(i, j int) bool {
		return m.LastFailureAt(providers[i]).Before(m.LastFailureAt(providers[j]))
	})
}

// observeTransition logs and gauges state changes outside the record lock.
func (m *Monitor) observeTransition(provider string, prev, next State) {
	metrics.ProviderHealthState.WithLabelValues(provider).Set(float64(next))
	if prev != next {
		m.logger.Info("provider health state transition",
			"provider", provider,
			"from", prev.String(),
			"to", next.String())
	}
}

// deriveLocked computes the state from the counters. Caller holds rec.mu.
// UNHEALTHY wins over DEGRADED: a provider at or past the failure streak
// threshold is circuit-open regardless of its windowed success rate.
func (r *record) deriveLocked(cfg configuration.HealthConfig) State {
	if r.consecutiveFailures >= cfg.FailureStreakThreshold {
		return StateUnhealthy
	}
	if r.samples >= minWindowSamples && r.successRateLocked() < cfg.SuccessRateFloor {
		return StateDegraded
	}
	return StateHealthy
}

// successRateLocked is the fraction of successes in the trailing window.
// Caller holds rec.mu.
func (r *record) successRateLocked() float64 {
	if r.samples == 0 {
		return 1
	}
	successes := 0
	for i := 0; i < r.samples; i++ {
		if r.window[i] {
			successes++
		}
	}
	return float64(successes) / float64(r.samples)
}

// pushOutcomeLocked appends one outcome to the ring buffer. Caller holds
// rec.mu.
func (r *record) pushOutcomeLocked(success bool) {
	if len(r.window) == 0 {
		return
	}
	r.window[r.pos] = success
	r.pos = (r.pos + 1) % len(r.window)
	if r.samples < len(r.window) {
		r.samples++
	}
}

// resetWindowLocked clears the trailing window. Caller holds rec.mu.
func (r *record) resetWindowLocked() {
	r.pos = 0
	r.samples = 0
}
