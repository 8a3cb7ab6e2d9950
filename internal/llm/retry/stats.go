package retry

import (
	"sync/atomic"
	"time"
)

// executorStats tracks retry behavior with atomic counters for lock-free
// observability.
type executorStats struct {
	totalAttempts       atomic.Int64 // All dispatched attempts, first tries included
	recoveredAfterRetry atomic.Int64 // Calls that succeeded after at least one retry
	exhausted           atomic.Int64 // Calls that spent every attempt and still failed
	maxBackoff          atomic.Int64 // Longest backoff applied, in nanoseconds
}

// Stats is a snapshot of executor activity.
type Stats struct {
	TotalAttempts       int64         `json:"total_attempts"`
	RecoveredAfterRetry int64         `json:"recovered_after_retry"`
	Exhausted           int64         `json:"exhausted"`
	MaxBackoff          time.Duration `json:"max_backoff"`
}

// recordBackoff updates the max backoff watermark atomically.
func (s *executorStats) recordBackoff(d time.Duration) {
	nanos := d.Nanoseconds()
	for {
		current := s.maxBackoff.Load()
		if nanos <= current {
			return
		}
		if s.maxBackoff.CompareAndSwap(current, nanos) {
			return
		}
	}
}

// Stats returns a snapshot of the executor's counters.
func (e *Executor) Stats() Stats {
	return Stats{
		TotalAttempts:       e.stats.totalAttempts.Load(),
		RecoveredAfterRetry: e.stats.recoveredAfterRetry.Load(),
		Exhausted:           e.stats.exhausted.Load(),
		MaxBackoff:          time.Duration(e.stats.maxBackoff.Load()),
	}
}
