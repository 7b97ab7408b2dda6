// Package metrics collects counters for the fetch fan-out and container
// builds. Counters are safe for concurrent use by the fetcher's goroutines.
package metrics

import (
	"sync/atomic"
	"time"
)

// BuildStats accumulates statistics over one or more container builds.
type BuildStats struct {
	fetchesAttempted int64
	fetchesSucceeded int64
	fetchesFailed    int64
	pairsSkipped     int64
	slotsPopulated   int64
	buildCount       int64
	totalBuildTime   int64 // nanoseconds
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	FetchesAttempted int64
	FetchesSucceeded int64
	FetchesFailed    int64
	PairsSkipped     int64
	SlotsPopulated   int64
	BuildCount       int64
	AvgBuildTime     time.Duration
}

// NewBuildStats creates an empty stats collector.
func NewBuildStats() *BuildStats {
	return &BuildStats{}
}

// RecordFetchAttempt counts one issued per-pair fetch.
func (s *BuildStats) RecordFetchAttempt() {
	atomic.AddInt64(&s.fetchesAttempted, 1)
}

// RecordFetchSuccess counts one completed per-pair fetch.
func (s *BuildStats) RecordFetchSuccess() {
	atomic.AddInt64(&s.fetchesSucceeded, 1)
}

// RecordFetchFailure counts one failed per-pair fetch.
func (s *BuildStats) RecordFetchFailure() {
	atomic.AddInt64(&s.fetchesFailed, 1)
}

// RecordPairSkipped counts a pair excluded from the container (empty history,
// shape mismatch, or failed fetch in non-strict mode).
func (s *BuildStats) RecordPairSkipped() {
	atomic.AddInt64(&s.pairsSkipped, 1)
}

// RecordSlotPopulated counts a table inserted into the container.
func (s *BuildStats) RecordSlotPopulated() {
	atomic.AddInt64(&s.slotsPopulated, 1)
}

// RecordBuild counts a completed build and its duration.
func (s *BuildStats) RecordBuild(d time.Duration) {
	atomic.AddInt64(&s.buildCount, 1)
	atomic.AddInt64(&s.totalBuildTime, int64(d))
}

// Get returns a consistent-enough snapshot for logging and tests.
func (s *BuildStats) Get() Snapshot {
	snap := Snapshot{
		FetchesAttempted: atomic.LoadInt64(&s.fetchesAttempted),
		FetchesSucceeded: atomic.LoadInt64(&s.fetchesSucceeded),
		FetchesFailed:    atomic.LoadInt64(&s.fetchesFailed),
		PairsSkipped:     atomic.LoadInt64(&s.pairsSkipped),
		SlotsPopulated:   atomic.LoadInt64(&s.slotsPopulated),
		BuildCount:       atomic.LoadInt64(&s.buildCount),
	}
	if snap.BuildCount > 0 {
		snap.AvgBuildTime = time.Duration(atomic.LoadInt64(&s.totalBuildTime) / snap.BuildCount)
	}
	return snap
}
