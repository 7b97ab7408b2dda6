package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildStatsCounters(t *testing.T) {
	s := NewBuildStats()

	s.RecordFetchAttempt()
	s.RecordFetchAttempt()
	s.RecordFetchSuccess()
	s.RecordFetchFailure()
	s.RecordPairSkipped()
	s.RecordSlotPopulated()
	s.RecordBuild(2 * time.Second)
	s.RecordBuild(4 * time.Second)

	snap := s.Get()
	assert.Equal(t, int64(2), snap.FetchesAttempted)
	assert.Equal(t, int64(1), snap.FetchesSucceeded)
	assert.Equal(t, int64(1), snap.FetchesFailed)
	assert.Equal(t, int64(1), snap.PairsSkipped)
	assert.Equal(t, int64(1), snap.SlotsPopulated)
	assert.Equal(t, int64(2), snap.BuildCount)
	assert.Equal(t, 3*time.Second, snap.AvgBuildTime)
}

func TestBuildStatsConcurrentRecording(t *testing.T) {
	s := NewBuildStats()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordFetchAttempt()
			s.RecordFetchSuccess()
		}()
	}
	wg.Wait()

	snap := s.Get()
	assert.Equal(t, int64(100), snap.FetchesAttempted)
	assert.Equal(t, int64(100), snap.FetchesSucceeded)
}
