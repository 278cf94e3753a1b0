package services

import (
	"sync"
	"time"
)

type SyncState string

const (
	SyncIdle      SyncState = "idle"
	SyncFetching  SyncState = "fetching"
	SyncSucceeded SyncState = "succeeded"
	SyncFailed    SyncState = "failed"
)

const fetchingMessage = "Fetching solar data..."

// SyncStatus is the per-site view of the sync state machine. State is idle
// or fetching; LastOutcome keeps the result of the most recent attempt.
type SyncStatus struct {
	State            SyncState
	LastOutcome      SyncState
	Message          string
	DailyRecordCount int
	UpdatedAt        time.Time
}

// statusBoard tracks in-flight fetches per project. A project stays in
// "fetching" while at least one caller holds it.
type statusBoard struct {
	mu       sync.Mutex
	now      func() time.Time
	inFlight map[string]int
	statuses map[string]SyncStatus
}

func newStatusBoard(now func() time.Time) *statusBoard {
	return &statusBoard{
		now:      now,
		inFlight: make(map[string]int),
		statuses: make(map[string]SyncStatus),
	}
}

// acquire marks the project busy. The returned release must be called
// exactly once with the outcome of the attempt.
func (b *statusBoard) acquire(projectID string) (release func(outcome SyncState, msg string, count int)) {
	b.mu.Lock()
	b.inFlight[projectID]++
	st := b.statuses[projectID]
	st.State = SyncFetching
	st.Message = fetchingMessage
	st.UpdatedAt = b.now()
	b.statuses[projectID] = st
	b.mu.Unlock()

	var once sync.Once
	return func(outcome SyncState, msg string, count int) {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			b.inFlight[projectID]--
			st := b.statuses[projectID]
			st.LastOutcome = outcome
			st.Message = msg
			st.DailyRecordCount = count
			st.UpdatedAt = b.now()
			if b.inFlight[projectID] <= 0 {
				delete(b.inFlight, projectID)
				st.State = SyncIdle
			}
			b.statuses[projectID] = st
		})
	}
}

func (b *statusBoard) get(projectID string) SyncStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.statuses[projectID]
	if !ok {
		return SyncStatus{State: SyncIdle}
	}
	return st
}
