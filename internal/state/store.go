package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/returnloop/kiosk/internal/api"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Requests            []api.ReturnRequest
	Stats               *api.Statistics // populated only for staff accounts
	Profile             api.Profile
	HasProfile          bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(requests []api.ReturnRequest, stats *api.Statistics, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Requests = cloneRequests(requests)
	s.snapshot.Stats = cloneStats(stats)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetProfile records the signed-in account, fetched once after login rather
// than on every poll.
func (s *Store) SetProfile(profile api.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Profile = profile
	s.snapshot.HasProfile = true
}

// Reset clears everything, used at logout so a later sign-in starts clean.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Requests = cloneRequests(s.snapshot.Requests)
	snap.Stats = cloneStats(s.snapshot.Stats)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneRequests(items []api.ReturnRequest) []api.ReturnRequest {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.ReturnRequest, len(items))
	copy(dup, items)
	return dup
}

func cloneStats(stats *api.Statistics) *api.Statistics {
	if stats == nil {
		return nil
	}
	dup := *stats
	return &dup
}
