package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// MemStore implements Store with an immutable sorted snapshot guarded by
// a read-write mutex. Each ReplaceAll builds a complete new snapshot and
// swaps it in, so readers never observe a half-written board.
type MemStore struct {
	mu     sync.RWMutex
	sorted []Entry
	byComp map[model.Competitor]int // competitor -> index into sorted
}

// NewMemStore creates an empty leaderboard store.
func NewMemStore(_ context.Context) *MemStore {
	return &MemStore{byComp: make(map[model.Competitor]int)}
}

// ReplaceAll swaps in a freshly fitted leaderboard.
func (s *MemStore) ReplaceAll(_ context.Context, entries []Entry) error {
	next := make([]Entry, len(entries))
	copy(next, entries)
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].Strength != next[j].Strength {
			return next[i].Strength > next[j].Strength
		}
		// Deterministic order for equal strengths.
		return next[i].Competitor < next[j].Competitor
	})
	index := make(map[model.Competitor]int, len(next))
	for i := range next {
		next[i].Rank = i + 1
		if _, dup := index[next[i].Competitor]; dup {
			return fmt.Errorf("duplicate competitor %q in leaderboard", next[i].Competitor)
		}
		index[next[i].Competitor] = i
	}

	s.mu.Lock()
	s.sorted = next
	s.byComp = index
	s.mu.Unlock()

	metrics.RecordLeaderboardRebuild()
	metrics.UpdateCompetitorsTracked(len(next))
	return nil
}

// Rank returns the current row for a competitor.
func (s *MemStore) Rank(_ context.Context, c model.Competitor) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byComp[c]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, c)
	}
	return s.sorted[i], nil
}

// TopN returns the best n rows.
func (s *MemStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.sorted) {
		n = len(s.sorted)
	}
	out := make([]Entry, n)
	copy(out, s.sorted[:n])
	return out, nil
}

// Count returns the number of competitors on the board.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sorted)
}
