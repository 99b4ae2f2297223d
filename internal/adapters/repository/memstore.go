package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
)

// MemStore implements Store with mutex-guarded in-memory state. It is the
// default backend; gym-scale data fits comfortably in memory and the full
// log replays in microseconds.
type MemStore struct {
	mu          sync.RWMutex
	competitors map[string]model.Competitor
	matches     []model.Match
	snapshots   map[string][]model.SnapshotEntry // keyed by competitor id
	nextSeq     int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		competitors: make(map[string]model.Competitor),
		snapshots:   make(map[string][]model.SnapshotEntry),
		nextSeq:     1,
	}
}

func (s *MemStore) PutCompetitor(_ context.Context, c model.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.competitors[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	s.competitors[c.ID] = c
	return nil
}

func (s *MemStore) GetCompetitor(_ context.Context, id string) (model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.competitors[id]
	if !ok {
		return model.Competitor{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

func (s *MemStore) ListCompetitors(_ context.Context) ([]model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdateRating(_ context.Context, id string, r rating.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.competitors[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.Rating = r
	s.competitors[id] = c
	return nil
}

func (s *MemStore) AppendMatch(_ context.Context, m model.Match) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.matches {
		if existing.ID == m.ID {
			return model.Match{}, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
	}

	m.Seq = s.nextSeq
	s.nextSeq++
	s.matches = append(s.matches, m)
	return m, nil
}

func (s *MemStore) ListMatches(_ context.Context) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Match, len(s.matches))
	copy(out, s.matches)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TS.Equal(out[j].TS) {
			return out[i].TS.Before(out[j].TS)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *MemStore) AppendSnapshots(_ context.Context, entries ...model.SnapshotEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.snapshots[e.CompetitorID] = append(s.snapshots[e.CompetitorID], e)
	}
	return nil
}

func (s *MemStore) ListSnapshots(_ context.Context, competitorID string) ([]model.SnapshotEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.snapshots[competitorID]
	out := make([]model.SnapshotEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemStore) CommitRatings(_ context.Context, ratings map[string]rating.Rating, snapshots []model.SnapshotEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before touching anything so the commit stays all-or-nothing.
	for id := range ratings {
		if _, ok := s.competitors[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}

	for id, r := range ratings {
		c := s.competitors[id]
		c.Rating = r
		s.competitors[id] = c
	}

	s.snapshots = make(map[string][]model.SnapshotEntry, len(ratings))
	for _, e := range snapshots {
		s.snapshots[e.CompetitorID] = append(s.snapshots[e.CompetitorID], e)
	}
	return nil
}

func (s *MemStore) CountCompetitors(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.competitors)
}

func (s *MemStore) CountMatches(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
