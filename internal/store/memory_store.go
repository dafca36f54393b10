package store

import (
	"sort"
	"sync"

	"nfl-scoreboard-service/internal/domain/scoreboard"
)

// MemoryStore is the session request cache: the last successfully fetched payload per week.
// It has no eviction policy; a season is at most 18 entries.
type MemoryStore struct {
	mu    sync.RWMutex
	weeks map[int]*scoreboard.WeekPayload
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		weeks: make(map[int]*scoreboard.WeekPayload),
	}
}

// Get returns the cached payload for week, if any.
func (s *MemoryStore) Get(week int) (*scoreboard.WeekPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.weeks[week]
	return p, ok
}

// Put stores payload for week. Nil and offline placeholders are ignored and Put reports false.
func (s *MemoryStore) Put(week int, payload *scoreboard.WeekPayload) bool {
	if payload == nil || payload.Offline {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.weeks[week] = payload
	return true
}

// Delete evicts a single week.
func (s *MemoryStore) Delete(week int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.weeks, week)
}

// Clear drops every cached week.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.weeks = make(map[int]*scoreboard.WeekPayload)
}

// Weeks lists cached week numbers in ascending order.
func (s *MemoryStore) Weeks() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.weeks))
	for w := range s.weeks {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// Len reports the number of cached weeks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.weeks)
}
