package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
)

// MemoryStore is an in-memory EventStore used by tests and by the "memory"
// storage driver for local runs without Postgres. It reproduces the same
// conditional-write semantics as the SQL store, with the mutex standing in
// for the engine's per-item atomicity.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]model.Event)}
}

func (s *MemoryStore) Insert(_ context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[e.EventID] = e
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// List pages in lexicographic id order, the memory store's native key
// order.
func (s *MemoryStore) List(_ context.Context, limit int, startKey string) ([]model.Event, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		if startKey != "" && id <= startKey {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, s.events[id])
	}
	nextKey := ""
	if len(events) == limit && limit > 0 {
		nextKey = events[len(events)-1].EventID
	}
	return events, nextKey, nil
}

func (s *MemoryStore) ListByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []model.Event
	for _, e := range s.events {
		if e.OrganizerID == organizerID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventID < events[j].EventID })
	return events, nil
}

func (s *MemoryStore) UpdateIfOwner(_ context.Context, id, requesterID string, patch model.EventPatch, updatedAt time.Time) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.OrganizerID != requesterID {
		return nil, ErrConditionFailed
	}
	patch.Apply(&e)
	e.UpdatedAt = updatedAt
	s.events[id] = e
	return &e, nil
}

func (s *MemoryStore) DeleteIfOwnerAndUnregistered(_ context.Context, id, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.OrganizerID != requesterID || e.RegisteredAttendeesCount != 0 {
		return ErrConditionFailed
	}
	delete(s.events, id)
	return nil
}

// SetRegisteredAttendees overrides an event's attendee counter. The
// registration workflow that normally mutates it lives outside this
// service; tests use this to exercise the delete precondition.
func (s *MemoryStore) SetRegisteredAttendees(id string, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return false
	}
	e.RegisteredAttendeesCount = count
	s.events[id] = e
	return true
}
