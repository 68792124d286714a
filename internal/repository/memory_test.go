package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
)

func seedEvent(t *testing.T, store *MemoryStore, id, organizerID string) model.Event {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := model.Event{
		EventID:     id,
		OrganizerID: organizerID,
		EventName:   "Go Meetup",
		EventDate:   now.AddDate(0, 1, 0),
		Location:    "Bengaluru",
		Capacity:    10,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Insert(context.Background(), e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return e
}

func TestMemoryStoreConditionalUpdate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seeded := seedEvent(t, store, "e-1", "u1")

	patch := model.EventPatch{Capacity: model.Some(20)}
	stamp := seeded.UpdatedAt.Add(time.Hour)

	// Condition holds.
	updated, err := store.UpdateIfOwner(ctx, "e-1", "u1", patch, stamp)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Capacity != 20 || !updated.UpdatedAt.Equal(stamp) {
		t.Fatalf("unexpected record %+v", updated)
	}

	// Wrong owner and missing record collapse into one signal.
	if _, err := store.UpdateIfOwner(ctx, "e-1", "u2", patch, stamp); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed for wrong owner, got %v", err)
	}
	if _, err := store.UpdateIfOwner(ctx, "e-missing", "u1", patch, stamp); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed for missing record, got %v", err)
	}
}

func TestMemoryStoreCompoundConditionalDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedEvent(t, store, "e-1", "u1")

	if err := store.DeleteIfOwnerAndUnregistered(ctx, "e-1", "u2"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed for wrong owner, got %v", err)
	}
	store.SetRegisteredAttendees("e-1", 1)
	if err := store.DeleteIfOwnerAndUnregistered(ctx, "e-1", "u1"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed with attendees, got %v", err)
	}
	store.SetRegisteredAttendees("e-1", 0)
	if err := store.DeleteIfOwnerAndUnregistered(ctx, "e-1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "e-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreListKeysetOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b", "e", "d"} {
		seedEvent(t, store, id, "u1")
	}

	first, next, err := store.List(ctx, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 || first[0].EventID != "a" || first[1].EventID != "b" {
		t.Fatalf("unexpected first page %+v", first)
	}
	if next != "b" {
		t.Fatalf("continuation key = %q, want b", next)
	}

	second, _, err := store.List(ctx, 10, next)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second) != 3 || second[0].EventID != "c" {
		t.Fatalf("unexpected second page %+v", second)
	}
}
