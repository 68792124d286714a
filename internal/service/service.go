// Package service implements the event lifecycle manager: business
// validation, the domain error taxonomy, and translation of storage-layer
// conflict signals into domain outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
	"github.com/shivanand-hulikatti/events-manager/internal/repository"
)

// Domain error taxonomy. Callers dispatch on these with errors.Is; any
// storage fault that is not a recognized conditional-failure signal is
// propagated wrapped and untranslated.
var (
	// ErrEventNotFound means the requested event id has no record.
	ErrEventNotFound = errors.New("event not found")

	// ErrNotEventOwner means a conditional write failed attribution to
	// the requester.
	ErrNotEventOwner = errors.New("user is not the owner of this event")

	// ErrInvalidUpdate means the patch was empty or carried an invalid
	// field value.
	ErrInvalidUpdate = errors.New("invalid update")

	// ErrInvalidEvent means the create draft failed validation.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrDeleteConditionFailed is the deliberately collapsed delete
	// failure: not found, not the owner, or attendees are registered.
	// The conditional-delete primitive cannot cheaply tell these apart.
	ErrDeleteConditionFailed = errors.New("deletion failed: event not found, requester is not the owner, or it has registered attendees")
)

// DefaultPageSize caps list pages when the caller gives no limit.
const DefaultPageSize = 25

// EventService orchestrates the event lifecycle against an injected store.
type EventService struct {
	store repository.EventStore
	now   func() time.Time
	log   *slog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.EventStore, log *slog.Logger) *EventService {
	if log == nil {
		log = slog.Default()
	}
	return &EventService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

// Create validates the draft and writes a fresh event record. The id is
// generated server-side, ownership is anchored to the creator, and both
// timestamps start at now.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest, creatorID string) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	now := s.now()
	event := model.Event{
		EventID:                  uuid.NewString(),
		OrganizerID:              creatorID,
		EventName:                req.EventName,
		Description:              req.Description,
		EventDate:                req.EventDate,
		Location:                 req.Location,
		Capacity:                 req.Capacity,
		RegisteredAttendeesCount: 0,
		Status:                   model.StatusActive,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.store.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.InfoContext(ctx, "event created", "event_id", event.EventID, "organizer_id", creatorID)
	return &event, nil
}

// Get returns the event or ErrEventNotFound. Absence is an expected
// outcome, not a fault.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// List scans a page of events in the store's native order. Ordering is not
// creation order; the continuation key in the response is opaque to
// callers.
func (s *EventService) List(ctx context.Context, limit int, startKey string) (*model.EventListResponse, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	events, nextKey, err := s.store.List(ctx, limit, startKey)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	resp := &model.EventListResponse{Items: events}
	if nextKey != "" {
		resp.LastEvaluatedKey = &nextKey
	}
	return resp, nil
}

// ListByOrganizer returns all of an organizer's events, unpaginated.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	events, err := s.store.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// Update applies a sparse patch through a single atomic conditional write
// gated on ownership. When the condition fails, a best-effort point lookup
// disambiguates "missing" from "not owner" for error reporting only: a
// race between the failed write and that read can at worst misclassify the
// error, never corrupt the record.
func (s *EventService) Update(ctx context.Context, id string, patch model.EventPatch, requesterID string) (*model.Event, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields provided", ErrInvalidUpdate)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}

	event, err := s.store.UpdateIfOwner(ctx, id, requesterID, patch, s.now())
	if err == nil {
		s.log.InfoContext(ctx, "event updated", "event_id", id, "organizer_id", requesterID)
		return event, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, fmt.Errorf("update event: %w", err)
	}

	_, lookupErr := s.store.GetByID(ctx, id)
	if errors.Is(lookupErr, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if lookupErr != nil {
		return nil, fmt.Errorf("update event: %w", lookupErr)
	}
	return nil, ErrNotEventOwner
}

// Delete removes the event through one atomic compound conditional delete:
// owner matches and the attendee counter is zero. Failure is reported as a
// single collapsed error with no disambiguating read.
func (s *EventService) Delete(ctx context.Context, id, requesterID string) error {
	err := s.store.DeleteIfOwnerAndUnregistered(ctx, id, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return ErrDeleteConditionFailed
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.InfoContext(ctx, "event deleted", "event_id", id, "organizer_id", requesterID)
	return nil
}
