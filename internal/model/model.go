// Package model defines the core domain types for the events manager.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventStatus is the closed set of lifecycle labels an event may carry.
// The status is organizer-settable through updates; the service does not
// enforce any transition ordering between values.
type EventStatus string

const (
	StatusActive    EventStatus = "Active"
	StatusCancelled EventStatus = "Cancelled"
	StatusCompleted EventStatus = "Completed"
	StatusDraft     EventStatus = "Draft"
)

// ParseStatus validates a raw status label against the closed enumeration.
func ParseStatus(raw string) (EventStatus, error) {
	switch EventStatus(raw) {
	case StatusActive, StatusCancelled, StatusCompleted, StatusDraft:
		return EventStatus(raw), nil
	}
	return "", fmt.Errorf("unknown event status %q", raw)
}

// Event represents an event record as persisted in the store.
type Event struct {
	EventID                  string      `json:"eventId"`
	OrganizerID              string      `json:"organizerId"`
	EventName                string      `json:"eventName"`
	Description              string      `json:"description"`
	EventDate                time.Time   `json:"eventDate"`
	Location                 string      `json:"location"`
	Capacity                 int         `json:"capacity"`
	RegisteredAttendeesCount int         `json:"registeredAttendeesCount"`
	Status                   EventStatus `json:"status"`
	CreatedAt                time.Time   `json:"createdAt"`
	UpdatedAt                time.Time   `json:"updatedAt"`
}

// Principal is the per-request caller identity resolved by the auth layer.
// It is never persisted.
type Principal struct {
	ID     string
	Groups []string
}

// HasGroup reports whether the principal belongs to the named group.
func (p Principal) HasGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Field bounds shared by create and update validation.
const (
	NameMinLen        = 3
	NameMaxLen        = 100
	DescriptionMaxLen = 1000
	LocationMaxLen    = 150
)

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	EventName   string    `json:"eventName"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"eventDate"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
}

// Validate checks the draft against the model's field bounds.
func (r *CreateEventRequest) Validate() error {
	r.EventName = strings.TrimSpace(r.EventName)
	if n := len(r.EventName); n < NameMinLen || n > NameMaxLen {
		return fmt.Errorf("eventName must be %d-%d characters", NameMinLen, NameMaxLen)
	}
	if len(r.Description) > DescriptionMaxLen {
		return fmt.Errorf("description cannot exceed %d characters", DescriptionMaxLen)
	}
	if r.EventDate.IsZero() {
		return fmt.Errorf("eventDate is required")
	}
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return fmt.Errorf("location is required")
	}
	if len(r.Location) > LocationMaxLen {
		return fmt.Errorf("location cannot exceed %d characters", LocationMaxLen)
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("capacity must be a positive integer")
	}
	return nil
}

// Optional carries the tri-state of a patch field: absent from the payload,
// explicitly null, or present with a value. The zero value means absent.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// ExplicitNull returns an explicitly-null Optional.
func ExplicitNull[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the payload, so Set is
// always true here; absent fields keep the zero value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON round-trips present values; absent and null both encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// EventPatch is the sparse payload for updating an event. Every field is
// optional; a field absent from the JSON body is left untouched.
type EventPatch struct {
	EventName   Optional[string]      `json:"eventName"`
	Description Optional[string]      `json:"description"`
	EventDate   Optional[time.Time]   `json:"eventDate"`
	Location    Optional[string]      `json:"location"`
	Capacity    Optional[int]         `json:"capacity"`
	Status      Optional[EventStatus] `json:"status"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *EventPatch) IsEmpty() bool {
	return !p.EventName.Set && !p.Description.Set && !p.EventDate.Set &&
		!p.Location.Set && !p.Capacity.Set && !p.Status.Set
}

// Validate checks each present field against the model's bounds. Only
// description may be explicitly null (cleared); null on any other field is
// rejected.
func (p *EventPatch) Validate() error {
	if p.EventName.Set {
		if p.EventName.Null {
			return fmt.Errorf("eventName cannot be null")
		}
		p.EventName.Value = strings.TrimSpace(p.EventName.Value)
		if n := len(p.EventName.Value); n < NameMinLen || n > NameMaxLen {
			return fmt.Errorf("eventName must be %d-%d characters", NameMinLen, NameMaxLen)
		}
	}
	if p.Description.Set && !p.Description.Null {
		if len(p.Description.Value) > DescriptionMaxLen {
			return fmt.Errorf("description cannot exceed %d characters", DescriptionMaxLen)
		}
	}
	if p.EventDate.Set {
		if p.EventDate.Null || p.EventDate.Value.IsZero() {
			return fmt.Errorf("eventDate cannot be null")
		}
	}
	if p.Location.Set {
		if p.Location.Null {
			return fmt.Errorf("location cannot be null")
		}
		p.Location.Value = strings.TrimSpace(p.Location.Value)
		if p.Location.Value == "" || len(p.Location.Value) > LocationMaxLen {
			return fmt.Errorf("location must be 1-%d characters", LocationMaxLen)
		}
	}
	if p.Capacity.Set {
		if p.Capacity.Null {
			return fmt.Errorf("capacity cannot be null")
		}
		if p.Capacity.Value <= 0 {
			return fmt.Errorf("capacity must be a positive integer")
		}
	}
	if p.Status.Set {
		if p.Status.Null {
			return fmt.Errorf("status cannot be null")
		}
		if _, err := ParseStatus(string(p.Status.Value)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the patch's present fields onto an event. Identity fields
// (eventId, organizerId, createdAt) and the attendee counter are never
// touched.
func (p *EventPatch) Apply(e *Event) {
	if p.EventName.Set {
		e.EventName = p.EventName.Value
	}
	if p.Description.Set {
		if p.Description.Null {
			e.Description = ""
		} else {
			e.Description = p.Description.Value
		}
	}
	if p.EventDate.Set {
		e.EventDate = p.EventDate.Value
	}
	if p.Location.Set {
		e.Location = p.Location.Value
	}
	if p.Capacity.Set {
		e.Capacity = p.Capacity.Value
	}
	if p.Status.Set {
		e.Status = p.Status.Value
	}
}

// EventListResponse is the paginated list envelope.
type EventListResponse struct {
	Items            []Event `json:"items"`
	LastEvaluatedKey *string `json:"lastEvaluatedKey"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
