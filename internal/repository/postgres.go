package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
)

const eventColumns = `id, organizer_id, event_name, description, event_date,
	 location, capacity, registered_attendees_count, status, created_at, updated_at`

// PostgresStore is the pgx-backed EventStore. It uses raw SQL (no ORM) so
// the conditional-write statements stay visible and auditable.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the events table and the organizer secondary index
// if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id                         TEXT PRIMARY KEY,
			organizer_id               TEXT NOT NULL,
			event_name                 TEXT NOT NULL,
			description                TEXT NOT NULL DEFAULT '',
			event_date                 TIMESTAMPTZ NOT NULL,
			location                   TEXT NOT NULL,
			capacity                   INT NOT NULL CHECK (capacity > 0),
			registered_attendees_count INT NOT NULL DEFAULT 0 CHECK (registered_attendees_count >= 0),
			status                     TEXT NOT NULL,
			created_at                 TIMESTAMPTZ NOT NULL,
			updated_at                 TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure events table: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS events_organizer_id_idx ON events (organizer_id)`)
	if err != nil {
		return fmt.Errorf("ensure organizer index: %w", err)
	}
	return nil
}

// Insert writes a full event record.
func (s *PostgresStore) Insert(ctx context.Context, e model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.EventID, e.OrganizerID, e.EventName, e.Description, e.EventDate,
		e.Location, e.Capacity, e.RegisteredAttendeesCount, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// List pages through all events in primary-key order. The continuation key
// is the id of the last row of a full page, echoing the store's native
// order rather than creation order.
func (s *PostgresStore) List(ctx context.Context, limit int, startKey string) ([]model.Event, string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if startKey != "" {
		rows, err = s.db.Query(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id > $1 ORDER BY id LIMIT $2`,
			startKey, limit)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT `+eventColumns+` FROM events ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, "", err
	}
	nextKey := ""
	if len(events) == limit && limit > 0 {
		nextKey = events[len(events)-1].EventID
	}
	return events, nextKey, nil
}

// ListByOrganizer queries the organizer secondary index. The result is
// unbounded; callers accept that as part of the contract.
func (s *PostgresStore) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY id`,
		organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	return collectEvents(rows)
}

// UpdateIfOwner applies the patch in one atomic statement whose WHERE
// clause carries the ownership condition. Zero rows updated means the
// condition did not hold; whether that is "missing" or "not owner" is not
// knowable from this statement alone.
func (s *PostgresStore) UpdateIfOwner(ctx context.Context, id, requesterID string, patch model.EventPatch, updatedAt time.Time) (*model.Event, error) {
	var (
		set  []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.EventName.Set {
		add("event_name", patch.EventName.Value)
	}
	if patch.Description.Set {
		if patch.Description.Null {
			add("description", "")
		} else {
			add("description", patch.Description.Value)
		}
	}
	if patch.EventDate.Set {
		add("event_date", patch.EventDate.Value)
	}
	if patch.Location.Set {
		add("location", patch.Location.Value)
	}
	if patch.Capacity.Set {
		add("capacity", patch.Capacity.Value)
	}
	if patch.Status.Set {
		add("status", patch.Status.Value)
	}
	add("updated_at", updatedAt)

	args = append(args, id, requesterID)
	query := fmt.Sprintf(
		`UPDATE events SET %s WHERE id = $%d AND organizer_id = $%d RETURNING `+eventColumns,
		strings.Join(set, ", "), len(args)-1, len(args),
	)

	row := s.db.QueryRow(ctx, query, args...)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// DeleteIfOwnerAndUnregistered issues the compound conditional delete as a
// single atomic statement, not check-then-delete.
func (s *PostgresStore) DeleteIfOwnerAndUnregistered(ctx context.Context, id, requesterID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM events
		 WHERE id = $1 AND organizer_id = $2 AND registered_attendees_count = 0`,
		id, requesterID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.EventID, &e.OrganizerID, &e.EventName, &e.Description, &e.EventDate,
		&e.Location, &e.Capacity, &e.RegisteredAttendeesCount, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
