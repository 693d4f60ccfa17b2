// Package repository implements all database queries for the event
// registration system. It uses pgx directly (no ORM) for transparency
// and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcosta87/eventos/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyRegistered is returned when the same email registers twice
// for the same event.
var ErrAlreadyRegistered = errors.New("email already registered for this event")

const eventColumns = `id, title, category, starts_at, location, description,
	organizer_note, capacity, image_ref, created_at,
	(SELECT COUNT(*) FROM registrations r WHERE r.event_id = events.id)`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	event := &model.Event{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Category:      in.Category,
		StartsAt:      in.StartsAt,
		Location:      in.Location,
		Description:   in.Description,
		OrganizerNote: in.OrganizerNote,
		Capacity:      in.Capacity,
		ImageRef:      in.ImageRef,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, category, starts_at, location, description,
			organizer_note, capacity, image_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID, event.Title, event.Category, event.StartsAt, event.Location,
		event.Description, event.OrganizerNote, event.Capacity, event.ImageRef,
		event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// Update overwrites the mutable fields of an event.
func (r *EventRepository) Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, category = $3, starts_at = $4, location = $5,
		     description = $6, organizer_note = $7, capacity = $8, image_ref = $9
		 WHERE id = $1`,
		id, in.Title, in.Category, in.StartsAt, in.Location,
		in.Description, in.OrganizerNote, in.Capacity, in.ImageRef,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes an event. Its registrations go with it via the cascading
// foreign key.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
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

// List returns events matching the filter, ordered by scheduled instant.
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var (
		conds []string
		args  []any
	)
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("starts_at <= $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY starts_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
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

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Category, &e.StartsAt, &e.Location,
		&e.Description, &e.OrganizerNote, &e.Capacity, &e.ImageRef,
		&e.CreatedAt, &e.Registered)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
