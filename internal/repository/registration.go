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

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Admit performs a concurrency-safe registration inside a single transaction.
//
// A naive count-then-insert is racy: two transactions read the same
// registration count before either inserts, both see free capacity, and the
// event ends up overbooked. To close the race the transaction first takes a
// row-level exclusive lock on the event (SELECT ... FOR UPDATE). Concurrent
// admissions for the same event serialize on that lock; admissions for
// different events lock different rows and proceed independently.
//
// Inside the critical section the order is fixed: duplicate check first, then
// capacity. A returning attendee must hear "already registered", never
// "event full", even when both are true.
func (r *RegistrationRepository) Admit(ctx context.Context, eventID string, p model.AttendeeProfile) (*model.Registration, *model.Attendee, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row for the duration of the admission.
	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock event row: %w", err)
	}

	// Duplicate check precedes the capacity check.
	existing, err := findAttendeeByEmail(ctx, tx, p.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		var registered bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM registrations WHERE event_id = $1 AND attendee_id = $2
			)`,
			eventID, existing.ID,
		).Scan(&registered)
		if err != nil {
			return nil, nil, fmt.Errorf("check duplicate: %w", err)
		}
		if registered {
			err = ErrAlreadyRegistered
			return nil, nil, err
		}
	}

	// Guard against overbooking.
	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return nil, nil, fmt.Errorf("count registrations: %w", err)
	}
	if count >= capacity {
		err = ErrEventFull
		return nil, nil, err
	}

	attendee, err := upsertAttendee(ctx, tx, p)
	if err != nil {
		return nil, nil, err
	}

	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		AttendeeID:   attendee.ID,
		RegisteredAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, attendee_id, registered_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.EventID, reg.AttendeeID, reg.RegisteredAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert registration: %w", err)
	}

	// Only after commit does any other admission see the change.
	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return reg, attendee, nil
}

const rollColumns = `e.title, e.starts_at, a.name, a.email, a.phone,
	a.assistance_details, r.registered_at`

// EventRoll returns the roll of one event, oldest registration first.
func (r *RegistrationRepository) EventRoll(ctx context.Context, eventID string) ([]model.RollRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+rollColumns+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 JOIN attendees a ON a.id = r.attendee_id
		 WHERE r.event_id = $1
		 ORDER BY r.registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("event roll: %w", err)
	}
	defer rows.Close()
	return scanRoll(rows)
}

// Search returns roll rows across events, newest registration first,
// optionally narrowed by event id and a free-text query over attendee
// name, email and phone.
func (r *RegistrationRepository) Search(ctx context.Context, f model.RollFilter) ([]model.RollRow, error) {
	query := `SELECT ` + rollColumns + `
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 JOIN attendees a ON a.id = r.attendee_id`
	var args []any
	if f.EventID != "" {
		args = append(args, f.EventID)
		query += fmt.Sprintf(" WHERE r.event_id = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		clause := fmt.Sprintf("(a.name ILIKE $%d OR a.email ILIKE $%d OR a.phone ILIKE $%d)",
			len(args), len(args), len(args))
		if f.EventID != "" {
			query += " AND " + clause
		} else {
			query += " WHERE " + clause
		}
	}
	query += " ORDER BY r.registered_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	defer rows.Close()
	return scanRoll(rows)
}

func scanRoll(rows pgx.Rows) ([]model.RollRow, error) {
	var out []model.RollRow
	for rows.Next() {
		var row model.RollRow
		if err := rows.Scan(&row.EventTitle, &row.EventStartsAt, &row.AttendeeName,
			&row.AttendeeEmail, &row.AttendeePhone, &row.AssistanceDetails,
			&row.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan roll row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
