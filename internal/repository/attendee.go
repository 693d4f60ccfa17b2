package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mcosta87/eventos/internal/model"
)

// The attendee directory is a pure keyed store with upsert semantics, used
// exclusively by the registration admission transaction. Both operations run
// against the transaction that holds the event row lock.

// findAttendeeByEmail looks an attendee up by its normalized email.
// Returns (nil, nil) when no record exists.
func findAttendeeByEmail(ctx context.Context, tx pgx.Tx, email string) (*model.Attendee, error) {
	var a model.Attendee
	err := tx.QueryRow(ctx,
		`SELECT id, name, email, phone, assistance, assistance_details
		 FROM attendees WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Assistance, &a.AssistanceDetails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendee: %w", err)
	}
	return &a, nil
}

// upsertAttendee creates the attendee on first contact, or overwrites
// name/phone/assistance on the existing record. Last write wins, no merge.
func upsertAttendee(ctx context.Context, tx pgx.Tx, p model.AttendeeProfile) (*model.Attendee, error) {
	a := &model.Attendee{
		ID:                uuid.New().String(),
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		Assistance:        p.Assistance,
		AssistanceDetails: p.AssistanceDetails,
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO attendees (id, name, email, phone, assistance, assistance_details)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO UPDATE
		 SET name = EXCLUDED.name,
		     phone = EXCLUDED.phone,
		     assistance = EXCLUDED.assistance,
		     assistance_details = EXCLUDED.assistance_details
		 RETURNING id`,
		a.ID, a.Name, a.Email, a.Phone, a.Assistance, a.AssistanceDetails,
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("upsert attendee: %w", err)
	}
	return a, nil
}
