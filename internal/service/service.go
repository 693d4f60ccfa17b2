// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the storage layer.
package service

import (
	"context"

	"github.com/mcosta87/eventos/internal/model"
)

// EventStore is the persistence surface of the event catalog.
type EventStore interface {
	Create(ctx context.Context, in model.EventInput) (*model.Event, error)
	Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, f model.EventFilter) ([]model.Event, error)
}

// RegistrationStore is the persistence surface of the registration ledger.
// Admit must run duplicate check, capacity check, attendee upsert and
// registration insert as one atomically-isolated unit per event.
type RegistrationStore interface {
	Admit(ctx context.Context, eventID string, p model.AttendeeProfile) (*model.Registration, *model.Attendee, error)
	EventRoll(ctx context.Context, eventID string) ([]model.RollRow, error)
	Search(ctx context.Context, f model.RollFilter) ([]model.RollRow, error)
}
