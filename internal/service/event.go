package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/repository"
)

// EventService orchestrates catalog operations. All mutations are gated by
// organizer authentication at the HTTP layer.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// Create validates the input and delegates to the store.
func (s *EventService) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	if err := normalizeEventInput(&in); err != nil {
		return nil, err
	}
	return s.events.Create(ctx, in)
}

// Update validates the input and overwrites an existing event.
func (s *EventService) Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	if err := normalizeEventInput(&in); err != nil {
		return nil, err
	}
	return s.events.Update(ctx, id, in)
}

// Delete removes an event and, by cascade, its registrations.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return repository.ErrNotFound
	}
	return s.events.Delete(ctx, id)
}

// Get returns a single event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// List returns events matching the filter, soonest first.
func (s *EventService) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	return s.events.List(ctx, f)
}

func normalizeEventInput(in *model.EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" {
		return &model.ValidationError{Field: "title", Message: "o título é obrigatório"}
	}
	if in.Category == "" {
		in.Category = model.CategoryTalk
	}
	if !in.Category.Valid() {
		return &model.ValidationError{Field: "category", Message: "tipo de evento inválido"}
	}
	if in.StartsAt.IsZero() {
		return &model.ValidationError{Field: "starts_at", Message: "a data do evento é obrigatória"}
	}
	if in.Location == "" {
		return &model.ValidationError{Field: "location", Message: "o local é obrigatório"}
	}
	if in.Capacity <= 0 {
		return &model.ValidationError{Field: "capacity", Message: "a capacidade deve ser maior que zero"}
	}
	if in.Capacity > 100_000 {
		return &model.ValidationError{Field: "capacity", Message: "a capacidade não pode exceder 100.000"}
	}
	return nil
}
