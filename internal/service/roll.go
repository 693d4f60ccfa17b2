package service

import (
	"context"
	"errors"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/repository"
)

// Search results are paginated; the cap keeps one export request from
// dragging the whole ledger through memory.
const (
	defaultRollLimit = 100
	maxRollLimit     = 1000
)

// RollService is the read path over committed registrations. It never
// mutates the ledger.
type RollService struct {
	events EventStore
	ledger RegistrationStore
}

// NewRollService constructs a RollService.
func NewRollService(events EventStore, ledger RegistrationStore) *RollService {
	return &RollService{events: events, ledger: ledger}
}

// EventRoll lists one event's registrations, oldest first.
func (s *RollService) EventRoll(ctx context.Context, eventID string) ([]model.RollRow, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s.ledger.EventRoll(ctx, eventID)
}

// Search lists registrations across events, newest first.
func (s *RollService) Search(ctx context.Context, f model.RollFilter) ([]model.RollRow, error) {
	if f.Limit <= 0 {
		f.Limit = defaultRollLimit
	}
	if f.Limit > maxRollLimit {
		f.Limit = maxRollLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.ledger.Search(ctx, f)
}

// Export returns every registration matching the filter, newest first.
// Unlike Search it is never truncated: it pages through the ledger in
// bounded batches until a short page signals the end.
func (s *RollService) Export(ctx context.Context, f model.RollFilter) ([]model.RollRow, error) {
	f.Limit = maxRollLimit
	f.Offset = 0

	var out []model.RollRow
	for {
		page, err := s.ledger.Search(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < f.Limit {
			return out, nil
		}
		f.Offset += f.Limit
	}
}
