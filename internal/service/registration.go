package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/notifier"
	"github.com/mcosta87/eventos/internal/repository"
)

// NotificationConfig controls the emails sent after a successful admission.
// The organizer notice is opt-in; the attendee confirmation always goes out.
type NotificationConfig struct {
	NotifyOrganizer bool
	OrganizerEmail  string
}

// RegistrationService is the admission-control core: it validates attendee
// input, delegates the atomic admission to the store, and dispatches
// confirmation emails after the store has committed.
type RegistrationService struct {
	events   EventStore
	ledger   RegistrationStore
	notifier notifier.Notifier
	notify   NotificationConfig
	log      *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	events EventStore,
	ledger RegistrationStore,
	n notifier.Notifier,
	notify NotificationConfig,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{events: events, ledger: ledger, notifier: n, notify: notify, log: log}
}

// Register attempts to admit one attendee to one event.
//
// Validation failures, unknown events, duplicates and full events come back
// as typed errors; every failure is a final answer for the attempt, nothing
// retries. On success the confirmation email is dispatched outside the
// admission critical section; a delivery failure is reported on the result
// and does not undo the registration.
func (s *RegistrationService) Register(ctx context.Context, eventID string, req model.RegisterRequest) (*model.RegistrationResult, error) {
	if eventID == "" {
		return nil, repository.ErrNotFound
	}
	profile, err := normalizeRegisterRequest(req)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	reg, attendee, err := s.ledger.Admit(ctx, eventID, profile)
	if err != nil {
		// Surface domain errors directly so handlers can set correct HTTP status.
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrEventFull) ||
			errors.Is(err, repository.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}

	result := &model.RegistrationResult{
		Registration:     reg,
		Attendee:         attendee,
		NotificationSent: true,
	}

	confirmation := notifier.Message{
		To:      attendee.Email,
		Subject: "Confirmação de Inscrição",
		Body:    fmt.Sprintf("Olá %s, sua inscrição no evento %q foi confirmada!", attendee.Name, event.Title),
	}
	if err := s.notifier.Send(ctx, confirmation); err != nil {
		s.log.Warn("confirmation email failed",
			zap.String("event_id", eventID),
			zap.String("attendee_email", attendee.Email),
			zap.Error(err),
		)
		result.NotificationSent = false
		result.NotificationError = "não foi possível enviar o email de confirmação"
	}

	if s.notify.NotifyOrganizer {
		notice := notifier.Message{
			To:      s.notify.OrganizerEmail,
			Subject: "Nova Inscrição Recebida",
			Body:    fmt.Sprintf("%s se inscreveu no evento %q.", attendee.Name, event.Title),
		}
		if err := s.notifier.Send(ctx, notice); err != nil {
			// Organizer notice is best-effort on top of best-effort.
			s.log.Warn("organizer notice failed",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

func normalizeRegisterRequest(req model.RegisterRequest) (model.AttendeeProfile, error) {
	var p model.AttendeeProfile

	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" {
		return p, &model.ValidationError{Field: "name", Message: "o nome é obrigatório"}
	}

	p.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if p.Email == "" {
		return p, &model.ValidationError{Field: "email", Message: "o email é obrigatório"}
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return p, &model.ValidationError{Field: "email", Message: "email inválido"}
	}

	p.Phone = strings.TrimSpace(req.Phone)
	if p.Phone == "" {
		return p, &model.ValidationError{Field: "phone", Message: "o telefone é obrigatório"}
	}

	p.Assistance = req.Assistance
	if p.Assistance == "" {
		p.Assistance = model.AssistanceNone
	}
	if !p.Assistance.Valid() {
		return p, &model.ValidationError{Field: "assistance", Message: "tipo de assistência inválido"}
	}

	p.AssistanceDetails = strings.TrimSpace(req.AssistanceDetails)
	if p.Assistance == model.AssistanceOther {
		if p.AssistanceDetails == "" {
			return p, &model.ValidationError{Field: "assistance_details", Message: "descreva a assistência necessária"}
		}
	} else {
		// Details only make sense for the "other" category; normalize on
		// write rather than just validating.
		p.AssistanceDetails = ""
	}

	return p, nil
}
