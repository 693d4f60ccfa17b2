// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/repository"
	"github.com/mcosta87/eventos/internal/service"
)

// EventHandler holds all HTTP handlers for the registration API.
type EventHandler struct {
	events *service.EventService
	ledger *service.RegistrationService
	rolls  *service.RollService
	log    *zap.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(
	events *service.EventService,
	ledger *service.RegistrationService,
	rolls *service.RollService,
	log *zap.Logger,
) *EventHandler {
	return &EventHandler{events: events, ledger: ledger, rolls: rolls, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps service/repository errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "evento não encontrado")
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "Você já está inscrito neste evento.")
	case errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusConflict, "Evento esgotado.")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// ─── Event catalog ────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}

	event, err := h.events.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err, "falha ao criar evento")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?from=&to=&local=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var filter model.EventFilter
	if from, ok := parseDateParam(r, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseDateParam(r, "to"); ok {
		// The upper bound is inclusive of the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	filter.Location = r.URL.Query().Get("local")

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.log.Error("list events failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "falha ao listar eventos")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "falha ao buscar evento")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in model.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}

	event, err := h.events.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err, "falha ao atualizar evento")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
// Deleting an event cascades to its registrations.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.events.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "falha ao excluir evento")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ─── Registration ledger ──────────────────────────────────────────────────────

// Register handles POST /events/{id}/register
// Performs a concurrency-safe admission for the specified event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}

	result, err := h.ledger.Register(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "falha ao processar inscrição")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ─── Roll (read path) ─────────────────────────────────────────────────────────

// ListRegistrations handles GET /events/{id}/registrations
// Returns one event's roll, oldest registration first.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rows, err := h.rolls.EventRoll(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "falha ao listar inscrições")
		return
	}

	if rows == nil {
		rows = []model.RollRow{}
	}

	writeJSON(w, http.StatusOK, rows)
}

// SearchRegistrations handles GET /registrations?evento=&q=&limit=&offset=
// Returns registrations across events, newest first.
func (h *EventHandler) SearchRegistrations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rolls.Search(r.Context(), rollFilterFromQuery(r))
	if err != nil {
		writeDomainError(w, err, "falha ao listar inscrições")
		return
	}

	if rows == nil {
		rows = []model.RollRow{}
	}

	writeJSON(w, http.StatusOK, rows)
}

func rollFilterFromQuery(r *http.Request) model.RollFilter {
	q := r.URL.Query()
	f := model.RollFilter{
		EventID: q.Get("evento"),
		Query:   q.Get("q"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = n
	}
	return f
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
