package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcosta87/eventos/internal/auth"
	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/notifier"
	"github.com/mcosta87/eventos/internal/repository"
	"github.com/mcosta87/eventos/internal/service"
)

type testServer struct {
	router *chi.Mux
	store  *repository.MemoryStore
	outbox *notifier.Outbox
}

// newTestServer assembles the real router over the in-memory store,
// mirroring the wiring in cmd/main.go.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	outbox := notifier.NewOutbox()
	logger := zap.NewNop()

	eventSvc := service.NewEventService(store)
	regSvc := service.NewRegistrationService(store, store, outbox, service.NotificationConfig{}, logger)
	rollSvc := service.NewRollService(store, store)
	h := NewEventHandler(eventSvc, regSvc, rollSvc, logger)

	orgs := repository.NewMemoryOrganizers()
	require.NoError(t, auth.EnsureOrganizer(context.Background(), orgs, "org", "123456", logger))
	authHandler := auth.NewHandler(orgs, "test-secret", logger)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/logout", authHandler.Logout)
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/register", h.Register)
		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireOrganizer)
			r.Post("/", h.CreateEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Get("/{id}/registrations", h.ListRegistrations)
			r.Get("/{id}/registrations/export", h.ExportEventRoll)
		})
	})
	r.Route("/registrations", func(r chi.Router) {
		r.Use(authHandler.RequireOrganizer)
		r.Get("/", h.SearchRegistrations)
		r.Get("/export", h.ExportRoll)
	})

	return &testServer{router: r, store: store, outbox: outbox}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// login returns the session cookie for the bootstrap organizer.
func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "org",
		"password": "123456",
	})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	t.Fatal("no auth_token cookie in login response")
	return nil
}

func (ts *testServer) seedEvent(t *testing.T, title string, capacity int) *model.Event {
	t.Helper()
	event, err := ts.store.Create(context.Background(), model.EventInput{
		Title:    title,
		Category: model.CategoryWorkshop,
		StartsAt: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		Location: "Lab 2",
		Capacity: capacity,
	})
	require.NoError(t, err)
	return event
}

func registerBody(name, email string) map[string]any {
	return map[string]any{
		"name":       name,
		"email":      email,
		"phone":      "11999990000",
		"assistance": string(model.AssistanceNone),
	}
}

func TestRegistrationScenario(t *testing.T) {
	ts := newTestServer(t)
	event := ts.seedEvent(t, "Workshop", 1)
	path := "/events/" + event.ID + "/register"

	// First attempt succeeds and sends exactly one confirmation.
	w := ts.do(t, http.MethodPost, path, registerBody("Ana", "ana@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result model.RegistrationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.NotificationSent)
	require.Len(t, ts.outbox.Messages(), 1)
	assert.Equal(t, "ana@example.com", ts.outbox.Messages()[0].To)

	// Same email again: duplicate, no new email, still one registration.
	w = ts.do(t, http.MethodPost, path, registerBody("Ana", "ana@example.com"))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Você já está inscrito neste evento.")
	assert.Len(t, ts.outbox.Messages(), 1)

	// Different email: the event is full.
	w = ts.do(t, http.MethodPost, path, registerBody("Bruno", "bruno@example.com"))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Evento esgotado.")
	assert.Len(t, ts.outbox.Messages(), 1)

	got, err := ts.store.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Registered)
}

func TestRegisterValidationResponse(t *testing.T) {
	ts := newTestServer(t)
	event := ts.seedEvent(t, "Workshop", 5)

	body := registerBody("Ana", "ana@example.com")
	body["assistance"] = string(model.AssistanceOther)
	body["assistance_details"] = ""

	w := ts.do(t, http.MethodPost, "/events/"+event.ID+"/register", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "assistance_details", resp.Field)
}

func TestRegisterUnknownEvent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/events/missing/register", registerBody("Ana", "ana@example.com"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventCRUDRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	event := ts.seedEvent(t, "Palestra A", 10)

	in := map[string]any{
		"title": "Nova Palestra", "category": "PALESTRA",
		"starts_at": "2026-10-01T19:00:00Z", "location": "Auditório", "capacity": 10,
	}

	// Unauthenticated mutations are rejected.
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/events", in).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPut, "/events/"+event.ID, in).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodDelete, "/events/"+event.ID, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/events/"+event.ID+"/registrations", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/registrations", nil).Code)

	// Reads stay open.
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/events", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/events/"+event.ID, nil).Code)

	cookie := ts.login(t)

	w := ts.do(t, http.MethodPost, "/events", in, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Nova Palestra", created.Title)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/events/"+created.ID, nil, cookie).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/events/"+created.ID, nil).Code)
}

func TestCreateEventValidationResponse(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	in := map[string]any{
		"title": "Palestra", "category": "PALESTRA",
		"starts_at": "2026-10-01T19:00:00Z", "location": "Auditório", "capacity": 0,
	}
	w := ts.do(t, http.MethodPost, "/events", in, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "capacity", resp.Field)
}

func TestListRegistrationsOrdered(t *testing.T) {
	ts := newTestServer(t)
	event := ts.seedEvent(t, "Workshop", 5)
	cookie := ts.login(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		w := ts.do(t, http.MethodPost, "/events/"+event.ID+"/register", registerBody("P", email))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.do(t, http.MethodGet, "/events/"+event.ID+"/registrations", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []model.RollRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[0].AttendeeEmail)
}
