package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcosta87/eventos/internal/model"
)

// MemoryStore is an in-memory implementation of the store interfaces used by
// the service layer. Tests run against it instead of Postgres.
// Admissions take a per-event lock around the same
// duplicate -> capacity -> upsert -> insert sequence the SQL store runs under
// its row lock, so attempts on different events do not wait on each other.
type MemoryStore struct {
	mu            sync.RWMutex
	events        map[string]*model.Event
	attendees     map[string]*model.Attendee // keyed by normalized email
	registrations []*model.Registration
	admitLocks    map[string]*sync.Mutex
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     make(map[string]*model.Event),
		attendees:  make(map[string]*model.Attendee),
		admitLocks: make(map[string]*sync.Mutex),
	}
}

// ─── Event catalog ────────────────────────────────────────────────────────────

func (m *MemoryStore) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &model.Event{
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
	m.events[e.ID] = e
	out := *e
	return &out, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.Title = in.Title
	e.Category = in.Category
	e.StartsAt = in.StartsAt
	e.Location = in.Location
	e.Description = in.Description
	e.OrganizerNote = in.OrganizerNote
	e.Capacity = in.Capacity
	e.ImageRef = in.ImageRef
	out := *e
	out.Registered = m.countLocked(id)
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	// Cascade, same as the foreign key in the SQL store.
	kept := m.registrations[:0]
	for _, r := range m.registrations {
		if r.EventID != id {
			kept = append(kept, r)
		}
	}
	m.registrations = kept
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *e
	out.Registered = m.countLocked(id)
	return &out, nil
}

func (m *MemoryStore) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []model.Event
	for _, e := range m.events {
		if f.From != nil && e.StartsAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.StartsAt.After(*f.To) {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(f.Location)) {
			continue
		}
		out := *e
		out.Registered = m.countLocked(e.ID)
		events = append(events, out)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

// ─── Registration ledger ──────────────────────────────────────────────────────

func (m *MemoryStore) Admit(ctx context.Context, eventID string, p model.AttendeeProfile) (*model.Registration, *model.Attendee, error) {
	lock := m.admitLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil, nil, ErrNotFound
	}

	// Duplicate check precedes the capacity check.
	if existing, ok := m.attendees[p.Email]; ok {
		for _, r := range m.registrations {
			if r.EventID == eventID && r.AttendeeID == existing.ID {
				return nil, nil, ErrAlreadyRegistered
			}
		}
	}

	if m.countLocked(eventID) >= event.Capacity {
		return nil, nil, ErrEventFull
	}

	attendee, ok := m.attendees[p.Email]
	if !ok {
		attendee = &model.Attendee{ID: uuid.New().String(), Email: p.Email}
		m.attendees[p.Email] = attendee
	}
	attendee.Name = p.Name
	attendee.Phone = p.Phone
	attendee.Assistance = p.Assistance
	attendee.AssistanceDetails = p.AssistanceDetails

	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		AttendeeID:   attendee.ID,
		RegisteredAt: time.Now().UTC(),
	}
	m.registrations = append(m.registrations, reg)

	regOut := *reg
	attOut := *attendee
	return &regOut, &attOut, nil
}

func (m *MemoryStore) EventRoll(ctx context.Context, eventID string) ([]model.RollRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rollLocked(model.RollFilter{EventID: eventID})
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].RegisteredAt.Before(rows[j].RegisteredAt)
	})
	return rows, nil
}

func (m *MemoryStore) Search(ctx context.Context, f model.RollFilter) ([]model.RollRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rollLocked(f)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].RegisteredAt.After(rows[j].RegisteredAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[f.Offset:]
		}
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

// ─── Organizers ───────────────────────────────────────────────────────────────

// MemoryOrganizers is the in-memory counterpart of OrganizerRepository.
type MemoryOrganizers struct {
	mu         sync.RWMutex
	byUsername map[string]*model.Organizer
}

// NewMemoryOrganizers constructs an empty MemoryOrganizers.
func NewMemoryOrganizers() *MemoryOrganizers {
	return &MemoryOrganizers{byUsername: make(map[string]*model.Organizer)}
}

func (m *MemoryOrganizers) GetByUsername(ctx context.Context, username string) (*model.Organizer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *MemoryOrganizers) Create(ctx context.Context, username, passwordHash string) (*model.Organizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &model.Organizer{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.byUsername[username] = o
	out := *o
	return &out, nil
}

func (m *MemoryOrganizers) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUsername), nil
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (m *MemoryStore) admitLock(eventID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.admitLocks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		m.admitLocks[eventID] = lock
	}
	return lock
}

func (m *MemoryStore) countLocked(eventID string) int {
	n := 0
	for _, r := range m.registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func (m *MemoryStore) rollLocked(f model.RollFilter) []model.RollRow {
	byID := make(map[string]*model.Attendee, len(m.attendees))
	for _, a := range m.attendees {
		byID[a.ID] = a
	}
	var rows []model.RollRow
	for _, r := range m.registrations {
		if f.EventID != "" && r.EventID != f.EventID {
			continue
		}
		e, ok := m.events[r.EventID]
		if !ok {
			continue
		}
		a, ok := byID[r.AttendeeID]
		if !ok {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(a.Name), q) &&
				!strings.Contains(strings.ToLower(a.Email), q) &&
				!strings.Contains(strings.ToLower(a.Phone), q) {
				continue
			}
		}
		rows = append(rows, model.RollRow{
			EventTitle:        e.Title,
			EventStartsAt:     e.StartsAt,
			AttendeeName:      a.Name,
			AttendeeEmail:     a.Email,
			AttendeePhone:     a.Phone,
			AssistanceDetails: a.AssistanceDetails,
			RegisteredAt:      r.RegisteredAt,
		})
	}
	return rows
}
