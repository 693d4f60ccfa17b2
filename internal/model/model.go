// Package model defines the core domain types for the event registration system.
package model

import "time"

// EventCategory enumerates the kinds of events an organizer can create.
// The stored values match the historical database contents.
type EventCategory string

const (
	CategoryTalk        EventCategory = "PALESTRA"
	CategoryWorkshop    EventCategory = "WORKSHOP"
	CategoryShortCourse EventCategory = "MINICURSO"
	CategoryNetworking  EventCategory = "NETWORK"
	CategoryOther       EventCategory = "OUTRO"
)

// Valid reports whether c is one of the known categories.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryTalk, CategoryWorkshop, CategoryShortCourse, CategoryNetworking, CategoryOther:
		return true
	}
	return false
}

// AssistanceCategory enumerates accessibility needs an attendee may declare.
type AssistanceCategory string

const (
	AssistanceNone        AssistanceCategory = "NENHUMA"
	AssistanceMobility    AssistanceCategory = "LOCOMOCAO"
	AssistanceAudioVisual AssistanceCategory = "AUDIOVISUAL"
	AssistanceOther       AssistanceCategory = "OUTRA"
)

// Valid reports whether a is one of the known assistance categories.
func (a AssistanceCategory) Valid() bool {
	switch a {
	case AssistanceNone, AssistanceMobility, AssistanceAudioVisual, AssistanceOther:
		return true
	}
	return false
}

// Event represents an organized occurrence with a fixed attendance ceiling.
type Event struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Category      EventCategory `json:"category"`
	StartsAt      time.Time     `json:"starts_at"`
	Location      string        `json:"location"`
	Description   string        `json:"description"`
	OrganizerNote string        `json:"organizer_note,omitempty"`
	Capacity      int           `json:"capacity"`
	// ImageRef is an opaque reference into the external asset store.
	ImageRef string `json:"image_ref,omitempty"`
	// Registered is derived from the registration ledger, never stored.
	Registered int       `json:"registered"`
	CreatedAt  time.Time `json:"created_at"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	return e.Capacity - e.Registered
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.Registered >= e.Capacity
}

// EventInput is the payload for creating or updating an event.
type EventInput struct {
	Title         string        `json:"title"`
	Category      EventCategory `json:"category"`
	StartsAt      time.Time     `json:"starts_at"`
	Location      string        `json:"location"`
	Description   string        `json:"description"`
	OrganizerNote string        `json:"organizer_note"`
	Capacity      int           `json:"capacity"`
	ImageRef      string        `json:"image_ref"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	Location string
}

// Attendee is a person identified by email who may register for multiple events.
// Email is stored lower-cased; it is the natural key of the directory.
type Attendee struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	Assistance        AssistanceCategory `json:"assistance"`
	AssistanceDetails string             `json:"assistance_details,omitempty"`
}

// AttendeeProfile carries validated, normalized attendee fields into the
// admission transaction. Email is already lower-cased and the assistance
// details already honor the category invariant.
type AttendeeProfile struct {
	Name              string
	Email             string
	Phone             string
	Assistance        AssistanceCategory
	AssistanceDetails string
}

// Registration is the committed relation between one event and one attendee.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	AttendeeID   string    `json:"attendee_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegisterRequest is the payload submitted with a registration attempt.
type RegisterRequest struct {
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	Assistance        AssistanceCategory `json:"assistance"`
	AssistanceDetails string             `json:"assistance_details"`
}

// RegistrationResult summarises the outcome of a successful admission.
// NotificationSent is false when the confirmation email could not be
// delivered; the registration itself stands regardless.
type RegistrationResult struct {
	Registration      *Registration `json:"registration"`
	Attendee          *Attendee     `json:"attendee"`
	NotificationSent  bool          `json:"notification_sent"`
	NotificationError string        `json:"notification_error,omitempty"`
}

// RollRow is one line of a registration roll as rendered or exported.
type RollRow struct {
	EventTitle        string    `json:"event_title"`
	EventStartsAt     time.Time `json:"event_starts_at"`
	AttendeeName      string    `json:"attendee_name"`
	AttendeeEmail     string    `json:"attendee_email"`
	AttendeePhone     string    `json:"attendee_phone"`
	AssistanceDetails string    `json:"assistance_details,omitempty"`
	RegisteredAt      time.Time `json:"registered_at"`
}

// RollFilter narrows the global roll listing.
type RollFilter struct {
	EventID string
	// Query matches case-insensitively against attendee name, email and phone.
	Query  string
	Limit  int
	Offset int
}

// Organizer is an authenticated user allowed to manage events and view rolls.
type Organizer struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	// Field names the offending input field for validation failures.
	Field string `json:"field,omitempty"`
}

// ValidationError reports a malformed input field. It is a final answer for
// the attempt; callers surface it to the submitting form, never retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
