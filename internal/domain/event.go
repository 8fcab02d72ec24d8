package domain

import (
	"context"
	"time"
)

// Event is a scheduled happening owned by an organizer.
type Event struct {
	ID          string
	Name        string
	Description string
	Location    string
	DateAndTime time.Time
	OrganizerID string
	Attendees   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAttending reports whether userID is on the attendee list.
func (e *Event) IsAttending(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// EventDetails is an event with its organizer resolved.
type EventDetails struct {
	Event
	Organizer UserSummary
}

// EventFilter narrows a listing. Zero-valued fields are ignored.
type EventFilter struct {
	// NameContains and LocationContains match case-insensitive substrings.
	// They are literal text, never patterns.
	NameContains     string
	LocationContains string

	// From is inclusive, To is exclusive.
	From time.Time
	To   time.Time

	OrganizerID string
}

// EventRepository defines persistence operations for events and their
// attendee lists.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]Event, error)
	// Update writes the scalar fields of the event. Attendees are untouched.
	Update(ctx context.Context, event *Event) error
	// Delete removes the event together with all comments attached to it.
	Delete(ctx context.Context, id string) error
	// HasScheduleConflict reports whether the organizer owns an event at
	// exactly at, ignoring the event with id excludeID.
	HasScheduleConflict(ctx context.Context, organizerID string, at time.Time, excludeID string) (bool, error)
	AddAttendee(ctx context.Context, eventID, userID string) error
	RemoveAttendee(ctx context.Context, eventID, userID string) error
}
