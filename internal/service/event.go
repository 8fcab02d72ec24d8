package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/eventhub/internal/domain"
)

// SearchDateLayout is the format of the date search parameter.
const SearchDateLayout = "2006-01-02"

// ErrOrganizerNotFound is returned by Search when no organizer matches the
// organizer term.
var ErrOrganizerNotFound = fmt.Errorf("organizer: %w", domain.ErrNotFound)

// EventService handles event CRUD, attendance and search with ownership
// and scheduling rules.
type EventService struct {
	events   domain.EventRepository
	users    domain.UserRepository
	validate *validator.Validate
}

// NewEventService creates a new EventService.
func NewEventService(events domain.EventRepository, users domain.UserRepository) *EventService {
	return &EventService{
		events:   events,
		users:    users,
		validate: newValidator(),
	}
}

// CreateEventInput is the data accepted when creating an event.
type CreateEventInput struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	DateAndTime time.Time `json:"dateAndTime" validate:"required"`
}

// UpdateEventInput carries the event fields to change. Nil fields are left
// as they are.
type UpdateEventInput struct {
	Name        *string    `json:"name" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	DateAndTime *time.Time `json:"dateAndTime"`
}

// SearchInput holds the optional search terms. Empty terms are ignored.
type SearchInput struct {
	Name      string
	Location  string
	Date      string
	Organizer string
}

// Create stores a new event owned by the caller. Only organizers may create
// events, and an organizer cannot own two events at the same instant.
func (s *EventService) Create(ctx context.Context, caller domain.Identity, in CreateEventInput) (*domain.EventDetails, error) {
	if caller.Role != domain.RoleOrganizer {
		return nil, domain.ErrUnauthorized
	}

	in.Name = plainText(in.Name)
	in.Description = plainText(in.Description)
	in.Location = plainText(in.Location)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	at := in.DateAndTime.UTC().Truncate(time.Millisecond)
	if err := s.checkSchedule(ctx, caller.UserID, at, ""); err != nil {
		return nil, err
	}

	event := &domain.Event{
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		DateAndTime: at,
		OrganizerID: caller.UserID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return s.details(ctx, event)
}

// List returns every event ordered by date and time.
func (s *EventService) List(ctx context.Context) ([]domain.EventDetails, error) {
	events, err := s.events.List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.withOrganizers(ctx, events)
}

// Get returns one event with its organizer.
func (s *EventService) Get(ctx context.Context, id string) (*domain.EventDetails, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.details(ctx, event)
}

// Update applies the present fields of in. Only the owning organizer may
// update, and the new time must not collide with another of their events.
func (s *EventService) Update(ctx context.Context, id string, caller domain.Identity, in UpdateEventInput) (*domain.EventDetails, error) {
	event, err := s.owned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		*in.Name = plainText(*in.Name)
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	if in.Name != nil {
		event.Name = *in.Name
	}
	if in.Description != nil {
		event.Description = plainText(*in.Description)
	}
	if in.Location != nil {
		event.Location = plainText(*in.Location)
	}
	if in.DateAndTime != nil {
		if in.DateAndTime.IsZero() {
			return nil, domain.NewValidationError("dateAndTime", "dateAndTime is required")
		}
		event.DateAndTime = in.DateAndTime.UTC().Truncate(time.Millisecond)
	}

	if err := s.checkSchedule(ctx, event.OrganizerID, event.DateAndTime, event.ID); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	return s.details(ctx, event)
}

// Delete removes the event and all of its comments. Only the owning
// organizer may delete.
func (s *EventService) Delete(ctx context.Context, id string, caller domain.Identity) error {
	if _, err := s.owned(ctx, id, caller); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// Attend adds the caller to the event's attendees and returns the updated
// attendee list. Organizers cannot attend.
func (s *EventService) Attend(ctx context.Context, id string, caller domain.Identity) ([]string, error) {
	if _, err := s.events.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if caller.Role == domain.RoleOrganizer {
		return nil, domain.ErrOrganizerCannotAttend
	}

	if err := s.events.AddAttendee(ctx, id, caller.UserID); err != nil {
		return nil, fmt.Errorf("add attendee: %w", err)
	}
	return s.attendees(ctx, id)
}

// Unattend removes the caller from the event's attendees and returns the
// updated attendee list.
func (s *EventService) Unattend(ctx context.Context, id string, caller domain.Identity) ([]string, error) {
	if _, err := s.events.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := s.events.RemoveAttendee(ctx, id, caller.UserID); err != nil {
		return nil, fmt.Errorf("remove attendee: %w", err)
	}
	return s.attendees(ctx, id)
}

// Search returns the events matching every non-empty term. Name and
// location match case-insensitive literal substrings; Date selects one UTC
// calendar day; Organizer selects the events of the oldest organizer whose
// name contains the term.
func (s *EventService) Search(ctx context.Context, in SearchInput) ([]domain.EventDetails, error) {
	filter := domain.EventFilter{
		NameContains:     strings.TrimSpace(in.Name),
		LocationContains: strings.TrimSpace(in.Location),
	}

	if date := strings.TrimSpace(in.Date); date != "" {
		day, err := time.Parse(SearchDateLayout, date)
		if err != nil {
			return nil, domain.NewValidationError("date", msgDate)
		}
		filter.From = day
		filter.To = day.AddDate(0, 0, 1)
	}

	if term := strings.TrimSpace(in.Organizer); term != "" {
		organizer, err := s.users.FindOrganizerByName(ctx, term)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrOrganizerNotFound
			}
			return nil, fmt.Errorf("find organizer: %w", err)
		}
		filter.OrganizerID = organizer.ID
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return s.withOrganizers(ctx, events)
}

// owned loads the event and checks that caller is its organizer.
func (s *EventService) owned(ctx context.Context, id string, caller domain.Identity) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != caller.UserID {
		return nil, domain.ErrUnauthorized
	}
	return event, nil
}

func (s *EventService) checkSchedule(ctx context.Context, organizerID string, at time.Time, excludeID string) error {
	conflict, err := s.events.HasScheduleConflict(ctx, organizerID, at, excludeID)
	if err != nil {
		return fmt.Errorf("check schedule: %w", err)
	}
	if conflict {
		return domain.ErrScheduleConflict
	}
	return nil
}

func (s *EventService) attendees(ctx context.Context, id string) ([]string, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event.Attendees, nil
}

func (s *EventService) details(ctx context.Context, event *domain.Event) (*domain.EventDetails, error) {
	out, err := s.withOrganizers(ctx, []domain.Event{*event})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// withOrganizers resolves the organizer of each event in one lookup. An
// organizer that no longer exists resolves to a summary with only its ID.
func (s *EventService) withOrganizers(ctx context.Context, events []domain.Event) ([]domain.EventDetails, error) {
	out := make([]domain.EventDetails, len(events))
	if len(events) == 0 {
		return out, nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range events {
		if !seen[e.OrganizerID] {
			seen[e.OrganizerID] = true
			ids = append(ids, e.OrganizerID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve organizers: %w", err)
	}
	byID := make(map[string]domain.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	for i, e := range events {
		organizer, ok := byID[e.OrganizerID]
		if !ok {
			organizer = domain.UserSummary{ID: e.OrganizerID}
		}
		out[i] = domain.EventDetails{Event: e, Organizer: organizer}
	}
	return out, nil
}
