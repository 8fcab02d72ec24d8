package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/eventhub/internal/domain"
)

// EventRepository implements domain.EventRepository using SQLite.
// Attendees live in event_attendees, ordered by join time.
type EventRepository struct {
	db *sql.DB
}

const eventColumns = `id, organizer_id, name, description, location, date_and_time, created_at, updated_at`

func scanEvent(s rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var at int64
	if err := s.Scan(&e.ID, &e.OrganizerID, &e.Name, &e.Description, &e.Location, &at, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.DateAndTime = time.UnixMilli(at).UTC()
	e.Attendees = []string{}
	return e, nil
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.OrganizerID, event.Name, event.Description, event.Location,
		event.DateAndTime.UnixMilli(), now, now,
	)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return domain.ErrScheduleConflict
		case isForeignKeyError(err):
			return fmt.Errorf("insert event: organizer %s: %w", event.OrganizerID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert event: %w", err)
	}

	event.Attendees = []string{}
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	attendees, err := r.loadAttendees(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if a := attendees[id]; a != nil {
		e.Attendees = a
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.NameContains != "" {
		cond, arg := containsMatch("name", filter.NameContains)
		where = append(where, cond)
		args = append(args, arg)
	}
	if filter.LocationContains != "" {
		cond, arg := containsMatch("location", filter.LocationContains)
		where = append(where, cond)
		args = append(args, arg)
	}
	if !filter.From.IsZero() {
		where = append(where, "date_and_time >= ?")
		args = append(args, filter.From.UnixMilli())
	}
	if !filter.To.IsZero() {
		where = append(where, "date_and_time < ?")
		args = append(args, filter.To.UnixMilli())
	}
	if filter.OrganizerID != "" {
		where = append(where, "organizer_id = ?")
		args = append(args, filter.OrganizerID)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_and_time, created_at, rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var (
		events []domain.Event
		ids    []string
	)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	rows.Close()

	attendees, err := r.loadAttendees(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if a := attendees[events[i].ID]; a != nil {
			events[i].Attendees = a
		}
	}
	return events, nil
}

func (r *EventRepository) loadAttendees(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, user_id FROM event_attendees
		 WHERE event_id IN (`+placeholders(len(eventIDs))+`)
		 ORDER BY joined_at, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, userID string
		if err := rows.Scan(&eventID, &userID); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		out[eventID] = append(out[eventID], userID)
	}
	return out, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET name = ?, description = ?, location = ?, date_and_time = ?, updated_at = ?
		 WHERE id = ?`,
		event.Name, event.Description, event.Location, event.DateAndTime.UnixMilli(), now, event.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrScheduleConflict
		}
		return fmt.Errorf("update event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	event.UpdatedAt = now
	return nil
}

// Delete removes the event, its comments and its attendee rows in one
// transaction.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE event_id = ?", id); err != nil {
		return fmt.Errorf("delete event comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM event_attendees WHERE event_id = ?", id); err != nil {
		return fmt.Errorf("delete event attendees: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *EventRepository) HasScheduleConflict(ctx context.Context, organizerID string, at time.Time, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM events WHERE organizer_id = ? AND date_and_time = ? AND id <> ?
		 )`,
		organizerID, at.UnixMilli(), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check schedule conflict: %w", err)
	}
	return exists, nil
}

func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id, joined_at) VALUES (?, ?, ?)`,
		eventID, userID, time.Now().UTC(),
	)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return domain.ErrAlreadyAttending
		case isForeignKeyError(err):
			return domain.ErrNotFound
		}
		return fmt.Errorf("add attendee: %w", err)
	}
	return nil
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, eventID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove attendee: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotAttending
	}
	return nil
}
