package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/msomdec/eventhub/internal/domain"
)

// EventRepository implements domain.EventRepository on the events
// collection. Attendees are an embedded array in join order.
type EventRepository struct {
	coll     *mongo.Collection
	comments *mongo.Collection
	now      func() time.Time
}

type eventDB struct {
	ID          primitive.ObjectID   `bson:"_id"`
	OrganizerID primitive.ObjectID   `bson:"organizer_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Location    string               `bson:"location"`
	DateAndTime time.Time            `bson:"date_and_time"`
	Attendees   []primitive.ObjectID `bson:"attendees"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (e eventDB) toModel() domain.Event {
	return domain.Event{
		ID:          e.ID.Hex(),
		OrganizerID: e.OrganizerID.Hex(),
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		DateAndTime: e.DateAndTime.UTC(),
		Attendees:   hexIDs(e.Attendees),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	oid, err := newObjectID(event.ID)
	if err != nil {
		return err
	}
	organizer, err := parseID(event.OrganizerID)
	if err != nil {
		return fmt.Errorf("insert event: organizer %s: %w", event.OrganizerID, err)
	}

	now := r.now()
	doc := eventDB{
		ID:          oid,
		OrganizerID: organizer,
		Name:        event.Name,
		Description: event.Description,
		Location:    event.Location,
		DateAndTime: event.DateAndTime.UTC(),
		Attendees:   []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrScheduleConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}

	event.ID = oid.Hex()
	event.Attendees = []string{}
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc eventDB
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e := doc.toModel()
	return &e, nil
}

func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := bson.D{}
	if filter.NameContains != "" {
		query = append(query, bson.E{Key: "name", Value: containsPattern(filter.NameContains)})
	}
	if filter.LocationContains != "" {
		query = append(query, bson.E{Key: "location", Value: containsPattern(filter.LocationContains)})
	}
	dateRange := bson.D{}
	if !filter.From.IsZero() {
		dateRange = append(dateRange, bson.E{Key: "$gte", Value: filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		dateRange = append(dateRange, bson.E{Key: "$lt", Value: filter.To.UTC()})
	}
	if len(dateRange) > 0 {
		query = append(query, bson.E{Key: "date_and_time", Value: dateRange})
	}
	if filter.OrganizerID != "" {
		organizer, err := parseID(filter.OrganizerID)
		if err != nil {
			return nil, nil
		}
		query = append(query, bson.E{Key: "organizer_id", Value: organizer})
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date_and_time", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var docs []eventDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]domain.Event, len(docs))
	for i, d := range docs {
		events[i] = d.toModel()
	}
	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	oid, err := parseID(event.ID)
	if err != nil {
		return err
	}
	now := r.now()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: event.Name},
		{Key: "description", Value: event.Description},
		{Key: "location", Value: event.Location},
		{Key: "date_and_time", Value: event.DateAndTime.UTC()},
		{Key: "updated_at", Value: now},
	}}}

	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrScheduleConflict
		}
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	event.UpdatedAt = now
	return nil
}

// Delete removes the event's comments and then the event. The two steps are
// not atomic; a failure in between leaves the event without comments.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	if _, err := r.comments.DeleteMany(ctx, bson.D{{Key: "event_id", Value: oid}}); err != nil {
		return fmt.Errorf("delete event comments: %w", err)
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventRepository) HasScheduleConflict(ctx context.Context, organizerID string, at time.Time, excludeID string) (bool, error) {
	organizer, err := parseID(organizerID)
	if err != nil {
		return false, nil
	}
	filter := bson.D{
		{Key: "organizer_id", Value: organizer},
		{Key: "date_and_time", Value: at.UTC()},
	}
	if exclude, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: exclude}}})
	}

	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check schedule conflict: %w", err)
	}
	return n > 0, nil
}

func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string) error {
	eid, err := parseID(eventID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: eid}, {Key: "attendees", Value: bson.D{{Key: "$ne", Value: uid}}}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "attendees", Value: uid}}}},
	)
	if err != nil {
		return fmt.Errorf("add attendee: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrState(ctx, eid, domain.ErrAlreadyAttending)
	}
	return nil
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, eventID, userID string) error {
	eid, err := parseID(eventID)
	if err != nil {
		return err
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotAttending
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: eid}, {Key: "attendees", Value: uid}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "attendees", Value: uid}}}},
	)
	if err != nil {
		return fmt.Errorf("remove attendee: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrState(ctx, eid, domain.ErrNotAttending)
	}
	return nil
}

// missOrState distinguishes a missing event from a guarded update that
// matched nothing because of attendee state.
func (r *EventRepository) missOrState(ctx context.Context, eid primitive.ObjectID, stateErr error) error {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: eid}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count event: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return stateErr
}
