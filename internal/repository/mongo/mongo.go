// Package mongo is the MongoDB storage backend. Documents use ObjectID keys
// whose hex form is the domain ID.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/msomdec/eventhub/internal/domain"
)

const (
	usersCollection    = "users"
	eventsCollection   = "events"
	commentsCollection = "comments"
)

// DB is a MongoDB-backed domain.Store.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	nowFunc  func() time.Time

	users    *UserRepository
	events   *EventRepository
	comments *CommentRepository
}

// Args are the mandatory arguments for New.
type Args struct {
	// URL is a mongodb:// connection string.
	URL string

	// Database is the database holding the collections.
	Database string
}

// Option customizes a DB.
type Option = func(*DB)

// WithNowFunc overrides the clock used for created/updated timestamps.
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(db *DB) {
		db.nowFunc = nowFunc
	}
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, args Args, opts ...Option) (*DB, error) {
	if args.URL == "" {
		return nil, errors.New("mongo: URL is required")
	}
	if args.Database == "" {
		return nil, errors.New("mongo: database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(args.URL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := &DB{
		client:   client,
		database: client.Database(args.Database),
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(db)
	}

	db.users = &UserRepository{coll: db.database.Collection(usersCollection), now: db.now}
	db.events = &EventRepository{
		coll:     db.database.Collection(eventsCollection),
		comments: db.database.Collection(commentsCollection),
		now:      db.now,
	}
	db.comments = &CommentRepository{
		coll:   db.database.Collection(commentsCollection),
		events: db.database.Collection(eventsCollection),
		now:    db.now,
	}
	return db, nil
}

// now returns the clock truncated to BSON date precision.
func (db *DB) now() time.Time {
	return db.nowFunc().Truncate(time.Millisecond)
}

// Migrate creates the indexes the repositories rely on. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		eventsCollection: {
			{
				Keys:    bson.D{{Key: "organizer_id", Value: 1}, {Key: "date_and_time", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "date_and_time", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Ping verifies the primary is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// Drop removes the whole database. Intended for tests.
func (db *DB) Drop(ctx context.Context) error {
	return db.database.Drop(ctx)
}

func (db *DB) Users() domain.UserRepository       { return db.users }
func (db *DB) Events() domain.EventRepository     { return db.events }
func (db *DB) Comments() domain.CommentRepository { return db.comments }

// parseID converts a domain ID to an ObjectID. Malformed IDs cannot name a
// stored document, so they report domain.ErrNotFound.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, len(oids))
	for i, oid := range oids {
		out[i] = oid.Hex()
	}
	return out
}

// newObjectID returns id parsed as an ObjectID, or a fresh one if id is empty.
func newObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, domain.ErrInvalidInput)
	}
	return oid, nil
}

// containsPattern builds a case-insensitive regex that matches s literally.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
