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

// CommentRepository implements domain.CommentRepository on the comments
// collection.
type CommentRepository struct {
	coll   *mongo.Collection
	events *mongo.Collection
	now    func() time.Time
}

type commentDB struct {
	ID        primitive.ObjectID `bson:"_id"`
	EventID   primitive.ObjectID `bson:"event_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (c commentDB) toModel() domain.Comment {
	return domain.Comment{
		ID:        c.ID.Hex(),
		EventID:   c.EventID.Hex(),
		UserID:    c.UserID.Hex(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Create stores the comment. It reports domain.ErrNotFound when the event
// does not exist.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	oid, err := newObjectID(comment.ID)
	if err != nil {
		return err
	}
	eventID, err := parseID(comment.EventID)
	if err != nil {
		return err
	}
	userID, err := parseID(comment.UserID)
	if err != nil {
		return err
	}

	n, err := r.events.CountDocuments(ctx, bson.D{{Key: "_id", Value: eventID}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count event: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	now := r.now()
	doc := commentDB{ID: oid, EventID: eventID, UserID: userID, Text: comment.Text, CreatedAt: now, UpdatedAt: now}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = oid.Hex()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc commentDB
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}

func (r *CommentRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Comment, error) {
	eid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "event_id", Value: eid}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var docs []commentDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	comments := make([]domain.Comment, len(docs))
	for i, d := range docs {
		comments[i] = d.toModel()
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	oid, err := parseID(comment.ID)
	if err != nil {
		return err
	}
	now := r.now()
	res, err := r.coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: bson.D{
		{Key: "text", Value: comment.Text},
		{Key: "updated_at", Value: now},
	}}})
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	comment.UpdatedAt = now
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
