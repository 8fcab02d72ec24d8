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

// UserRepository implements domain.UserRepository on the users collection.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

type userDB struct {
	ID                primitive.ObjectID `bson:"_id"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	Age               int                `bson:"age"`
	Gender            string             `bson:"gender,omitempty"`
	ProfilePictureURL string             `bson:"profile_picture_url,omitempty"`
	Country           string             `bson:"country"`
	City              string             `bson:"city,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (u userDB) toModel() domain.User {
	return domain.User{
		ID:                u.ID.Hex(),
		Name:              u.Name,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              domain.Role(u.Role),
		Age:               u.Age,
		Gender:            u.Gender,
		ProfilePictureURL: u.ProfilePictureURL,
		Country:           u.Country,
		City:              u.City,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	oid, err := newObjectID(user.ID)
	if err != nil {
		return err
	}
	now := r.now()
	doc := userDB{
		ID:                oid,
		Name:              user.Name,
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		Role:              string(user.Role),
		Age:               user.Age,
		Gender:            user.Gender,
		ProfilePictureURL: user.ProfilePictureURL,
		Country:           user.Country,
		City:              user.City,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = oid.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*domain.User, error) {
	var doc userDB
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	var docs []userDB
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toModel()
	}
	return users, nil
}

func (r *UserRepository) FindOrganizerByName(ctx context.Context, name string) (*domain.User, error) {
	filter := bson.D{
		{Key: "role", Value: string(domain.RoleOrganizer)},
		{Key: "name", Value: containsPattern(name)},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	u, err := r.findOne(ctx, filter, opts)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find organizer by name: %w", err)
	}
	return u, err
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := parseID(user.ID)
	if err != nil {
		return err
	}
	now := r.now()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: user.Name},
		{Key: "email", Value: user.Email},
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "age", Value: user.Age},
		{Key: "gender", Value: user.Gender},
		{Key: "profile_picture_url", Value: user.ProfilePictureURL},
		{Key: "country", Value: user.Country},
		{Key: "city", Value: user.City},
		{Key: "updated_at", Value: now},
	}}}

	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}
