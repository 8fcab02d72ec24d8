package domain

import (
	"context"
	"time"
)

// Role determines what a user may do with events.
type Role string

const (
	// RoleOrganizer may create and own events but never attend them.
	RoleOrganizer Role = "organizer"
	// RoleCustomer may attend events.
	RoleCustomer Role = "customer"
)

// DefaultCountry is stored when registration omits a country.
const DefaultCountry = "Egypt"

// User represents a registered account.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              Role
	Age               int
	Gender            string
	ProfilePictureURL string
	Country           string
	City              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserSummary is the slice of a user embedded in event and comment views.
type UserSummary struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Summary returns the user's public identity.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]User, error)
	// FindOrganizerByName returns the oldest organizer whose name contains
	// the given text, compared case-insensitively.
	FindOrganizerByName(ctx context.Context, name string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Identity is the authenticated caller carried by a session token.
type Identity struct {
	UserID string
	Role   Role
}
