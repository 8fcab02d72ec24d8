package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/eventhub/internal/domain"
)

// UserService reads and edits user profiles.
type UserService struct {
	users      domain.UserRepository
	validate   *validator.Validate
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		validate:   newValidator(),
		bcryptCost: bcryptCost,
	}
}

// UpdateProfileInput carries the fields to change. Nil fields are left as
// they are; a non-nil empty City or Country clears or resets it. Role is not
// editable.
type UpdateProfileInput struct {
	Name              *string `json:"name" validate:"omitempty,min=8"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Password          *string `json:"password" validate:"omitempty,strongpassword"`
	Age               *int    `json:"age" validate:"omitempty,min=16,max=100"`
	Gender            *string `json:"gender" validate:"omitempty,oneof=male female other"`
	ProfilePictureURL *string `json:"profilePictureURL" validate:"omitempty,picture"`
	Country           *string `json:"country"`
	City              *string `json:"city"`
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.GetByID(ctx, userID)
}

// GetByID returns any user's account.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the present fields of in to the caller's account.
// A new email must not belong to another user; a new password is re-hashed.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	if in.Name != nil {
		*in.Name = plainText(*in.Name)
	}
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if in.Email != nil && *in.Email != user.Email {
		other, err := s.users.GetByEmail(ctx, *in.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, domain.ErrDuplicateEmail
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Age != nil {
		user.Age = *in.Age
	}
	if in.Gender != nil {
		user.Gender = *in.Gender
	}
	if in.ProfilePictureURL != nil {
		user.ProfilePictureURL = *in.ProfilePictureURL
	}
	if in.Country != nil {
		user.Country = plainText(*in.Country)
		if user.Country == "" {
			user.Country = domain.DefaultCountry
		}
	}
	if in.City != nil {
		user.City = plainText(*in.City)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
