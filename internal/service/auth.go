package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/eventhub/internal/domain"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 100 * time.Hour

// AuthService handles user registration, login, and JWT token operations.
type AuthService struct {
	users      domain.UserRepository
	validate   *validator.Validate
	jwtSecret  []byte
	bcryptCost int
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService. A non-positive tokenTTL selects
// DefaultTokenTTL.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		users:      users,
		validate:   newValidator(),
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// RegisterInput is the data accepted when creating an account.
type RegisterInput struct {
	Name              string      `json:"name" validate:"required,min=8"`
	Email             string      `json:"email" validate:"required,email"`
	Password          string      `json:"password" validate:"required,strongpassword"`
	Role              domain.Role `json:"role" validate:"required,oneof=organizer customer"`
	Age               int         `json:"age" validate:"required,min=16,max=100"`
	Gender            string      `json:"gender" validate:"omitempty,oneof=male female other"`
	ProfilePictureURL string      `json:"profilePictureURL" validate:"omitempty,picture"`
	Country           string      `json:"country"`
	City              string      `json:"city"`
}

// Claims are the JWT claims of a session token. The subject is the user ID.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Register validates the input, creates the account and returns it together
// with a session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	in.Name = plainText(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.City = plainText(in.City)
	in.Country = plainText(in.Country)

	if err := validateStruct(s.validate, in); err != nil {
		return nil, "", err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	country := in.Country
	if country == "" {
		country = domain.DefaultCountry
	}
	user := &domain.User{
		Name:              in.Name,
		Email:             in.Email,
		PasswordHash:      hash,
		Role:              in.Role,
		Age:               in.Age,
		Gender:            in.Gender,
		ProfilePictureURL: in.ProfilePictureURL,
		Country:           country,
		City:              in.City,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns a signed JWT token string. Unknown
// emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", fmt.Errorf("generate jwt: %w", err)
	}
	return token, nil
}

// ValidateToken parses and validates a JWT token string and returns the
// identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	switch claims.Role {
	case domain.RoleOrganizer, domain.RoleCustomer:
	default:
		return domain.Identity{}, domain.ErrUnauthorized
	}

	return domain.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func (s *AuthService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
