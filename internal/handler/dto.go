package handler

import (
	"time"

	"github.com/msomdec/eventhub/internal/domain"
)

// MessageResponse is the body of simple status and error responses.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ValidationResponse lists rejected fields.
type ValidationResponse struct {
	Errors []domain.FieldError `json:"errors"`
}

// TokenResponse carries a session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserDTO is the JSON representation of a user. The password hash is never
// exposed.
type UserDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	Age               int    `json:"age"`
	Gender            string `json:"gender,omitempty"`
	ProfilePictureURL string `json:"profilePictureURL,omitempty"`
	Country           string `json:"country"`
	City              string `json:"city,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              string(u.Role),
		Age:               u.Age,
		Gender:            u.Gender,
		ProfilePictureURL: u.ProfilePictureURL,
		Country:           u.Country,
		City:              u.City,
		CreatedAt:         u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         u.UpdatedAt.Format(time.RFC3339),
	}
}

// OrganizerDTO is the organizer embedded in an event.
type OrganizerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventDTO is the JSON representation of an event.
type EventDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	DateAndTime string       `json:"dateAndTime"`
	Organizer   OrganizerDTO `json:"organizer"`
	Attendees   []string     `json:"attendees"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

func toEventDTO(e *domain.EventDetails) EventDTO {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return EventDTO{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		DateAndTime: e.DateAndTime.UTC().Format(time.RFC3339),
		Organizer: OrganizerDTO{
			ID:    e.Organizer.ID,
			Name:  e.Organizer.Name,
			Email: e.Organizer.Email,
		},
		Attendees: attendees,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}

func toEventDTOs(events []domain.EventDetails) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i := range events {
		dtos[i] = toEventDTO(&events[i])
	}
	return dtos
}

// AuthorDTO is the author embedded in a comment.
type AuthorDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// CommentDTO is the JSON representation of a comment.
type CommentDTO struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventID"`
	User        AuthorDTO `json:"user"`
	CommentText string    `json:"commentText"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

func toCommentDTO(c *domain.CommentDetails) CommentDTO {
	return CommentDTO{
		ID:      c.ID,
		EventID: c.EventID,
		User: AuthorDTO{
			ID:   c.Author.ID,
			Name: c.Author.Name,
			Role: string(c.Author.Role),
		},
		CommentText: c.Text,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

func toCommentDTOs(comments []domain.CommentDetails) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i := range comments {
		dtos[i] = toCommentDTO(&comments[i])
	}
	return dtos
}
