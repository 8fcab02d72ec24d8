package domain

import (
	"context"
	"time"
)

// Comment is a user's remark on an event.
type Comment struct {
	ID        string
	EventID   string
	UserID    string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentDetails is a comment with its author resolved.
type CommentDetails struct {
	Comment
	Author UserSummary
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	ListByEvent(ctx context.Context, eventID string) ([]Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id string) error
}
