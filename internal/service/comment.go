package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/eventhub/internal/domain"
)

// CommentService handles comments on events. Only a comment's author may
// edit or delete it.
type CommentService struct {
	comments domain.CommentRepository
	events   domain.EventRepository
	users    domain.UserRepository
	validate *validator.Validate
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments domain.CommentRepository, events domain.EventRepository, users domain.UserRepository) *CommentService {
	return &CommentService{
		comments: comments,
		events:   events,
		users:    users,
		validate: newValidator(),
	}
}

// CreateCommentInput is the data accepted when commenting.
type CreateCommentInput struct {
	EventID     string `json:"eventID" validate:"required"`
	CommentText string `json:"commentText" validate:"required"`
}

// UpdateCommentInput carries the new comment text, if any.
type UpdateCommentInput struct {
	CommentText *string `json:"commentText" validate:"omitempty,min=1"`
}

// Create posts a comment by the caller on an existing event.
func (s *CommentService) Create(ctx context.Context, caller domain.Identity, in CreateCommentInput) (*domain.CommentDetails, error) {
	in.CommentText = plainText(in.CommentText)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	if _, err := s.events.GetByID(ctx, in.EventID); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	comment := &domain.Comment{
		EventID: in.EventID,
		UserID:  caller.UserID,
		Text:    in.CommentText,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	out, err := s.withAuthors(ctx, []domain.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListByEvent returns the comments on an event, oldest first.
func (s *CommentService) ListByEvent(ctx context.Context, eventID string) ([]domain.CommentDetails, error) {
	comments, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.withAuthors(ctx, comments)
}

// Update replaces the comment text when one is given.
func (s *CommentService) Update(ctx context.Context, id string, caller domain.Identity, in UpdateCommentInput) (*domain.CommentDetails, error) {
	comment, err := s.authored(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if in.CommentText != nil {
		*in.CommentText = plainText(*in.CommentText)
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	if in.CommentText != nil {
		comment.Text = *in.CommentText
		if err := s.comments.Update(ctx, comment); err != nil {
			return nil, fmt.Errorf("update comment: %w", err)
		}
	}

	out, err := s.withAuthors(ctx, []domain.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Delete removes the comment.
func (s *CommentService) Delete(ctx context.Context, id string, caller domain.Identity) error {
	if _, err := s.authored(ctx, id, caller); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) authored(ctx context.Context, id string, caller domain.Identity) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != caller.UserID {
		return nil, domain.ErrUnauthorized
	}
	return comment, nil
}

func (s *CommentService) withAuthors(ctx context.Context, comments []domain.Comment) ([]domain.CommentDetails, error) {
	out := make([]domain.CommentDetails, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	byID := make(map[string]domain.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	for i, c := range comments {
		author, ok := byID[c.UserID]
		if !ok {
			author = domain.UserSummary{ID: c.UserID}
		}
		out[i] = domain.CommentDetails{Comment: c, Author: author}
	}
	return out, nil
}
