package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/eventhub/internal/domain"
)

func TestCommentRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	org := createUser(t, db, "Event Organizer", "org@example.com", domain.RoleOrganizer)
	cust := createUser(t, db, "Customer One", "c1@example.com", domain.RoleCustomer)
	e := createEvent(t, db, org.ID, "Meetup", "Cairo", time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))

	first := &domain.Comment{EventID: e.ID, UserID: cust.ID, Text: "first"}
	if err := db.Comments().Create(ctx, first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second := &domain.Comment{EventID: e.ID, UserID: org.ID, Text: "second"}
	if err := db.Comments().Create(ctx, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	list, err := db.Comments().ListByEvent(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("expected comments oldest first, got %+v", list)
	}

	first.Text = "edited"
	if err := db.Comments().Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	found, err := db.Comments().GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Text != "edited" {
		t.Fatalf("expected edited text, got %q", found.Text)
	}

	if err := db.Comments().Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Comments().GetByID(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.Comments().Delete(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCommentRepository_Create_MissingEvent(t *testing.T) {
	db := newTestDB(t)
	cust := createUser(t, db, "Customer One", "c1@example.com", domain.RoleCustomer)

	err := db.Comments().Create(context.Background(), &domain.Comment{EventID: "missing", UserID: cust.ID, Text: "hi"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
