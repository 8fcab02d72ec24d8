package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/eventhub/internal/handler"
	"github.com/msomdec/eventhub/internal/service"
)

func newTestServer(t *testing.T, s handler.Services) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, s)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// do sends body as JSON and returns the response with its body read.
func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func decodeMsg(t *testing.T, body []byte) string {
	t.Helper()
	return decodeInto[handler.MessageResponse](t, body).Msg
}

type account struct {
	ID    string
	Token string
}

func register(t *testing.T, srv *httptest.Server, name, email, role string) account {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/users/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": testPassword,
		"role":     role,
		"age":      28,
	})
	expectStatus(t, resp, body, http.StatusOK)
	token := decodeInto[handler.TokenResponse](t, body).Token
	if token == "" {
		t.Fatal("expected token from register")
	}

	resp, body = do(t, srv, http.MethodGet, "/api/users/profile", token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	return account{ID: decodeInto[handler.UserDTO](t, body).ID, Token: token}
}

func createEvent(t *testing.T, srv *httptest.Server, token, name, at string) handler.EventDTO {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/events", token, map[string]any{
		"name":        name,
		"description": "An evening of talks",
		"location":    "Cairo Opera House",
		"dateAndTime": at,
	})
	expectStatus(t, resp, body, http.StatusOK)
	return decodeInto[handler.EventDTO](t, body)
}

func TestIntegration_RegisterLoginProfile(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	acct := register(t, srv, "Integration User", "Integ@Example.com", "customer")

	resp, body := do(t, srv, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    "integ@example.com",
		"password": testPassword,
	})
	expectStatus(t, resp, body, http.StatusOK)
	if decodeInto[handler.TokenResponse](t, body).Token == "" {
		t.Fatal("expected token from login")
	}

	resp, body = do(t, srv, http.MethodGet, "/api/users/profile", acct.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	profile := decodeInto[map[string]any](t, body)
	if _, ok := profile["password"]; ok {
		t.Fatal("profile must not expose the password")
	}
	if _, ok := profile["passwordHash"]; ok {
		t.Fatal("profile must not expose the password hash")
	}
	if profile["email"] != "integ@example.com" || profile["country"] != "Egypt" {
		t.Fatalf("unexpected profile %v", profile)
	}

	resp, body = do(t, srv, http.MethodPut, "/api/users/profile", acct.Token, map[string]any{
		"city": "Alexandria",
		"age":  31,
	})
	expectStatus(t, resp, body, http.StatusOK)
	updated := decodeInto[handler.UserDTO](t, body)
	if updated.City != "Alexandria" || updated.Age != 31 || updated.Name != "Integration User" {
		t.Fatalf("unexpected updated profile %+v", updated)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/users/"+acct.ID, acct.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, srv, http.MethodGet, "/api/users/missing", acct.Token, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if msg := decodeMsg(t, body); msg != "User not found" {
		t.Fatalf("unexpected msg %q", msg)
	}
}

func TestIntegration_ProfileRequiresToken(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	resp, body := do(t, srv, http.MethodGet, "/api/users/profile", "", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestIntegration_RegisterValidation(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	resp, body := do(t, srv, http.MethodPost, "/api/users/register", "", map[string]any{
		"name":     "Short",
		"email":    "not-an-email",
		"password": "weak",
		"role":     "admin",
		"age":      12,
	})
	expectStatus(t, resp, body, http.StatusBadRequest)

	errs := decodeInto[handler.ValidationResponse](t, body).Errors
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
		if e.Message == "" {
			t.Fatalf("empty message for field %q", e.Field)
		}
	}
	for _, f := range []string{"name", "email", "password", "role", "age"} {
		if !fields[f] {
			t.Fatalf("expected error for %q, got %+v", f, errs)
		}
	}
}

func TestIntegration_RegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	register(t, srv, "Duplicate User", "dup@example.com", "customer")

	resp, body := do(t, srv, http.MethodPost, "/api/users/register", "", map[string]any{
		"name":     "Duplicate Again",
		"email":    "dup@example.com",
		"password": testPassword,
		"role":     "customer",
		"age":      20,
	})
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg := decodeMsg(t, body); msg != "User already exists" {
		t.Fatalf("unexpected msg %q", msg)
	}
}

func TestIntegration_LoginWrongPassword(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	register(t, srv, "Wrong Password", "wrong@example.com", "customer")

	for _, creds := range []map[string]string{
		{"email": "wrong@example.com", "password": "Bad!Passw0rd"},
		{"email": "nobody@example.com", "password": testPassword},
	} {
		resp, body := do(t, srv, http.MethodPost, "/api/users/login", "", creds)
		expectStatus(t, resp, body, http.StatusBadRequest)
		if msg := decodeMsg(t, body); msg != "Invalid credentials" {
			t.Fatalf("unexpected msg %q", msg)
		}
	}
}

func TestIntegration_MalformedBody(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/users/login", bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/users/login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIntegration_LoginRateLimited(t *testing.T) {
	s := newTestServices(t)
	s.AuthLimiter = service.NewRateLimiter(0.001, 2)
	t.Cleanup(s.AuthLimiter.Close)
	srv := newTestServer(t, s)

	creds := map[string]string{"email": "x@example.com", "password": testPassword}
	for range 2 {
		resp, body := do(t, srv, http.MethodPost, "/api/users/login", "", creds)
		expectStatus(t, resp, body, http.StatusBadRequest)
	}
	resp, body := do(t, srv, http.MethodPost, "/api/users/login", "", creds)
	expectStatus(t, resp, body, http.StatusTooManyRequests)
}

func TestIntegration_EventLifecycle(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	org := register(t, srv, "Olivia Organizer", "olivia@example.com", "organizer")
	other := register(t, srv, "Oscar Organizer", "oscar@example.com", "organizer")
	cust := register(t, srv, "Carla Customer", "carla@example.com", "customer")

	// Customers cannot create events.
	resp, body := do(t, srv, http.MethodPost, "/api/events", cust.Token, map[string]any{
		"name": "Not Allowed", "dateAndTime": "2030-06-01T18:00:00Z",
	})
	expectStatus(t, resp, body, http.StatusUnauthorized)

	event := createEvent(t, srv, org.Token, "Go Meetup", "2030-06-01T18:00:00Z")
	if event.Organizer.ID != org.ID || event.Organizer.Email != "olivia@example.com" {
		t.Fatalf("unexpected organizer %+v", event.Organizer)
	}
	if event.Attendees == nil || len(event.Attendees) != 0 {
		t.Fatalf("expected empty attendee list, got %v", event.Attendees)
	}

	// Same organizer, same instant.
	resp, body = do(t, srv, http.MethodPost, "/api/events", org.Token, map[string]any{
		"name": "Clash", "dateAndTime": "2030-06-01T18:00:00Z",
	})
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg := decodeMsg(t, body); msg != "Organizer already has an event at this date and time" {
		t.Fatalf("unexpected msg %q", msg)
	}

	// Another organizer may use the same instant.
	createEvent(t, srv, other.Token, "Rust Meetup", "2030-06-01T18:00:00Z")

	resp, body = do(t, srv, http.MethodGet, "/api/events", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if list := decodeInto[[]handler.EventDTO](t, body); len(list) != 2 {
		t.Fatalf("expected 2 events, got %d", len(list))
	}

	resp, body = do(t, srv, http.MethodGet, "/api/events/"+event.ID, "", nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, srv, http.MethodGet, "/api/events/missing", "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if msg := decodeMsg(t, body); msg != "Event not found" {
		t.Fatalf("unexpected msg %q", msg)
	}

	// Only the owner may update.
	resp, body = do(t, srv, http.MethodPut, "/api/events/"+event.ID, other.Token, map[string]any{"name": "Hijacked"})
	expectStatus(t, resp, body, http.StatusUnauthorized)

	resp, body = do(t, srv, http.MethodPut, "/api/events/"+event.ID, org.Token, map[string]any{"location": "Zamalek"})
	expectStatus(t, resp, body, http.StatusOK)
	updated := decodeInto[handler.EventDTO](t, body)
	if updated.Location != "Zamalek" || updated.Name != "Go Meetup" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	// Only the owner may delete.
	resp, body = do(t, srv, http.MethodDelete, "/api/events/"+event.ID, other.Token, nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)

	resp, body = do(t, srv, http.MethodDelete, "/api/events/"+event.ID, org.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if msg := decodeMsg(t, body); msg != "Event removed" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/events/"+event.ID, "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestIntegration_Attendance(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	org := register(t, srv, "Olivia Organizer", "olivia@example.com", "organizer")
	cust := register(t, srv, "Carla Customer", "carla@example.com", "customer")
	event := createEvent(t, srv, org.Token, "Go Meetup", "2030-06-01T18:00:00Z")
	path := "/api/events/" + event.ID + "/attend"

	resp, body := do(t, srv, http.MethodPost, path, cust.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if ids := decodeInto[[]string](t, body); len(ids) != 1 || ids[0] != cust.ID {
		t.Fatalf("unexpected attendees %v", ids)
	}

	resp, body = do(t, srv, http.MethodPost, path, cust.Token, nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg := decodeMsg(t, body); msg != "User already attending the event" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodPost, path, org.Token, nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg := decodeMsg(t, body); msg != "Organizers cannot attend events" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodDelete, path, cust.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if ids := decodeInto[[]string](t, body); ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty attendee array, got %s", body)
	}

	resp, body = do(t, srv, http.MethodDelete, path, cust.Token, nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
	if msg := decodeMsg(t, body); msg != "User not attending the event" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/events/missing/attend", cust.Token, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestIntegration_Search(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	olivia := register(t, srv, "Olivia Organizer", "olivia@example.com", "organizer")
	oscar := register(t, srv, "Oscar Planner", "oscar@example.com", "organizer")
	createEvent(t, srv, olivia.Token, "Go Meetup", "2030-06-01T18:00:00Z")
	createEvent(t, srv, olivia.Token, "Go Workshop", "2030-06-02T09:00:00Z")
	createEvent(t, srv, oscar.Token, "Jazz Night", "2030-06-01T21:00:00Z")

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?name=go", 2},
		{"?name=GO+MEET", 1},
		{"?location=opera", 3},
		{"?date=2030-06-01", 2},
		{"?date=2030-06-02&name=go", 1},
		{"?organizer=oscar", 1},
		{"?organizer=organizer&name=jazz", 0},
		{"?name=.*", 0},
	}
	for _, tt := range tests {
		resp, body := do(t, srv, http.MethodGet, "/api/events/search"+tt.query, "", nil)
		expectStatus(t, resp, body, http.StatusOK)
		if got := decodeInto[[]handler.EventDTO](t, body); len(got) != tt.want {
			t.Errorf("search %q: expected %d events, got %d", tt.query, tt.want, len(got))
		}
	}

	resp, body := do(t, srv, http.MethodGet, "/api/events/search?organizer=nobody", "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if msg := decodeMsg(t, body); msg != "Organizer not found" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/events/search?date=June+1st", "", nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
	if errs := decodeInto[handler.ValidationResponse](t, body).Errors; len(errs) != 1 || errs[0].Field != "date" {
		t.Fatalf("expected date validation error, got %s", body)
	}
}

func TestIntegration_Comments(t *testing.T) {
	srv := newTestServer(t, newTestServices(t))
	org := register(t, srv, "Olivia Organizer", "olivia@example.com", "organizer")
	cust := register(t, srv, "Carla Customer", "carla@example.com", "customer")
	event := createEvent(t, srv, org.Token, "Go Meetup", "2030-06-01T18:00:00Z")

	resp, body := do(t, srv, http.MethodPost, "/api/comments", cust.Token, map[string]string{
		"eventID":     event.ID,
		"commentText": "<b>Looking</b> forward to it",
	})
	expectStatus(t, resp, body, http.StatusOK)
	comment := decodeInto[handler.CommentDTO](t, body)
	if comment.CommentText != "Looking forward to it" {
		t.Fatalf("expected markup stripped, got %q", comment.CommentText)
	}
	if comment.User.ID != cust.ID || comment.User.Role != "customer" {
		t.Fatalf("unexpected author %+v", comment.User)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/comments", org.Token, map[string]string{
		"eventID":     event.ID,
		"commentText": "See you there",
	})
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, srv, http.MethodPost, "/api/comments", cust.Token, map[string]string{"eventID": event.ID})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = do(t, srv, http.MethodPost, "/api/comments", cust.Token, map[string]string{
		"eventID":     "missing",
		"commentText": "Hello",
	})
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = do(t, srv, http.MethodGet, "/api/comments/event/"+event.ID, "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	list := decodeInto[[]handler.CommentDTO](t, body)
	if len(list) != 2 || list[0].ID != comment.ID {
		t.Fatalf("expected 2 comments oldest first, got %+v", list)
	}

	resp, body = do(t, srv, http.MethodPut, "/api/comments/"+comment.ID, org.Token, map[string]string{"commentText": "Edited"})
	expectStatus(t, resp, body, http.StatusUnauthorized)

	resp, body = do(t, srv, http.MethodPut, "/api/comments/"+comment.ID, cust.Token, map[string]string{"commentText": "Edited"})
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[handler.CommentDTO](t, body).CommentText; got != "Edited" {
		t.Fatalf("expected edited text, got %q", got)
	}

	resp, body = do(t, srv, http.MethodDelete, "/api/comments/missing", cust.Token, nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if msg := decodeMsg(t, body); msg != "Comment not found" {
		t.Fatalf("unexpected msg %q", msg)
	}

	resp, body = do(t, srv, http.MethodDelete, "/api/comments/"+comment.ID, cust.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if msg := decodeMsg(t, body); msg != "Comment removed" {
		t.Fatalf("unexpected msg %q", msg)
	}

	// Deleting the event removes its remaining comments.
	resp, body = do(t, srv, http.MethodDelete, "/api/events/"+event.ID, org.Token, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, srv, http.MethodGet, "/api/comments/event/"+event.ID, "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if list := decodeInto[[]handler.CommentDTO](t, body); len(list) != 0 {
		t.Fatalf("expected no comments after event delete, got %d", len(list))
	}
}
