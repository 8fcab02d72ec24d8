package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/eventhub/internal/domain"
	"github.com/msomdec/eventhub/internal/service"
)

const (
	msgUserNotFound    = "User not found"
	msgEventNotFound   = "Event not found"
	msgCommentNotFound = "Comment not found"
)

// writeServiceError maps a service error to its HTTP response. notFound is
// the message used for domain.ErrNotFound. Unrecognized errors are logged
// and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: verr.Fields})
	case errors.Is(err, domain.ErrInvalidInput):
		writeMsg(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeMsg(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMsg(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, domain.ErrScheduleConflict):
		writeMsg(w, http.StatusBadRequest, "Organizer already has an event at this date and time")
	case errors.Is(err, domain.ErrAlreadyAttending):
		writeMsg(w, http.StatusBadRequest, "User already attending the event")
	case errors.Is(err, domain.ErrNotAttending):
		writeMsg(w, http.StatusBadRequest, "User not attending the event")
	case errors.Is(err, domain.ErrOrganizerCannotAttend):
		writeMsg(w, http.StatusBadRequest, "Organizers cannot attend events")
	case errors.Is(err, service.ErrOrganizerNotFound):
		writeMsg(w, http.StatusNotFound, "Organizer not found")
	case errors.Is(err, domain.ErrNotFound):
		writeMsg(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrUnauthorized):
		writeMsg(w, http.StatusUnauthorized, "User not authorized")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeMsg(w, http.StatusInternalServerError, "Server error")
	}
}

// writeBadJSON answers a body that could not be decoded.
func writeBadJSON(w http.ResponseWriter) {
	writeMsg(w, http.StatusBadRequest, "Invalid request body")
}
