package handler

import (
	"net/http"

	"github.com/msomdec/eventhub/internal/service"
)

// EventHandler handles event requests.
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// HandleCreate creates an event owned by the caller.
// POST /api/events
// Request: {"name","description","location","dateAndTime"}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req service.CreateEventInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	event, err := h.events.Create(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

// HandleList returns all events.
// GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// HandleGet returns one event.
// GET /api/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

// HandleUpdate changes the fields present in the body.
// PUT /api/events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req service.UpdateEventInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	event, err := h.events.Update(r.Context(), r.PathValue("id"), id, req)
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

// HandleDelete removes an event and its comments.
// DELETE /api/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := h.events.Delete(r.Context(), r.PathValue("id"), id); err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeMsg(w, http.StatusOK, "Event removed")
}

// HandleAttend adds the caller to the attendees.
// POST /api/events/{id}/attend
// Response: ["<user id>", ...]
func (h *EventHandler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	attendees, err := h.events.Attend(r.Context(), r.PathValue("id"), id)
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(attendees))
}

// HandleUnattend removes the caller from the attendees.
// DELETE /api/events/{id}/attend
func (h *EventHandler) HandleUnattend(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	attendees, err := h.events.Unattend(r.Context(), r.PathValue("id"), id)
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(attendees))
}

// HandleSearch filters events by query parameters.
// GET /api/events/search?name=&location=&date=YYYY-MM-DD&organizer=
func (h *EventHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.events.Search(r.Context(), service.SearchInput{
		Name:      q.Get("name"),
		Location:  q.Get("location"),
		Date:      q.Get("date"),
		Organizer: q.Get("organizer"),
	})
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
