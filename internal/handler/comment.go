package handler

import (
	"net/http"

	"github.com/msomdec/eventhub/internal/service"
)

// CommentHandler handles comment requests.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// HandleCreate posts a comment.
// POST /api/comments
// Request: {"eventID":"...","commentText":"..."}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req service.CreateCommentInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	comment, err := h.comments.Create(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

// HandleListByEvent returns an event's comments, oldest first.
// GET /api/comments/event/{eventID}
func (h *CommentHandler) HandleListByEvent(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		writeServiceError(w, r, err, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTOs(comments))
}

// HandleUpdate edits the caller's comment.
// PUT /api/comments/{id}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req service.UpdateCommentInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	comment, err := h.comments.Update(r.Context(), r.PathValue("id"), id, req)
	if err != nil {
		writeServiceError(w, r, err, msgCommentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

// HandleDelete removes the caller's comment.
// DELETE /api/comments/{id}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := h.comments.Delete(r.Context(), r.PathValue("id"), id); err != nil {
		writeServiceError(w, r, err, msgCommentNotFound)
		return
	}
	writeMsg(w, http.StatusOK, "Comment removed")
}
