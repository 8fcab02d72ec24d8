package handler

import (
	"net/http"

	"github.com/msomdec/eventhub/internal/service"
)

// UserHandler handles registration, login and profile requests.
type UserHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *service.AuthService, users *service.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// HandleRegister creates an account.
// POST /api/users/register
// Request:  {"name","email","password","role","age","gender","profilePictureURL","country","city"}
// Response: {"token":"..."}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	_, token, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleLogin exchanges credentials for a token.
// POST /api/users/login
// Request:  {"email":"...","password":"..."}
// Response: {"token":"..."}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleGetProfile returns the caller's account.
// GET /api/users/profile
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	user, err := h.users.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateProfile changes the fields present in the body.
// PUT /api/users/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req service.UpdateProfileInput
	if err := readJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleGetUser returns any user's public record.
// GET /api/users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}
