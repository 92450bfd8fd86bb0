package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// UserHandler serves registration, profile, and the assignee directory.
type UserHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(authSvc *service.AuthService, users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: authSvc, users: users, logger: logger}
}

// HandleRegister creates a new account.
//
// HTTP: POST /user/ (JSON: email, password, first_name, last_name)
//
// The input struct has no role field, so a "role":"admin" in the request
// body is dropped during decoding — signup always yields a regular user.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	user, err := h.auth.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleMe returns the authenticated caller's own profile.
//
// HTTP: GET /user/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleListAssignees returns active users for assignment pickers.
//
// HTTP: GET /user/?skip=0&limit=20
func (h *UserHandler) HandleListAssignees(w http.ResponseWriter, r *http.Request) {
	page, pageSize, _ := pagination(r)

	users, err := h.users.ListAssignees(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleAvailableAssignees returns the users a task could be handed to.
//
// HTTP: GET /user/available-assignees/{taskID}
func (h *UserHandler) HandleAvailableAssignees(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.AvailableAssignees(r.Context(), ident, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
