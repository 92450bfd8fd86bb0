package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// AdminHandler groups the admin-only routes. The RequireAdmin middleware
// has already rejected non-admin callers before these run, but the service
// layer re-checks the role anyway — defense in the layer that owns the
// rule, not just at the router.
type AdminHandler struct {
	tasks  *service.TaskService
	users  *service.UserService
	logger *slog.Logger
}

func NewAdminHandler(tasks *service.TaskService, users *service.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{tasks: tasks, users: users, logger: logger}
}

// HandleCreateTaskForUser creates a task assigned to a user by email.
//
// HTTP: POST /admin/task (JSON: create payload plus "assignee_email")
func (h *AdminHandler) HandleCreateTaskForUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var body struct {
		service.CreateTaskInput
		AssigneeEmail string `json:"assignee_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.CreateForUser(r.Context(), ident, body.AssigneeEmail, body.CreateTaskInput)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

// HandleListAllTasks is the system-wide task listing with filters.
//
// HTTP: GET /admin/tasks?status=pending&priority=high&skip=0&limit=10
func (h *AdminHandler) HandleListAllTasks(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	page, pageSize, _ := pagination(r)
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(r.URL.Query().Get("status")),
		Priority: model.TaskPriority(r.URL.Query().Get("priority")),
	}

	result, err := h.tasks.ListAll(r.Context(), ident, filter, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskPageResponse{
		Items: newTaskResponses(result.Items),
		Total: result.Total,
	})
}

// HandlePromote grants a user the admin role.
//
// HTTP: POST /admin/promote/{userID}
func (h *AdminHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	userID, err := pathID(r, "userID", "user")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Promote(r.Context(), ident, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleListUsers is the full user directory.
//
// HTTP: GET /admin/users?skip=0&limit=20
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	page, pageSize, _ := pagination(r)

	users, err := h.users.ListUsers(r.Context(), ident, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleDeactivateUser disables an account.
//
// HTTP: DELETE /admin/users/{userID}
func (h *AdminHandler) HandleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	userID, err := pathID(r, "userID", "user")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Deactivate(r.Context(), ident, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "User deactivated successfully"})
}
