package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/service"
)

// TaskHandler serves the task lifecycle routes.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// taskResponse decorates a task with the derived fields clients render
// directly. The embedded Task contributes its own JSON fields.
type taskResponse struct {
	model.Task
	IsOverdue          bool `json:"is_overdue"`
	ProgressPercentage int  `json:"progress_percentage"`
}

func newTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		Task:               *t,
		IsOverdue:          t.IsOverdue(time.Now()),
		ProgressPercentage: t.ProgressPercentage(),
	}
}

func newTaskResponses(tasks []model.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i := range tasks {
		out[i] = newTaskResponse(&tasks[i])
	}
	return out
}

// taskPageResponse is one page of tasks plus the unpaginated total.
type taskPageResponse struct {
	Items []taskResponse `json:"items"`
	Total int            `json:"total"`
}

// identity pulls the caller from context; on a RequireAuth-protected route
// it never fails, but be safe.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
	}
	return ident, ok
}

// HandleCreate creates a task authored by the caller.
//
// HTTP: POST /task/
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var input service.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.Create(r.Context(), ident, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

// HandleListForCaller returns the caller's visible tasks, paginated.
//
// HTTP: GET /task/assignee/tasks?skip=0&limit=10&is_ascending=false
func (h *TaskHandler) HandleListForCaller(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	page, pageSize, ascending := pagination(r)

	result, err := h.tasks.ListForCaller(r.Context(), ident, page, pageSize, ascending)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskPageResponse{
		Items: newTaskResponses(result.Items),
		Total: result.Total,
	})
}

// HandleGet returns one task.
//
// HTTP: GET /task/{taskID}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), ident, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /task/{taskID}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	var input service.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.Update(r.Context(), ident, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleChangeStatus moves a task to a new status.
//
// HTTP: PUT /task/status/{taskID} (JSON: {"status": "completed"})
func (h *TaskHandler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Status model.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.ChangeStatus(r.Context(), ident, taskID, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleUpdateTitle renames a task.
//
// HTTP: PUT /task/task_title/{taskID} (JSON: {"title": "..."})
func (h *TaskHandler) HandleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.UpdateTitle(r.Context(), ident, taskID, body.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleChangeAssignee hands the task to a new primary assignee by email.
//
// HTTP: PUT /task/change_assignee/{taskID} (JSON: {"email": "..."})
func (h *TaskHandler) HandleChangeAssignee(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	task, err := h.tasks.ChangeAssignee(r.Context(), ident, taskID, body.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleDelete removes a task.
//
// HTTP: DELETE /task/{taskID}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), ident, taskID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Task deleted successfully"})
}

// HandleLogTime records work against a task.
//
// HTTP: POST /task/{taskID}/timelog
func (h *TaskHandler) HandleLogTime(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	taskID, err := pathID(r, "taskID", "task")
	if err != nil {
		writeError(w, err)
		return
	}

	var input service.TimeLogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "malformed JSON body",
		})
		return
	}

	log, err := h.tasks.LogTime(r.Context(), ident, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, log)
}
