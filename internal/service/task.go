package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

const maxTitleLength = 200

// TaskService owns the task lifecycle: creation, visibility-scoped reads,
// updates, assignee changes, deletion, and time logging.
type TaskService struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logs   repository.TimeLogRepository
	logger *slog.Logger
}

func NewTaskService(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	logs repository.TimeLogRepository,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{tasks: tasks, users: users, logs: logs, logger: logger}
}

// CreateTaskInput carries the fields a caller may set when creating a task.
// Zero values fall back to defaults (type "task", priority "medium", status
// "pending", assignee = caller).
type CreateTaskInput struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	TaskType       model.TaskType     `json:"task_type"`
	Priority       model.TaskPriority `json:"priority"`
	Status         model.TaskStatus   `json:"status"`
	AssigneeID     int64              `json:"assignee_id"`
	AssigneeIDs    []int64            `json:"assignee_ids"`
	EstimatedHours float64            `json:"estimated_hours"`
	StartDate      *time.Time         `json:"start_date"`
	DueDate        *time.Time         `json:"due_date"`
	IsPublic       bool               `json:"is_public"`
	Tags           string             `json:"tags"`
}

// UpdateTaskInput is a partial update: nil fields are left untouched.
type UpdateTaskInput struct {
	Title          *string             `json:"title"`
	Description    *string             `json:"description"`
	TaskType       *model.TaskType     `json:"task_type"`
	Priority       *model.TaskPriority `json:"priority"`
	Status         *model.TaskStatus   `json:"status"`
	EstimatedHours *float64            `json:"estimated_hours"`
	ActualHours    *float64            `json:"actual_hours"`
	StartDate      *time.Time          `json:"start_date"`
	DueDate        *time.Time          `json:"due_date"`
	IsPublic       *bool               `json:"is_public"`
	Tags           *string             `json:"tags"`
}

// TimeLogInput records work done against a task. When DurationMinutes is
// zero it is derived from the start/end pair.
type TimeLogInput struct {
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Description     string     `json:"description"`
}

// TaskPage is one page of a task listing plus the unpaginated total.
type TaskPage struct {
	Items []model.Task `json:"items"`
	Total int          `json:"total"`
}

// Create validates and persists a new task authored by the caller.
//
// A regular user may only create tasks assigned to themself; assigning
// someone else requires the admin role. Whenever the additional-assignee
// set is non-empty the primary assignee is folded into it, so membership
// checks never need to special-case the primary.
func (s *TaskService) Create(ctx context.Context, ident auth.Identity, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, apperror.ValidationFailed("title", "title must be 200 characters or fewer")
	}
	if input.EstimatedHours < 0 {
		return nil, apperror.ValidationFailed("estimated_hours", "estimated hours cannot be negative")
	}

	taskType := input.TaskType
	if taskType == "" {
		taskType = model.TypeTask
	}
	if !taskType.Valid() {
		return nil, apperror.ValidationFailed("task_type", "unknown task type")
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperror.ValidationFailed("priority", "unknown priority")
	}

	status := input.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", "unknown status")
	}

	assigneeID := input.AssigneeID
	if assigneeID == 0 {
		assigneeID = ident.UserID
	}
	if !ident.IsAdmin() && assigneeID != ident.UserID {
		return nil, apperror.Forbidden("only admins may assign tasks to other users")
	}
	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		return nil, err
	}
	for _, id := range input.AssigneeIDs {
		if id == assigneeID {
			continue
		}
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	task := &model.Task{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Slug:           slugify(title) + "-" + xid.New().String(),
		TaskType:       taskType,
		Priority:       priority,
		Status:         status,
		AuthorID:       ident.UserID,
		AssigneeID:     assigneeID,
		AssigneeIDs:    normalizeAssignees(assigneeID, input.AssigneeIDs),
		EstimatedHours: input.EstimatedHours,
		StartDate:      input.StartDate,
		DueDate:        input.DueDate,
		IsActive:       true,
		IsPublic:       input.IsPublic,
		Tags:           model.NormalizeTags(input.Tags),
	}
	if status == model.StatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.ID, "author_id", task.AuthorID, "assignee_id", task.AssigneeID)
	return task, nil
}

// CreateForUser is the admin-only variant that creates a task on behalf of
// another user, identified by email.
func (s *TaskService) CreateForUser(ctx context.Context, ident auth.Identity, assigneeEmail string, input CreateTaskInput) (*model.Task, error) {
	if !ident.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}

	assignee, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(assigneeEmail)))
	if err != nil {
		return nil, err
	}

	input.AssigneeID = assignee.ID
	return s.Create(ctx, ident, input)
}

// Get returns a task the caller is allowed to see. A task that exists but
// is invisible to the caller is reported as not found, indistinguishable
// from a task that does not exist.
func (s *TaskService) Get(ctx context.Context, ident auth.Identity, id int64) (*model.Task, error) {
	return s.visibleTask(ctx, ident, id)
}

// ListForCaller returns the caller's page of visible tasks: authored,
// primarily assigned, or in the additional-assignee set.
func (s *TaskService) ListForCaller(ctx context.Context, ident auth.Identity, page, pageSize int, ascending bool) (*TaskPage, error) {
	opts, err := pageOptions(page, pageSize, ascending)
	if err != nil {
		return nil, err
	}

	items, err := s.tasks.ListForUser(ctx, ident.UserID, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.tasks.CountForUser(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}

	return &TaskPage{Items: items, Total: total}, nil
}

// ListAll is the admin-only system-wide listing with optional filters.
func (s *TaskService) ListAll(ctx context.Context, ident auth.Identity, filter repository.TaskFilter, page, pageSize int) (*TaskPage, error) {
	if !ident.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "unknown status")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperror.ValidationFailed("priority", "unknown priority")
	}

	opts, err := pageOptions(page, pageSize, false)
	if err != nil {
		return nil, err
	}

	items, err := s.tasks.ListAll(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.tasks.CountAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TaskPage{Items: items, Total: total}, nil
}

// Update applies a partial update to a visible task. Writes are
// last-write-wins; there is no optimistic locking.
func (s *TaskService) Update(ctx context.Context, ident auth.Identity, id int64, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.visibleTask(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
		if len(title) > maxTitleLength {
			return nil, apperror.ValidationFailed("title", "title must be 200 characters or fewer")
		}
		task.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if len(description) < 10 {
			return nil, apperror.ValidationFailed("description", "description must be at least 10 characters")
		}
		task.Description = description
	}
	if input.TaskType != nil {
		if !input.TaskType.Valid() {
			return nil, apperror.ValidationFailed("task_type", "unknown task type")
		}
		task.TaskType = *input.TaskType
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperror.ValidationFailed("priority", "unknown priority")
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperror.ValidationFailed("status", "unknown status")
		}
		applyStatus(task, *input.Status)
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 {
			return nil, apperror.ValidationFailed("estimated_hours", "estimated hours cannot be negative")
		}
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		if *input.ActualHours < 0 {
			return nil, apperror.ValidationFailed("actual_hours", "actual hours cannot be negative")
		}
		task.ActualHours = *input.ActualHours
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.IsPublic != nil {
		task.IsPublic = *input.IsPublic
	}
	if input.Tags != nil {
		task.Tags = model.NormalizeTags(*input.Tags)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", task.ID, "user_id", ident.UserID)
	return task, nil
}

// ChangeStatus moves a task to the given status. Any status may follow any
// other; regressing a completed task clears its completion timestamp.
func (s *TaskService) ChangeStatus(ctx context.Context, ident auth.Identity, id int64, status model.TaskStatus) (*model.Task, error) {
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", "unknown status")
	}

	task, err := s.visibleTask(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	applyStatus(task, status)

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task status changed",
		"task_id", task.ID, "status", task.Status, "user_id", ident.UserID)
	return task, nil
}

// UpdateTitle renames a task.
func (s *TaskService) UpdateTitle(ctx context.Context, ident auth.Identity, id int64, title string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, apperror.ValidationFailed("title", "title must be 200 characters or fewer")
	}

	task, err := s.visibleTask(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	task.Title = title

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ChangeAssignee hands a task to a different primary assignee, looked up by
// email. Only the author, the current primary assignee, or an admin may
// reassign. The handover resets the task to pending: the new assignee
// starts from a clean state regardless of how far the previous one got.
func (s *TaskService) ChangeAssignee(ctx context.Context, ident auth.Identity, id int64, email string) (*model.Task, error) {
	task, err := s.visibleTask(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if !s.canAdminister(ident, task) {
		return nil, apperror.Forbidden("only the author, the assignee, or an admin may reassign a task")
	}

	newAssignee, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	oldAssigneeID := task.AssigneeID
	task.AssigneeID = newAssignee.ID
	if len(task.AssigneeIDs) > 0 {
		replaced := make([]int64, 0, len(task.AssigneeIDs))
		for _, memberID := range task.AssigneeIDs {
			if memberID == oldAssigneeID {
				continue
			}
			replaced = append(replaced, memberID)
		}
		task.AssigneeIDs = normalizeAssignees(newAssignee.ID, replaced)
	}
	applyStatus(task, model.StatusPending)

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task reassigned",
		"task_id", task.ID, "from", oldAssigneeID, "to", newAssignee.ID, "by", ident.UserID)
	return task, nil
}

// Delete removes a task. Visibility gates existence (404); among viewers,
// only the author, the primary assignee, or an admin may delete (403).
func (s *TaskService) Delete(ctx context.Context, ident auth.Identity, id int64) error {
	task, err := s.visibleTask(ctx, ident, id)
	if err != nil {
		return err
	}
	if !s.canAdminister(ident, task) {
		return apperror.Forbidden("only the author, the assignee, or an admin may delete a task")
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", task.ID, "user_id", ident.UserID)
	return nil
}

// LogTime records work done against a visible task and rolls the duration
// into the task's actual hours.
func (s *TaskService) LogTime(ctx context.Context, ident auth.Identity, taskID int64, input TimeLogInput) (*model.TimeLog, error) {
	task, err := s.visibleTask(ctx, ident, taskID)
	if err != nil {
		return nil, err
	}

	if input.StartTime.IsZero() {
		return nil, apperror.ValidationFailed("start_time", "start time is required")
	}
	duration := input.DurationMinutes
	if duration == 0 && input.EndTime != nil {
		duration = int(input.EndTime.Sub(input.StartTime).Minutes())
	}
	if duration < 0 {
		return nil, apperror.ValidationFailed("duration_minutes", "duration cannot be negative")
	}

	log := &model.TimeLog{
		UserID:          ident.UserID,
		TaskID:          task.ID,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		DurationMinutes: duration,
		Description:     strings.TrimSpace(input.Description),
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	task.ActualHours += float64(duration) / 60.0
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("time logged",
		"task_id", task.ID, "user_id", ident.UserID, "minutes", duration)
	return log, nil
}

// visibleTask loads a task and applies the visibility rule: author, primary
// assignee, additional assignee, or admin. Everyone else gets NotFound so
// task IDs cannot be enumerated.
func (s *TaskService) visibleTask(ctx context.Context, ident auth.Identity, id int64) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && task.AuthorID != ident.UserID && !task.HasAssignee(ident.UserID) {
		return nil, apperror.NotFound("task", id)
	}
	return task, nil
}

// canAdminister reports whether the caller may delete or reassign the task:
// author, primary assignee, or admin. Additional assignees can see and
// update a task but not dispose of it.
func (s *TaskService) canAdminister(ident auth.Identity, task *model.Task) bool {
	return ident.IsAdmin() || task.AuthorID == ident.UserID || task.AssigneeID == ident.UserID
}

// applyStatus sets the status and keeps CompletedAt consistent with it.
func applyStatus(task *model.Task, status model.TaskStatus) {
	task.Status = status
	if status == model.StatusCompleted {
		if task.CompletedAt == nil {
			now := time.Now()
			task.CompletedAt = &now
		}
	} else {
		task.CompletedAt = nil
	}
}

// normalizeAssignees folds the primary assignee into a non-empty additional
// set and deduplicates it. An empty set stays empty.
func normalizeAssignees(primaryID int64, additional []int64) []int64 {
	if len(additional) == 0 {
		return nil
	}
	seen := map[int64]struct{}{primaryID: {}}
	out := []int64{primaryID}
	for _, id := range additional {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// pageOptions converts 1-based page/pageSize into repository ListOptions.
func pageOptions(page, pageSize int, ascending bool) (repository.ListOptions, error) {
	if page < 1 {
		return repository.ListOptions{}, apperror.ValidationFailed("page", "page must be at least 1")
	}
	if pageSize < 1 || pageSize > 100 {
		return repository.ListOptions{}, apperror.ValidationFailed("page_size", "page size must be between 1 and 100")
	}
	return repository.ListOptions{
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		Ascending: ascending,
	}, nil
}

// slugify lowercases the title and replaces every non-alphanumeric run
// with a single hyphen. The caller appends a unique suffix, so collisions
// between identical titles are not a concern here.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
