package service

import (
	"context"
	"log/slog"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// UserService covers user directory reads and the admin-only account
// operations (promotion, deactivation).
type UserService struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, tasks repository.TaskRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, tasks: tasks, logger: logger}
}

// ListAssignees returns active users for assignment pickers. Any
// authenticated user may call it — assigning work requires knowing who
// exists.
func (s *UserService) ListAssignees(ctx context.Context, page, pageSize int) ([]model.User, error) {
	opts, err := pageOptions(page, pageSize, true)
	if err != nil {
		return nil, err
	}
	return s.users.List(ctx, opts)
}

// AvailableAssignees returns the active users a task could be handed to:
// everyone except the current primary assignee. Only someone allowed to
// reassign the task (author, primary assignee, admin) may ask.
func (s *UserService) AvailableAssignees(ctx context.Context, ident auth.Identity, taskID int64) ([]model.User, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && task.AuthorID != ident.UserID && !task.HasAssignee(ident.UserID) {
		return nil, apperror.NotFound("task", taskID)
	}
	if !ident.IsAdmin() && task.AuthorID != ident.UserID && task.AssigneeID != ident.UserID {
		return nil, apperror.Forbidden("only the author, the assignee, or an admin may reassign a task")
	}

	users, err := s.users.List(ctx, repository.ListOptions{Limit: 100})
	if err != nil {
		return nil, err
	}

	available := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID == task.AssigneeID {
			continue
		}
		available = append(available, u)
	}
	return available, nil
}

// ListUsers is the admin-only full directory listing.
func (s *UserService) ListUsers(ctx context.Context, ident auth.Identity, page, pageSize int) ([]model.User, error) {
	if !ident.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}
	opts, err := pageOptions(page, pageSize, true)
	if err != nil {
		return nil, err
	}
	return s.users.List(ctx, opts)
}

// Promote grants the admin role to a user. Promoting an existing admin is
// reported as a conflict rather than silently succeeding, so a mistyped ID
// does not go unnoticed.
func (s *UserService) Promote(ctx context.Context, ident auth.Identity, userID int64) (*model.User, error) {
	if !ident.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, apperror.Conflict("user", "already an admin")
	}

	if err := s.users.UpdateRole(ctx, userID, model.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = model.RoleAdmin

	s.logger.Info("user promoted to admin", "user_id", userID, "by", ident.UserID)
	return user, nil
}

// Deactivate disables a user account. The row is kept — authored tasks and
// time logs still reference it — but login and token validation both start
// failing immediately. Admins cannot deactivate themselves; that would
// strand a system with a single admin.
func (s *UserService) Deactivate(ctx context.Context, ident auth.Identity, userID int64) error {
	if !ident.IsAdmin() {
		return apperror.Forbidden("admin access required")
	}
	if userID == ident.UserID {
		return apperror.Forbidden("admins cannot deactivate their own account")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deactivated", "user_id", userID, "by", ident.UserID)
	return nil
}
