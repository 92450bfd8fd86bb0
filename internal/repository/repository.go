// Package repository declares the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
)

// ListOptions carries pagination and ordering for list queries.
// Ascending orders by creation (assignment) date, oldest first.
type ListOptions struct {
	Limit     int
	Offset    int
	Ascending bool
}

// TaskFilter narrows admin task listings. Zero values mean "no filter".
type TaskFilter struct {
	Status   model.TaskStatus
	Priority model.TaskPriority
}

// StatusCounts is the per-status breakdown used by the dashboards.
type StatusCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

// PerformerStat ranks a user by completed work for the admin dashboard.
type PerformerStat struct {
	UserID         int64   `json:"user_id"`
	UserName       string  `json:"user_name"`
	Email          string  `json:"email"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	HoursLogged    float64 `json:"hours_logged"`
}

type UserRepository interface {
	// Create persists a new user. Returns apperror.ErrConflict when the
	// email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns active users ordered by id.
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateRole(ctx context.Context, id int64, role model.Role) error
	Deactivate(ctx context.Context, id int64) error
	CountByRole(ctx context.Context) (map[model.Role]int, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	// ListForUser returns tasks where the user is author, primary
	// assignee, or in the additional-assignee set.
	ListForUser(ctx context.Context, userID int64, opts ListOptions) ([]model.Task, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
	// ListAll is the admin system-wide listing.
	ListAll(ctx context.Context, filter TaskFilter, opts ListOptions) ([]model.Task, error)
	CountAll(ctx context.Context, filter TaskFilter) (int, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id int64) error
	// StatusCounts aggregates task counts per status. userID <= 0 means
	// system-wide; otherwise scoped to the user's visible tasks.
	StatusCounts(ctx context.Context, userID int64) (StatusCounts, error)
	// Overdue returns tasks due before now and not completed, scoped like
	// StatusCounts.
	Overdue(ctx context.Context, userID int64, now time.Time) ([]model.Task, error)
	TopPerformers(ctx context.Context, limit int) ([]PerformerStat, error)
}

type TimeLogRepository interface {
	Create(ctx context.Context, log *model.TimeLog) error
	// HoursLogged sums logged hours; userID <= 0 means system-wide.
	HoursLogged(ctx context.Context, userID int64) (float64, error)
}

// TokenRepository is the server-side session state behind logout: revoked
// token IDs are remembered until the token would have expired anyway.
type TokenRepository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
