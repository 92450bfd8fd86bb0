package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

const topPerformerLimit = 5

// DashboardService assembles the aggregate views. Each section is computed
// independently: a failing sub-query degrades to its zero value with a
// warning instead of failing the whole dashboard. Only when every section
// fails does the caller see an error.
type DashboardService struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logs   repository.TimeLogRepository
	logger *slog.Logger
}

func NewDashboardService(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	logs repository.TimeLogRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{tasks: tasks, users: users, logs: logs, logger: logger}
}

// UserDashboard summarizes the caller's own visible tasks.
type UserDashboard struct {
	TotalTasks       int          `json:"total_tasks"`
	PendingTasks     int          `json:"pending_tasks"`
	InProgressTasks  int          `json:"in_progress_tasks"`
	CompletedTasks   int          `json:"completed_tasks"`
	OverdueCount     int          `json:"overdue_count"`
	OverdueTasks     []model.Task `json:"overdue_tasks"`
	TotalHoursLogged float64      `json:"total_hours_logged"`
	CompletionRate   float64      `json:"completion_rate"`
	Degraded         bool         `json:"degraded,omitempty"`
}

// AdminDashboard extends the task aggregates with system-wide user stats.
type AdminDashboard struct {
	UserDashboard
	TotalUsers    int                        `json:"total_users"`
	UsersByRole   map[model.Role]int         `json:"users_by_role"`
	TopPerformers []repository.PerformerStat `json:"top_performers"`
}

// ForUser builds the caller-scoped dashboard.
func (s *DashboardService) ForUser(ctx context.Context, ident auth.Identity) (*UserDashboard, error) {
	dash, failures, sections := s.taskSections(ctx, ident.UserID)
	if failures == sections {
		return nil, apperror.Unavailable("dashboard")
	}
	return dash, nil
}

// ForAdmin builds the system-wide dashboard. Non-admin callers are
// rejected outright, not degraded.
func (s *DashboardService) ForAdmin(ctx context.Context, ident auth.Identity) (*AdminDashboard, error) {
	if !ident.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}

	taskDash, failures, sections := s.taskSections(ctx, 0)
	dash := &AdminDashboard{UserDashboard: *taskDash}
	sections += 2

	if counts, err := s.users.CountByRole(ctx); err != nil {
		failures++
		dash.Degraded = true
		s.logger.Warn("dashboard section failed", "section", "users_by_role", "error", err)
	} else {
		dash.UsersByRole = counts
		for _, n := range counts {
			dash.TotalUsers += n
		}
	}

	if performers, err := s.tasks.TopPerformers(ctx, topPerformerLimit); err != nil {
		failures++
		dash.Degraded = true
		s.logger.Warn("dashboard section failed", "section", "top_performers", "error", err)
	} else {
		dash.TopPerformers = performers
	}

	if failures == sections {
		return nil, apperror.Unavailable("dashboard")
	}
	return dash, nil
}

// taskSections computes the task-derived aggregates shared by both
// dashboards. userID <= 0 means system-wide. Returns how many of the
// sections failed so callers can decide between degraded and unavailable.
func (s *DashboardService) taskSections(ctx context.Context, userID int64) (dash *UserDashboard, failures, sections int) {
	dash = &UserDashboard{}
	sections = 3

	if counts, err := s.tasks.StatusCounts(ctx, userID); err != nil {
		failures++
		dash.Degraded = true
		s.logger.Warn("dashboard section failed", "section", "status_counts", "error", err)
	} else {
		dash.TotalTasks = counts.Total
		dash.PendingTasks = counts.Pending
		dash.InProgressTasks = counts.InProgress
		dash.CompletedTasks = counts.Completed
		if counts.Total > 0 {
			dash.CompletionRate = float64(counts.Completed) / float64(counts.Total) * 100
		}
	}

	if overdue, err := s.tasks.Overdue(ctx, userID, time.Now()); err != nil {
		failures++
		dash.Degraded = true
		s.logger.Warn("dashboard section failed", "section", "overdue", "error", err)
	} else {
		dash.OverdueTasks = overdue
		dash.OverdueCount = len(overdue)
	}

	if hours, err := s.logs.HoursLogged(ctx, userID); err != nil {
		failures++
		dash.Degraded = true
		s.logger.Warn("dashboard section failed", "section", "hours_logged", "error", err)
	} else {
		dash.TotalHoursLogged = hours
	}

	return dash, failures, sections
}
