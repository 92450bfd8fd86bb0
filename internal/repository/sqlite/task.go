package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// TaskStore implements repository.TaskRepository over SQLite.
type TaskStore struct {
	conn *sql.DB
}

var _ repository.TaskRepository = (*TaskStore)(nil)

const taskColumns = `id, title, description, slug, task_type, priority, status,
	author_id, assignee_id, estimated_hours, actual_hours,
	start_date, due_date, completed_at, is_active, is_public, tags,
	created_at, updated_at`

// visibleTaskClause scopes a query to tasks the user may see: authored,
// primarily assigned, or member of the additional-assignee set. The three
// placeholders must all be bound to the same user ID.
const visibleTaskClause = `(author_id = ? OR assignee_id = ?
	OR id IN (SELECT task_id FROM task_assignees WHERE user_id = ?))`

// Create inserts a task and its additional-assignee rows in one
// transaction, so a half-written assignment set can never be observed.
func (s *TaskStore) Create(ctx context.Context, task *model.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning task insert: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (title, description, slug, task_type, priority, status,
			author_id, assignee_id, estimated_hours, actual_hours,
			start_date, due_date, completed_at, is_active, is_public, tags,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title,
		task.Description,
		task.Slug,
		task.TaskType,
		task.Priority,
		task.Status,
		task.AuthorID,
		task.AssigneeID,
		task.EstimatedHours,
		task.ActualHours,
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		task.IsActive,
		task.IsPublic,
		task.Tags,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted task id: %w", err)
	}
	task.ID = id

	if err := replaceAssignees(ctx, tx, task.ID, task.AssigneeIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing task insert: %w", err)
	}
	return nil
}

// GetByID retrieves a single task with its additional-assignee set loaded.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %d: %w", id, err)
	}

	if err := s.loadAssignees(ctx, []*model.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// ListForUser returns the caller's visible tasks ordered by creation date.
func (s *TaskStore) ListForUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Task, error) {
	limit, offset := clampListOptions(opts)

	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE ` + visibleTaskClause + `
		 ORDER BY created_at ` + sortDirection(opts.Ascending) + `, id ` + sortDirection(opts.Ascending) + `
		 LIMIT ? OFFSET ?`

	rows, err := s.conn.QueryContext(ctx, query, userID, userID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for user %d: %w", userID, err)
	}
	return s.collectTasks(ctx, rows, limit)
}

// CountForUser returns the total number of tasks visible to the user.
func (s *TaskStore) CountForUser(ctx context.Context, userID int64) (int, error) {
	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE `+visibleTaskClause,
		userID, userID, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting tasks for user %d: %w", userID, err)
	}
	return total, nil
}

// ListAll is the admin system-wide listing with optional status/priority
// filters, newest first.
func (s *TaskStore) ListAll(ctx context.Context, filter repository.TaskFilter, opts repository.ListOptions) ([]model.Task, error) {
	limit, offset := clampListOptions(opts)

	where, args := taskFilterClause(filter)
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+where+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing all tasks: %w", err)
	}
	return s.collectTasks(ctx, rows, limit)
}

// CountAll counts tasks matching the filter across the whole system.
func (s *TaskStore) CountAll(ctx context.Context, filter repository.TaskFilter) (int, error) {
	where, args := taskFilterClause(filter)

	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks`+where, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting all tasks: %w", err)
	}
	return total, nil
}

// Update persists the full task record and replaces its assignee rows.
// Last write wins — there is no version column.
func (s *TaskStore) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning task update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, task_type = ?, priority = ?, status = ?,
		     assignee_id = ?, estimated_hours = ?, actual_hours = ?,
		     start_date = ?, due_date = ?, completed_at = ?,
		     is_active = ?, is_public = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Description,
		task.TaskType,
		task.Priority,
		task.Status,
		task.AssigneeID,
		task.EstimatedHours,
		task.ActualHours,
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		task.IsActive,
		task.IsPublic,
		task.Tags,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %d: %w", task.ID, err)
	}
	if err := requireRowsAffected(result, "task", task.ID); err != nil {
		return err
	}

	if err := replaceAssignees(ctx, tx, task.ID, task.AssigneeIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing task update: %w", err)
	}
	return nil
}

// Delete hard-deletes a task; assignment and time-log rows go with it via
// ON DELETE CASCADE.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %d: %w", id, err)
	}
	return requireRowsAffected(result, "task", id)
}

// StatusCounts aggregates task counts per status, scoped to the user's
// visible tasks when userID > 0, system-wide otherwise.
func (s *TaskStore) StatusCounts(ctx context.Context, userID int64) (repository.StatusCounts, error) {
	query := `SELECT status, COUNT(*) FROM tasks`
	var args []any
	if userID > 0 {
		query += ` WHERE ` + visibleTaskClause
		args = append(args, userID, userID, userID)
	}
	query += ` GROUP BY status`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return repository.StatusCounts{}, fmt.Errorf("sqlite: counting tasks by status: %w", err)
	}
	defer rows.Close()

	var counts repository.StatusCounts
	for rows.Next() {
		var status model.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return repository.StatusCounts{}, fmt.Errorf("sqlite: scanning status count: %w", err)
		}
		counts.Total += n
		switch status {
		case model.StatusPending:
			counts.Pending = n
		case model.StatusInProgress:
			counts.InProgress = n
		case model.StatusCompleted:
			counts.Completed = n
		}
	}
	if err := rows.Err(); err != nil {
		return repository.StatusCounts{}, fmt.Errorf("sqlite: iterating status counts: %w", err)
	}

	return counts, nil
}

// Overdue returns tasks due before now and not completed, oldest due first.
func (s *TaskStore) Overdue(ctx context.Context, userID int64, now time.Time) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE due_date IS NOT NULL AND due_date < ? AND status != ?`
	args := []any{now, model.StatusCompleted}
	if userID > 0 {
		query += ` AND ` + visibleTaskClause
		args = append(args, userID, userID, userID)
	}
	query += ` ORDER BY due_date`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing overdue tasks: %w", err)
	}
	return s.collectTasks(ctx, rows, 16)
}

// TopPerformers ranks active users by completed assigned tasks, with their
// logged hours alongside.
func (s *TaskStore) TopPerformers(ctx context.Context, limit int) ([]repository.PerformerStat, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.email,
			COUNT(t.id),
			COALESCE(SUM(CASE WHEN t.status = ? THEN 1 ELSE 0 END), 0),
			COALESCE((SELECT SUM(duration_minutes) FROM time_logs WHERE user_id = u.id), 0)
		 FROM users u
		 LEFT JOIN tasks t ON t.assignee_id = u.id
		 WHERE u.is_active = 1
		 GROUP BY u.id
		 ORDER BY SUM(CASE WHEN t.status = ? THEN 1 ELSE 0 END) DESC, u.id
		 LIMIT ?`,
		model.StatusCompleted, model.StatusCompleted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ranking performers: %w", err)
	}
	defer rows.Close()

	stats := make([]repository.PerformerStat, 0, limit)
	for rows.Next() {
		var (
			stat       repository.PerformerStat
			first      string
			last       string
			minutesSum int
		)
		if err := rows.Scan(&stat.UserID, &first, &last, &stat.Email,
			&stat.TotalTasks, &stat.CompletedTasks, &minutesSum); err != nil {
			return nil, fmt.Errorf("sqlite: scanning performer row: %w", err)
		}
		stat.UserName = strings.TrimSpace(first + " " + last)
		if stat.UserName == "" {
			stat.UserName = stat.Email
		}
		stat.HoursLogged = float64(minutesSum) / 60.0
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating performers: %w", err)
	}

	return stats, nil
}

// replaceAssignees rewrites a task's additional-assignee rows inside the
// caller's transaction.
func replaceAssignees(ctx context.Context, tx *sql.Tx, taskID int64, assigneeIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("sqlite: clearing assignees for task %d: %w", taskID, err)
	}

	now := time.Now()
	for _, userID := range assigneeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id, assigned_at) VALUES (?, ?, ?)`,
			taskID, userID, now); err != nil {
			return fmt.Errorf("sqlite: assigning task %d to user %d: %w", taskID, userID, err)
		}
	}
	return nil
}

// collectTasks drains a task query and batch-loads assignee sets.
func (s *TaskStore) collectTasks(ctx context.Context, rows *sql.Rows, sizeHint int) ([]model.Task, error) {
	defer rows.Close()

	tasks := make([]model.Task, 0, sizeHint)
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	refs := make([]*model.Task, len(tasks))
	for i := range tasks {
		refs[i] = &tasks[i]
	}
	if err := s.loadAssignees(ctx, refs); err != nil {
		return nil, err
	}

	return tasks, nil
}

// loadAssignees fills AssigneeIDs for the given tasks with one query.
func (s *TaskStore) loadAssignees(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Task, len(tasks))
	placeholders := make([]string, 0, len(tasks))
	args := make([]any, 0, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
		placeholders = append(placeholders, "?")
		args = append(args, task.ID)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT task_id, user_id FROM task_assignees
		 WHERE task_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY assigned_at, user_id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading task assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, userID int64
		if err := rows.Scan(&taskID, &userID); err != nil {
			return fmt.Errorf("sqlite: scanning assignee row: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.AssigneeIDs = append(task.AssigneeIDs, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating assignees: %w", err)
	}

	return nil
}

// scanTask reads one task row; works for both Row.Scan and Rows.Scan.
func scanTask(scan func(dest ...any) error) (*model.Task, error) {
	var (
		t           model.Task
		startDate   sql.NullTime
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)
	err := scan(
		&t.ID, &t.Title, &t.Description, &t.Slug, &t.TaskType, &t.Priority, &t.Status,
		&t.AuthorID, &t.AssigneeID, &t.EstimatedHours, &t.ActualHours,
		&startDate, &dueDate, &completedAt, &t.IsActive, &t.IsPublic, &t.Tags,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.StartDate = timePtr(startDate)
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

func taskFilterClause(filter repository.TaskFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, filter.Priority)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func sortDirection(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
