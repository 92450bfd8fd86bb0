package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// TimeLogStore implements repository.TimeLogRepository over SQLite.
type TimeLogStore struct {
	conn *sql.DB
}

var _ repository.TimeLogRepository = (*TimeLogStore)(nil)

// Create persists a time-log entry against a task.
func (s *TimeLogStore) Create(ctx context.Context, log *model.TimeLog) error {
	log.CreatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO time_logs (user_id, task_id, start_time, end_time, duration_minutes, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.UserID,
		log.TaskID,
		log.StartTime,
		nullTime(log.EndTime),
		log.DurationMinutes,
		log.Description,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting time log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted time log id: %w", err)
	}
	log.ID = id

	return nil
}

// HoursLogged sums logged work in hours for one user, or for everyone when
// userID <= 0.
func (s *TimeLogStore) HoursLogged(ctx context.Context, userID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(duration_minutes), 0) FROM time_logs`
	var args []any
	if userID > 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	var minutes int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&minutes); err != nil {
		return 0, fmt.Errorf("sqlite: summing logged time: %w", err)
	}
	return float64(minutes) / 60.0, nil
}
