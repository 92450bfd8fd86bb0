package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// UserStore implements repository.UserRepository over SQLite.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, password, first_name, last_name, role, is_active, created_at, updated_at`

// Create inserts a new user. The email UNIQUE constraint is checked first
// with a lookup so a duplicate surfaces as a clean apperror.Conflict rather
// than a driver-specific constraint error.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	var existing int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE email = ?`, user.Email,
	).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by email: %w", err)
	}
	if err == nil {
		return apperror.Conflict("user", "email already registered")
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (email, password, first_name, last_name, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	// AUTOINCREMENT assigned the ID — read it back into the model so the
	// caller holds the canonical record.
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by login email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// List returns active users ordered by id, paginated.
func (s *UserStore) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = 1
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// UpdateRole sets a user's role. Used by the explicit promotion operation —
// there is no general-purpose role write anywhere else.
func (s *UserStore) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating role for user %d: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

// Deactivate marks a user inactive. Rows are never deleted.
func (s *UserStore) Deactivate(ctx context.Context, id int64) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deactivating user %d: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

// CountByRole returns active user counts grouped by role.
func (s *UserStore) CountByRole(ctx context.Context) (map[model.Role]int, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM users WHERE is_active = 1 GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Role]int)
	for rows.Next() {
		var role model.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning role count: %w", err)
		}
		counts[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating role counts: %w", err)
	}

	return counts, nil
}

// scanUser reads a user row from a QueryRow result.
func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// requireRowsAffected converts a zero-row UPDATE/DELETE into NotFound.
func requireRowsAffected(result sql.Result, resource string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// clampListOptions applies the same defaults everywhere a ListOptions is
// consumed: limit 1–100 (default 20), non-negative offset.
func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
