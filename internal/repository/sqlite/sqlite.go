// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler at build time and
// painful cross-compilation. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works, and an in-memory database
// (":memory:") makes repository tests trivial.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and exposes one store per entity.
// The stores share the pool; the server hands each one out wherever the
// matching repository interface is expected.
type DB struct {
	conn *sql.DB

	Users    *UserStore
	Tasks    *TaskStore
	TimeLogs *TimeLogStore
	Tokens   *TokenStore
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database lives and dies with its connection, so the
	// pool must never open a second one — it would see an empty schema.
	if strings.Contains(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path or permissions problem
	// surfaces here rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — important
	// for a web server where every request hits the database.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:     conn,
		Users:    &UserStore{conn: conn},
		Tasks:    &TaskStore{conn: conn},
		TimeLogs: &TimeLogStore{conn: conn},
		Tokens:   &TokenStore{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'user',
			is_active  INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			slug            TEXT NOT NULL UNIQUE,
			task_type       TEXT NOT NULL DEFAULT 'task',
			priority        TEXT NOT NULL DEFAULT 'medium',
			status          TEXT NOT NULL DEFAULT 'pending',
			author_id       INTEGER NOT NULL REFERENCES users(id),
			assignee_id     INTEGER NOT NULL REFERENCES users(id),
			estimated_hours REAL NOT NULL DEFAULT 0,
			actual_hours    REAL NOT NULL DEFAULT 0,
			start_date      DATETIME,
			due_date        DATETIME,
			completed_at    DATETIME,
			is_active       INTEGER NOT NULL DEFAULT 1,
			is_public       INTEGER NOT NULL DEFAULT 0,
			tags            TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_assignee_id ON tasks(assignee_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_author_id ON tasks(author_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	// Many-to-many additional-assignee relationship. ON DELETE CASCADE so
	// a hard task delete takes its assignment rows with it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS task_assignees (
			task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			user_id     INTEGER NOT NULL REFERENCES users(id),
			assigned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (task_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_task_assignees_user_id ON task_assignees(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating task_assignees table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS time_logs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES users(id),
			task_id          INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			start_time       DATETIME NOT NULL,
			end_time         DATETIME,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			description      TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_time_logs_user_id ON time_logs(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating time_logs table: %w", err)
	}

	// Server-side logout state: a revoked jti stays here until the token
	// would have expired anyway, then gets purged lazily.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			jti        TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating revoked_tokens table: %w", err)
	}

	return nil
}
