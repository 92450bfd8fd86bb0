package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// TokenStore implements repository.TokenRepository over SQLite.
type TokenStore struct {
	conn *sql.DB
}

var _ repository.TokenRepository = (*TokenStore)(nil)

// Revoke records a token ID as logged out. Revoking the same token twice is
// a no-op, which keeps logout idempotent. Expired rows are purged
// opportunistically on each write so the table never needs a sweeper.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now()); err != nil {
		return fmt.Errorf("sqlite: purging expired revocations: %w", err)
	}

	if _, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		tokenID, expiresAt); err != nil {
		return fmt.Errorf("sqlite: revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token ID has been revoked by logout.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, tokenID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking token revocation: %w", err)
	}
	return n > 0, nil
}
