package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type BrowserSessionRepository struct {
	pool PgxPool
}

func NewBrowserSessionRepository(pool PgxPool) *BrowserSessionRepository {
	return &BrowserSessionRepository{pool: pool}
}

// GetSession retrieves the session bound to a fingerprint
func (r *BrowserSessionRepository) GetSession(ctx context.Context, fingerprint string) (*domain.BrowserSession, error) {
	query := `
		SELECT fingerprint, code, last_login, user_agent
		FROM browser_sessions
		WHERE fingerprint = $1
	`

	var s domain.BrowserSession
	err := r.pool.QueryRow(ctx, query, fingerprint).Scan(
		&s.Fingerprint,
		&s.Code,
		&s.LastLogin,
		&s.UserAgent,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("get session: %w", err))
	}

	return &s, nil
}

// SaveSession creates or overwrites a session
func (r *BrowserSessionRepository) SaveSession(ctx context.Context, s domain.BrowserSession) error {
	query := `
		INSERT INTO browser_sessions (fingerprint, code, last_login, user_agent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO UPDATE
		SET code = EXCLUDED.code, last_login = EXCLUDED.last_login, user_agent = EXCLUDED.user_agent
	`

	if _, err := r.pool.Exec(ctx, query, s.Fingerprint, s.Code, s.LastLogin, s.UserAgent); err != nil {
		return domain.ErrStorageUnavailable.WithError(fmt.Errorf("save session: %w", err))
	}

	return nil
}

// ListSessions returns sessions, most recent login first
func (r *BrowserSessionRepository) ListSessions(ctx context.Context) ([]domain.BrowserSession, error) {
	query := `
		SELECT fingerprint, code, last_login, user_agent
		FROM browser_sessions
		ORDER BY last_login DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("list sessions: %w", err))
	}
	defer rows.Close()

	sessions := []domain.BrowserSession{}
	for rows.Next() {
		var s domain.BrowserSession
		if err := rows.Scan(&s.Fingerprint, &s.Code, &s.LastLogin, &s.UserAgent); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.ErrStorageUnavailable.WithError(fmt.Errorf("iterate sessions: %w", err))
	}

	return sessions, nil
}

// DeleteSessionsBefore removes sessions whose last login is older than cutoff
// Returns the number of deleted sessions
func (r *BrowserSessionRepository) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM browser_sessions
		WHERE last_login < $1
	`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, domain.ErrStorageUnavailable.WithError(fmt.Errorf("delete sessions: %w", err))
	}

	return int(tag.RowsAffected()), nil
}

// DeleteSessionsByCode removes every session opened with code
func (r *BrowserSessionRepository) DeleteSessionsByCode(ctx context.Context, code string) (int, error) {
	query := `
		DELETE FROM browser_sessions
		WHERE code = $1
	`

	tag, err := r.pool.Exec(ctx, query, code)
	if err != nil {
		return 0, domain.ErrStorageUnavailable.WithError(fmt.Errorf("delete sessions by code: %w", err))
	}

	return int(tag.RowsAffected()), nil
}

// Ping checks database connectivity
func (r *BrowserSessionRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return domain.ErrStorageUnavailable.WithError(err)
	}
	return nil
}
