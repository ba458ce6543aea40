package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type sessionRecord struct {
	Code      string `json:"code"`
	LastLogin string `json:"last_login"`
	UserAgent string `json:"user_agent"`
}

func (r sessionRecord) toDomain(fp string) (*domain.BrowserSession, error) {
	lastLogin, err := time.ParseInLocation(domain.LastLoginLayout, r.LastLogin, time.Local)
	if err != nil {
		return nil, domain.ErrStorageCorrupt.WithError(fmt.Errorf("session %s: last_login: %w", fp, err))
	}
	return &domain.BrowserSession{
		Fingerprint: fp,
		Code:        r.Code,
		LastLogin:   lastLogin,
		UserAgent:   r.UserAgent,
	}, nil
}

func newSessionRecord(s domain.BrowserSession) sessionRecord {
	return sessionRecord{
		Code:      s.Code,
		LastLogin: s.LastLogin.In(time.Local).Format(domain.LastLoginLayout),
		UserAgent: s.UserAgent,
	}
}

// SessionRepository stores browser sessions in browser_sessions.json.
type SessionRepository struct {
	table *Table[sessionRecord]
}

func NewSessionRepository(path string) *SessionRepository {
	return &SessionRepository{table: NewTable[sessionRecord](path)}
}

// Init creates an empty session table when the file does not exist.
func (r *SessionRepository) Init(ctx context.Context) (bool, error) {
	return r.table.Init(ctx, nil)
}

func (r *SessionRepository) GetSession(ctx context.Context, fingerprint string) (*domain.BrowserSession, error) {
	records, err := r.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	rec, ok := records[fingerprint]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return rec.toDomain(fingerprint)
}

// SaveSession creates or overwrites the session for s.Fingerprint.
func (r *SessionRepository) SaveSession(ctx context.Context, s domain.BrowserSession) error {
	err := r.table.Update(ctx, func(records map[string]sessionRecord) error {
		records[s.Fingerprint] = newSessionRecord(s)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (r *SessionRepository) ListSessions(ctx context.Context) ([]domain.BrowserSession, error) {
	records, err := r.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.BrowserSession, 0, len(records))
	for fp, rec := range records {
		s, err := rec.toDomain(fp)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, *s)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].LastLogin.After(sessions[j].LastLogin) })
	return sessions, nil
}

// DeleteSessionsBefore removes sessions whose last login is older than cutoff.
// Returns the number of deleted sessions.
func (r *SessionRepository) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0

	err := r.table.Update(ctx, func(records map[string]sessionRecord) error {
		for fp, rec := range records {
			s, err := rec.toDomain(fp)
			if err != nil {
				return err
			}
			if s.LastLogin.Before(cutoff) {
				delete(records, fp)
				deleted++
			}
		}
		if deleted == 0 {
			return errNothingToDo
		}
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}

	return deleted, nil
}

// DeleteSessionsByCode removes every session opened with code.
func (r *SessionRepository) DeleteSessionsByCode(ctx context.Context, code string) (int, error) {
	deleted := 0

	err := r.table.Update(ctx, func(records map[string]sessionRecord) error {
		for fp, rec := range records {
			if rec.Code == code {
				delete(records, fp)
				deleted++
			}
		}
		if deleted == 0 {
			return errNothingToDo
		}
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}

	return deleted, nil
}

// Ping checks that the table can be read.
func (r *SessionRepository) Ping(ctx context.Context) error {
	_, err := r.table.Load(ctx)
	return err
}
