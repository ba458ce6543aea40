package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

const (
	CodesFile    = "reference_codes.json"
	SessionsFile = "browser_sessions.json"
)

// errNothingToDo aborts an Update without rewriting the file.
var errNothingToDo = errors.New("store: nothing to do")

// Store groups the two file-backed tables living in one data directory.
type Store struct {
	Codes    *CodeRepository
	Sessions *SessionRepository
}

func New(dataDir string) *Store {
	return &Store{
		Codes:    NewCodeRepository(filepath.Join(dataDir, CodesFile)),
		Sessions: NewSessionRepository(filepath.Join(dataDir, SessionsFile)),
	}
}

// Init seeds missing tables. Safe to call on every start.
func (s *Store) Init(ctx context.Context, logger *slog.Logger) error {
	created, err := s.Codes.Init(ctx)
	if err != nil {
		return fmt.Errorf("init reference codes: %w", err)
	}
	if created {
		logger.Info("reference code table seeded", "path", s.Codes.table.Path())
	}

	created, err = s.Sessions.Init(ctx)
	if err != nil {
		return fmt.Errorf("init browser sessions: %w", err)
	}
	if created {
		logger.Info("browser session table created", "path", s.Sessions.table.Path())
	}

	return nil
}

// Ping checks both tables can be read.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.Codes.Ping(ctx); err != nil {
		return err
	}
	return s.Sessions.Ping(ctx)
}
