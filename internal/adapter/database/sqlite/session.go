package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"simpletodo/internal/core/port"
)

type SessionProvider struct {
	db *DB
}

func NewSessionProvider(db *DB) *SessionProvider {
	return &SessionProvider{db: db}
}

func (p *SessionProvider) Open(ctx context.Context) (port.Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &Session{tx: tx}, nil
}

// Session wraps one *sql.Tx for the lifetime of a request.
type Session struct {
	mu   sync.Mutex
	tx   *sql.Tx
	done bool
}

func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return port.ErrSessionClosed
	}

	s.done = true

	return s.tx.Commit()
}

func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}

	s.done = true

	return s.tx.Rollback()
}
