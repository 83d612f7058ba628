package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"simpletodo/internal/core/port"
)

type SessionProvider struct {
	db *DB
}

func NewSessionProvider(db *DB) *SessionProvider {
	return &SessionProvider{db: db}
}

func (p *SessionProvider) Open(ctx context.Context) (port.Session, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &Session{tx: tx}, nil
}

// Session wraps one pgx.Tx for the lifetime of a request.
type Session struct {
	mu   sync.Mutex
	tx   pgx.Tx
	done bool
}

func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return port.ErrSessionClosed
	}

	s.done = true

	return s.tx.Commit(ctx)
}

// Close rolls back with a context detached from cancellation, so a request
// aborted by the client still releases its connection.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}

	s.done = true

	return s.tx.Rollback(context.WithoutCancel(ctx))
}
