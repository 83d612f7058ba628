package port

import (
	"context"
	"errors"
)

// Session is a transaction-scoped handle to the database, owned by exactly
// one request.
type Session interface {
	Commit(ctx context.Context) error
	// Close rolls back anything not committed. It is safe to call more than
	// once and after Commit.
	Close(ctx context.Context) error
}

type SessionProvider interface {
	Open(ctx context.Context) (Session, error)
}

var ErrSessionClosed = errors.New("session already closed")
