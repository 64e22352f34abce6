package session

import (
	"context"
	"errors"
	"time"

	"reportconsole/internal/domain/account"
)

// TTL bounds how long a console session record is kept without a logout.
// The backend token may expire sooner; that is discovered on the next 401.
const TTL = 24 * time.Hour

// ErrNotFound is returned when no live session exists for an id.
var ErrNotFound = errors.New("session not found")

// Store persists console sessions keyed by the opaque cookie id.
type Store interface {
	// Save creates or replaces the session for id.
	// PRE: id is non-empty, sess.Valid()
	// POST: Get(id) returns sess until TTL elapses or Delete(id)
	Save(ctx context.Context, id string, sess account.Session) error

	// Get returns the session for id.
	// PRE: id is non-empty
	// POST: Returns ErrNotFound for unknown or expired ids
	Get(ctx context.Context, id string) (account.Session, error)

	// Delete removes the session for id. Deleting an unknown id is not an error.
	// POST: Get(id) returns ErrNotFound
	Delete(ctx context.Context, id string) error
}

// Ensure implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*RedisStore)(nil)
)
