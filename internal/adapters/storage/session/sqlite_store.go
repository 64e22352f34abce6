package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reportconsole/internal/adapters/storage"
	"reportconsole/internal/domain/account"
)

// SQLiteStore implements Store on the console_session table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a session store backed by SQLite.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Save creates or replaces the session for id.
// PRE: id is non-empty, sess.Valid()
// POST: Row for id holds sess
func (s *SQLiteStore) Save(ctx context.Context, id string, sess account.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO console_session (id, token, role, department, user_id, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, role = excluded.role, department = excluded.department,
		   user_id = excluded.user_id, email = excluded.email, created_at = excluded.created_at`,
		id, sess.Token, string(sess.Role), sess.Department, sess.UserID, sess.Email, sess.CreatedAt.UTC().Format(storage.TimeLayout))
	return err
}

// Get returns the session for id.
// PRE: id is non-empty
// POST: Expired rows are deleted and reported as ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string) (account.Session, error) {
	var sess account.Session
	var role, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, role, department, user_id, email, created_at FROM console_session WHERE id = ?`, id).
		Scan(&sess.Token, &role, &sess.Department, &sess.UserID, &sess.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Session{}, ErrNotFound
	}
	if err != nil {
		return account.Session{}, err
	}
	sess.Role = account.Role(role)
	sess.CreatedAt, _ = time.Parse(storage.TimeLayout, createdAt)

	if s.now().Sub(sess.CreatedAt) > TTL {
		if err := s.Delete(ctx, id); err != nil {
			return account.Session{}, err
		}
		return account.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session for id.
// POST: No row for id remains
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM console_session WHERE id = ?`, id)
	return err
}

// DeleteExpired removes every session older than TTL and returns how many were removed.
// POST: No row older than TTL remains
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-TTL).UTC().Format(storage.TimeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM console_session WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
