package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"reportconsole/internal/domain/account"
)

const keyPrefix = "reportconsole:session:"

// RedisStore implements Store on Redis so several console instances can share sessions.
// Records are JSON values with a TTL expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redisURL and verifies the connection.
// PRE: redisURL is a redis:// or rediss:// URL
// POST: Returns a connected store or the parse/ping error
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	slog.Info("redis_connected", "addr", opt.Addr, "db", opt.DB)
	return &RedisStore{client: client}, nil
}

// record is the stored JSON shape.
type record struct {
	Token      string    `json:"token"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// Save creates or replaces the session for id with a TTL expiry.
// PRE: id is non-empty, sess.Valid()
// POST: Key for id holds sess and expires after TTL
func (s *RedisStore) Save(ctx context.Context, id string, sess account.Session) error {
	data, err := json.Marshal(record{
		Token:      sess.Token,
		Role:       string(sess.Role),
		Department: sess.Department,
		UserID:     sess.UserID,
		Email:      sess.Email,
		CreatedAt:  sess.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+id, data, TTL).Err()
}

// Get returns the session for id.
// PRE: id is non-empty
// POST: Returns ErrNotFound for missing or expired keys
func (s *RedisStore) Get(ctx context.Context, id string) (account.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return account.Session{}, ErrNotFound
	}
	if err != nil {
		return account.Session{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return account.Session{}, err
	}
	return account.Session{
		Token:      rec.Token,
		Role:       account.Role(rec.Role),
		Department: rec.Department,
		UserID:     rec.UserID,
		Email:      rec.Email,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// Delete removes the session for id.
// POST: Key for id no longer exists
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
