// Package session owns the console sessions: it is the only code that creates,
// reads or destroys the Session record of a signed-in user.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reportconsole/internal/adapters/backend"
	sessionstore "reportconsole/internal/adapters/storage/session"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/audit"
)

// ErrUnexpectedRole is returned when the backend grants a role the console does not know.
var ErrUnexpectedRole = errors.New("backend returned an unknown role")

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Login(ctx context.Context, creds account.Credentials) (backend.LoginResponse, error)
}

// AuditSink receives session audit events.
type AuditSink interface {
	Save(ctx context.Context, event audit.Event) error
}

// Manager creates, reads and ends console sessions.
type Manager struct {
	store sessionstore.Store
	auth  Authenticator
	audit AuditSink
	now   func() time.Time
	newID func() (string, error)

	mu    sync.RWMutex
	onEnd []func(id string)
}

// NewManager creates a session manager. audit may be nil.
func NewManager(store sessionstore.Store, auth Authenticator, sink AuditSink) *Manager {
	return &Manager{
		store: store,
		auth:  auth,
		audit: sink,
		now:   time.Now,
		newID: generateID,
	}
}

// OnEnd registers fn to run with the session id whenever a session ends by
// logout or invalidation.
func (m *Manager) OnEnd(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

// Login exchanges creds with the backend and stores a new session.
// PRE: none
// POST: On success returns the new session id and its Session; nothing is stored on failure
func (m *Manager) Login(ctx context.Context, creds account.Credentials) (string, account.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return "", account.Session{}, err
	}

	resp, err := m.auth.Login(ctx, creds)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", creds.Email, "error", err)
		m.record(ctx, audit.NewEvent("", creds.Email, "", audit.CategorySession, audit.ActionLoginFail).
			WithSeverity(audit.SeverityWarning).
			WithDescription(backend.UserMessage(err, "backend unavailable")))
		return "", account.Session{}, err
	}

	role, err := account.ParseRole(resp.Role)
	if err != nil {
		slog.Warn("auth_event", "event", "login_rejected", "email", creds.Email, "role", resp.Role)
		return "", account.Session{}, fmt.Errorf("%w: %q", ErrUnexpectedRole, resp.Role)
	}

	sess := account.Session{
		Token:      resp.AccessToken,
		Role:       role,
		Department: resp.Department,
		UserID:     userIDClaim(resp.AccessToken),
		Email:      creds.Email,
		CreatedAt:  m.now(),
	}
	if !sess.Valid() {
		return "", account.Session{}, &backend.ServerError{Status: 200, Message: "login response carried no access token"}
	}

	id, err := m.newID()
	if err != nil {
		return "", account.Session{}, fmt.Errorf("generate session id: %w", err)
	}
	if err := m.store.Save(ctx, id, sess); err != nil {
		return "", account.Session{}, fmt.Errorf("save session: %w", err)
	}

	slog.Info("auth_event", "event", "login_success", "email", sess.Email, "role", sess.Role, "user_id", sess.UserID)
	m.record(ctx, audit.NewEvent(sess.UserID, sess.Email, string(sess.Role), audit.CategorySession, audit.ActionLogin))
	return id, sess, nil
}

// Current returns the live session for id.
// POST: Returns false for unknown, expired or unreadable sessions; for unknown and
// expired ids the OnEnd listeners have run
func (m *Manager) Current(ctx context.Context, id string) (*account.Session, bool) {
	if id == "" {
		return nil, false
	}
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, sessionstore.ErrNotFound) {
		m.notifyEnd(id)
		return nil, false
	}
	if err != nil {
		slog.Error("internal_error", "op", "session.Current", "error", err)
		return nil, false
	}
	return &sess, true
}

// Logout ends the session for id.
// POST: Current(id) reports false and OnEnd listeners have run
func (m *Manager) Logout(ctx context.Context, id string) error {
	return m.end(ctx, id, audit.ActionLogout, "logout")
}

// Invalidate ends the session for id after the backend rejected its token.
// POST: Current(id) reports false and OnEnd listeners have run
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	return m.end(ctx, id, audit.ActionInvalidate, "session_invalidated")
}

// HandleUnauthorized invalidates the session carried by ctx. It is registered as
// the backend client's 401 handler.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	id, _, ok := FromContext(ctx)
	if !ok {
		return
	}
	if err := m.Invalidate(context.WithoutCancel(ctx), id); err != nil {
		slog.Error("internal_error", "op", "session.Invalidate", "error", err)
	}
}

func (m *Manager) end(ctx context.Context, id string, action audit.Action, event string) error {
	if id == "" {
		return nil
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
		return fmt.Errorf("load session: %w", err)
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	m.notifyEnd(id)

	if sess.Valid() {
		slog.Info("auth_event", "event", event, "email", sess.Email, "role", sess.Role)
		m.record(ctx, audit.NewEvent(sess.UserID, sess.Email, string(sess.Role), audit.CategorySession, action))
	}
	return nil
}

// notifyEnd runs the OnEnd listeners for id. Listeners must tolerate ids they never saw.
func (m *Manager) notifyEnd(id string) {
	m.mu.RLock()
	listeners := append([]func(string){}, m.onEnd...)
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(id)
	}
}

func (m *Manager) record(ctx context.Context, e audit.Event) {
	if m.audit == nil {
		return
	}
	info := RequestInfoFromContext(ctx)
	if err := m.audit.Save(ctx, e.WithRequest(info.IP, info.UserAgent)); err != nil {
		slog.Error("internal_error", "op", "audit.Save", "action", e.Action, "error", err)
	}
}

// userIDClaim reads the "id" claim (falling back to "sub") from an access token
// without verifying it.
func userIDClaim(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		slog.Warn("auth_event", "event", "token_undecodable", "error", err)
		return ""
	}
	for _, key := range []string{"id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
