package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportconsole/internal/adapters/backend"
	sessionstore "reportconsole/internal/adapters/storage/session"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/audit"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]account.Session
}

func newMemStore() *memStore { return &memStore{m: map[string]account.Session{}} }

func (s *memStore) Save(_ context.Context, id string, sess account.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = sess
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (account.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return account.Session{}, sessionstore.ErrNotFound
	}
	return sess, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

type fakeAuth struct {
	resp  backend.LoginResponse
	err   error
	calls int
}

func (f *fakeAuth) Login(context.Context, account.Credentials) (backend.LoginResponse, error) {
	f.calls++
	return f.resp, f.err
}

type memAudit struct{ events []audit.Event }

func (a *memAudit) Save(_ context.Context, e audit.Event) error {
	a.events = append(a.events, e)
	return nil
}

func (a *memAudit) actions() []audit.Action {
	var out []audit.Action
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func newTestManager(t *testing.T, resp backend.LoginResponse) (*Manager, *memStore, *fakeAuth, *memAudit) {
	store, auth, sink := newMemStore(), &fakeAuth{resp: resp}, &memAudit{}
	return NewManager(store, auth, sink), store, auth, sink
}

var creds = account.Credentials{Email: " jane@example.com ", Password: "pw"}

func TestLogin_Success(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"id": 42})
	m, store, _, sink := newTestManager(t, backend.LoginResponse{AccessToken: token, Role: "head_of_planning", Department: "Planning"})
	ctx := WithRequestInfo(context.Background(), RequestInfo{IP: "10.0.0.9", UserAgent: "test"})

	id, sess, err := m.Login(ctx, creds)
	require.NoError(t, err)
	assert.Len(t, id, 64)
	assert.Equal(t, account.Session{
		Token: token, Role: account.RoleHeadOfPlanning, Department: "Planning",
		UserID: "42", Email: "jane@example.com", CreatedAt: sess.CreatedAt,
	}, sess)

	got, ok := m.Current(ctx, id)
	require.True(t, ok)
	assert.Equal(t, sess, *got)
	assert.Len(t, store.m, 1)

	require.Len(t, sink.events, 1)
	assert.Equal(t, audit.ActionLogin, sink.events[0].Action)
	assert.Equal(t, "10.0.0.9", sink.events[0].IPAddress)
	assert.Equal(t, account.Allow, account.Authorize(got, account.RoleHeadOfPlanning))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m, _, auth, _ := newTestManager(t, backend.LoginResponse{})
	_, _, err := m.Login(context.Background(), account.Credentials{Email: "", Password: "x"})
	assert.ErrorIs(t, err, account.ErrEmptyEmail)
	assert.Zero(t, auth.calls, "invalid input never reaches the backend")
}

func TestLogin_BackendRejects(t *testing.T) {
	m, store, auth, sink := newTestManager(t, backend.LoginResponse{})
	auth.err = &backend.ValidationError{Status: 401, Message: "Invalid credentials"}

	_, _, err := m.Login(context.Background(), creds)
	var ve *backend.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, store.m)
	assert.Equal(t, []audit.Action{audit.ActionLoginFail}, sink.actions())
	assert.Equal(t, "Invalid credentials", sink.events[0].Description)
	assert.Equal(t, audit.SeverityWarning, sink.events[0].Severity)
}

func TestLogin_UnknownRole(t *testing.T) {
	m, store, _, _ := newTestManager(t, backend.LoginResponse{AccessToken: "x", Role: "superuser"})
	_, _, err := m.Login(context.Background(), creds)
	assert.ErrorIs(t, err, ErrUnexpectedRole)
	assert.Empty(t, store.m)
}

func TestLogin_MissingToken(t *testing.T) {
	m, store, _, _ := newTestManager(t, backend.LoginResponse{Role: "admin"})
	_, _, err := m.Login(context.Background(), creds)
	var se *backend.ServerError
	assert.ErrorAs(t, err, &se)
	assert.Empty(t, store.m)
}

func TestLogout_ClearsSession(t *testing.T) {
	m, _, _, sink := newTestManager(t, backend.LoginResponse{AccessToken: signedToken(t, jwt.MapClaims{"id": 1}), Role: "admin"})
	var ended []string
	m.OnEnd(func(id string) { ended = append(ended, id) })

	ctx := context.Background()
	id, _, err := m.Login(ctx, creds)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, id))
	assert.Equal(t, []string{id}, ended)
	sess, ok := m.Current(ctx, id)
	assert.False(t, ok)
	assert.Nil(t, sess)
	assert.Equal(t, account.RedirectLogin, account.Authorize(sess, ""), "cleared session redirects to login")
	assert.Equal(t, []audit.Action{audit.ActionLogin, audit.ActionLogout}, sink.actions())

	require.NoError(t, m.Logout(ctx, id), "logging out twice is harmless")
	assert.Len(t, sink.actions(), 2, "no audit entry for an already-ended session")
	assert.NoError(t, m.Logout(ctx, ""))
}

func TestHandleUnauthorized(t *testing.T) {
	m, _, _, sink := newTestManager(t, backend.LoginResponse{AccessToken: signedToken(t, jwt.MapClaims{"sub": "u-9"}), Role: "department_user"})
	ctx := context.Background()
	id, sess, err := m.Login(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "u-9", sess.UserID)

	m.HandleUnauthorized(ctx)
	_, ok := m.Current(ctx, id)
	assert.True(t, ok, "no session in context: nothing to invalidate")

	m.HandleUnauthorized(WithSession(ctx, id, sess))
	_, ok = m.Current(ctx, id)
	assert.False(t, ok)
	assert.Equal(t, []audit.Action{audit.ActionLogin, audit.ActionInvalidate}, sink.actions())
}

// TestInvalidateOn401 wires the manager to a real backend client: any 401 on an
// authenticated call must end the console session.
func TestInvalidateOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Token has expired"})
	}))
	defer srv.Close()

	client := backend.New(srv.URL)
	m, _, _, _ := newTestManager(t, backend.LoginResponse{AccessToken: signedToken(t, jwt.MapClaims{"id": 5}), Role: "department_user"})
	client.OnUnauthorized(m.HandleUnauthorized)
	var ended []string
	m.OnEnd(func(id string) { ended = append(ended, id) })

	ctx := context.Background()
	id, sess, err := m.Login(ctx, creds)
	require.NoError(t, err)

	_, err = client.History(WithSession(ctx, id, sess), backend.HistoryParams{Page: 1, PerPage: 10})
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))
	assert.Equal(t, []string{id}, ended)
	_, ok := m.Current(ctx, id)
	assert.False(t, ok)
}

// TestCurrent_ExpiredSessionEnds covers sessions that vanish from the store
// without a logout, as TTL expiry does.
func TestCurrent_ExpiredSessionEnds(t *testing.T) {
	m, store, _, sink := newTestManager(t, backend.LoginResponse{AccessToken: signedToken(t, jwt.MapClaims{"id": 3}), Role: "admin"})
	var ended []string
	m.OnEnd(func(id string) { ended = append(ended, id) })

	ctx := context.Background()
	id, _, err := m.Login(ctx, creds)
	require.NoError(t, err)
	_, ok := m.Current(ctx, id)
	require.True(t, ok)
	assert.Empty(t, ended, "a live session does not end")

	require.NoError(t, store.Delete(ctx, id))
	_, ok = m.Current(ctx, id)
	assert.False(t, ok)
	assert.Equal(t, []string{id}, ended)
	assert.Equal(t, []audit.Action{audit.ActionLogin}, sink.actions(), "expiry is not audited as a logout")

	_, ok = m.Current(ctx, "")
	assert.False(t, ok)
	assert.Len(t, ended, 1, "no listener call without an id")
}

func TestContextHelpers(t *testing.T) {
	sess := account.Session{Token: "t", Role: account.RoleAdmin}
	ctx := WithSession(context.Background(), "sid", sess)

	id, got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "sid", id)
	assert.Equal(t, sess, got)

	tok, ok := backend.TokenFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t", tok)

	_, _, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestUserIDClaim(t *testing.T) {
	assert.Equal(t, "42", userIDClaim(signedToken(t, jwt.MapClaims{"id": 42})))
	assert.Equal(t, "abc", userIDClaim(signedToken(t, jwt.MapClaims{"id": "abc", "sub": "other"})))
	assert.Equal(t, "7", userIDClaim(signedToken(t, jwt.MapClaims{"sub": "7"})))
	assert.Equal(t, "", userIDClaim(signedToken(t, jwt.MapClaims{"role": "admin"})))
	assert.Equal(t, "", userIDClaim("not-a-jwt"))
}
