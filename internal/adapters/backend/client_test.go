package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportconsole/internal/adapters/http/perf"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/service"
)

const testToken = "tok-abc"

// fakeBackend serves a handful of backend routes and records what it saw.
type fakeBackend struct {
	*httptest.Server
	mu   sync.Mutex
	last observed
}

type observed struct {
	auth  string
	query string
	body  map[string]any
}

func (fb *fakeBackend) seen() observed {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.last
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	capture := func(r *http.Request) observed {
		s := observed{auth: r.Header.Get("Authorization"), query: r.URL.RawQuery}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			json.Unmarshal(data, &s.body)
		}
		fb.mu.Lock()
		fb.last = s
		fb.mu.Unlock()
		return s
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authorized := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer "+testToken }

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if capture(r).body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": testToken, "role": "admin", "department": "IT"})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "first_name": "Jane", "last_name": "Doe", "email": "jane@example.com", "department": "Finance", "role": "department_user"},
		})
	})
	mux.HandleFunc("DELETE /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		if r.PathValue("id") != "7" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	})
	mux.HandleFunc("POST /departments", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Department already exists"})
	})
	mux.HandleFunc("DELETE /departments/{id}", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "integrity error"})
	})
	mux.HandleFunc("GET /services/history", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"history": []map[string]int{{"id": 3, "month": 2, "year": 2024, "service_count": 17}},
			"pagination": map[string]any{
				"page": 2, "per_page": 5, "total_pages": 3, "total_records": 12, "has_next": true, "has_prev": true,
			},
		})
	})
	mux.HandleFunc("PUT /services/update/{id}", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Record " + r.PathValue("id") + " updated"})
	})
	mux.HandleFunc("GET /reports", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"report":[{"department":"Finance","1":4,"2":null}]}`)
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		capture(r)
		io.WriteString(w, `{"first_name":`)
	})

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func authed() context.Context {
	return ContextWithToken(context.Background(), testToken)
}

func TestLogin(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL + "/")
	hookCalls := 0
	c.OnUnauthorized(func(context.Context) { hookCalls++ })

	resp, err := c.Login(context.Background(), account.Credentials{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, LoginResponse{AccessToken: testToken, Role: "admin", Department: "IT"}, resp)
	assert.Empty(t, fb.seen().auth, "login carries no bearer token")
	assert.Equal(t, "a@example.com", fb.seen().body["email"])

	_, err = c.Login(context.Background(), account.Credentials{Email: "a@example.com", Password: "wrong"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, http.StatusUnauthorized, ve.Status)
	assert.Equal(t, "Invalid credentials", UserMessage(err, "Login failed. Please try again."))
	assert.Zero(t, hookCalls, "bad credentials are not an expired session")
}

func TestAuthenticatedCall(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)

	users, err := c.Users(authed())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+testToken, fb.seen().auth)
	require.Len(t, users, 1)
	assert.Equal(t, directory.User{ID: 1, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Department: "Finance", Role: "department_user"}, users[0])

	_, err = c.Users(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

type ctxMarker struct{}

func TestUnauthorized_InvokesHook(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)
	var seen []string
	c.OnUnauthorized(func(ctx context.Context) {
		v, _ := ctx.Value(ctxMarker{}).(string)
		seen = append(seen, v)
	})

	ctx := context.WithValue(ContextWithToken(context.Background(), "expired"), ctxMarker{}, "sid-1")
	_, err := c.Users(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []string{"sid-1"}, seen, "hook runs once with the caller's context")
}

func TestErrorTaxonomy(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)

	_, err := c.CreateDepartment(authed(), directory.NewDepartment{Name: "Finance"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, http.StatusBadRequest, ve.Status)
	assert.Equal(t, "Department already exists", UserMessage(err, "Failed to add department"))

	err = c.DeleteUser(authed(), 8)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, http.StatusNotFound, ve.Status)
	assert.NoError(t, c.DeleteUser(authed(), 7))

	err = c.DeleteDepartment(authed(), 1)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"), "server errors never leak their text")

	_, err = c.Profile(authed())
	require.ErrorAs(t, err, &se, "truncated JSON is a server error")

	fb.Close()
	_, err = c.Users(authed())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "GET /users", ne.Op)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
}

func TestCancelledContext(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)
	ctx, cancel := context.WithCancel(authed())
	cancel()

	_, err := c.Users(ctx)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHistory(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)

	page, err := c.History(authed(), HistoryParams{Page: 2, PerPage: 5, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "page=2&per_page=5&year=2024", fb.seen().query, "zero month is not sent")
	assert.Equal(t, []service.Record{{ID: 3, Month: 2, Year: 2024, ServiceCount: 17}}, page.Records)
	assert.Equal(t, Pagination{Page: 2, PerPage: 5, TotalPages: 3, TotalRecords: 12, HasNext: true, HasPrev: true}, page.Pagination)
}

func TestUpdateService(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)

	msg, err := c.UpdateService(authed(), 3, service.Submission{Month: 2, Year: 2024, Count: 20})
	require.NoError(t, err)
	assert.Equal(t, "Record 3 updated", msg)
	assert.Equal(t, map[string]any{"month": float64(2), "year": float64(2024), "count": float64(20)}, fb.seen().body)
}

func TestReport(t *testing.T) {
	fb := newFakeBackend(t)
	c := New(fb.URL)

	rep, err := c.Report(authed(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "year=2024", fb.seen().query)
	assert.Equal(t, 2024, rep.Year)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "4", rep.Rows[0].Cell(1))
	assert.Equal(t, "", rep.Rows[0].Cell(2))
}

func TestCollectorRecordsRoutes(t *testing.T) {
	fb := newFakeBackend(t)
	collector := perf.NewCollector(10)
	c := New(fb.URL, WithCollector(collector, 0), WithTimeout(5*time.Second))

	require.NoError(t, c.DeleteUser(authed(), 7))
	_ = c.DeleteUser(authed(), 8)

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 5)
	require.Len(t, snap.SlowestUpstream, 1, "ids are folded into the route template")
	assert.Equal(t, "DELETE /users/{id}", snap.SlowestUpstream[0].Path)
	assert.Equal(t, 2, snap.SlowestUpstream[0].Count)
	assert.Equal(t, DefaultSlowUpstreamMs, int(c.slowMs))
}
