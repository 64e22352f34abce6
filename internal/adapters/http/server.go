// Package web serves the report console pages.
package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"reportconsole/internal/adapters/http/middleware"
	"reportconsole/internal/adapters/http/perf"
	auditStore "reportconsole/internal/adapters/storage/audit"
	"reportconsole/internal/application/lists"
	"reportconsole/internal/application/orchestrators"
	"reportconsole/internal/application/projections"
	"reportconsole/internal/domain/account"
)

// Backend is the part of the report backend the console screens call.
type Backend interface {
	lists.Source
	projections.ProfileSource
	projections.ReportSource
	orchestrators.ServiceWriter
	orchestrators.DirectoryWriter
	orchestrators.ProfileWriter
}

// SessionManager opens, reads and ends console sessions.
type SessionManager interface {
	orchestrators.SessionStarter
	middleware.SessionReader
	Logout(ctx context.Context, id string) error
}

// Deps holds the collaborators of the console handlers.
type Deps struct {
	Sessions  SessionManager
	Backend   Backend
	Lists     *lists.Registry
	Audit     auditStore.Store // optional: nil disables the audit trail
	Collector *perf.Collector  // optional: nil disables the perf page
	Now       func() time.Time
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
	SessionTTL         time.Duration
}

// Server renders the console pages.
type Server struct {
	deps    Deps
	opts    Options
	pages   map[string]*template.Template
	static  http.Handler
	limiter *middleware.RateLimiter
}

// NewServer parses the page templates and prepares the handlers.
// PRE: deps.Sessions, deps.Backend and deps.Lists are non-nil; opts.CSRFKey is 32 bytes
// POST: Returns an error if a template fails to parse
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	return &Server{
		deps:   deps,
		opts:   opts,
		pages:  pages,
		static: http.StripPrefix("/static/", http.FileServerFS(staticFS)),
	}, nil
}

// Routes returns the console routes without the outer middleware chain.
func (s *Server) Routes() *http.ServeMux {
	g := middleware.Guard{Audit: s.deps.Audit}
	view := func(v account.View, h http.HandlerFunc) http.Handler { return g.View(v)(h) }

	mux := http.NewServeMux()
	mux.Handle("GET /static/", s.static)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /unauthorized", s.handleUnauthorized)

	mux.Handle("GET /dashboard", view(account.ViewDashboard, s.handleDashboard))
	mux.Handle("POST /dashboard/services", view(account.ViewDashboard, s.handleSaveService))

	mux.Handle("GET /profile", view(account.ViewProfile, s.handleProfile))
	mux.Handle("POST /profile", view(account.ViewProfile, s.handleUpdateProfile))

	mux.Handle("GET /admin", view(account.ViewAdmin, s.handleAdmin))
	mux.Handle("POST /admin/users", view(account.ViewAdmin, s.handleRegisterUser))
	mux.Handle("POST /admin/users/{id}/delete", view(account.ViewAdmin, s.handleDeleteUser))
	mux.Handle("POST /admin/users/{id}/reset-password", view(account.ViewAdmin, s.handleResetPassword))
	mux.Handle("POST /admin/departments", view(account.ViewAdmin, s.handleCreateDepartment))
	mux.Handle("POST /admin/departments/{id}/delete", view(account.ViewAdmin, s.handleDeleteDepartment))
	mux.Handle("GET /admin/audit", view(account.ViewAdmin, s.handleAdminAudit))
	mux.Handle("GET /admin/perf", view(account.ViewAdmin, s.handleAdminPerf))

	mux.Handle("GET /reports", view(account.ViewReports, s.handleReports))
	mux.Handle("GET /reports/export", view(account.ViewReports, s.handleExportReport))

	mux.HandleFunc("/", s.handleFallback)
	return mux
}

// Handler returns the routes wrapped in the full middleware chain:
// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> routes.
func (s *Server) Handler() http.Handler {
	s.limiter = middleware.NewRateLimiter(s.opts.RateLimitPerSecond, time.Second)
	return middleware.Chain(s.Routes(),
		middleware.SecurityHeaders,
		middleware.CSRF(s.opts.CSRFKey, s.opts.SecureCookies, s.opts.TrustedOrigins),
		middleware.Auth(s.deps.Sessions),
		middleware.RateLimit(s.limiter),
		middleware.Timing(s.deps.Collector, s.opts.SlowRequestMs),
	)
}

// Close stops background work started by Handler.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
