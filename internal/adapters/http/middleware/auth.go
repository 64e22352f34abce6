package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"reportconsole/internal/application/session"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/audit"
)

// SessionCookieName is the cookie carrying the console session id.
const SessionCookieName = "console_session"

// SessionReader loads the session for a console session id.
type SessionReader interface {
	Current(ctx context.Context, id string) (*account.Session, bool)
}

// Auth returns middleware that loads the session named by the cookie into the request context.
// It does NOT block unauthenticated requests; use a Guard for that.
func Auth(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.WithRequestInfo(r.Context(), session.RequestInfo{IP: ClientIP(r), UserAgent: r.UserAgent()})
			if id := SessionID(r); id != "" {
				if sess, ok := sessions.Current(ctx, id); ok {
					ctx = session.WithSession(ctx, id, *sess)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuditSink receives access-denied events.
type AuditSink interface {
	Save(ctx context.Context, event audit.Event) error
}

// Guard gates routes on the session loaded by Auth. Audit may be nil.
type Guard struct {
	Audit AuditSink
}

// View returns middleware that lets a request through only when the session's
// role may open view.
func (g Guard) View(view account.View) func(http.Handler) http.Handler {
	return g.gate(string(view), func(sess *account.Session) account.Decision {
		return account.AuthorizeView(sess, view)
	})
}

// Role returns middleware that demands role; an empty role demands only a valid session.
func (g Guard) Role(role account.Role) func(http.Handler) http.Handler {
	return g.gate(string(role), func(sess *account.Session) account.Decision {
		return account.Authorize(sess, role)
	})
}

func (g Guard) gate(target string, decide func(*account.Session) account.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sess, ok := session.FromContext(r.Context())
			var current *account.Session
			if ok {
				current = &sess
			}
			switch decide(current) {
			case account.Allow:
				next.ServeHTTP(w, r)
			case account.RedirectLogin:
				Deny(w, r, http.StatusUnauthorized, "/login")
			default:
				slog.Warn("auth_event", "event", "access_denied", "email", sess.Email, "role", sess.Role, "required", target, "path", r.URL.Path)
				g.recordDenied(r, sess, target)
				Deny(w, r, http.StatusForbidden, "/unauthorized")
			}
		})
	}
}

func (g Guard) recordDenied(r *http.Request, sess account.Session, target string) {
	if g.Audit == nil {
		return
	}
	e := audit.NewEvent(sess.UserID, sess.Email, string(sess.Role), audit.CategorySession, audit.ActionDenied).
		WithSeverity(audit.SeverityWarning).
		WithResource("route", r.URL.Path).
		WithDescription("requires " + target).
		WithRequest(ClientIP(r), r.UserAgent())
	if err := g.Audit.Save(r.Context(), e); err != nil {
		slog.Error("internal_error", "op", "audit.Save", "action", e.Action, "error", err)
	}
}

// Deny redirects browsers to location and answers other clients with status.
func Deny(w http.ResponseWriter, r *http.Request, status int, location string) {
	if WantsHTML(r) {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status), "redirect": location})
}

// WantsHTML reports whether the client is a browser expecting a page.
// Requests without an Accept header are treated as browsers.
func WantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

// SessionID returns the console session id from the request cookie, or "".
func SessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, id string, secure bool, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// ClientIP returns the remote host of the request without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
