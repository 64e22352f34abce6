package web

import (
	"net/http"

	"reportconsole/internal/adapters/http/middleware"
	"reportconsole/internal/application/orchestrators"
	"reportconsole/internal/application/session"
	"reportconsole/internal/domain/account"
)

type loginPage struct {
	Email string
	Error string
	Flash Flash
}

// handleLoginPage renders the login form (GET /login). Signed-in users go to their landing page.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, sess, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, account.LandingPath(sess.Role), http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, http.StatusOK, "login.html", loginPage{Flash: s.takeFlash(w, r)})
}

// handleLogin exchanges credentials for a console session (POST /login)
// PRE: Form carries email and password
// POST: On success the session cookie is set and the user is sent to the role's landing page
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{Sessions: s.deps.Sessions})
	if err != nil {
		msg := orchestrators.MessageFor(err, orchestrators.MsgLoginFailed)
		if !middleware.WantsHTML(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
			return
		}
		s.renderTemplate(w, r, http.StatusUnauthorized, "login.html", loginPage{Email: input.Email, Error: msg})
		return
	}

	if old := middleware.SessionID(r); old != "" && old != result.SessionID {
		s.endSession(r, old)
	}
	middleware.SetSessionCookie(w, result.SessionID, s.opts.SecureCookies, s.opts.SessionTTL)
	if !middleware.WantsHTML(r) {
		writeJSON(w, http.StatusOK, map[string]string{
			"role":       string(result.Session.Role),
			"department": result.Session.Department,
			"redirect":   result.Landing,
		})
		return
	}
	http.Redirect(w, r, result.Landing, http.StatusSeeOther)
}

// handleLogout ends the console session (POST /logout)
// POST: The session record and its list state are gone; the cookie is cleared
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.SessionID(r); id != "" {
		s.endSession(r, id)
	}
	middleware.ClearSessionCookie(w, s.opts.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) endSession(r *http.Request, id string) {
	if err := s.deps.Sessions.Logout(r.Context(), id); err != nil {
		internalErrorLog("session.Logout", err)
	}
}

// handleUnauthorized renders the access-denied page (GET /unauthorized).
func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, http.StatusForbidden, "unauthorized.html", nil)
}

// handleFallback sends unknown paths to the dashboard.
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleHealth reports liveness (GET /healthz).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
