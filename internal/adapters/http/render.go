package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/csrf"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/adapters/http/middleware"
	"reportconsole/internal/application/listctl"
	"reportconsole/internal/application/session"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/report"
	"reportconsole/internal/domain/service"
)

//go:embed templates/*.html static
var assets embed.FS

const flashCookieName = "console_flash"

// baseFuncs are the template functions that do not depend on the request.
// Request-bound functions are declared here with placeholder bodies and
// replaced per render.
var baseFuncs = template.FuncMap{
	"add":       func(a, b int) int { return a + b },
	"sub":       func(a, b int) int { return a - b },
	"monthName": service.MonthName,
	"cell": func(r report.Row, month int) string {
		if c := r.Cell(month); c != "" {
			return c
		}
		return "-"
	},
	"pageURL":           pageURL,
	"csrfField":         func() template.HTML { return "" },
	"isLoggedIn":        func() bool { return false },
	"currentEmail":      func() string { return "" },
	"currentRole":       func() string { return "" },
	"currentDepartment": func() string { return "" },
	"canView":           func(string) bool { return false },
}

// pageURL builds the query string that moves a list to page while keeping its
// filters, search and page size. extra holds key/value pairs such as "tab", "users".
func pageURL(q listctl.Query, page int, extra ...string) template.URL {
	v := q.Values()
	v.Set("page", fmt.Sprint(page))
	for i := 0; i+1 < len(extra); i += 2 {
		v.Set(extra[i], extra[i+1])
	}
	return template.URL("?" + v.Encode())
}

// parsePages parses every page template together with the layout.
func parsePages() (map[string]*template.Template, error) {
	names, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(baseFuncs).ParseFS(assets, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		pages[base] = tpl
	}
	return pages, nil
}

// renderTemplate renders a page inside the layout with the given status.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	page, ok := s.pages[name]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", name))
		return
	}
	tpl, err := page.Clone()
	if err != nil {
		internalError(w, err)
		return
	}

	_, sess, loggedIn := session.FromContext(r.Context())
	tpl.Funcs(template.FuncMap{
		"csrfField":         func() template.HTML { return csrf.TemplateField(r) },
		"isLoggedIn":        func() bool { return loggedIn },
		"currentEmail":      func() string { return sess.Email },
		"currentRole":       func() string { return string(sess.Role) },
		"currentDepartment": func() string { return sess.Department },
		"canView":           func(v string) bool { return loggedIn && account.CanView(sess.Role, account.View(v)) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// respond renders name for browsers and JSON for other clients.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if !middleware.WantsHTML(r) {
		writeJSON(w, status, data)
		return
	}
	s.renderTemplate(w, r, status, name, data)
}

func isUnauthorized(err error) bool {
	return errors.Is(err, backend.ErrUnauthorized)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "op", "writeJSON", "error", err)
	}
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// fail answers a request whose backend work failed. A rejected token ends the
// session (the backend client has already invalidated it) and sends the user to login.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isUnauthorized(err) {
		middleware.ClearSessionCookie(w, s.opts.SecureCookies)
		middleware.Deny(w, r, http.StatusUnauthorized, "/login")
		return
	}
	internalError(w, err)
}

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

func (s *Server) setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   60,
	})
}

// takeFlash returns and clears the pending flash message.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return Flash{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.opts.SecureCookies})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return Flash{}
	}
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok || (kind != "success" && kind != "error") {
		return Flash{}
	}
	return Flash{Kind: kind, Message: msg}
}

// redirectWithFlash stores a flash message and redirects with 303.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, msg string) {
	if !middleware.WantsHTML(r) {
		status := http.StatusOK
		if kind == "error" {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{kind: msg})
		return
	}
	s.setFlash(w, kind, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func internalErrorLog(op string, err error) {
	slog.Error("internal_error", "op", op, "error", err)
}
