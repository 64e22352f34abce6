package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reportconsole/internal/adapters/http/middleware"
	"reportconsole/internal/adapters/http/perf"
	"reportconsole/internal/application/listutil"
	"reportconsole/internal/application/orchestrators"
	"reportconsole/internal/application/projections"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/directory"
)

type adminPage struct {
	projections.GetAdminResult
	UserForm       directory.NewUser
	DepartmentForm directory.NewDepartment
	PerPageOptions []int
	Flash          Flash
	status         int
}

// handleAdmin renders the users and departments tabs (GET /admin?tab=users|departments)
// PRE: Session is an admin
// POST: The active tab's list reflects the URL parameters
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.renderAdmin(w, r, adminPage{Flash: s.takeFlash(w, r)})
}

func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, page adminPage) {
	set := s.listsFor(r)
	tab := r.URL.Query().Get("tab")
	if page.Tab != "" {
		tab = page.Tab
	}
	res, err := projections.QueryGetAdmin(r.Context(), projections.GetAdminQuery{Tab: tab, Params: r.URL.Query()},
		projections.GetAdminDeps{Users: set.Users, Departments: set.Departments, Tabs: set})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page.GetAdminResult = res
	page.PerPageOptions = listutil.PerPageOptions
	if page.UserForm.Role == "" {
		page.UserForm.Role = account.RoleDepartmentUser
	}
	if page.status == 0 {
		page.status = http.StatusOK
	}
	s.respond(w, r, page.status, "admin.html", page)
}

func (s *Server) directoryDeps() orchestrators.DirectoryDeps {
	return orchestrators.DirectoryDeps{Directory: s.deps.Backend, Audit: s.deps.Audit}
}

func adminTab(tab string) string {
	return "/admin?" + url.Values{"tab": {tab}}.Encode()
}

// handleRegisterUser creates a user from the admin form (POST /admin/users).
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := directory.NewUser{
		FirstName:    r.FormValue("first_name"),
		LastName:     r.FormValue("last_name"),
		Email:        r.FormValue("email"),
		Password:     r.FormValue("password"),
		DepartmentID: r.FormValue("department_id"),
		Role:         account.Role(strings.TrimSpace(r.FormValue("role"))),
	}
	msg, err := orchestrators.ExecuteRegisterUser(r.Context(), form, s.directoryDeps())
	if err != nil {
		if m := orchestrators.MessageFor(err, ""); m != "" && middleware.WantsHTML(r) {
			form.Password = ""
			s.renderAdmin(w, r, adminPage{
				GetAdminResult: projections.GetAdminResult{Tab: projections.TabUsers},
				UserForm:       form,
				Flash:          Flash{Kind: "error", Message: m},
				status:         http.StatusUnprocessableEntity,
			})
			return
		}
		s.actionFailed(w, r, err, adminTab(projections.TabUsers), orchestrators.MsgUserAddFailed)
		return
	}
	s.redirectWithFlash(w, r, adminTab(projections.TabUsers), "success", msg)
}

// handleDeleteUser removes a user (POST /admin/users/{id}/delete).
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	msg, err := orchestrators.ExecuteDeleteUser(r.Context(), pathID(r), s.directoryDeps())
	s.afterAdminAction(w, r, projections.TabUsers, msg, err, orchestrators.MsgUserDeleteFailed)
}

// handleResetPassword resets a user's password (POST /admin/users/{id}/reset-password).
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	msg, err := orchestrators.ExecuteResetPassword(r.Context(), pathID(r), s.directoryDeps())
	s.afterAdminAction(w, r, projections.TabUsers, msg, err, orchestrators.MsgPasswordResetFailed)
}

// handleCreateDepartment adds a department (POST /admin/departments).
func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := directory.NewDepartment{Name: strings.TrimSpace(r.FormValue("name"))}
	msg, err := orchestrators.ExecuteCreateDepartment(r.Context(), form, s.directoryDeps())
	s.afterAdminAction(w, r, projections.TabDepartments, msg, err, orchestrators.MsgDeptAddFailed)
}

// handleDeleteDepartment removes a department (POST /admin/departments/{id}/delete).
func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	msg, err := orchestrators.ExecuteDeleteDepartment(r.Context(), pathID(r), s.directoryDeps())
	s.afterAdminAction(w, r, projections.TabDepartments, msg, err, orchestrators.MsgDeptDeleteFailed)
}

func (s *Server) afterAdminAction(w http.ResponseWriter, r *http.Request, tab, msg string, err error, fallback string) {
	if err != nil {
		s.actionFailed(w, r, err, adminTab(tab), fallback)
		return
	}
	s.redirectWithFlash(w, r, adminTab(tab), "success", msg)
}

func pathID(r *http.Request) int {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0
	}
	return id
}

// handleAdminAudit renders the console audit trail (GET /admin/audit)
// PRE: Session is an admin
// POST: Renders at most projections.DefaultAuditLimit events matching the filters
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	query := projections.GetAuditLogQuery{
		Category: q.Get("category"),
		Action:   q.Get("action"),
		Email:    strings.TrimSpace(q.Get("email")),
		Days:     days,
		Now:      s.deps.Now(),
	}
	var res projections.GetAuditLogResult
	if s.deps.Audit == nil {
		res = projections.GetAuditLogResult{Query: query, Error: "Audit trail is disabled"}
	} else {
		res = projections.QueryGetAuditLog(r.Context(), query, s.deps.Audit)
	}
	s.respond(w, r, http.StatusOK, "audit.html", res)
}

type perfPage struct {
	Minutes  int
	Recorded int64
	Snapshot perf.Snapshot
	Error    string
}

// handleAdminPerf renders request, store and backend timings (GET /admin/perf?minutes=60).
func (s *Server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 || minutes > 24*60 {
		minutes = 60
	}
	page := perfPage{Minutes: minutes}
	if s.deps.Collector == nil {
		page.Error = "Performance collection is disabled"
	} else {
		since := s.deps.Now().Add(-time.Duration(minutes) * time.Minute)
		page.Snapshot = s.deps.Collector.Snapshot(since, 10)
		page.Recorded = s.deps.Collector.TotalRecorded()
	}
	s.respond(w, r, http.StatusOK, "perf.html", page)
}
