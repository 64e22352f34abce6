package web

import (
	"net/http"
	"strconv"

	"reportconsole/internal/adapters/http/middleware"
	"reportconsole/internal/application/listctl"
	"reportconsole/internal/application/lists"
	"reportconsole/internal/application/orchestrators"
	"reportconsole/internal/application/projections"
	"reportconsole/internal/application/session"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/service"
)

type dashboardPage struct {
	projections.GetDashboardResult
	Form      service.Submission
	EditingID int
	Flash     Flash
	status    int
}

// listsFor returns the list set of the request's session.
func (s *Server) listsFor(r *http.Request) *lists.Set {
	id, _, _ := session.FromContext(r.Context())
	return s.deps.Lists.For(id)
}

// handleDashboard renders the department dashboard (GET /dashboard)
// PRE: Session may open the dashboard
// POST: History reflects the list parameters in the URL; ?edit=<id> pre-fills the form
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{Flash: s.takeFlash(w, r)}
	s.renderDashboard(w, r, page)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, page dashboardPage) {
	now := s.deps.Now()
	res, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{Params: r.URL.Query(), Now: now},
		projections.GetDashboardDeps{Profiles: s.deps.Backend, History: s.listsFor(r).History})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page.GetDashboardResult = res

	if page.Form.Year == 0 {
		page.Form.Year = now.Year()
		if id, err := strconv.Atoi(r.URL.Query().Get("edit")); err == nil {
			if rec, ok := findRecord(res.History, id); ok {
				page.Form = rec.Edit()
				page.EditingID = rec.ID
			}
		}
	}
	page.Months = service.MonthOptions(page.Form.Year, now)
	if page.status == 0 {
		page.status = http.StatusOK
	}
	s.respond(w, r, page.status, "dashboard.html", page)
}

func findRecord(v listctl.View[service.Record], id int) (service.Record, bool) {
	for _, rec := range v.Items {
		if rec.ID == id {
			return rec, true
		}
	}
	return service.Record{}, false
}

// handleSaveService submits or edits a monthly service count (POST /dashboard/services)
// PRE: Form carries month, year and count; record_id is set when editing
// POST: Redirects to the dashboard with a flash message, or re-renders the form with the error
func (s *Server) handleSaveService(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SaveServiceInput{
		RecordID: formInt(r, "record_id"),
		Submission: service.Submission{
			Month: formInt(r, "month"),
			Year:  formInt(r, "year"),
			Count: formInt(r, "count"),
		},
	}
	res, err := orchestrators.ExecuteSaveService(r.Context(), input, orchestrators.SaveServiceDeps{
		Services: s.deps.Backend,
		Audit:    s.deps.Audit,
		Now:      s.deps.Now,
	})
	if err != nil {
		if msg := orchestrators.MessageFor(err, ""); msg != "" && middleware.WantsHTML(r) {
			s.renderDashboard(w, r, dashboardPage{
				Form:      input.Submission,
				EditingID: input.RecordID,
				Flash:     Flash{Kind: "error", Message: msg},
				status:    http.StatusUnprocessableEntity,
			})
			return
		}
		s.actionFailed(w, r, err, "/dashboard", orchestrators.MsgServiceFailed)
		return
	}
	s.redirectWithFlash(w, r, "/dashboard", "success", res.Message)
}

type profilePage struct {
	projections.GetProfileResult
	Flash Flash
}

// handleProfile renders the signed-in user's profile (GET /profile).
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetProfile(r.Context(), s.deps.Backend)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, "profile.html", profilePage{GetProfileResult: res, Flash: s.takeFlash(w, r)})
}

// handleUpdateProfile saves the profile form (POST /profile)
// POST: Redirects to the profile with the backend's message, or re-renders the form with the error
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := directory.ProfileUpdate{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
	}
	msg, err := orchestrators.ExecuteUpdateProfile(r.Context(), form, s.deps.Backend)
	if err != nil {
		if m := orchestrators.MessageFor(err, ""); m != "" && middleware.WantsHTML(r) {
			res, qerr := projections.QueryGetProfile(r.Context(), s.deps.Backend)
			if qerr != nil {
				s.fail(w, r, qerr)
				return
			}
			form.Password = ""
			res.Form = form
			s.renderTemplate(w, r, http.StatusUnprocessableEntity, "profile.html", profilePage{GetProfileResult: res, Flash: Flash{Kind: "error", Message: m}})
			return
		}
		s.actionFailed(w, r, err, "/profile", orchestrators.MsgProfileUpdateFailed)
		return
	}
	s.redirectWithFlash(w, r, "/profile", "success", msg)
}

// actionFailed handles an orchestrator error after a form post: auth failures end
// the session, anything else is shown as a flash on redirect.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error, to, fallback string) {
	if msg := orchestrators.MessageFor(err, ""); msg != "" {
		s.redirectWithFlash(w, r, to, "error", msg)
		return
	}
	if isUnauthorized(err) {
		s.fail(w, r, err)
		return
	}
	internalErrorLog("action", err)
	s.redirectWithFlash(w, r, to, "error", fallback)
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}
