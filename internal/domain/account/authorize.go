package account

// View identifies a console screen that the guard can gate.
type View string

// Views
const (
	ViewDashboard View = "dashboard"
	ViewProfile   View = "profile"
	ViewAdmin     View = "admin"
	ViewReports   View = "reports"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

// String returns the decision name used in logs.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// Permissions maps each role to the views it may open.
// Every role check in the console goes through this table.
var Permissions = map[Role][]View{
	RoleAdmin:          {ViewDashboard, ViewProfile, ViewAdmin},
	RoleHeadOfPlanning: {ViewDashboard, ViewProfile, ViewReports},
	RoleDepartmentUser: {ViewDashboard, ViewProfile},
}

// Authorize decides whether sess may proceed when required is demanded.
// An empty required role means any authenticated session is enough.
// PRE: none (sess may be nil)
// POST: Allow iff sess is valid and (required == "" or sess.Role == required)
// INVARIANT: sess is not mutated
func Authorize(sess *Session, required Role) Decision {
	if !sess.Valid() {
		return RedirectLogin
	}
	if required != "" && sess.Role != required {
		return RedirectUnauthorized
	}
	return Allow
}

// AuthorizeView decides whether sess may open view according to Permissions.
// PRE: none (sess may be nil)
// POST: RedirectLogin without a valid session; RedirectUnauthorized if view is not permitted for the role
func AuthorizeView(sess *Session, view View) Decision {
	if !sess.Valid() {
		return RedirectLogin
	}
	if !CanView(sess.Role, view) {
		return RedirectUnauthorized
	}
	return Allow
}

// CanView reports whether role may open view.
func CanView(role Role, view View) bool {
	for _, v := range Permissions[role] {
		if v == view {
			return true
		}
	}
	return false
}

// LandingPath returns where a freshly logged-in role is sent.
func LandingPath(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleHeadOfPlanning:
		return "/reports"
	}
	return "/dashboard"
}
