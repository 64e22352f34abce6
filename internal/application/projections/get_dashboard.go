package projections

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/application/listctl"
	"reportconsole/internal/application/listutil"
	"reportconsole/internal/application/lists"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/service"
)

// GetDashboardQuery carries query parameters.
type GetDashboardQuery struct {
	Params url.Values // list parameters from the request URL
	Now    time.Time
}

// GetDashboardResult carries the query result.
type GetDashboardResult struct {
	Profile        directory.Profile
	ProfileError   string
	History        listctl.View[service.Record]
	HistoryError   string
	Months         []service.MonthOption // submission form months for the current year
	Years          []int                 // MinYear..current year, newest first
	PerPageOptions []int
}

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	Profiles ProfileSource
	History  *listctl.Controller[service.Record]
}

// QueryGetDashboard loads the signed-in department's profile and service history.
// PRE: ctx carries the signed-in session; deps.History belongs to that session
// POST: Fetch failures are reported as messages; only ErrUnauthorized is returned
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (GetDashboardResult, error) {
	res := GetDashboardResult{
		Months:         service.MonthOptions(query.Now.Year(), query.Now),
		Years:          YearOptions(query.Now),
		PerPageOptions: listutil.PerPageOptions,
	}

	prof, err := deps.Profiles.Profile(ctx)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return GetDashboardResult{}, err
	case err != nil:
		slog.Warn("backend_error", "op", "dashboard.profile", "error", err)
		res.ProfileError = MsgProfileFailed
	default:
		res.Profile = prof
	}

	deps.History.ApplyValues(query.Params, lists.HistoryFilters)
	res.History, res.HistoryError, err = refreshList(ctx, deps.History, "dashboard.history", MsgHistoryFailed)
	if err != nil {
		return GetDashboardResult{}, err
	}
	return res, nil
}

// YearOptions returns the selectable years, newest first.
func YearOptions(now time.Time) []int {
	var years []int
	for y := now.Year(); y >= service.MinYear; y-- {
		years = append(years, y)
	}
	return years
}
