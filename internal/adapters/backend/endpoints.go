package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/report"
	"reportconsole/internal/domain/service"
)

// LoginResponse is the answer to POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

// messageResponse is the {"message": "..."} answer of mutating endpoints.
type messageResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for an access token. It needs no token in ctx;
// a 401 here means wrong credentials and is returned as a *ValidationError.
func (c *Client) Login(ctx context.Context, creds account.Credentials) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, call{method: http.MethodPost, route: "POST /login", path: "/login", body: creds}, &out)
	return out, err
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (directory.Profile, error) {
	var out directory.Profile
	err := c.do(ctx, call{method: http.MethodGet, route: "GET /profile", path: "/profile", auth: true}, &out)
	return out, err
}

// UpdateProfile saves the signed-in user's profile and returns the backend's confirmation.
// An empty password leaves the password unchanged.
func (c *Client) UpdateProfile(ctx context.Context, upd directory.ProfileUpdate) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{method: http.MethodPut, route: "PUT /profile/update", path: "/profile/update", body: upd, auth: true}, &out)
	return out.Message, err
}

// Users returns every user.
func (c *Client) Users(ctx context.Context) ([]directory.User, error) {
	var out []directory.User
	err := c.do(ctx, call{method: http.MethodGet, route: "GET /users", path: "/users", auth: true}, &out)
	return out, err
}

// RegisterUser creates a user.
func (c *Client) RegisterUser(ctx context.Context, u directory.NewUser) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{method: http.MethodPost, route: "POST /register", path: "/register", body: u, auth: true}, &out)
	return out.Message, err
}

// DeleteUser deletes the user with id.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, call{
		method: http.MethodDelete, route: "DELETE /users/{id}", path: "/users/" + strconv.Itoa(id), auth: true,
	}, nil)
}

// ResetPassword asks the backend to reset the password of the user with id.
func (c *Client) ResetPassword(ctx context.Context, id int) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		method: http.MethodPut, route: "PUT /users/{id}/reset-password",
		path: "/users/" + strconv.Itoa(id) + "/reset-password", body: struct{}{}, auth: true,
	}, &out)
	return out.Message, err
}

// Departments returns every department.
func (c *Client) Departments(ctx context.Context) ([]directory.Department, error) {
	var out []directory.Department
	err := c.do(ctx, call{method: http.MethodGet, route: "GET /departments", path: "/departments", auth: true}, &out)
	return out, err
}

// CreateDepartment creates a department.
func (c *Client) CreateDepartment(ctx context.Context, d directory.NewDepartment) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{method: http.MethodPost, route: "POST /departments", path: "/departments", body: d, auth: true}, &out)
	return out.Message, err
}

// DeleteDepartment deletes the department with id. The backend refuses while users belong to it.
func (c *Client) DeleteDepartment(ctx context.Context, id int) error {
	return c.do(ctx, call{
		method: http.MethodDelete, route: "DELETE /departments/{id}", path: "/departments/" + strconv.Itoa(id), auth: true,
	}, nil)
}

// Pagination is the metadata the backend reports for a paged list.
type Pagination struct {
	Page         int  `json:"page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// HistoryPage is one page of the signed-in department's service records.
type HistoryPage struct {
	Records    []service.Record `json:"history"`
	Pagination Pagination       `json:"pagination"`
}

// HistoryParams selects a history page. Zero Year or Month means no filter.
type HistoryParams struct {
	Page    int
	PerPage int
	Year    int
	Month   int
}

// History returns one page of service records.
func (c *Client) History(ctx context.Context, p HistoryParams) (HistoryPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
	if p.Year > 0 {
		q.Set("year", strconv.Itoa(p.Year))
	}
	if p.Month > 0 {
		q.Set("month", strconv.Itoa(p.Month))
	}
	var out HistoryPage
	err := c.do(ctx, call{method: http.MethodGet, route: "GET /services/history", path: "/services/history", query: q, auth: true}, &out)
	return out, err
}

// SubmitService records a month's service count.
func (c *Client) SubmitService(ctx context.Context, s service.Submission) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{method: http.MethodPost, route: "POST /services", path: "/services", body: s, auth: true}, &out)
	return out.Message, err
}

// UpdateService replaces the service record with id.
func (c *Client) UpdateService(ctx context.Context, id int, s service.Submission) (string, error) {
	var out messageResponse
	err := c.do(ctx, call{
		method: http.MethodPut, route: "PUT /services/update/{id}", path: "/services/update/" + strconv.Itoa(id), body: s, auth: true,
	}, &out)
	return out.Message, err
}

// Report returns the yearly per-department aggregate.
func (c *Client) Report(ctx context.Context, year int) (report.Report, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	var out report.Report
	if err := c.do(ctx, call{method: http.MethodGet, route: "GET /reports", path: "/reports", query: q, auth: true}, &out); err != nil {
		return report.Report{}, err
	}
	out.Year = year
	return out, nil
}
