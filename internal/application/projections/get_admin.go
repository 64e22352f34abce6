package projections

import (
	"context"
	"net/url"

	"reportconsole/internal/application/listctl"
	"reportconsole/internal/domain/account"
	"reportconsole/internal/domain/directory"
)

// Admin tabs.
const (
	TabUsers       = "users"
	TabDepartments = "departments"
)

// GetAdminQuery carries query parameters.
type GetAdminQuery struct {
	Tab    string
	Params url.Values // list parameters for the active tab
}

// GetAdminResult carries the query result.
type GetAdminResult struct {
	Tab               string
	Users             listctl.View[directory.User]
	UsersError        string
	Departments       listctl.View[directory.Department]
	DepartmentsError  string
	DepartmentChoices []directory.Department // every department, for the registration form
	Roles             []account.Role
}

// TabTracker remembers the admin tab a session last viewed.
type TabTracker interface {
	SwitchAdminTab(tab string) bool
}

// GetAdminDeps holds dependencies for GetAdmin.
type GetAdminDeps struct {
	Users       *listctl.Controller[directory.User]
	Departments *listctl.Controller[directory.Department]
	Tabs        TabTracker // optional
}

// QueryGetAdmin loads the users and departments lists of the admin screen.
// URL parameters apply to the active tab only. Switching tabs returns the newly
// shown list to its first page.
// PRE: ctx carries an admin session; the controllers belong to that session
// POST: Fetch failures are reported as messages; only ErrUnauthorized is returned
func QueryGetAdmin(ctx context.Context, query GetAdminQuery, deps GetAdminDeps) (GetAdminResult, error) {
	res := GetAdminResult{Tab: query.Tab, Roles: account.ValidRoles}
	if res.Tab != TabDepartments {
		res.Tab = TabUsers
	}

	switched := deps.Tabs != nil && deps.Tabs.SwitchAdminTab(res.Tab)
	if res.Tab == TabUsers {
		if switched {
			deps.Users.GoToPage(1)
		}
		deps.Users.ApplyValues(query.Params, nil)
	} else {
		if switched {
			deps.Departments.GoToPage(1)
		}
		deps.Departments.ApplyValues(query.Params, nil)
	}

	var err error
	if res.Users, res.UsersError, err = refreshList(ctx, deps.Users, "admin.users", MsgUsersFailed); err != nil {
		return GetAdminResult{}, err
	}
	if res.Departments, res.DepartmentsError, err = refreshList(ctx, deps.Departments, "admin.departments", MsgDepartmentsFailed); err != nil {
		return GetAdminResult{}, err
	}
	res.DepartmentChoices = deps.Departments.Rows()
	return res, nil
}
