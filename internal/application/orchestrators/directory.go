package orchestrators

import (
	"context"
	"errors"
	"strconv"

	"reportconsole/internal/domain/audit"
	"reportconsole/internal/domain/directory"
)

// Directory messages.
const (
	MsgUserAdded           = "User added successfully!"
	MsgUserAddFailed       = "Failed to add user"
	MsgUserDeleted         = "User deleted successfully!"
	MsgUserDeleteFailed    = "Failed to delete user"
	MsgPasswordReset       = "Password reset successfully!"
	MsgPasswordResetFailed = "Failed to reset password"
	MsgDeptAdded           = "Department added successfully!"
	MsgDeptAddFailed       = "Failed to add department"
	MsgDeptDeleted         = "Department deleted successfully!"
	MsgDeptDeleteFailed    = "Failed to delete a department with users. Delete users the first"
)

// ErrInvalidID is returned for a missing or non-positive record id.
var ErrInvalidID = errors.New("invalid id")

// DirectoryWriter defines the backend calls needed by the admin actions.
type DirectoryWriter interface {
	RegisterUser(ctx context.Context, u directory.NewUser) (string, error)
	DeleteUser(ctx context.Context, id int) error
	ResetPassword(ctx context.Context, id int) (string, error)
	CreateDepartment(ctx context.Context, d directory.NewDepartment) (string, error)
	DeleteDepartment(ctx context.Context, id int) error
}

// DirectoryDeps holds dependencies for the admin actions.
type DirectoryDeps struct {
	Directory DirectoryWriter
	Audit     AuditSink
}

// ExecuteRegisterUser creates a console user.
// PRE: ctx carries an admin session
// POST: Role defaults to department_user; invalid forms never reach the backend
func ExecuteRegisterUser(ctx context.Context, input directory.NewUser, deps DirectoryDeps) (string, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return "", invalid(err)
	}
	if _, err := deps.Directory.RegisterUser(ctx, input); err != nil {
		return "", fail(err, MsgUserAddFailed, true)
	}
	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryDirectory, audit.ActionCreate).
		WithResource("user", input.Email).
		WithDescription("role "+string(input.Role)))
	return MsgUserAdded, nil
}

// ExecuteDeleteUser removes a console user.
// PRE: ctx carries an admin session
func ExecuteDeleteUser(ctx context.Context, id int, deps DirectoryDeps) (string, error) {
	if id <= 0 {
		return "", &ActionError{Message: MsgUserDeleteFailed, Err: ErrInvalidID}
	}
	if err := deps.Directory.DeleteUser(ctx, id); err != nil {
		return "", fail(err, MsgUserDeleteFailed, false)
	}
	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryDirectory, audit.ActionDelete).
		WithResource("user", strconv.Itoa(id)).
		WithSeverity(audit.SeverityWarning))
	return MsgUserDeleted, nil
}

// ExecuteResetPassword asks the backend to reset a user's password.
// PRE: ctx carries an admin session
func ExecuteResetPassword(ctx context.Context, id int, deps DirectoryDeps) (string, error) {
	if id <= 0 {
		return "", &ActionError{Message: MsgPasswordResetFailed, Err: ErrInvalidID}
	}
	if _, err := deps.Directory.ResetPassword(ctx, id); err != nil {
		return "", fail(err, MsgPasswordResetFailed, false)
	}
	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryDirectory, audit.ActionUpdate).
		WithResource("user", strconv.Itoa(id)).
		WithDescription("password reset").
		WithSeverity(audit.SeverityWarning))
	return MsgPasswordReset, nil
}

// ExecuteCreateDepartment adds a department.
// PRE: ctx carries an admin session
func ExecuteCreateDepartment(ctx context.Context, input directory.NewDepartment, deps DirectoryDeps) (string, error) {
	if err := input.Validate(); err != nil {
		return "", invalid(err)
	}
	if _, err := deps.Directory.CreateDepartment(ctx, input); err != nil {
		return "", fail(err, MsgDeptAddFailed, true)
	}
	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryDirectory, audit.ActionCreate).
		WithResource("department", input.Name))
	return MsgDeptAdded, nil
}

// ExecuteDeleteDepartment removes a department. The backend refuses while users belong to it.
// PRE: ctx carries an admin session
func ExecuteDeleteDepartment(ctx context.Context, id int, deps DirectoryDeps) (string, error) {
	if id <= 0 {
		return "", &ActionError{Message: MsgDeptDeleteFailed, Err: ErrInvalidID}
	}
	if err := deps.Directory.DeleteDepartment(ctx, id); err != nil {
		return "", fail(err, MsgDeptDeleteFailed, false)
	}
	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryDirectory, audit.ActionDelete).
		WithResource("department", strconv.Itoa(id)).
		WithSeverity(audit.SeverityWarning))
	return MsgDeptDeleted, nil
}
