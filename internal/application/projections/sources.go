package projections

import (
	"context"
	"errors"
	"log/slog"

	"reportconsole/internal/adapters/backend"
	storageAudit "reportconsole/internal/adapters/storage/audit"
	"reportconsole/internal/application/listctl"
	domainAudit "reportconsole/internal/domain/audit"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/report"
)

// Fetch failure messages.
const (
	MsgProfileFailed     = "Failed to fetch profile"
	MsgHistoryFailed     = "Failed to fetch history"
	MsgUsersFailed       = "Failed to fetch users"
	MsgDepartmentsFailed = "Failed to fetch departments"
	MsgReportFailed      = "Failed to fetch reports"
	MsgAuditFailed       = "Failed to load audit log"
)

// ProfileSource interface for profile queries.
type ProfileSource interface {
	Profile(ctx context.Context) (directory.Profile, error)
}

// ReportSource interface for report queries.
type ReportSource interface {
	Report(ctx context.Context, year int) (report.Report, error)
}

// AuditReader interface for audit log queries.
type AuditReader interface {
	List(ctx context.Context, filter storageAudit.Filter, limit int) ([]domainAudit.Event, error)
}

// refreshList reloads c and returns what to render. A backend failure leaves the
// previous page in place and yields failMsg; only ErrUnauthorized is returned as an error.
func refreshList[T any](ctx context.Context, c *listctl.Controller[T], op, failMsg string) (listctl.View[T], string, error) {
	_, err := c.Refresh(ctx)
	switch {
	case err == nil, errors.Is(err, listctl.ErrSuperseded):
		return c.View(), "", nil
	case errors.Is(err, backend.ErrUnauthorized):
		return listctl.View[T]{}, "", err
	}
	slog.Warn("backend_error", "op", op, "error", err)
	return c.View(), failMsg, nil
}
