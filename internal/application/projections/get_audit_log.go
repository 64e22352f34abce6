package projections

import (
	"context"
	"log/slog"
	"time"

	storageAudit "reportconsole/internal/adapters/storage/audit"
	domainAudit "reportconsole/internal/domain/audit"
)

// DefaultAuditLimit caps the audit log page.
const DefaultAuditLimit = 200

// GetAuditLogQuery carries query parameters.
type GetAuditLogQuery struct {
	Category string
	Action   string
	Email    string
	Days     int // 0 means no time bound
	Now      time.Time
}

// GetAuditLogResult carries the query result.
type GetAuditLogResult struct {
	Events     []domainAudit.Event
	Query      GetAuditLogQuery
	Categories []domainAudit.Category
	Error      string
}

// QueryGetAuditLog lists recent console audit events, newest first.
// PRE: caller is an admin
// POST: Returns at most DefaultAuditLimit events
func QueryGetAuditLog(ctx context.Context, query GetAuditLogQuery, store AuditReader) GetAuditLogResult {
	res := GetAuditLogResult{
		Query: query,
		Categories: []domainAudit.Category{
			domainAudit.CategorySession, domainAudit.CategoryDirectory, domainAudit.CategoryService, domainAudit.CategoryReport,
		},
	}
	filter := storageAudit.Filter{
		Category:   domainAudit.Category(query.Category),
		Action:     domainAudit.Action(query.Action),
		ActorEmail: query.Email,
	}
	if query.Days > 0 {
		filter.Since = query.Now.AddDate(0, 0, -query.Days)
	}
	events, err := store.List(ctx, filter, DefaultAuditLimit)
	if err != nil {
		slog.Error("internal_error", "op", "audit.List", "error", err)
		res.Error = MsgAuditFailed
		return res
	}
	res.Events = events
	return res
}
