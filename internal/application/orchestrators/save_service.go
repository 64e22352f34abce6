package orchestrators

import (
	"context"
	"strconv"
	"time"

	"reportconsole/internal/domain/audit"
	"reportconsole/internal/domain/service"
)

// Service messages.
const (
	MsgRecordSubmitted = "Record submitted successfully!"
	MsgRecordUpdated   = "Record updated successfully!"
	MsgServiceFailed   = "An error occurred"
)

// ServiceWriter defines the backend calls needed by SaveService.
type ServiceWriter interface {
	SubmitService(ctx context.Context, s service.Submission) (string, error)
	UpdateService(ctx context.Context, id int, s service.Submission) (string, error)
}

// SaveServiceInput carries a monthly count. A zero RecordID submits a new record.
type SaveServiceInput struct {
	RecordID   int
	Submission service.Submission
}

// SaveServiceResult carries the outcome of SaveService.
type SaveServiceResult struct {
	Message string
	Updated bool
}

// SaveServiceDeps holds dependencies for SaveService.
type SaveServiceDeps struct {
	Services ServiceWriter
	Audit    AuditSink
	Now      func() time.Time
}

// ExecuteSaveService submits or edits a department's monthly service count.
// PRE: ctx carries the signed-in session
// POST: The backend holds the count; future months never reach the backend
func ExecuteSaveService(ctx context.Context, input SaveServiceInput, deps SaveServiceDeps) (SaveServiceResult, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if err := input.Submission.Validate(now); err != nil {
		return SaveServiceResult{}, invalid(err)
	}

	res := SaveServiceResult{Message: MsgRecordSubmitted}
	action := audit.ActionCreate
	var err error
	if input.RecordID > 0 {
		_, err = deps.Services.UpdateService(ctx, input.RecordID, input.Submission)
		res = SaveServiceResult{Message: MsgRecordUpdated, Updated: true}
		action = audit.ActionUpdate
	} else {
		_, err = deps.Services.SubmitService(ctx, input.Submission)
	}
	if err != nil {
		return SaveServiceResult{}, fail(err, MsgServiceFailed, true)
	}

	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryService, action).
		WithResource("service_record", strconv.Itoa(input.RecordID)).
		WithDescription(service.MonthName(input.Submission.Month)+" "+strconv.Itoa(input.Submission.Year)+": "+strconv.Itoa(input.Submission.Count)))
	return res, nil
}
