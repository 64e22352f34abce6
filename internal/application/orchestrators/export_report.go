package orchestrators

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"reportconsole/internal/adapters/xlsx"
	"reportconsole/internal/domain/audit"
	"reportconsole/internal/domain/report"
	"reportconsole/internal/domain/service"
)

// MsgReportFailed is shown when the backend gives no reason for a failed report.
const MsgReportFailed = "Failed to fetch reports"

// ReportSource defines the backend call needed by ExportReport.
type ReportSource interface {
	Report(ctx context.Context, year int) (report.Report, error)
}

// ExportReportInput selects the report year and where the workbook is written.
type ExportReportInput struct {
	Year int
	Out  io.Writer
}

// ExportReportResult describes the written workbook.
type ExportReportResult struct {
	FileName    string
	ContentType string
	Rows        int
}

// ExportReportDeps holds dependencies for ExportReport.
type ExportReportDeps struct {
	Reports ReportSource
	Audit   AuditSink
	Now     func() time.Time
}

// ExecuteExportReport writes the yearly department report as an Excel workbook.
// PRE: ctx carries a head_of_planning session
// POST: Out holds a workbook with one "Report" sheet; Out is untouched when the backend call fails
func ExecuteExportReport(ctx context.Context, input ExportReportInput, deps ExportReportDeps) (ExportReportResult, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	if input.Year < service.MinYear || input.Year > now.Year() {
		return ExportReportResult{}, invalid(fmt.Errorf("year must be between %d and %d", service.MinYear, now.Year()))
	}

	rep, err := deps.Reports.Report(ctx, input.Year)
	if err != nil {
		return ExportReportResult{}, fail(err, MsgReportFailed, true)
	}
	if err := xlsx.WriteReport(input.Out, rep); err != nil {
		return ExportReportResult{}, fmt.Errorf("write report workbook: %w", err)
	}

	recordAudit(ctx, deps.Audit, actorEvent(ctx, audit.CategoryReport, audit.ActionExport).
		WithResource("report", strconv.Itoa(input.Year)))
	return ExportReportResult{FileName: report.FileName(input.Year), ContentType: xlsx.ContentType, Rows: len(rep.Rows)}, nil
}
