package projections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/domain/report"
	"reportconsole/internal/domain/service"
)

// GetReportQuery carries query parameters.
type GetReportQuery struct {
	Year int // zero or out of range selects the current year
	Now  time.Time
}

// GetReportResult carries the query result.
type GetReportResult struct {
	Year   int
	Years  []int
	Months []string
	Rows   []report.Row
	Error  string
}

// QueryGetReport loads the yearly per-department service report.
// PRE: ctx carries a head_of_planning session
// POST: Year lies in [MinYear, current year]; fetch failures are reported in Error
func QueryGetReport(ctx context.Context, query GetReportQuery, reports ReportSource) (GetReportResult, error) {
	year := query.Year
	if year < service.MinYear || year > query.Now.Year() {
		year = query.Now.Year()
	}
	res := GetReportResult{Year: year, Years: YearOptions(query.Now), Months: report.Months()}

	rep, err := reports.Report(ctx, year)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return GetReportResult{}, err
		}
		slog.Warn("backend_error", "op", "reports.get", "year", year, "error", err)
		res.Error = backend.UserMessage(err, MsgReportFailed)
		return res, nil
	}
	res.Rows = rep.Rows
	return res, nil
}
