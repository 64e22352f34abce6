package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"reportconsole/internal/application/orchestrators"
	"reportconsole/internal/application/projections"
)

type reportsPage struct {
	projections.GetReportResult
	Flash Flash
}

// handleReports renders the yearly department report (GET /reports?year=2024)
// PRE: Session is head of planning
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	res, err := projections.QueryGetReport(r.Context(), projections.GetReportQuery{Year: year, Now: s.deps.Now()}, s.deps.Backend)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, "reports.html", reportsPage{GetReportResult: res, Flash: s.takeFlash(w, r)})
}

// handleExportReport downloads the yearly report as an Excel workbook (GET /reports/export?year=2024)
// PRE: Session is head of planning
// POST: Responds with an attachment, or redirects back to /reports with an error flash
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	yearParam := r.URL.Query().Get("year")
	year, _ := strconv.Atoi(yearParam)

	var buf bytes.Buffer
	res, err := orchestrators.ExecuteExportReport(r.Context(), orchestrators.ExportReportInput{Year: year, Out: &buf},
		orchestrators.ExportReportDeps{Reports: s.deps.Backend, Audit: s.deps.Audit, Now: s.deps.Now})
	if err != nil {
		s.actionFailed(w, r, err, "/reports?year="+strconv.Itoa(year), orchestrators.MsgReportFailed)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		internalErrorLog("reports.export.write", err)
	}
}
