// Package xlsx renders yearly reports as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"reportconsole/internal/domain/report"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteReport writes rep as a single-sheet workbook: a header row
// (Department, January..December) and one row per department. Months the
// backend reported as null are left blank.
// PRE: w is writable
// POST: w holds a complete .xlsx file, or an error is returned
func WriteReport(w io.Writer, rep report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), report.SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := append([]any{"Department"}, toAny(report.Months())...)
	if err := f.SetSheetRow(report.SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rep.Rows {
		r := i + 2
		if err := setCell(f, 1, r, row.Department); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		for m, c := range row.Counts {
			if c == nil {
				continue
			}
			if err := setCell(f, m+2, r, *c); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(report.SheetName, 1, 1, style)
	}
	_ = f.SetColWidth(report.SheetName, "A", "A", 24)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(report.SheetName, cell, v)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
