package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SheetName is the worksheet name of the exported workbook.
const SheetName = "Report"

// Row is one department's counts for a year. Counts[i] is month i+1;
// nil means the month has not been reported (or has not happened yet).
type Row struct {
	Department string
	Counts     [12]*int
}

// UnmarshalJSON decodes the backend shape {"department": "...", "1": 4, ..., "12": null}.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Row{}
	if dep, ok := raw["department"]; ok {
		if err := json.Unmarshal(dep, &r.Department); err != nil {
			return fmt.Errorf("department: %w", err)
		}
	}
	for m := 1; m <= 12; m++ {
		v, ok := raw[strconv.Itoa(m)]
		if !ok {
			continue
		}
		var n *int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("month %d: %w", m, err)
		}
		r.Counts[m-1] = n
	}
	return nil
}

// MarshalJSON encodes the row in the backend shape.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 13)
	out["department"] = r.Department
	for i, c := range r.Counts {
		if c == nil {
			out[strconv.Itoa(i+1)] = nil
			continue
		}
		out[strconv.Itoa(i+1)] = *c
	}
	return json.Marshal(out)
}

// Cell returns the display text for month (1..12): the count, or "" when unreported.
func (r Row) Cell(month int) string {
	if month < 1 || month > 12 || r.Counts[month-1] == nil {
		return ""
	}
	return strconv.Itoa(*r.Counts[month-1])
}

// Total sums the reported months.
func (r Row) Total() int {
	total := 0
	for _, c := range r.Counts {
		if c != nil {
			total += *c
		}
	}
	return total
}

// Report is the yearly aggregate returned by the backend.
type Report struct {
	Year int   `json:"year"`
	Rows []Row `json:"report"`
}

// Months returns the column headings January..December.
func Months() []string {
	names := make([]string, 12)
	for i := range names {
		names[i] = time.Month(i + 1).String()
	}
	return names
}

// FileName returns the download name of the Excel export for year.
func FileName(year int) string {
	return fmt.Sprintf("Department_Report_%d.xlsx", year)
}
