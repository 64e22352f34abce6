package service

import (
	"errors"
	"time"
)

// MinYear is the earliest year the backend accepts submissions for.
const MinYear = 2020

// Domain errors
var (
	ErrInvalidMonth  = errors.New("month must be between 1 and 12")
	ErrInvalidYear   = errors.New("year must be 2020 or later")
	ErrFutureMonth   = errors.New("cannot submit a count for a future month")
	ErrNegativeCount = errors.New("service count cannot be negative")
)

// Record is one monthly service count submitted by a department.
type Record struct {
	ID           int `json:"id"`
	Month        int `json:"month"`
	Year         int `json:"year"`
	ServiceCount int `json:"service_count"`
}

// Submission carries a new or edited monthly count.
type Submission struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Validate checks the submission against the reporting calendar.
// PRE: now is the current time
// POST: Returns nil if the month is reportable, error otherwise
func (s Submission) Validate(now time.Time) error {
	if s.Month < 1 || s.Month > 12 {
		return ErrInvalidMonth
	}
	if s.Year < MinYear {
		return ErrInvalidYear
	}
	if s.Count < 0 {
		return ErrNegativeCount
	}
	if !MonthOpen(s.Year, s.Month, now) {
		return ErrFutureMonth
	}
	return nil
}

// MonthOpen reports whether month of year has started at now.
func MonthOpen(year, month int, now time.Time) bool {
	if year > now.Year() {
		return false
	}
	return !(year == now.Year() && month > int(now.Month()))
}

// MonthName returns the English month name for 1..12, or "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// MonthOption is one entry of the month selector.
type MonthOption struct {
	Value    int
	Label    string
	Disabled bool
}

// MonthOptions returns the twelve months for year, disabling those not yet open.
func MonthOptions(year int, now time.Time) []MonthOption {
	opts := make([]MonthOption, 0, 12)
	for m := 1; m <= 12; m++ {
		opts = append(opts, MonthOption{
			Value:    m,
			Label:    MonthName(m),
			Disabled: !MonthOpen(year, m, now),
		})
	}
	return opts
}

// Edit pre-fills a submission from an existing record.
func (r Record) Edit() Submission {
	return Submission{Month: r.Month, Year: r.Year, Count: r.ServiceCount}
}
