package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PeriodLayout is the wire format for a planning month.
	PeriodLayout = "2006-01"
	// DateLayout is the wire format for a single day.
	DateLayout = "2006-01-02"
)

// Period is one calendar month a schedule is generated for.
type Period struct {
	year  int
	month time.Month
}

// Parse reads a YYYY-MM string.
func Parse(raw string) (Period, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != len(PeriodLayout) {
		return Period{}, fmt.Errorf("period %q must be formatted as YYYY-MM", raw)
	}
	t, err := time.Parse(PeriodLayout, raw)
	if err != nil {
		return Period{}, fmt.Errorf("period %q must be formatted as YYYY-MM: %w", raw, err)
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(raw string) Period {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

func (p Period) Year() int         { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool      { return p.year == 0 && p.month == 0 }

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// First returns midnight UTC of the first day.
func (p Period) First() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns midnight UTC of the last day.
func (p Period) Last() time.Time {
	return p.First().AddDate(0, 1, -1)
}

func (p Period) DaysInMonth() int {
	return p.Last().Day()
}

// Next returns the following month.
func (p Period) Next() Period {
	return Of(p.First().AddDate(0, 1, 0))
}

// Days returns every day of the month in order.
func (p Period) Days() []time.Time {
	n := p.DaysInMonth()
	days := make([]time.Time, 0, n)
	first := p.First()
	for i := 0; i < n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// Dates returns every day of the month formatted as YYYY-MM-DD.
func (p Period) Dates() []string {
	days := p.Days()
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(DateLayout)
	}
	return dates
}

// Contains reports whether the YYYY-MM-DD date falls inside the period.
func (p Period) Contains(date string) bool {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return false
	}
	return t.Year() == p.year && t.Month() == p.month
}

// Weeks lays the month out in Monday-first rows of seven. Cells outside the
// month are empty strings.
func (p Period) Weeks() [][]string {
	offset := (int(p.First().Weekday()) + 6) % 7
	cells := make([]string, offset, offset+p.DaysInMonth()+6)
	cells = append(cells, p.Dates()...)
	for len(cells)%7 != 0 {
		cells = append(cells, "")
	}

	weeks := make([][]string, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be formatted as YYYY-MM-DD: %w", raw, err)
	}
	return t, nil
}
