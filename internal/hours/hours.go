// Package hours derives worked-time aggregates from schedule entries. All
// functions are pure and independent of entry order.
package hours

import (
	"math"
	"sort"

	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
)

// StaffHours is the worked time of one staff member within a pattern.
type StaffHours struct {
	StaffID   string  `json:"staff_id"`
	StaffName string  `json:"staff_name,omitempty"`
	Minutes   int     `json:"minutes"`
	Hours     float64 `json:"hours"`
	Shifts    int     `json:"shifts"`
}

// WorkedMinutes is max(0, (end-start) - break). Days off and unparsable
// times count as zero.
func WorkedMinutes(entry models.ShiftEntry) int {
	if entry.DayOff() {
		return 0
	}
	start, err := calendar.ParseClock(entry.StartTime)
	if err != nil {
		return 0
	}
	end, err := calendar.ParseClock(entry.EndTime)
	if err != nil {
		return 0
	}
	minutes := end - start - entry.BreakMinutes
	if minutes < 0 {
		return 0
	}
	return minutes
}

// AggregateHours sums worked hours per staff id.
func AggregateHours(entries []models.ShiftEntry) map[string]float64 {
	minutes := make(map[string]int)
	for _, e := range entries {
		minutes[e.StaffID] += WorkedMinutes(e)
	}

	totals := make(map[string]float64, len(minutes))
	for staffID, m := range minutes {
		totals[staffID] = toHours(m)
	}
	return totals
}

// Breakdown returns per-staff totals ordered by staff name then id.
func Breakdown(entries []models.ShiftEntry) []StaffHours {
	byStaff := make(map[string]*StaffHours)
	for _, e := range entries {
		row, ok := byStaff[e.StaffID]
		if !ok {
			row = &StaffHours{StaffID: e.StaffID}
			byStaff[e.StaffID] = row
		}
		row.StaffName = pickName(row.StaffName, e.StaffName)
		row.Minutes += WorkedMinutes(e)
		if !e.DayOff() {
			row.Shifts++
		}
	}

	rows := make([]StaffHours, 0, len(byStaff))
	for _, row := range byStaff {
		row.Hours = toHours(row.Minutes)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StaffName != rows[j].StaffName {
			return rows[i].StaffName < rows[j].StaffName
		}
		return rows[i].StaffID < rows[j].StaffID
	})
	return rows
}

// Summarize builds a fresh pattern summary keyed by staff id.
func Summarize(entries []models.ShiftEntry) models.PatternSummary {
	return models.PatternSummary{
		TotalEntries: len(entries),
		StaffHours:   AggregateHours(entries),
	}
}

// pickName keeps the lexically smallest non-empty name so the result does not
// depend on entry order.
func pickName(current, candidate string) string {
	if current == "" {
		return candidate
	}
	if candidate == "" || current < candidate {
		return current
	}
	return candidate
}

// toHours keeps two decimals so float summation order cannot leak into totals.
func toHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
