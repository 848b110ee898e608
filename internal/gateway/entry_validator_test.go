package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

func entry(id, staff, date, start, end string) models.ShiftEntry {
	return models.ShiftEntry{ID: id, PatternID: "p-1", StaffID: staff, Date: date, StartTime: start, EndTime: end, BreakMinutes: 60}
}

func softConstraint(name string, cfg models.ConstraintConfig) models.Constraint {
	return models.Constraint{Name: name, Kind: models.ConstraintKindSoft, Category: cfg.Category(), Config: cfg, IsActive: true}
}

func hardConstraint(name string, cfg models.ConstraintConfig) models.Constraint {
	c := softConstraint(name, cfg)
	c.Kind = models.ConstraintKindHard
	return c
}

func TestValidateEntryCleanEdit(t *testing.T) {
	target := entry("e-1", "s-1", "2025-01-06", "09:00", "17:00")
	result := ValidateEntry(EntryCheck{
		YearMonth: "2025-01",
		Target:    target,
		Entries:   []models.ShiftEntry{target, entry("e-2", "s-2", "2025-01-06", "09:00", "17:00")},
	})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.Rejected())
}

func TestValidateEntryBuiltInHardChecks(t *testing.T) {
	tests := []struct {
		name    string
		target  models.ShiftEntry
		others  []models.ShiftEntry
		unavail map[string]bool
		want    string
	}{
		{name: "reversed times", target: entry("e-1", "s-1", "2025-01-06", "18:00", "09:00"), want: "must be before"},
		{name: "outside period", target: entry("e-1", "s-1", "2025-02-01", "09:00", "17:00"), want: "outside 2025-01"},
		{name: "duplicate day", target: entry("e-1", "s-1", "2025-01-06", "09:00", "17:00"), others: []models.ShiftEntry{entry("e-9", "s-1", "2025-01-06", "18:00", "22:00")}, want: "already has a shift"},
		{name: "unavailable", target: entry("e-1", "s-1", "2025-01-06", "09:00", "17:00"), unavail: map[string]bool{"s-1:2025-01-06": true}, want: "unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateEntry(EntryCheck{
				YearMonth:   "2025-01",
				Target:      tc.target,
				Entries:     append([]models.ShiftEntry{tc.target}, tc.others...),
				Unavailable: tc.unavail,
			})
			assert.False(t, result.IsValid)
			require.NotEmpty(t, result.Warnings)
			assert.True(t, result.Warnings[0].Hard())
			assert.Contains(t, result.Warnings[0].Message, tc.want)
		})
	}
}

func TestValidateEntryConsecutiveDays(t *testing.T) {
	entries := []models.ShiftEntry{
		entry("e-1", "s-1", "2025-01-01", "09:00", "17:00"),
		entry("e-2", "s-1", "2025-01-02", "09:00", "17:00"),
		entry("e-3", "s-1", "2025-01-03", "09:00", "17:00"),
		entry("e-4", "s-1", "2025-01-04", "09:00", "17:00"),
	}
	result := ValidateEntry(EntryCheck{
		YearMonth:   "2025-01",
		Target:      entries[1],
		Entries:     entries,
		Constraints: []models.Constraint{softConstraint("Max 3 days", models.MaxConsecutiveDaysConfig{MaxDays: 3})},
	})
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningTypeSoft, result.Warnings[0].Type)
	assert.Contains(t, result.Warnings[0].Message, "4 consecutive days")
}

func TestValidateEntryRestHoursHard(t *testing.T) {
	prev := entry("e-1", "s-1", "2025-01-05", "14:00", "23:00")
	target := entry("e-2", "s-1", "2025-01-06", "06:00", "14:00")
	result := ValidateEntry(EntryCheck{
		YearMonth:   "2025-01",
		Target:      target,
		Entries:     []models.ShiftEntry{prev, target},
		Constraints: []models.Constraint{hardConstraint("Rest", models.RestHoursConfig{MinHours: 11})},
	})
	assert.False(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "7.0h rest")
	assert.True(t, result.Rejected())
}

func TestValidateEntryStaffingRanges(t *testing.T) {
	target := entry("e-1", "s-1", "2025-01-06", "13:00", "21:00")
	others := []models.ShiftEntry{
		entry("e-2", "s-2", "2025-01-06", "13:00", "21:00"),
		entry("e-3", "s-3", "2025-01-06", "08:00", "12:00"),
	}
	morning := models.MinStaffConfig{TimeRanges: []models.StaffTimeRange{{Start: "09:00", End: "12:00", Count: 2}}}
	evening := models.MaxStaffConfig{TimeRanges: []models.StaffTimeRange{{Start: "17:00", End: "21:00", Count: 1}}}

	result := ValidateEntry(EntryCheck{
		YearMonth: "2025-01",
		Target:    target,
		Entries:   append([]models.ShiftEntry{target}, others...),
		Constraints: []models.Constraint{
			softConstraint("Morning cover", morning),
			softConstraint("Evening cap", evening),
		},
	})
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0].Message, "minimum 2")
	assert.Contains(t, result.Warnings[1].Message, "maximum 1")
}

func TestValidateEntryCompatibilityAndFixedDayOff(t *testing.T) {
	target := entry("e-1", "s-1", "2025-01-05", "09:00", "17:00") // Sunday
	partner := entry("e-2", "s-2", "2025-01-05", "09:00", "17:00")
	result := ValidateEntry(EntryCheck{
		YearMonth: "2025-01",
		Target:    target,
		Entries:   []models.ShiftEntry{target, partner},
		Constraints: []models.Constraint{
			softConstraint("Keep apart", models.StaffCompatibilityConfig{StaffIDs: []string{"s-1", "s-2"}, Rule: models.RuleAvoidTogether}),
			softConstraint("Sunday off", models.FixedDayOffConfig{DayOfWeek: 0}),
		},
	})
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0].Message, "both work")
	assert.Contains(t, result.Warnings[1].Message, "fixed day off")
}

func TestValidateEntryMonthlyHoursAndPreferences(t *testing.T) {
	target := entry("e-1", "s-1", "2025-01-06", "09:00", "17:00")
	result := ValidateEntry(EntryCheck{
		YearMonth:   "2025-01",
		Target:      target,
		Entries:     []models.ShiftEntry{target},
		Constraints: []models.Constraint{softConstraint("Monthly", models.MonthlyHoursConfig{MinHours: 0, MaxHours: 5})},
		Settings: map[string]models.StaffMonthlySetting{
			"s-1": {StaffID: "s-1", MinPreferredHours: 100, MaxPreferredHours: 160},
		},
	})
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0].Message, "maximum 5h")
	assert.Equal(t, models.WarningTypeSoft, result.Warnings[1].Type)
	assert.Contains(t, result.Warnings[1].Message, "below the preferred 100h")
}

func TestValidateEntryIgnoresInactiveConstraints(t *testing.T) {
	target := entry("e-1", "s-1", "2025-01-05", "09:00", "17:00")
	c := hardConstraint("Sunday off", models.FixedDayOffConfig{DayOfWeek: 0})
	c.IsActive = false
	result := ValidateEntry(EntryCheck{YearMonth: "2025-01", Target: target, Entries: []models.ShiftEntry{target}, Constraints: []models.Constraint{c}})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
}
