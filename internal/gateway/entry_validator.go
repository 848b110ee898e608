package gateway

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
)

const (
	defaultMaxConsecutiveDays = 5
	defaultMinRestHours       = 11.0
)

// EntryCheck is everything the validator needs to judge one edited entry.
// Entries holds the whole pattern with the edit already applied.
type EntryCheck struct {
	YearMonth   string
	Target      models.ShiftEntry
	Entries     []models.ShiftEntry
	Constraints []models.Constraint
	Unavailable map[string]bool
	Settings    map[string]models.StaffMonthlySetting
}

// ValidateEntry judges target against the built-in checks and every active
// constraint. Only findings that involve the target's staff member or date are
// reported.
func ValidateEntry(check EntryCheck) models.EntryValidation {
	v := &entryValidator{check: check, warnings: []models.ValidationWarning{}}
	v.checkBasics()
	for _, c := range check.Constraints {
		if !c.IsActive {
			continue
		}
		v.checkConstraint(c)
	}
	v.checkMonthlySetting()

	valid := true
	for _, w := range v.warnings {
		if w.Hard() {
			valid = false
			break
		}
	}
	return models.EntryValidation{IsValid: valid, Warnings: v.warnings}
}

type entryValidator struct {
	check    EntryCheck
	warnings []models.ValidationWarning
}

func (v *entryValidator) add(kind models.ConstraintKind, format string, args ...interface{}) {
	typ := models.WarningTypeSoft
	if kind == models.ConstraintKindHard {
		typ = models.WarningTypeHard
	}
	v.warnings = append(v.warnings, models.ValidationWarning{Type: typ, Message: fmt.Sprintf(format, args...)})
}

func (v *entryValidator) checkBasics() {
	target := v.check.Target
	if v.check.Unavailable[target.StaffID+":"+target.Date] && !target.DayOff() {
		v.add(models.ConstraintKindHard, "%s is unavailable on %s", v.staffLabel(target), target.Date)
	}
	if !target.DayOff() {
		start, errStart := calendar.ParseClock(target.StartTime)
		end, errEnd := calendar.ParseClock(target.EndTime)
		if errStart != nil || errEnd != nil || start >= end {
			v.add(models.ConstraintKindHard, "start time %s must be before end time %s", target.StartTime, target.EndTime)
		}
	}
	if period, err := calendar.Parse(v.check.YearMonth); err == nil && !period.Contains(target.Date) {
		v.add(models.ConstraintKindHard, "date %s is outside %s", target.Date, v.check.YearMonth)
	}
	for _, e := range v.check.Entries {
		if e.ID != target.ID && e.StaffID == target.StaffID && e.Date == target.Date {
			v.add(models.ConstraintKindHard, "%s already has a shift on %s", v.staffLabel(target), target.Date)
			break
		}
	}
}

func (v *entryValidator) checkConstraint(c models.Constraint) {
	switch cfg := c.Config.(type) {
	case models.MaxConsecutiveDaysConfig:
		v.checkConsecutiveDays(c, cfg.MaxDays)
	case models.MinStaffConfig:
		v.checkStaffing(c, cfg.TimeRanges, true)
	case models.MaxStaffConfig:
		v.checkStaffing(c, cfg.TimeRanges, false)
	case models.RestHoursConfig:
		v.checkRestHours(c, cfg.MinHours)
	case models.FixedDayOffConfig:
		v.checkFixedDayOff(c, cfg.DayOfWeek)
	case models.StaffCompatibilityConfig:
		v.checkCompatibility(c, cfg)
	case models.MonthlyHoursConfig:
		v.checkMonthlyHours(c, cfg)
	}
}

func (v *entryValidator) checkConsecutiveDays(c models.Constraint, maxDays int) {
	if maxDays <= 0 {
		maxDays = defaultMaxConsecutiveDays
	}
	target := v.check.Target
	if target.DayOff() {
		return
	}
	working := make(map[string]bool)
	for _, e := range v.staffEntries(target.StaffID) {
		if !e.DayOff() {
			working[e.Date] = true
		}
	}
	day, err := calendar.ParseDate(target.Date)
	if err != nil {
		return
	}
	run := 1
	for d := day.AddDate(0, 0, -1); working[d.Format(calendar.DateLayout)]; d = d.AddDate(0, 0, -1) {
		run++
	}
	for d := day.AddDate(0, 0, 1); working[d.Format(calendar.DateLayout)]; d = d.AddDate(0, 0, 1) {
		run++
	}
	if run > maxDays {
		v.add(c.Kind, "%s: %s works %d consecutive days (limit %d)", c.Name, v.staffLabel(target), run, maxDays)
	}
}

func (v *entryValidator) checkStaffing(c models.Constraint, ranges []models.StaffTimeRange, minimum bool) {
	date := v.check.Target.Date
	for _, r := range ranges {
		from, errFrom := calendar.ParseClock(r.Start)
		to, errTo := calendar.ParseClock(r.End)
		if errFrom != nil || errTo != nil {
			continue
		}
		count := 0
		for _, e := range v.check.Entries {
			if e.Date != date || e.DayOff() {
				continue
			}
			start, errStart := calendar.ParseClock(e.StartTime)
			end, errEnd := calendar.ParseClock(e.EndTime)
			if errStart != nil || errEnd != nil {
				continue
			}
			if start < to && end > from {
				count++
			}
		}
		if minimum && count < r.Count {
			v.add(c.Kind, "%s: %d staff on %s %s-%s (minimum %d)", c.Name, count, date, r.Start, r.End, r.Count)
		}
		if !minimum && count > r.Count {
			v.add(c.Kind, "%s: %d staff on %s %s-%s (maximum %d)", c.Name, count, date, r.Start, r.End, r.Count)
		}
	}
}

// checkRestHours measures the gap around midnight between the target and the
// staff member's shifts on the neighbouring days.
func (v *entryValidator) checkRestHours(c models.Constraint, minHours float64) {
	if minHours <= 0 {
		minHours = defaultMinRestHours
	}
	target := v.check.Target
	if target.DayOff() {
		return
	}
	day, err := calendar.ParseDate(target.Date)
	if err != nil {
		return
	}
	prevDate := day.AddDate(0, 0, -1).Format(calendar.DateLayout)
	nextDate := day.AddDate(0, 0, 1).Format(calendar.DateLayout)
	for _, e := range v.staffEntries(target.StaffID) {
		if e.ID == target.ID || e.DayOff() {
			continue
		}
		var earlier, later models.ShiftEntry
		switch e.Date {
		case prevDate:
			earlier, later = e, target
		case nextDate:
			earlier, later = target, e
		default:
			continue
		}
		end, errEnd := calendar.ParseClock(earlier.EndTime)
		start, errStart := calendar.ParseClock(later.StartTime)
		if errEnd != nil || errStart != nil {
			continue
		}
		gap := float64(24*60-end+start) / 60
		if gap < minHours {
			v.add(c.Kind, "%s: %.1fh rest between %s %s and %s %s (minimum %.0fh)",
				c.Name, gap, earlier.Date, earlier.EndTime, later.Date, later.StartTime, minHours)
		}
	}
}

func (v *entryValidator) checkFixedDayOff(c models.Constraint, weekday int) {
	target := v.check.Target
	if target.DayOff() {
		return
	}
	day, err := calendar.ParseDate(target.Date)
	if err != nil {
		return
	}
	if int(day.Weekday()) == weekday {
		v.add(c.Kind, "%s: %s is a fixed day off (%s)", c.Name, target.Date, time.Weekday(weekday))
	}
}

func (v *entryValidator) checkCompatibility(c models.Constraint, cfg models.StaffCompatibilityConfig) {
	target := v.check.Target
	if len(cfg.StaffIDs) != 2 || target.DayOff() {
		return
	}
	var partner string
	switch target.StaffID {
	case cfg.StaffIDs[0]:
		partner = cfg.StaffIDs[1]
	case cfg.StaffIDs[1]:
		partner = cfg.StaffIDs[0]
	default:
		return
	}
	together := false
	for _, e := range v.check.Entries {
		if e.StaffID == partner && e.Date == target.Date && !e.DayOff() {
			together = true
			break
		}
	}
	switch {
	case cfg.Rule == models.RuleAvoidTogether && together:
		v.add(c.Kind, "%s: %s and %s both work on %s", c.Name, target.StaffID, partner, target.Date)
	case cfg.Rule == models.RulePreferTogether && !together:
		v.add(c.Kind, "%s: %s works on %s without %s", c.Name, target.StaffID, target.Date, partner)
	}
}

func (v *entryValidator) checkMonthlyHours(c models.Constraint, cfg models.MonthlyHoursConfig) {
	staffID := v.check.Target.StaffID
	total := hours.AggregateHours(v.staffEntries(staffID))[staffID]
	if total > cfg.MaxHours {
		v.add(c.Kind, "%s: %s is scheduled %.1fh (maximum %.0fh)", c.Name, v.staffLabel(v.check.Target), total, cfg.MaxHours)
	} else if total < cfg.MinHours {
		v.add(c.Kind, "%s: %s is scheduled %.1fh (minimum %.0fh)", c.Name, v.staffLabel(v.check.Target), total, cfg.MinHours)
	}
}

func (v *entryValidator) checkMonthlySetting() {
	staffID := v.check.Target.StaffID
	setting, ok := v.check.Settings[staffID]
	if !ok {
		return
	}
	total := hours.AggregateHours(v.staffEntries(staffID))[staffID]
	label := v.staffLabel(v.check.Target)
	if total > float64(setting.MaxPreferredHours) {
		v.add(models.ConstraintKindSoft, "%s is scheduled %.1fh, above the preferred %dh", label, total, setting.MaxPreferredHours)
	} else if total < float64(setting.MinPreferredHours) {
		v.add(models.ConstraintKindSoft, "%s is scheduled %.1fh, below the preferred %dh", label, total, setting.MinPreferredHours)
	}
}

func (v *entryValidator) staffEntries(staffID string) []models.ShiftEntry {
	out := make([]models.ShiftEntry, 0)
	for _, e := range v.check.Entries {
		if e.StaffID == staffID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (v *entryValidator) staffLabel(e models.ShiftEntry) string {
	if e.StaffName != "" {
		return e.StaffName
	}
	return e.StaffID
}
