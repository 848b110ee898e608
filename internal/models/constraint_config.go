package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// ConstraintConfig is the category-specific payload of a constraint. Every
// implementation belongs to exactly one category.
type ConstraintConfig interface {
	Category() ConstraintCategory
	Validate() error
	isConstraintConfig()
}

// StaffTimeRange is a staffing bound over part of the day.
type StaffTimeRange struct {
	Start string
	End   string
	Count int
}

// MinStaffConfig requires at least Count staff during each range.
type MinStaffConfig struct {
	TimeRanges []StaffTimeRange
}

// MaxStaffConfig allows at most Count staff during each range.
type MaxStaffConfig struct {
	TimeRanges []StaffTimeRange
}

type MaxConsecutiveDaysConfig struct {
	MaxDays int `json:"max_days"`
}

type MonthlyHoursConfig struct {
	MinHours float64 `json:"min_hours"`
	MaxHours float64 `json:"max_hours"`
}

// FixedDayOffConfig marks a weekday as always off. 0 is Sunday.
type FixedDayOffConfig struct {
	DayOfWeek int `json:"day_of_week"`
}

// CompatibilityRule says whether a pair of staff should share shifts.
type CompatibilityRule string

const (
	RulePreferTogether CompatibilityRule = "prefer_together"
	RuleAvoidTogether  CompatibilityRule = "avoid_together"
)

type StaffCompatibilityConfig struct {
	StaffIDs []string          `json:"staff_ids"`
	Rule     CompatibilityRule `json:"rule"`
}

// RestHoursConfig is the minimum gap between two consecutive shifts.
type RestHoursConfig struct {
	MinHours float64 `json:"min_hours"`
}

func (MinStaffConfig) Category() ConstraintCategory           { return CategoryMinStaff }
func (MaxStaffConfig) Category() ConstraintCategory           { return CategoryMaxStaff }
func (MaxConsecutiveDaysConfig) Category() ConstraintCategory { return CategoryMaxConsecutiveDays }
func (MonthlyHoursConfig) Category() ConstraintCategory       { return CategoryMonthlyHours }
func (FixedDayOffConfig) Category() ConstraintCategory        { return CategoryFixedDayOff }
func (StaffCompatibilityConfig) Category() ConstraintCategory { return CategoryStaffCompatibility }
func (RestHoursConfig) Category() ConstraintCategory          { return CategoryRestHours }

func (MinStaffConfig) isConstraintConfig()           {}
func (MaxStaffConfig) isConstraintConfig()           {}
func (MaxConsecutiveDaysConfig) isConstraintConfig() {}
func (MonthlyHoursConfig) isConstraintConfig()       {}
func (FixedDayOffConfig) isConstraintConfig()        {}
func (StaffCompatibilityConfig) isConstraintConfig() {}
func (RestHoursConfig) isConstraintConfig()          {}

func (c MinStaffConfig) Validate() error { return validateTimeRanges(c.TimeRanges) }
func (c MaxStaffConfig) Validate() error { return validateTimeRanges(c.TimeRanges) }

func (c MaxConsecutiveDaysConfig) Validate() error {
	if c.MaxDays < 1 {
		return appErrors.InvalidConfig("config.max_days", "max_days must be at least 1")
	}
	return nil
}

func (c MonthlyHoursConfig) Validate() error {
	if c.MinHours < 0 {
		return appErrors.InvalidConfig("config.min_hours", "min_hours must not be negative")
	}
	if c.MaxHours < 0 {
		return appErrors.InvalidConfig("config.max_hours", "max_hours must not be negative")
	}
	if c.MinHours > c.MaxHours {
		return appErrors.InvalidConfig("config.min_hours", "min_hours must not exceed max_hours")
	}
	return nil
}

func (c FixedDayOffConfig) Validate() error {
	if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
		return appErrors.InvalidConfig("config.day_of_week", "day_of_week must be between 0 and 6")
	}
	return nil
}

func (c StaffCompatibilityConfig) Validate() error {
	if len(c.StaffIDs) != 2 {
		return appErrors.InvalidConfig("config.staff_ids", "staff_ids must contain exactly two staff")
	}
	for i, id := range c.StaffIDs {
		if strings.TrimSpace(id) == "" {
			return appErrors.InvalidConfig(fmt.Sprintf("config.staff_ids[%d]", i), "staff id must not be empty")
		}
	}
	if c.StaffIDs[0] == c.StaffIDs[1] {
		return appErrors.InvalidConfig("config.staff_ids[1]", "staff_ids must be distinct")
	}
	if c.Rule != RulePreferTogether && c.Rule != RuleAvoidTogether {
		return appErrors.InvalidConfig("config.rule", "rule must be prefer_together or avoid_together")
	}
	return nil
}

func (c RestHoursConfig) Validate() error {
	if c.MinHours < 0 {
		return appErrors.InvalidConfig("config.min_hours", "min_hours must not be negative")
	}
	return nil
}

func validateTimeRanges(ranges []StaffTimeRange) error {
	if len(ranges) == 0 {
		return appErrors.InvalidConfig("config.time_ranges", "at least one time range is required")
	}
	for i, r := range ranges {
		prefix := fmt.Sprintf("config.time_ranges[%d]", i)
		start, err := calendar.ParseClock(r.Start)
		if err != nil {
			return appErrors.InvalidConfig(prefix+".start", err.Error())
		}
		end, err := calendar.ParseClock(r.End)
		if err != nil {
			return appErrors.InvalidConfig(prefix+".end", err.Error())
		}
		if start >= end {
			return appErrors.InvalidConfig(prefix+".end", "end must be after start")
		}
		if r.Count < 0 {
			return appErrors.InvalidConfig(prefix+".count", "count must not be negative")
		}
	}
	return nil
}

// legacyCountKey is the per-category count key stored by the shift database.
func legacyCountKey(category ConstraintCategory) string {
	if category == CategoryMaxStaff {
		return "max_count"
	}
	return "min_count"
}

func marshalTimeRanges(category ConstraintCategory, ranges []StaffTimeRange) ([]byte, error) {
	key := legacyCountKey(category)
	out := make([]map[string]interface{}, len(ranges))
	for i, r := range ranges {
		out[i] = map[string]interface{}{"start": r.Start, "end": r.End, key: r.Count}
	}
	return json.Marshal(map[string]interface{}{"time_ranges": out})
}

func (c MinStaffConfig) MarshalJSON() ([]byte, error) {
	return marshalTimeRanges(CategoryMinStaff, c.TimeRanges)
}

func (c MaxStaffConfig) MarshalJSON() ([]byte, error) {
	return marshalTimeRanges(CategoryMaxStaff, c.TimeRanges)
}

// ParseConstraintConfig decodes raw into the config type of category and
// validates it. Failures name the offending field.
func ParseConstraintConfig(category ConstraintCategory, raw json.RawMessage) (ConstraintConfig, error) {
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", category))
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, appErrors.InvalidConfig("config", "config is required")
	}

	fields := configFields{}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, appErrors.InvalidConfig("config", "config must be a JSON object")
	}

	cfg, err := fields.decode(category)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type configFields map[string]json.RawMessage

func (f configFields) decode(category ConstraintCategory) (ConstraintConfig, error) {
	switch category {
	case CategoryMinStaff:
		ranges, err := f.timeRanges(category)
		if err != nil {
			return nil, err
		}
		return MinStaffConfig{TimeRanges: ranges}, nil
	case CategoryMaxStaff:
		ranges, err := f.timeRanges(category)
		if err != nil {
			return nil, err
		}
		return MaxStaffConfig{TimeRanges: ranges}, nil
	case CategoryMaxConsecutiveDays:
		days, err := requiredInt(f, "max_days", "config.max_days")
		if err != nil {
			return nil, err
		}
		return MaxConsecutiveDaysConfig{MaxDays: days}, nil
	case CategoryMonthlyHours:
		minHours, err := requiredFloat(f, "min_hours", "config.min_hours")
		if err != nil {
			return nil, err
		}
		maxHours, err := requiredFloat(f, "max_hours", "config.max_hours")
		if err != nil {
			return nil, err
		}
		return MonthlyHoursConfig{MinHours: minHours, MaxHours: maxHours}, nil
	case CategoryFixedDayOff:
		day, err := requiredInt(f, "day_of_week", "config.day_of_week")
		if err != nil {
			return nil, err
		}
		return FixedDayOffConfig{DayOfWeek: day}, nil
	case CategoryStaffCompatibility:
		raw, ok := f["staff_ids"]
		if !ok {
			return nil, appErrors.InvalidConfig("config.staff_ids", "staff_ids is required")
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, appErrors.InvalidConfig("config.staff_ids", "staff_ids must be a list of strings")
		}
		rule, err := requiredString(f, "rule", "config.rule")
		if err != nil {
			return nil, err
		}
		return StaffCompatibilityConfig{StaffIDs: ids, Rule: CompatibilityRule(rule)}, nil
	case CategoryRestHours:
		hours, err := requiredFloat(f, "min_hours", "config.min_hours")
		if err != nil {
			return nil, err
		}
		return RestHoursConfig{MinHours: hours}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category %q", category))
}

func (f configFields) timeRanges(category ConstraintCategory) ([]StaffTimeRange, error) {
	legacy := legacyCountKey(category)
	raw, ok := f["time_ranges"]
	if !ok {
		// Older rows carry a single whole-day count at the top level.
		if _, flat := f[legacy]; flat {
			count, err := requiredInt(f, legacy, "config."+legacy)
			if err != nil {
				return nil, err
			}
			return []StaffTimeRange{{Start: "00:00", End: "24:00", Count: count}}, nil
		}
		return nil, appErrors.InvalidConfig("config.time_ranges", "time_ranges is required")
	}
	var items []configFields
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, appErrors.InvalidConfig("config.time_ranges", "time_ranges must be a list of objects")
	}

	ranges := make([]StaffTimeRange, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("config.time_ranges[%d]", i)
		start, err := requiredString(item, "start", prefix+".start")
		if err != nil {
			return nil, err
		}
		end, err := requiredString(item, "end", prefix+".end")
		if err != nil {
			return nil, err
		}
		countKey := "count"
		if _, ok := item[countKey]; !ok {
			countKey = legacy
		}
		count, err := requiredInt(item, countKey, prefix+".count")
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, StaffTimeRange{Start: start, End: end, Count: count})
	}
	return ranges, nil
}

func requiredInt(f configFields, key, field string) (int, error) {
	raw, ok := f[key]
	if !ok {
		return 0, appErrors.InvalidConfig(field, key+" is required")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, appErrors.InvalidConfig(field, key+" must be a number")
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, appErrors.InvalidConfig(field, key+" is out of range")
	}
	if n != math.Trunc(n) {
		return 0, appErrors.InvalidConfig(field, key+" must be an integer")
	}
	return int(n), nil
}

func requiredFloat(f configFields, key, field string) (float64, error) {
	raw, ok := f[key]
	if !ok {
		return 0, appErrors.InvalidConfig(field, key+" is required")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, appErrors.InvalidConfig(field, key+" must be a number")
	}
	return n, nil
}

func requiredString(f configFields, key, field string) (string, error) {
	raw, ok := f[key]
	if !ok {
		return "", appErrors.InvalidConfig(field, key+" is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", appErrors.InvalidConfig(field, key+" must be a string")
	}
	return s, nil
}
