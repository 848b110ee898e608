package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

func requireInvalidConfig(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidConfig.Code, appErr.Code)
	assert.Equal(t, field, appErr.Field)
}

func TestParseConstraintConfigValid(t *testing.T) {
	cases := []struct {
		category ConstraintCategory
		raw      string
		want     ConstraintConfig
	}{
		{CategoryMinStaff, `{"time_ranges":[{"start":"09:00","end":"17:00","count":2}]}`, MinStaffConfig{TimeRanges: []StaffTimeRange{{Start: "09:00", End: "17:00", Count: 2}}}},
		{CategoryMaxStaff, `{"time_ranges":[{"start":"09:00","end":"17:00","max_count":4}]}`, MaxStaffConfig{TimeRanges: []StaffTimeRange{{Start: "09:00", End: "17:00", Count: 4}}}},
		{CategoryMaxConsecutiveDays, `{"max_days":5}`, MaxConsecutiveDaysConfig{MaxDays: 5}},
		{CategoryMonthlyHours, `{"min_hours":80,"max_hours":160}`, MonthlyHoursConfig{MinHours: 80, MaxHours: 160}},
		{CategoryFixedDayOff, `{"day_of_week":0}`, FixedDayOffConfig{DayOfWeek: 0}},
		{CategoryStaffCompatibility, `{"staff_ids":["a","b"],"rule":"avoid_together"}`, StaffCompatibilityConfig{StaffIDs: []string{"a", "b"}, Rule: RuleAvoidTogether}},
		{CategoryRestHours, `{"min_hours":11}`, RestHoursConfig{MinHours: 11}},
	}

	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			cfg, err := ParseConstraintConfig(tc.category, json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg)
			assert.Equal(t, tc.category, cfg.Category())
		})
	}
}

func TestParseConstraintConfigNamesOffendingField(t *testing.T) {
	cases := []struct {
		name     string
		category ConstraintCategory
		raw      string
		field    string
	}{
		{"range end before start", CategoryMinStaff, `{"time_ranges":[{"start":"17:00","end":"09:00","count":1}]}`, "config.time_ranges[0].end"},
		{"negative count", CategoryMaxStaff, `{"time_ranges":[{"start":"09:00","end":"12:00","count":1},{"start":"12:00","end":"18:00","count":-1}]}`, "config.time_ranges[1].count"},
		{"missing ranges", CategoryMinStaff, `{}`, "config.time_ranges"},
		{"zero max days", CategoryMaxConsecutiveDays, `{"max_days":0}`, "config.max_days"},
		{"fractional max days", CategoryMaxConsecutiveDays, `{"max_days":2.5}`, "config.max_days"},
		{"huge max days", CategoryMaxConsecutiveDays, `{"max_days":1e300}`, "config.max_days"},
		{"huge negative day of week", CategoryFixedDayOff, `{"day_of_week":-1e19}`, "config.day_of_week"},
		{"monthly min above max", CategoryMonthlyHours, `{"min_hours":200,"max_hours":160}`, "config.min_hours"},
		{"monthly missing max", CategoryMonthlyHours, `{"min_hours":10}`, "config.max_hours"},
		{"day of week out of range", CategoryFixedDayOff, `{"day_of_week":7}`, "config.day_of_week"},
		{"single staff id", CategoryStaffCompatibility, `{"staff_ids":["a"],"rule":"prefer_together"}`, "config.staff_ids"},
		{"duplicate staff ids", CategoryStaffCompatibility, `{"staff_ids":["a","a"],"rule":"prefer_together"}`, "config.staff_ids[1]"},
		{"empty staff id", CategoryStaffCompatibility, `{"staff_ids":["","b"],"rule":"prefer_together"}`, "config.staff_ids[0]"},
		{"unknown rule", CategoryStaffCompatibility, `{"staff_ids":["a","b"],"rule":"sometimes"}`, "config.rule"},
		{"negative rest", CategoryRestHours, `{"min_hours":-1}`, "config.min_hours"},
		{"not an object", CategoryRestHours, `[1,2]`, "config"},
		{"null", CategoryRestHours, `null`, "config"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConstraintConfig(tc.category, json.RawMessage(tc.raw))
			requireInvalidConfig(t, err, tc.field)
		})
	}
}

func TestStaffConfigWritesLegacyCountKey(t *testing.T) {
	minCfg, err := ParseConstraintConfig(CategoryMinStaff, json.RawMessage(`{"time_ranges":[{"start":"09:00","end":"17:00","count":2}]}`))
	require.NoError(t, err)
	data, err := json.Marshal(minCfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time_ranges":[{"start":"09:00","end":"17:00","min_count":2}]}`, string(data))

	maxCfg := MaxStaffConfig{TimeRanges: []StaffTimeRange{{Start: "10:00", End: "14:00", Count: 3}}}
	data, err = json.Marshal(maxCfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time_ranges":[{"start":"10:00","end":"14:00","max_count":3}]}`, string(data))
}

func TestStaffConfigAcceptsFlatLegacyCount(t *testing.T) {
	cfg, err := ParseConstraintConfig(CategoryMinStaff, json.RawMessage(`{"min_count":2}`))
	require.NoError(t, err)
	assert.Equal(t, MinStaffConfig{TimeRanges: []StaffTimeRange{{Start: "00:00", End: "24:00", Count: 2}}}, cfg)
}

func TestConstraintJSONDispatchesOnCategory(t *testing.T) {
	payload := `{"id":"c1","name":"Rest","type":"hard","category":"rest_hours","config":{"min_hours":11},"is_active":true,"priority":null}`

	var c Constraint
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	assert.Equal(t, RestHoursConfig{MinHours: 11}, c.Config)
	assert.Equal(t, ConstraintKindHard, c.Kind)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]interface{}{"min_hours": float64(11)}, decoded["config"])
	assert.Equal(t, "hard", decoded["type"])
}

func TestConstraintJSONRejectsForeignConfig(t *testing.T) {
	payload := `{"id":"c1","name":"Rest","type":"hard","category":"rest_hours","config":{"max_days":3}}`
	var c Constraint
	err := json.Unmarshal([]byte(payload), &c)
	requireInvalidConfig(t, err, "config.min_hours")
}

func TestConstraintValidate(t *testing.T) {
	priority := 3
	base := Constraint{Name: "Rest", Kind: ConstraintKindSoft, Category: CategoryRestHours, Config: RestHoursConfig{MinHours: 11}, Priority: &priority}
	require.NoError(t, base.Validate())

	mismatched := base
	mismatched.Config = MaxConsecutiveDaysConfig{MaxDays: 3}
	requireInvalidConfig(t, mismatched.Validate(), "config")

	badPriority := base
	tooHigh := 6
	badPriority.Priority = &tooHigh
	err := badPriority.Validate()
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	noKind := base
	noKind.Kind = "maybe"
	assert.Error(t, noKind.Validate())
}

func TestConstraintWeight(t *testing.T) {
	low, high := 1, 5
	assert.Equal(t, HardConstraintWeight, Constraint{Kind: ConstraintKindHard, Priority: &low}.Weight())
	assert.Equal(t, HardConstraintWeight, Constraint{Kind: ConstraintKindHard, Priority: &high}.Weight())
	assert.Equal(t, 5, Constraint{Kind: ConstraintKindSoft, Priority: &high}.Weight())
	assert.Equal(t, DefaultPriority, Constraint{Kind: ConstraintKindSoft}.Weight())
	assert.Greater(t, HardConstraintWeight, MaxPriority)
}

func TestConstraintPatchCategoryChangeNeedsConfig(t *testing.T) {
	current := Constraint{Name: "Rest", Kind: ConstraintKindHard, Category: CategoryRestHours, Config: RestHoursConfig{MinHours: 11}, IsActive: true}

	category := CategoryMaxConsecutiveDays
	_, err := ConstraintPatch{Category: &category}.Apply(current)
	requireInvalidConfig(t, err, "config")

	next, err := ConstraintPatch{Category: &category, Config: MaxConsecutiveDaysConfig{MaxDays: 4}}.Apply(current)
	require.NoError(t, err)
	assert.Equal(t, CategoryMaxConsecutiveDays, next.Category)
	assert.Equal(t, MaxConsecutiveDaysConfig{MaxDays: 4}, next.Config)

	inactive := false
	next, err = ConstraintPatch{IsActive: &inactive}.Apply(current)
	require.NoError(t, err)
	assert.False(t, next.IsActive)
	assert.True(t, current.IsActive)
}

func TestConstraintFilterMatches(t *testing.T) {
	active := true
	kind := ConstraintKindSoft
	f := ConstraintFilter{IsActive: &active, Kind: &kind}
	assert.True(t, f.Matches(Constraint{IsActive: true, Kind: ConstraintKindSoft}))
	assert.False(t, f.Matches(Constraint{IsActive: false, Kind: ConstraintKindSoft}))
	assert.False(t, f.Matches(Constraint{IsActive: true, Kind: ConstraintKindHard}))
	assert.Equal(t, "active=true:type=soft:category=*", f.CacheKey())
}
