package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/pkg/calendar"
)

func strPtr(s string) *string { return &s }

func TestNewRequestPlanOverlaysStoredRequests(t *testing.T) {
	plan := NewRequestPlan("s1", calendar.MustParse("2024-02"), []ShiftRequest{
		{ID: "r1", StaffID: "s1", Date: "2024-02-03", RequestType: RequestTypePreferred, StartTime: strPtr("10:00:00"), EndTime: strPtr("15:30:00")},
		{ID: "r2", StaffID: "s1", Date: "2024-02-05", RequestType: RequestTypeUnavailable},
		{ID: "r3", StaffID: "other", Date: "2024-02-06", RequestType: RequestTypeAvailable},
	}, nil)

	require.Len(t, plan.Days, 29)
	assert.Equal(t, DayRequest{Date: "2024-02-03", RequestType: RequestTypePreferred, StartTime: "10:00", EndTime: "15:30", ExistingID: "r1"}, plan.Days[2])
	assert.Equal(t, DayRequest{Date: "2024-02-05", RequestType: RequestTypeUnavailable, StartTime: DefaultRequestStart, EndTime: DefaultRequestEnd, ExistingID: "r2"}, plan.Days[4])
	assert.Equal(t, RequestTypeUnset, plan.Days[5].RequestType)
	assert.Equal(t, "2024-02", plan.YearMonth)
}

func TestRequestPlanToggleOnlyTouchesOneDay(t *testing.T) {
	plan := NewRequestPlan("s1", calendar.MustParse("2025-01"), nil, nil)
	before := plan.Clone()

	var seen []RequestType
	for i := 0; i < 4; i++ {
		day, err := plan.Toggle("2025-01-10")
		require.NoError(t, err)
		seen = append(seen, day.RequestType)

		for j, d := range plan.Days {
			if d.Date != "2025-01-10" {
				assert.Equal(t, before.Days[j], d)
			}
		}
	}
	assert.Equal(t, []RequestType{RequestTypeAvailable, RequestTypeUnavailable, RequestTypePreferred, RequestTypeUnset}, seen)

	_, err := plan.Toggle("2025-02-01")
	assert.Error(t, err)
}

func TestRequestPlanSetTimes(t *testing.T) {
	plan := NewRequestPlan("s1", calendar.MustParse("2025-01"), nil, nil)
	day, err := plan.SetTimes("2025-01-02", "8:00", "12:30")
	require.NoError(t, err)
	assert.Equal(t, "08:00", day.StartTime)
	assert.Equal(t, "12:30", day.EndTime)

	_, err = plan.SetTimes("2025-01-02", "12:00", "08:00")
	assert.Error(t, err)
	_, err = plan.SetTimes("2025-01-02", "", "08:00")
	assert.Error(t, err)
}

func TestRequestPlanDrafts(t *testing.T) {
	plan := NewRequestPlan("s1", calendar.MustParse("2025-01"), nil, nil)
	_, _ = plan.Toggle("2025-01-01")
	_, _ = plan.Toggle("2025-01-02")
	_, _ = plan.Toggle("2025-01-02")

	drafts := plan.Drafts()
	require.Len(t, drafts, 2)
	assert.Equal(t, RequestTypeAvailable, drafts[0].RequestType)
	require.NotNil(t, drafts[0].StartTime)
	assert.Equal(t, "09:00", *drafts[0].StartTime)
	assert.Equal(t, RequestTypeUnavailable, drafts[1].RequestType)
	assert.Nil(t, drafts[1].StartTime)
	assert.Nil(t, drafts[1].EndTime)
}

func TestRequestPlanLaterRowsWin(t *testing.T) {
	now := time.Now()
	plan := NewRequestPlan("s1", calendar.MustParse("2025-01"), []ShiftRequest{
		{ID: "new", StaffID: "s1", Date: "2025-01-01", RequestType: RequestTypePreferred, CreatedAt: now},
		{ID: "old", StaffID: "s1", Date: "2025-01-01", RequestType: RequestTypeAvailable, CreatedAt: now.Add(-time.Hour)},
	}, nil)
	assert.Equal(t, "new", plan.Days[0].ExistingID)
	assert.Equal(t, RequestTypePreferred, plan.Days[0].RequestType)
}
