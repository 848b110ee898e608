package dto

import "github.com/noah-isme/shift-planner-api/internal/models"

// RequestPlanQuery loads a staff member's month of requests.
type RequestPlanQuery struct {
	YearMonth string `form:"yearMonth" validate:"required"`
	StaffID   string `form:"staffId" validate:"required"`
}

// ToggleDayRequest cycles the request type of one day.
type ToggleDayRequest struct {
	StaffID   string `json:"staff_id" validate:"required"`
	YearMonth string `json:"year_month" validate:"required"`
	Date      string `json:"date" validate:"required"`
}

// SetDayTimesRequest changes the requested window of one day.
type SetDayTimesRequest struct {
	StaffID   string `json:"staff_id" validate:"required"`
	YearMonth string `json:"year_month" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// SaveRequestPlanRequest persists the plan and the hour preference.
type SaveRequestPlanRequest struct {
	StaffID           string  `json:"staff_id" validate:"required"`
	YearMonth         string  `json:"year_month" validate:"required"`
	HoursEnabled      bool    `json:"hours_enabled"`
	MinPreferredHours int     `json:"min_preferred_hours" validate:"min=0"`
	MaxPreferredHours int     `json:"max_preferred_hours" validate:"min=0"`
	Note              *string `json:"note"`
}

// Setting actions reported by a plan save.
const (
	SettingCreated   = "created"
	SettingUpdated   = "updated"
	SettingDeleted   = "deleted"
	SettingUnchanged = "unchanged"
)

// SaveRequestPlanResult reports what a save changed.
type SaveRequestPlanResult struct {
	SettingAction string             `json:"setting_action"`
	CreatedCount  int                `json:"created_count"`
	Plan          models.RequestPlan `json:"plan"`
}

// CalendarResponse lays out a month for the editing grid.
type CalendarResponse struct {
	YearMonth   string     `json:"year_month"`
	DaysInMonth int        `json:"days_in_month"`
	FirstDate   string     `json:"first_date"`
	LastDate    string     `json:"last_date"`
	Dates       []string   `json:"dates"`
	Weeks       [][]string `json:"weeks"`
}
