package dto

import (
	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
)

// PatternListQuery selects the period whose patterns are listed.
type PatternListQuery struct {
	YearMonth string `form:"yearMonth" validate:"required"`
}

// PatternListResponse is the pattern list of a period.
type PatternListResponse struct {
	YearMonth string                `json:"year_month"`
	Patterns  []models.ShiftPattern `json:"patterns"`
}

// PatternDetail is a pattern with live hour totals computed from its entries.
// Summary may lag behind the entries; LiveHours never does.
type PatternDetail struct {
	Pattern       models.ShiftPattern `json:"pattern"`
	ReasoningHTML string              `json:"reasoning_html,omitempty"`
	LiveHours     []hours.StaffHours  `json:"live_hours"`
	TotalHours    float64             `json:"total_hours"`
}

// PatternExport is a rendered roster file.
type PatternExport struct {
	Filename    string
	ContentType string
	Content     []byte
}
