package dto

import (
	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
)

// UpdateEntryRequest carries new times for an entry.
type UpdateEntryRequest struct {
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	BreakMinutes int    `json:"break_minutes" validate:"min=0"`
}

// CreateEntryRequest adds an entry to a draft or selected pattern.
type CreateEntryRequest struct {
	PatternID    string `json:"pattern_id" validate:"required"`
	StaffID      string `json:"staff_id" validate:"required"`
	Date         string `json:"date" validate:"required"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes" validate:"min=0"`
}

// EditResult is the outcome of an entry mutation with the refreshed pattern.
type EditResult struct {
	Entry      *models.ShiftEntry      `json:"entry,omitempty"`
	Validation *models.EntryValidation `json:"validation,omitempty"`
	Pattern    *models.ShiftPattern    `json:"pattern,omitempty"`
	StaffHours []hours.StaffHours      `json:"staff_hours"`
	Rejected   bool                    `json:"rejected"`
	Message    string                  `json:"message,omitempty"`
}
