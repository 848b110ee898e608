package dto

import (
	"encoding/json"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

// ConstraintListQuery filters the constraint list.
type ConstraintListQuery struct {
	IsActive *bool  `form:"isActive"`
	Type     string `form:"type" validate:"omitempty,oneof=hard soft"`
	Category string `form:"category"`
}

// CreateConstraintRequest defines a new constraint. Config is decoded with the
// schema of Category.
type CreateConstraintRequest struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Type     string          `json:"type" validate:"required,oneof=hard soft"`
	Category string          `json:"category" validate:"required"`
	Config   json.RawMessage `json:"config"`
	IsActive *bool           `json:"is_active"`
	Priority *int            `json:"priority" validate:"omitempty,min=1,max=5"`
}

// UpdateConstraintRequest is a partial constraint update.
type UpdateConstraintRequest struct {
	Name     *string         `json:"name" validate:"omitempty,min=1,max=120"`
	Type     *string         `json:"type" validate:"omitempty,oneof=hard soft"`
	Category *string         `json:"category"`
	Config   json.RawMessage `json:"config"`
	IsActive *bool           `json:"is_active"`
	Priority *int            `json:"priority" validate:"omitempty,min=1,max=5"`
}

// ConstraintImportFailure explains why one preset was not created.
type ConstraintImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// ConstraintImportResult lists created constraints and rejected presets.
type ConstraintImportResult struct {
	Created []models.Constraint       `json:"created"`
	Failed  []ConstraintImportFailure `json:"failed"`
}
