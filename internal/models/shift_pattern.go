package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PatternStatus moves draft -> selected -> finalized and never back.
type PatternStatus string

const (
	PatternStatusDraft     PatternStatus = "draft"
	PatternStatusSelected  PatternStatus = "selected"
	PatternStatusFinalized PatternStatus = "finalized"
)

// Editable reports whether entries of a pattern in this status may change.
func (s PatternStatus) Editable() bool {
	return s == PatternStatusDraft || s == PatternStatusSelected
}

// ConstraintViolation is a breach reported by the optimizer or validator.
type ConstraintViolation struct {
	ConstraintName string `json:"constraint_name"`
	Type           string `json:"type"`
	Message        string `json:"message"`
}

// Violations is the ordered violation list persisted as JSONB.
type Violations []ConstraintViolation

// Value marshals violations to JSON for persistence.
func (v Violations) Value() (driver.Value, error) {
	if v == nil {
		v = Violations{}
	}
	data, err := json.Marshal([]ConstraintViolation(v))
	if err != nil {
		return nil, fmt.Errorf("marshal violations: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array of violations.
func (v *Violations) Scan(value interface{}) error {
	if value == nil {
		*v = Violations{}
		return nil
	}
	var data []byte
	switch t := value.(type) {
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return fmt.Errorf("unsupported type %T for Violations", value)
	}
	if len(data) == 0 {
		*v = Violations{}
		return nil
	}
	var out []ConstraintViolation
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal violations: %w", err)
	}
	if out == nil {
		out = []ConstraintViolation{}
	}
	*v = out
	return nil
}

// ShiftPattern is one generated schedule proposal for a period.
type ShiftPattern struct {
	ID                   string          `db:"id" json:"id"`
	YearMonth            string          `db:"year_month" json:"year_month"`
	Status               PatternStatus   `db:"status" json:"status"`
	Reasoning            *string         `db:"reasoning" json:"reasoning"`
	Score                *float64        `db:"score" json:"score"`
	ConstraintViolations Violations      `db:"constraint_violations" json:"constraint_violations"`
	Entries              []ShiftEntry    `db:"-" json:"entries,omitempty"`
	Summary              *PatternSummary `db:"-" json:"summary,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// PatternSummary caches aggregate figures and may lag behind live edits.
type PatternSummary struct {
	TotalEntries int                `json:"total_entries"`
	StaffHours   map[string]float64 `json:"staff_hours"`
}

// ShiftEntry is one staff member's working interval on one date. Entries
// without start or end times are days off.
type ShiftEntry struct {
	ID           string    `db:"id" json:"id"`
	PatternID    string    `db:"pattern_id" json:"pattern_id"`
	StaffID      string    `db:"staff_id" json:"staff_id"`
	StaffName    string    `db:"staff_name" json:"staff_name,omitempty"`
	Date         string    `db:"date" json:"date"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	BreakMinutes int       `db:"break_minutes" json:"break_minutes"`
	IsManualEdit bool      `db:"is_manual_edit" json:"is_manual_edit"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DayOff reports whether the entry carries no working interval.
func (e ShiftEntry) DayOff() bool {
	return e.StartTime == "" || e.EndTime == ""
}

// EntryTimes is the editable part of an entry.
type EntryTimes struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

// EntryDraft describes an entry to add to a pattern.
type EntryDraft struct {
	PatternID    string `json:"pattern_id"`
	StaffID      string `json:"staff_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

// ValidationWarning is one finding of the entry validator.
type ValidationWarning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	WarningTypeHard = "hard"
	WarningTypeSoft = "soft_constraint"
)

// Hard reports whether the warning reflects a hard constraint breach.
func (w ValidationWarning) Hard() bool {
	return w.Type == WarningTypeHard || w.Type == "hard_constraint"
}

// EntryValidation is the validator verdict returned with an entry update.
type EntryValidation struct {
	IsValid  bool                `json:"is_valid"`
	Warnings []ValidationWarning `json:"warnings"`
}

// Rejected reports whether the validator flagged a hard breach.
func (v EntryValidation) Rejected() bool {
	if !v.IsValid {
		return true
	}
	for _, w := range v.Warnings {
		if w.Hard() {
			return true
		}
	}
	return false
}

// EntryUpdate is the backend answer to an entry edit.
type EntryUpdate struct {
	Entry      ShiftEntry      `json:"entry"`
	Validation EntryValidation `json:"validation"`
}
