package models

import "time"

// RequestType classifies a staff member's wish for one day. The empty value
// means no request.
type RequestType string

const (
	RequestTypeUnset       RequestType = ""
	RequestTypeAvailable   RequestType = "available"
	RequestTypeUnavailable RequestType = "unavailable"
	RequestTypePreferred   RequestType = "preferred"
)

// Next cycles available -> unavailable -> preferred -> unset -> available.
func (t RequestType) Next() RequestType {
	switch t {
	case RequestTypeAvailable:
		return RequestTypeUnavailable
	case RequestTypeUnavailable:
		return RequestTypePreferred
	case RequestTypePreferred:
		return RequestTypeUnset
	default:
		return RequestTypeAvailable
	}
}

// Valid reports whether the type is a storable request.
func (t RequestType) Valid() bool {
	return t == RequestTypeAvailable || t == RequestTypeUnavailable || t == RequestTypePreferred
}

// ShiftRequest is a staff member's stated availability for a date.
type ShiftRequest struct {
	ID          string      `db:"id" json:"id"`
	StaffID     string      `db:"staff_id" json:"staff_id"`
	StaffName   string      `db:"staff_name" json:"staff_name,omitempty"`
	YearMonth   string      `db:"year_month" json:"year_month"`
	Date        string      `db:"date" json:"date"`
	StartTime   *string     `db:"start_time" json:"start_time"`
	EndTime     *string     `db:"end_time" json:"end_time"`
	RequestType RequestType `db:"request_type" json:"request_type"`
	Note        *string     `db:"note" json:"note"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ShiftRequestDraft is one request to create in a batch.
type ShiftRequestDraft struct {
	StaffID     string      `json:"staff_id"`
	YearMonth   string      `json:"year_month"`
	Date        string      `json:"date"`
	StartTime   *string     `json:"start_time"`
	EndTime     *string     `json:"end_time"`
	RequestType RequestType `json:"request_type"`
	Note        *string     `json:"note"`
}

// StaffMonthlySetting holds a staff member's preferred hour band for a month.
type StaffMonthlySetting struct {
	ID                string    `db:"id" json:"id"`
	StaffID           string    `db:"staff_id" json:"staff_id"`
	StaffName         string    `db:"staff_name" json:"staff_name,omitempty"`
	YearMonth         string    `db:"year_month" json:"year_month"`
	MinPreferredHours int       `db:"min_preferred_hours" json:"min_preferred_hours"`
	MaxPreferredHours int       `db:"max_preferred_hours" json:"max_preferred_hours"`
	Note              *string   `db:"note" json:"note"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// MonthlySettingInput creates or updates a monthly hour preference.
type MonthlySettingInput struct {
	StaffID           string  `json:"staff_id"`
	YearMonth         string  `json:"year_month"`
	MinPreferredHours int     `json:"min_preferred_hours"`
	MaxPreferredHours int     `json:"max_preferred_hours"`
	Note              *string `json:"note"`
}
