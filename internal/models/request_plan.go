package models

import (
	"fmt"
	"sort"

	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

const (
	DefaultRequestStart = "09:00"
	DefaultRequestEnd   = "17:00"
)

// DayRequest is one calendar day of a staff member's request plan.
type DayRequest struct {
	Date        string      `json:"date"`
	RequestType RequestType `json:"request_type"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time"`
	ExistingID  string      `json:"existing_id,omitempty"`
}

// RequestPlan is the editable month of requests for one staff member.
type RequestPlan struct {
	StaffID   string               `json:"staff_id"`
	YearMonth string               `json:"year_month"`
	Days      []DayRequest         `json:"days"`
	Setting   *StaffMonthlySetting `json:"setting,omitempty"`
}

// NewRequestPlan lays out every day of period and overlays stored requests.
func NewRequestPlan(staffID string, period calendar.Period, existing []ShiftRequest, setting *StaffMonthlySetting) *RequestPlan {
	dates := period.Dates()
	days := make([]DayRequest, len(dates))
	index := make(map[string]int, len(dates))
	for i, date := range dates {
		days[i] = DayRequest{Date: date, StartTime: DefaultRequestStart, EndTime: DefaultRequestEnd}
		index[date] = i
	}

	// Later rows win when the store holds several requests for one day.
	sorted := append([]ShiftRequest(nil), existing...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	for _, r := range sorted {
		i, ok := index[r.Date]
		if !ok || (staffID != "" && r.StaffID != staffID) {
			continue
		}
		days[i].RequestType = r.RequestType
		days[i].ExistingID = r.ID
		if r.StartTime != nil && *r.StartTime != "" {
			days[i].StartTime = trimClock(*r.StartTime)
		}
		if r.EndTime != nil && *r.EndTime != "" {
			days[i].EndTime = trimClock(*r.EndTime)
		}
	}

	return &RequestPlan{StaffID: staffID, YearMonth: period.String(), Days: days, Setting: setting}
}

// Toggle advances the request type of date and leaves every other day alone.
func (p *RequestPlan) Toggle(date string) (DayRequest, error) {
	i, err := p.indexOf(date)
	if err != nil {
		return DayRequest{}, err
	}
	p.Days[i].RequestType = p.Days[i].RequestType.Next()
	return p.Days[i], nil
}

// SetTimes changes the requested working window of date.
func (p *RequestPlan) SetTimes(date, start, end string) (DayRequest, error) {
	i, err := p.indexOf(date)
	if err != nil {
		return DayRequest{}, err
	}
	startMin, err := calendar.ParseClock(start)
	if err != nil {
		return DayRequest{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start_time: %v", err))
	}
	endMin, err := calendar.ParseClock(end)
	if err != nil {
		return DayRequest{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("end_time: %v", err))
	}
	if startMin >= endMin {
		return DayRequest{}, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	p.Days[i].StartTime = calendar.FormatClock(startMin)
	p.Days[i].EndTime = calendar.FormatClock(endMin)
	return p.Days[i], nil
}

// Drafts returns a request for every classified day. Unavailable days carry
// no times.
func (p *RequestPlan) Drafts() []ShiftRequestDraft {
	drafts := make([]ShiftRequestDraft, 0, len(p.Days))
	for _, d := range p.Days {
		if !d.RequestType.Valid() {
			continue
		}
		draft := ShiftRequestDraft{
			StaffID:     p.StaffID,
			YearMonth:   p.YearMonth,
			Date:        d.Date,
			RequestType: d.RequestType,
		}
		if d.RequestType != RequestTypeUnavailable {
			start, end := d.StartTime, d.EndTime
			draft.StartTime = &start
			draft.EndTime = &end
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// Clone returns a deep copy safe to hand out of a session.
func (p *RequestPlan) Clone() RequestPlan {
	out := *p
	out.Days = append([]DayRequest(nil), p.Days...)
	if p.Setting != nil {
		setting := *p.Setting
		out.Setting = &setting
	}
	return out
}

func (p *RequestPlan) indexOf(date string) (int, error) {
	for i, d := range p.Days {
		if d.Date == date {
			return i, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s is not in %s", date, p.YearMonth))
}

func trimClock(raw string) string {
	if minutes, err := calendar.ParseClock(raw); err == nil {
		return calendar.FormatClock(minutes)
	}
	return raw
}
