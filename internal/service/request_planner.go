package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

type requestGateway interface {
	ListShiftRequests(ctx context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error)
	BatchCreateShiftRequests(ctx context.Context, drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error)
	ListMonthlySettings(ctx context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error)
	CreateMonthlySetting(ctx context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	UpdateMonthlySetting(ctx context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	DeleteMonthlySetting(ctx context.Context, id string) error
}

// RequestPlannerService edits a staff member's month of shift requests and
// hour preference inside a session.
type RequestPlannerService struct {
	gateway   requestGateway
	sanitizer textSanitizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestPlannerService constructs the planner.
func NewRequestPlannerService(gateway requestGateway, sanitizer textSanitizer, validate *validator.Validate, logger *zap.Logger) *RequestPlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestPlannerService{gateway: gateway, sanitizer: sanitizer, validator: validate, logger: logger}
}

// Load builds the plan from stored requests and the monthly setting.
func (s *RequestPlannerService) Load(ctx context.Context, state *session.State, staffID, yearMonth string) (models.RequestPlan, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return models.RequestPlan{}, appErrors.Clone(appErrors.ErrValidation, "staff id is required")
	}
	period, err := calendar.Parse(yearMonth)
	if err != nil {
		return models.RequestPlan{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	requests, err := s.gateway.ListShiftRequests(ctx, period.String(), staffID)
	if err != nil {
		return models.RequestPlan{}, err
	}
	settings, err := s.gateway.ListMonthlySettings(ctx, period.String(), staffID)
	if err != nil {
		return models.RequestPlan{}, err
	}
	var setting *models.StaffMonthlySetting
	for i := range settings {
		if settings[i].StaffID == staffID {
			found := settings[i]
			setting = &found
			break
		}
	}

	plan := models.NewRequestPlan(staffID, period, requests, setting)
	state.SetPlan(plan)
	return plan.Clone(), nil
}

// Toggle cycles the request type of one day.
func (s *RequestPlannerService) Toggle(ctx context.Context, state *session.State, req dto.ToggleDayRequest) (models.DayRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.DayRequest{}, requestError(err)
	}
	var day models.DayRequest
	err := s.withPlan(ctx, state, req.StaffID, req.YearMonth, func(plan *models.RequestPlan) error {
		var err error
		day, err = plan.Toggle(req.Date)
		return err
	})
	return day, err
}

// SetTimes changes the requested window of one day.
func (s *RequestPlannerService) SetTimes(ctx context.Context, state *session.State, date string, req dto.SetDayTimesRequest) (models.DayRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.DayRequest{}, requestError(err)
	}
	var day models.DayRequest
	err := s.withPlan(ctx, state, req.StaffID, req.YearMonth, func(plan *models.RequestPlan) error {
		var err error
		day, err = plan.SetTimes(date, req.StartTime, req.EndTime)
		return err
	})
	return day, err
}

// Save applies the hour preference and stores every classified day, then
// reloads the plan.
//
//	hours enabled              -> update the setting or create one
//	disabled, setting exists   -> delete it
//	disabled, no setting       -> leave it
func (s *RequestPlannerService) Save(ctx context.Context, state *session.State, req dto.SaveRequestPlanRequest) (dto.SaveRequestPlanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SaveRequestPlanResult{}, requestError(err)
	}
	if req.HoursEnabled && req.MinPreferredHours > req.MaxPreferredHours {
		return dto.SaveRequestPlanResult{}, appErrors.Clone(appErrors.ErrValidation, "min_preferred_hours must not exceed max_preferred_hours")
	}

	plan, err := s.plan(ctx, state, req.StaffID, req.YearMonth)
	if err != nil {
		return dto.SaveRequestPlanResult{}, err
	}

	action, err := s.saveSetting(ctx, plan, req)
	if err != nil {
		return dto.SaveRequestPlanResult{}, err
	}

	result := dto.SaveRequestPlanResult{SettingAction: action}
	if drafts := plan.Drafts(); len(drafts) > 0 {
		created, err := s.gateway.BatchCreateShiftRequests(ctx, drafts)
		if err != nil {
			return dto.SaveRequestPlanResult{}, err
		}
		result.CreatedCount = len(created)
	}

	reloaded, err := s.Load(ctx, state, plan.StaffID, plan.YearMonth)
	if err != nil {
		return dto.SaveRequestPlanResult{}, err
	}
	result.Plan = reloaded

	s.logger.Sugar().Infow("request plan saved", "session_id", state.ID, "staff_id", plan.StaffID, "year_month", plan.YearMonth, "requests", result.CreatedCount, "setting", action)
	return result, nil
}

func (s *RequestPlannerService) saveSetting(ctx context.Context, plan models.RequestPlan, req dto.SaveRequestPlanRequest) (string, error) {
	existing := plan.Setting
	if !req.HoursEnabled {
		if existing == nil {
			return dto.SettingUnchanged, nil
		}
		if err := s.gateway.DeleteMonthlySetting(ctx, existing.ID); err != nil {
			return "", err
		}
		return dto.SettingDeleted, nil
	}

	input := models.MonthlySettingInput{
		StaffID:           plan.StaffID,
		YearMonth:         plan.YearMonth,
		MinPreferredHours: req.MinPreferredHours,
		MaxPreferredHours: req.MaxPreferredHours,
		Note:              s.plainPtr(req.Note),
	}
	if existing != nil {
		if _, err := s.gateway.UpdateMonthlySetting(ctx, existing.ID, input); err != nil {
			return "", err
		}
		return dto.SettingUpdated, nil
	}
	if _, err := s.gateway.CreateMonthlySetting(ctx, input); err != nil {
		return "", err
	}
	return dto.SettingCreated, nil
}

// plan returns the stored plan, loading it on first use.
func (s *RequestPlannerService) plan(ctx context.Context, state *session.State, staffID, yearMonth string) (models.RequestPlan, error) {
	yearMonth = normalizePeriod(yearMonth)
	if plan, ok := state.Plan(staffID, yearMonth); ok {
		return plan, nil
	}
	return s.Load(ctx, state, staffID, yearMonth)
}

func (s *RequestPlannerService) withPlan(ctx context.Context, state *session.State, staffID, yearMonth string, fn func(*models.RequestPlan) error) error {
	yearMonth = normalizePeriod(yearMonth)
	if _, ok := state.Plan(staffID, yearMonth); !ok {
		if _, err := s.Load(ctx, state, staffID, yearMonth); err != nil {
			return err
		}
	}
	_, found, err := state.WithPlan(staffID, yearMonth, fn)
	if err != nil {
		return err
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "request plan not loaded")
	}
	return nil
}

// normalizePeriod matches the key Load stores plans under. Unparsable input is
// returned unchanged and rejected by Load.
func normalizePeriod(yearMonth string) string {
	if period, err := calendar.Parse(yearMonth); err == nil {
		return period.String()
	}
	return yearMonth
}

func (s *RequestPlannerService) plainPtr(input *string) *string {
	if input == nil {
		return nil
	}
	text := strings.TrimSpace(*input)
	if s.sanitizer != nil {
		text = s.sanitizer.PlainText(text)
	}
	if text == "" {
		return nil
	}
	return &text
}
