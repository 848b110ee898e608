package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

type entryGateway interface {
	GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
	ValidateAndUpdateEntry(ctx context.Context, entryID string, times models.EntryTimes) (*models.EntryUpdate, error)
	CreateEntry(ctx context.Context, draft models.EntryDraft) (*models.ShiftEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

type editMetrics interface {
	RecordEntryEdit(kind, outcome string)
}

// EditorService mutates entries of the session's current pattern and keeps
// the derived hour totals in step with every change.
type EditorService struct {
	gateway   entryGateway
	validator *validator.Validate
	metrics   editMetrics
	logger    *zap.Logger
}

// NewEditorService constructs the schedule editor.
func NewEditorService(gateway entryGateway, validate *validator.Validate, metrics editMetrics, logger *zap.Logger) *EditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{gateway: gateway, validator: validate, metrics: metrics, logger: logger}
}

// UpdateEntry stores new times for an entry and reports the validator
// verdict. A hard breach marks the result rejected; the edit stays stored.
func (s *EditorService) UpdateEntry(ctx context.Context, state *session.State, entryID string, req dto.UpdateEntryRequest) (dto.EditResult, error) {
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)
	if err := s.validator.Struct(req); err != nil {
		return dto.EditResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_time and end_time are required and break_minutes must not be negative")
	}
	if !state.BeginEdit(entryID) {
		return dto.EditResult{}, appErrors.ErrEditInFlight
	}
	defer state.EndEdit(entryID)

	patternID, err := s.guardEntry(state, entryID)
	if err != nil {
		return dto.EditResult{}, err
	}

	update, err := s.gateway.ValidateAndUpdateEntry(ctx, entryID, models.EntryTimes{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		s.record("update", "error")
		return dto.EditResult{}, err
	}
	if update.Entry.PatternID != "" {
		patternID = update.Entry.PatternID
	}

	result := dto.EditResult{Entry: &update.Entry, Validation: &update.Validation}
	if update.Validation.Rejected() {
		result.Rejected = true
		result.Message = rejectionMessage(update.Validation)
		s.record("update", "rejected")
		s.logger.Sugar().Infow("entry edit rejected by validator", "session_id", state.ID, "entry_id", entryID, "warnings", len(update.Validation.Warnings))
	} else {
		s.record("update", "accepted")
	}

	if err := s.reload(ctx, state, patternID, &result); err != nil {
		return dto.EditResult{}, err
	}
	return result, nil
}

// CreateEntry adds an entry to a draft or selected pattern.
func (s *EditorService) CreateEntry(ctx context.Context, state *session.State, req dto.CreateEntryRequest) (dto.EditResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EditResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "pattern_id, staff_id and date are required")
	}
	if err := s.guardPattern(ctx, state, req.PatternID); err != nil {
		return dto.EditResult{}, err
	}

	entry, err := s.gateway.CreateEntry(ctx, models.EntryDraft{
		PatternID:    req.PatternID,
		StaffID:      req.StaffID,
		Date:         req.Date,
		StartTime:    strings.TrimSpace(req.StartTime),
		EndTime:      strings.TrimSpace(req.EndTime),
		BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		s.record("create", "error")
		return dto.EditResult{}, err
	}
	s.record("create", "accepted")

	result := dto.EditResult{Entry: entry}
	if err := s.reload(ctx, state, req.PatternID, &result); err != nil {
		return dto.EditResult{}, err
	}
	return result, nil
}

// DeleteEntry removes an entry. The owning pattern is re-fetched because the
// backend returns nothing.
func (s *EditorService) DeleteEntry(ctx context.Context, state *session.State, entryID string) (dto.EditResult, error) {
	if !state.BeginEdit(entryID) {
		return dto.EditResult{}, appErrors.ErrEditInFlight
	}
	defer state.EndEdit(entryID)

	patternID, err := s.guardEntry(state, entryID)
	if err != nil {
		return dto.EditResult{}, err
	}
	if err := s.gateway.DeleteEntry(ctx, entryID); err != nil {
		s.record("delete", "error")
		return dto.EditResult{}, err
	}
	s.record("delete", "accepted")

	result := dto.EditResult{}
	if err := s.reload(ctx, state, patternID, &result); err != nil {
		return dto.EditResult{}, err
	}
	return result, nil
}

// guardEntry resolves the pattern owning entryID from the session and refuses
// edits when that pattern is finalized. Entries of patterns the session has
// not loaded are refused too, since their status cannot be checked.
func (s *EditorService) guardEntry(state *session.State, entryID string) (string, error) {
	owner, ok := owningPattern(state, entryID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("entry %s is not part of a loaded pattern", entryID))
	}
	if !owner.Status.Editable() {
		return "", finalizedError()
	}
	return owner.ID, nil
}

// guardPattern refuses new entries for a finalized pattern, asking the
// backend for the status when the session has not loaded the pattern.
func (s *EditorService) guardPattern(ctx context.Context, state *session.State, patternID string) error {
	pattern, ok := cachedPattern(state, patternID)
	if !ok {
		fetched, err := s.gateway.GetPattern(ctx, patternID)
		if err != nil {
			return err
		}
		pattern = *fetched
	}
	if !pattern.Status.Editable() {
		return finalizedError()
	}
	return nil
}

func owningPattern(state *session.State, entryID string) (models.ShiftPattern, bool) {
	if current, ok := state.Current(); ok && containsEntry(current, entryID) {
		return current, true
	}
	_, patterns := state.Patterns()
	for _, p := range patterns {
		if containsEntry(p, entryID) {
			return p, true
		}
	}
	return models.ShiftPattern{}, false
}

func containsEntry(p models.ShiftPattern, entryID string) bool {
	for _, e := range p.Entries {
		if e.ID == entryID {
			return true
		}
	}
	return false
}

// reload re-fetches the pattern, makes it current and recomputes hours.
func (s *EditorService) reload(ctx context.Context, state *session.State, patternID string, result *dto.EditResult) error {
	pattern, err := s.gateway.GetPattern(ctx, patternID)
	if err != nil {
		return err
	}
	state.SetCurrent(*pattern)
	state.StorePattern(*pattern)
	result.Pattern = pattern
	result.StaffHours = hours.Breakdown(pattern.Entries)
	return nil
}

func (s *EditorService) record(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEntryEdit(kind, outcome)
	}
}

func finalizedError() error {
	return appErrors.Clone(appErrors.ErrInvalidState, "entries of a finalized pattern cannot change")
}

func rejectionMessage(v models.EntryValidation) string {
	var hard []string
	for _, w := range v.Warnings {
		if w.Hard() {
			hard = append(hard, w.Message)
		}
	}
	if len(hard) == 0 {
		return appErrors.ErrValidationRejected.Message
	}
	return fmt.Sprintf("%s: %s", appErrors.ErrValidationRejected.Message, strings.Join(hard, "; "))
}
