package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

type patternGateway interface {
	ListPatterns(ctx context.Context, yearMonth string) ([]models.ShiftPattern, error)
	GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
	SelectPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
	FinalizePattern(ctx context.Context, id string) (*models.ShiftPattern, error)
}

type markdownRenderer interface {
	Markdown(source string) (string, error)
}

// PatternService loads generated patterns into a session and moves them
// through draft, selected and finalized.
type PatternService struct {
	gateway  patternGateway
	renderer markdownRenderer
	logger   *zap.Logger
}

// NewPatternService constructs the pattern repository of a session.
func NewPatternService(gateway patternGateway, renderer markdownRenderer, logger *zap.Logger) *PatternService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatternService{gateway: gateway, renderer: renderer, logger: logger}
}

// List loads the patterns of yearMonth into the session.
func (s *PatternService) List(ctx context.Context, state *session.State, yearMonth string) ([]models.ShiftPattern, error) {
	period, err := calendar.Parse(yearMonth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	patterns, err := s.gateway.ListPatterns(ctx, period.String())
	if err != nil {
		return nil, err
	}
	if patterns == nil {
		patterns = []models.ShiftPattern{}
	}
	state.SetPatterns(period.String(), patterns)
	return patterns, nil
}

// Refresh reloads the period after a generation completed.
func (s *PatternService) Refresh(ctx context.Context, state *session.State, yearMonth string) ([]models.ShiftPattern, error) {
	patterns, err := s.List(ctx, state, yearMonth)
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("patterns refreshed", "session_id", state.ID, "year_month", yearMonth, "count", len(patterns))
	return patterns, nil
}

// Get fetches a pattern with its entries and makes it the session's current pattern.
func (s *PatternService) Get(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error) {
	pattern, err := s.gateway.GetPattern(ctx, id)
	if err != nil {
		return dto.PatternDetail{}, err
	}
	state.SetCurrent(*pattern)
	state.StorePattern(*pattern)
	return s.detail(*pattern), nil
}

// Select marks a pattern as the candidate for finalization. Selecting an
// already selected pattern succeeds without a backend call.
func (s *PatternService) Select(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error) {
	if cached, ok := cachedPattern(state, id); ok {
		switch cached.Status {
		case models.PatternStatusSelected:
			return s.detail(cached), nil
		case models.PatternStatusFinalized:
			return dto.PatternDetail{}, appErrors.Clone(appErrors.ErrInvalidTransition, "a finalized pattern cannot be selected")
		}
	}

	pattern, err := s.gateway.SelectPattern(ctx, id)
	if err != nil {
		return dto.PatternDetail{}, err
	}
	state.StorePattern(*pattern)
	s.logger.Sugar().Infow("pattern selected", "session_id", state.ID, "pattern_id", id)
	return s.detail(s.merged(state, *pattern)), nil
}

// Finalize locks a selected pattern. It fails when the pattern is not
// selected or a sibling of the same period is already finalized.
func (s *PatternService) Finalize(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error) {
	if cached, ok := cachedPattern(state, id); ok {
		if cached.Status != models.PatternStatusSelected {
			return dto.PatternDetail{}, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("only a selected pattern can be finalized (status %s)", cached.Status))
		}
		period, patterns := state.Patterns()
		if period == cached.YearMonth {
			for _, p := range patterns {
				if p.ID != id && p.Status == models.PatternStatusFinalized {
					return dto.PatternDetail{}, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("pattern %s is already finalized for %s", p.ID, period))
				}
			}
		}
	}

	pattern, err := s.gateway.FinalizePattern(ctx, id)
	if err != nil {
		return dto.PatternDetail{}, err
	}
	state.StorePattern(*pattern)
	s.logger.Sugar().Infow("pattern finalized", "session_id", state.ID, "pattern_id", id, "year_month", pattern.YearMonth)
	return s.detail(s.merged(state, *pattern)), nil
}

// merged prefers the session copy when the backend answer carried no entries.
func (s *PatternService) merged(state *session.State, p models.ShiftPattern) models.ShiftPattern {
	if p.Entries != nil {
		return p
	}
	if cached, ok := cachedPattern(state, p.ID); ok {
		return cached
	}
	return p
}

func (s *PatternService) detail(p models.ShiftPattern) dto.PatternDetail {
	live := hours.Breakdown(p.Entries)
	var total float64
	for _, row := range live {
		total += row.Hours
	}
	detail := dto.PatternDetail{Pattern: p, LiveHours: live, TotalHours: total}
	if p.Reasoning != nil && strings.TrimSpace(*p.Reasoning) != "" && s.renderer != nil {
		html, err := s.renderer.Markdown(*p.Reasoning)
		if err != nil {
			s.logger.Sugar().Warnw("reasoning render failed", "pattern_id", p.ID, "error", err)
		} else {
			detail.ReasoningHTML = html
		}
	}
	return detail
}

// cachedPattern finds a pattern in the session, preferring the current pattern.
func cachedPattern(state *session.State, id string) (models.ShiftPattern, bool) {
	if current, ok := state.Current(); ok && current.ID == id {
		return current, true
	}
	_, patterns := state.Patterns()
	for _, p := range patterns {
		if p.ID == id {
			return p, true
		}
	}
	return models.ShiftPattern{}, false
}
