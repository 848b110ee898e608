package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const shiftPatternColumns = `id, year_month, status, reasoning, score, constraint_violations, created_at, updated_at`

// ShiftPatternRepository reads generated patterns and applies status transitions.
type ShiftPatternRepository struct {
	db *sqlx.DB
}

// NewShiftPatternRepository constructs the repository.
func NewShiftPatternRepository(db *sqlx.DB) *ShiftPatternRepository {
	return &ShiftPatternRepository{db: db}
}

// ListByYearMonth returns the patterns of a period in generation order.
func (r *ShiftPatternRepository) ListByYearMonth(ctx context.Context, yearMonth string) ([]models.ShiftPattern, error) {
	query := `SELECT ` + shiftPatternColumns + ` FROM shift_patterns WHERE year_month = $1 ORDER BY created_at ASC`
	var patterns []models.ShiftPattern
	if err := r.db.SelectContext(ctx, &patterns, query, yearMonth); err != nil {
		return nil, fmt.Errorf("list shift patterns: %w", err)
	}
	return patterns, nil
}

// GetByID returns a pattern without entries.
func (r *ShiftPatternRepository) GetByID(ctx context.Context, id string) (*models.ShiftPattern, error) {
	query := `SELECT ` + shiftPatternColumns + ` FROM shift_patterns WHERE id = $1`
	var pattern models.ShiftPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, fmt.Errorf("get shift pattern: %w", err)
	}
	return &pattern, nil
}

// Select marks a draft or selected pattern as selected. Sibling patterns are
// left untouched. sql.ErrNoRows is returned when the row is missing or finalized.
func (r *ShiftPatternRepository) Select(ctx context.Context, id string) (*models.ShiftPattern, error) {
	query := `UPDATE shift_patterns SET status = 'selected', updated_at = NOW()
WHERE id = $1 AND status IN ('draft', 'selected')
RETURNING ` + shiftPatternColumns
	var pattern models.ShiftPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, fmt.Errorf("select shift pattern: %w", err)
	}
	return &pattern, nil
}

// Finalize moves a selected pattern to finalized when no other pattern of the
// same period is finalized. sql.ErrNoRows is returned when either condition fails.
func (r *ShiftPatternRepository) Finalize(ctx context.Context, id string) (*models.ShiftPattern, error) {
	query := `UPDATE shift_patterns AS p SET status = 'finalized', updated_at = NOW()
WHERE p.id = $1 AND p.status = 'selected'
AND NOT EXISTS (SELECT 1 FROM shift_patterns s WHERE s.year_month = p.year_month AND s.status = 'finalized' AND s.id <> p.id)
RETURNING ` + shiftPatternColumns
	var pattern models.ShiftPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, fmt.Errorf("finalize shift pattern: %w", err)
	}
	return &pattern, nil
}

// HasFinalized reports whether the period already has a finalized pattern.
func (r *ShiftPatternRepository) HasFinalized(ctx context.Context, yearMonth string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM shift_patterns WHERE year_month = $1 AND status = 'finalized')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, yearMonth); err != nil {
		return false, fmt.Errorf("check finalized shift pattern: %w", err)
	}
	return exists, nil
}
