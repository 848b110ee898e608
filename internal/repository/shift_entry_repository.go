package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

// Days off are stored with NULL times and surface as empty strings.
const shiftEntryColumns = `e.id, e.pattern_id, e.staff_id, COALESCE(s.name, '') AS staff_name, e.date::text AS date,
COALESCE(to_char(e.start_time, 'HH24:MI'), '') AS start_time, COALESCE(to_char(e.end_time, 'HH24:MI'), '') AS end_time,
e.break_minutes, e.is_manual_edit, e.created_at, e.updated_at`

// ShiftEntryRepository manages the entries of generated patterns.
type ShiftEntryRepository struct {
	db *sqlx.DB
}

// NewShiftEntryRepository constructs the repository.
func NewShiftEntryRepository(db *sqlx.DB) *ShiftEntryRepository {
	return &ShiftEntryRepository{db: db}
}

// ListByPattern returns the entries of a pattern ordered by date, start and staff name.
func (r *ShiftEntryRepository) ListByPattern(ctx context.Context, patternID string) ([]models.ShiftEntry, error) {
	query := `SELECT ` + shiftEntryColumns + `
FROM shift_entries e LEFT JOIN staffs s ON s.id = e.staff_id
WHERE e.pattern_id = $1 ORDER BY e.date ASC, e.start_time ASC NULLS LAST, s.name ASC`
	var entries []models.ShiftEntry
	if err := r.db.SelectContext(ctx, &entries, query, patternID); err != nil {
		return nil, fmt.Errorf("list shift entries: %w", err)
	}
	return entries, nil
}

// GetByID returns one entry with its staff name.
func (r *ShiftEntryRepository) GetByID(ctx context.Context, id string) (*models.ShiftEntry, error) {
	query := `SELECT ` + shiftEntryColumns + `
FROM shift_entries e LEFT JOIN staffs s ON s.id = e.staff_id WHERE e.id = $1`
	var entry models.ShiftEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, fmt.Errorf("get shift entry: %w", err)
	}
	return &entry, nil
}

// Create inserts a manually added entry and returns the stored row.
func (r *ShiftEntryRepository) Create(ctx context.Context, draft models.EntryDraft) (*models.ShiftEntry, error) {
	now := time.Now().UTC()
	query := `WITH e AS (
INSERT INTO shift_entries (id, pattern_id, staff_id, date, start_time, end_time, break_minutes, is_manual_edit, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::time, NULLIF($6, '')::time, $7, true, $8, $8)
RETURNING *)
SELECT ` + shiftEntryColumns + ` FROM e LEFT JOIN staffs s ON s.id = e.staff_id`
	var entry models.ShiftEntry
	if err := r.db.GetContext(ctx, &entry, query,
		uuid.NewString(), draft.PatternID, draft.StaffID, draft.Date, draft.StartTime, draft.EndTime, draft.BreakMinutes, now,
	); err != nil {
		return nil, fmt.Errorf("create shift entry: %w", err)
	}
	return &entry, nil
}

// UpdateTimes rewrites the working interval and flags the entry as manually edited.
func (r *ShiftEntryRepository) UpdateTimes(ctx context.Context, id string, times models.EntryTimes) (*models.ShiftEntry, error) {
	query := `WITH e AS (
UPDATE shift_entries SET start_time = NULLIF($1, '')::time, end_time = NULLIF($2, '')::time, break_minutes = $3,
is_manual_edit = true, updated_at = NOW()
WHERE id = $4
RETURNING *)
SELECT ` + shiftEntryColumns + ` FROM e LEFT JOIN staffs s ON s.id = e.staff_id`
	var entry models.ShiftEntry
	if err := r.db.GetContext(ctx, &entry, query, times.StartTime, times.EndTime, times.BreakMinutes, id); err != nil {
		return nil, fmt.Errorf("update shift entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry. sql.ErrNoRows is returned when nothing was deleted.
func (r *ShiftEntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shift_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shift entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete shift entry: %w", sql.ErrNoRows)
	}
	return nil
}
