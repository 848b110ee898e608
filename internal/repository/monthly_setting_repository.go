package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const monthlySettingColumns = `m.id, m.staff_id, COALESCE(s.name, '') AS staff_name, m.year_month, m.min_preferred_hours,
m.max_preferred_hours, m.note, m.created_at, m.updated_at`

// MonthlySettingRepository stores per-month preferred hour bands.
type MonthlySettingRepository struct {
	db *sqlx.DB
}

// NewMonthlySettingRepository constructs the repository.
func NewMonthlySettingRepository(db *sqlx.DB) *MonthlySettingRepository {
	return &MonthlySettingRepository{db: db}
}

// List returns the settings of a period, optionally for one staff member.
func (r *MonthlySettingRepository) List(ctx context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error) {
	query := `SELECT ` + monthlySettingColumns + `
FROM staff_monthly_settings m LEFT JOIN staffs s ON s.id = m.staff_id
WHERE m.year_month = $1`
	args := []interface{}{yearMonth}
	if staffID != "" {
		query += " AND m.staff_id = $2"
		args = append(args, staffID)
	}
	query += " ORDER BY s.name ASC"

	var settings []models.StaffMonthlySetting
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("list monthly settings: %w", err)
	}
	return settings, nil
}

// Upsert creates the staff member's setting for the period or overwrites the existing one.
func (r *MonthlySettingRepository) Upsert(ctx context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	query := `WITH m AS (
INSERT INTO staff_monthly_settings (id, staff_id, year_month, min_preferred_hours, max_preferred_hours, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (staff_id, year_month) DO UPDATE
SET min_preferred_hours = EXCLUDED.min_preferred_hours,
    max_preferred_hours = EXCLUDED.max_preferred_hours,
    note = EXCLUDED.note,
    updated_at = NOW()
RETURNING *)
SELECT ` + monthlySettingColumns + ` FROM m LEFT JOIN staffs s ON s.id = m.staff_id`
	var setting models.StaffMonthlySetting
	if err := r.db.GetContext(ctx, &setting, query,
		uuid.NewString(), input.StaffID, input.YearMonth, input.MinPreferredHours, input.MaxPreferredHours, input.Note,
	); err != nil {
		return nil, fmt.Errorf("upsert monthly setting: %w", err)
	}
	return &setting, nil
}

// Update changes the hour band of an existing setting.
func (r *MonthlySettingRepository) Update(ctx context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	query := `WITH m AS (
UPDATE staff_monthly_settings SET min_preferred_hours = $1, max_preferred_hours = $2, note = $3, updated_at = NOW()
WHERE id = $4
RETURNING *)
SELECT ` + monthlySettingColumns + ` FROM m LEFT JOIN staffs s ON s.id = m.staff_id`
	var setting models.StaffMonthlySetting
	if err := r.db.GetContext(ctx, &setting, query, input.MinPreferredHours, input.MaxPreferredHours, input.Note, id); err != nil {
		return nil, fmt.Errorf("update monthly setting: %w", err)
	}
	return &setting, nil
}

// Delete removes a setting. sql.ErrNoRows is returned when nothing was deleted.
func (r *MonthlySettingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM staff_monthly_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete monthly setting: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete monthly setting: %w", sql.ErrNoRows)
	}
	return nil
}
