package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const constraintColumns = `id, name, type, category, config, is_active, priority, created_at, updated_at`

type constraintRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	Category  string         `db:"category"`
	Config    types.JSONText `db:"config"`
	IsActive  bool           `db:"is_active"`
	Priority  sql.NullInt64  `db:"priority"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// toModel decodes the stored config with the schema of the row's category.
// A zero priority is how older rows spell "unset".
func (row constraintRow) toModel() (models.Constraint, error) {
	category := models.ConstraintCategory(row.Category)
	cfg, err := models.ParseConstraintConfig(category, json.RawMessage(row.Config))
	if err != nil {
		return models.Constraint{}, fmt.Errorf("decode constraint %s config: %w", row.ID, err)
	}
	c := models.Constraint{
		ID:        row.ID,
		Name:      row.Name,
		Kind:      models.ConstraintKind(row.Type),
		Category:  category,
		Config:    cfg,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Priority.Valid && row.Priority.Int64 != 0 {
		priority := int(row.Priority.Int64)
		c.Priority = &priority
	}
	return c, nil
}

// ConstraintRepository persists scheduling constraints with JSONB configs.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs the repository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// List returns constraints matching the filter, highest priority first.
func (r *ConstraintRepository) List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	argPos := 1

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filter.IsActive)
		argPos++
	}
	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, string(*filter.Kind))
		argPos++
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, string(*filter.Category))
	}

	query := `SELECT ` + constraintColumns + ` FROM constraints`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY priority DESC, created_at ASC"

	var rows []constraintRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list constraints: %w", err)
	}
	constraints := make([]models.Constraint, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

// GetByID returns one constraint.
func (r *ConstraintRepository) GetByID(ctx context.Context, id string) (*models.Constraint, error) {
	query := `SELECT ` + constraintColumns + ` FROM constraints WHERE id = $1`
	var row constraintRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("get constraint: %w", err)
	}
	c, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a validated constraint, filling id and timestamps.
func (r *ConstraintRepository) Create(ctx context.Context, c *models.Constraint) error {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal constraint config: %w", err)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	const query = `INSERT INTO constraints (id, name, type, category, config, is_active, priority, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, string(c.Kind), string(c.Category), types.JSONText(config), c.IsActive, nullablePriority(c.Priority), c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of a constraint. sql.ErrNoRows is
// returned when the row does not exist.
func (r *ConstraintRepository) Update(ctx context.Context, c *models.Constraint) error {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal constraint config: %w", err)
	}
	c.UpdatedAt = time.Now().UTC()

	const query = `UPDATE constraints SET name = $1, type = $2, category = $3, config = $4, is_active = $5, priority = $6, updated_at = $7
WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		c.Name, string(c.Kind), string(c.Category), types.JSONText(config), c.IsActive, nullablePriority(c.Priority), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update constraint: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update constraint: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete hard-deletes a constraint. sql.ErrNoRows is returned when nothing was deleted.
func (r *ConstraintRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM constraints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete constraint: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete constraint: %w", sql.ErrNoRows)
	}
	return nil
}

func nullablePriority(priority *int) interface{} {
	if priority == nil {
		return nil
	}
	return *priority
}
