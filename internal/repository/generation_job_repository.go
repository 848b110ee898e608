package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const generationJobColumns = `id, year_month, status, pattern_count, progress, status_message, error_message, started_at, completed_at, created_at`

// GenerationJobRepository persists optimizer job rows picked up by the worker.
type GenerationJobRepository struct {
	db *sqlx.DB
}

// NewGenerationJobRepository constructs the repository.
func NewGenerationJobRepository(db *sqlx.DB) *GenerationJobRepository {
	return &GenerationJobRepository{db: db}
}

// CreateIfIdle inserts a pending job unless the period already has a pending
// or processing one. It reports false when the insert was skipped.
func (r *GenerationJobRepository) CreateIfIdle(ctx context.Context, job *models.GenerationJob) (bool, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.JobStatusPending
	job.Progress = 0
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO generation_jobs (id, year_month, status, pattern_count, progress, created_at)
SELECT $1, $2, $3, $4, $5, $6
WHERE NOT EXISTS (SELECT 1 FROM generation_jobs WHERE year_month = $2 AND status IN ('pending', 'processing'))`
	res, err := r.db.ExecContext(ctx, query, job.ID, job.YearMonth, job.Status, job.PatternCount, job.Progress, job.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create generation job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create generation job: %w", err)
	}
	return affected == 1, nil
}

// GetByID returns a job row by identifier.
func (r *GenerationJobRepository) GetByID(ctx context.Context, id string) (*models.GenerationJob, error) {
	query := `SELECT ` + generationJobColumns + ` FROM generation_jobs WHERE id = $1`
	var job models.GenerationJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get generation job: %w", err)
	}
	return &job, nil
}

// HasActiveForMonth reports whether a pending or processing job exists for the period.
func (r *GenerationJobRepository) HasActiveForMonth(ctx context.Context, yearMonth string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM generation_jobs WHERE year_month = $1 AND status IN ('pending', 'processing'))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, yearMonth); err != nil {
		return false, fmt.Errorf("check active generation job: %w", err)
	}
	return exists, nil
}
