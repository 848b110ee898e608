package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const shiftRequestColumns = `r.id, r.staff_id, COALESCE(s.name, '') AS staff_name, r.year_month, r.date::text AS date,
to_char(r.start_time, 'HH24:MI') AS start_time, to_char(r.end_time, 'HH24:MI') AS end_time,
r.request_type, r.note, r.created_at, r.updated_at`

// ShiftRequestRepository stores staff availability requests.
type ShiftRequestRepository struct {
	db *sqlx.DB
}

// NewShiftRequestRepository constructs the repository.
func NewShiftRequestRepository(db *sqlx.DB) *ShiftRequestRepository {
	return &ShiftRequestRepository{db: db}
}

func (r *ShiftRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns the requests of a period, optionally narrowed to one staff member.
func (r *ShiftRequestRepository) List(ctx context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error) {
	query := `SELECT ` + shiftRequestColumns + `
FROM shift_requests r LEFT JOIN staffs s ON s.id = r.staff_id
WHERE r.year_month = $1`
	args := []interface{}{yearMonth}
	if staffID != "" {
		query += " AND r.staff_id = $2"
		args = append(args, staffID)
	}
	query += " ORDER BY r.date ASC, s.name ASC, r.created_at ASC"

	var requests []models.ShiftRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list shift requests: %w", err)
	}
	return requests, nil
}

// CreateBatch inserts every draft using exec, or the pool when exec is nil.
func (r *ShiftRequestRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error) {
	if len(drafts) == 0 {
		return []models.ShiftRequest{}, nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	query := `WITH r AS (
INSERT INTO shift_requests (id, staff_id, year_month, date, start_time, end_time, request_type, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8, $9, $9)
RETURNING *)
SELECT ` + shiftRequestColumns + ` FROM r LEFT JOIN staffs s ON s.id = r.staff_id`

	created := make([]models.ShiftRequest, 0, len(drafts))
	for _, draft := range drafts {
		var request models.ShiftRequest
		if err := sqlx.GetContext(ctx, target, &request, query,
			uuid.NewString(), draft.StaffID, draft.YearMonth, draft.Date, draft.StartTime, draft.EndTime, string(draft.RequestType), draft.Note, now,
		); err != nil {
			return nil, fmt.Errorf("create shift request for %s: %w", draft.Date, err)
		}
		created = append(created, request)
	}
	return created, nil
}
