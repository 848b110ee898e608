package gateway

import (
	"context"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

// Gateway is the contract with the optimizer and validator backend. HTTPClient
// talks to the backend's REST API; Store talks to the shared Postgres store.
type Gateway interface {
	SubmitGeneration(ctx context.Context, yearMonth string, patternCount int) (*models.GenerationJob, error)
	GetJobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error)

	ListPatterns(ctx context.Context, yearMonth string) ([]models.ShiftPattern, error)
	GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
	SelectPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
	FinalizePattern(ctx context.Context, id string) (*models.ShiftPattern, error)

	ValidateAndUpdateEntry(ctx context.Context, entryID string, times models.EntryTimes) (*models.EntryUpdate, error)
	CreateEntry(ctx context.Context, draft models.EntryDraft) (*models.ShiftEntry, error)
	DeleteEntry(ctx context.Context, id string) error

	ListConstraints(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error)
	GetConstraint(ctx context.Context, id string) (*models.Constraint, error)
	CreateConstraint(ctx context.Context, c models.Constraint) (*models.Constraint, error)
	UpdateConstraint(ctx context.Context, id string, patch models.ConstraintPatch) (*models.Constraint, error)
	DeleteConstraint(ctx context.Context, id string) error

	ListShiftRequests(ctx context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error)
	BatchCreateShiftRequests(ctx context.Context, drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error)

	ListMonthlySettings(ctx context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error)
	CreateMonthlySetting(ctx context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	UpdateMonthlySetting(ctx context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	DeleteMonthlySetting(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// MaxBatchRequests bounds one shift request batch.
const MaxBatchRequests = 100

var (
	_ Gateway = (*HTTPClient)(nil)
	_ Gateway = (*Store)(nil)
)
