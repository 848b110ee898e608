package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/repository"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// Store reaches the shared Postgres store of record directly. Generation is
// requested by inserting a pending job row for the optimizer worker; entry
// edits are judged by the built-in validator.
type Store struct {
	db          *sqlx.DB
	jobs        *repository.GenerationJobRepository
	patterns    *repository.ShiftPatternRepository
	entries     *repository.ShiftEntryRepository
	constraints *repository.ConstraintRepository
	requests    *repository.ShiftRequestRepository
	settings    *repository.MonthlySettingRepository
	logger      *zap.Logger
}

// NewStore wires the repositories over db.
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:          db,
		jobs:        repository.NewGenerationJobRepository(db),
		patterns:    repository.NewShiftPatternRepository(db),
		entries:     repository.NewShiftEntryRepository(db),
		constraints: repository.NewConstraintRepository(db),
		requests:    repository.NewShiftRequestRepository(db),
		settings:    repository.NewMonthlySettingRepository(db),
		logger:      logger,
	}
}

// storeError maps a repository failure. Missing rows become NotFound; anything
// else is reported as a transient fetch failure.
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	var domainErr *appErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return appErrors.Transient(err, "shift store unavailable")
}

// SubmitGeneration queues a job unless one is already pending or processing for the period.
func (s *Store) SubmitGeneration(ctx context.Context, yearMonth string, patternCount int) (*models.GenerationJob, error) {
	job := &models.GenerationJob{YearMonth: yearMonth, PatternCount: patternCount}
	created, err := s.jobs.CreateIfIdle(ctx, job)
	if err != nil {
		return nil, storeError(err, "generation job")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrSubmission, fmt.Sprintf("a generation for %s is already running", yearMonth))
	}
	s.logger.Sugar().Infow("generation job queued", "job_id", job.ID, "year_month", yearMonth, "pattern_count", patternCount)
	return job, nil
}

// GetJobStatus reads the job row.
func (s *Store) GetJobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeError(err, "generation job")
	}
	return job, nil
}

// ListPatterns returns the period's patterns with freshly computed summaries.
func (s *Store) ListPatterns(ctx context.Context, yearMonth string) ([]models.ShiftPattern, error) {
	patterns, err := s.patterns.ListByYearMonth(ctx, yearMonth)
	if err != nil {
		return nil, storeError(err, "patterns")
	}
	if patterns == nil {
		patterns = []models.ShiftPattern{}
	}
	for i := range patterns {
		entries, err := s.entries.ListByPattern(ctx, patterns[i].ID)
		if err != nil {
			return nil, storeError(err, "entries")
		}
		summary := hours.Summarize(entries)
		patterns[i].Summary = &summary
	}
	return patterns, nil
}

// GetPattern returns a pattern with its entries and summary.
func (s *Store) GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	pattern, err := s.patterns.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "pattern")
	}
	return s.withEntries(ctx, pattern)
}

func (s *Store) withEntries(ctx context.Context, pattern *models.ShiftPattern) (*models.ShiftPattern, error) {
	entries, err := s.entries.ListByPattern(ctx, pattern.ID)
	if err != nil {
		return nil, storeError(err, "entries")
	}
	if entries == nil {
		entries = []models.ShiftEntry{}
	}
	summary := hours.Summarize(entries)
	pattern.Entries = entries
	pattern.Summary = &summary
	return pattern, nil
}

// SelectPattern marks a pattern selected with a conditional update. Sibling
// patterns keep their status.
func (s *Store) SelectPattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	pattern, err := s.patterns.Select(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, storeError(err, "pattern")
		}
		if _, getErr := s.patterns.GetByID(ctx, id); getErr != nil {
			return nil, storeError(getErr, "pattern")
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "a finalized pattern cannot be selected")
	}
	return s.withEntries(ctx, pattern)
}

// FinalizePattern finalizes a selected pattern when no sibling is finalized.
func (s *Store) FinalizePattern(ctx context.Context, id string) (*models.ShiftPattern, error) {
	pattern, err := s.patterns.Finalize(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, storeError(err, "pattern")
		}
		current, getErr := s.patterns.GetByID(ctx, id)
		if getErr != nil {
			return nil, storeError(getErr, "pattern")
		}
		if current.Status != models.PatternStatusSelected {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("only a selected pattern can be finalized (status %s)", current.Status))
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("another pattern for %s is already finalized", current.YearMonth))
	}
	s.logger.Sugar().Infow("pattern finalized", "pattern_id", id, "year_month", pattern.YearMonth)
	return s.withEntries(ctx, pattern)
}

func (s *Store) editablePattern(ctx context.Context, patternID string) (*models.ShiftPattern, error) {
	pattern, err := s.patterns.GetByID(ctx, patternID)
	if err != nil {
		return nil, storeError(err, "pattern")
	}
	if !pattern.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "entries of a finalized pattern cannot change")
	}
	return pattern, nil
}

// ValidateAndUpdateEntry stores the new times and judges the result against
// active constraints, unavailable days and monthly hour preferences.
func (s *Store) ValidateAndUpdateEntry(ctx context.Context, entryID string, times models.EntryTimes) (*models.EntryUpdate, error) {
	current, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, storeError(err, "entry")
	}
	pattern, err := s.editablePattern(ctx, current.PatternID)
	if err != nil {
		return nil, err
	}
	updated, err := s.entries.UpdateTimes(ctx, entryID, times)
	if err != nil {
		return nil, storeError(err, "entry")
	}

	check, err := s.entryCheck(ctx, pattern, *updated)
	if err != nil {
		return nil, err
	}
	return &models.EntryUpdate{Entry: *updated, Validation: ValidateEntry(check)}, nil
}

func (s *Store) entryCheck(ctx context.Context, pattern *models.ShiftPattern, target models.ShiftEntry) (EntryCheck, error) {
	entries, err := s.entries.ListByPattern(ctx, pattern.ID)
	if err != nil {
		return EntryCheck{}, storeError(err, "entries")
	}
	active := true
	constraints, err := s.constraints.List(ctx, models.ConstraintFilter{IsActive: &active})
	if err != nil {
		return EntryCheck{}, storeError(err, "constraints")
	}
	requests, err := s.requests.List(ctx, pattern.YearMonth, target.StaffID)
	if err != nil {
		return EntryCheck{}, storeError(err, "shift requests")
	}
	settings, err := s.settings.List(ctx, pattern.YearMonth, target.StaffID)
	if err != nil {
		return EntryCheck{}, storeError(err, "monthly settings")
	}

	check := EntryCheck{
		YearMonth:   pattern.YearMonth,
		Target:      target,
		Entries:     entries,
		Constraints: constraints,
		Unavailable: make(map[string]bool),
		Settings:    make(map[string]models.StaffMonthlySetting, len(settings)),
	}
	for _, r := range requests {
		if r.RequestType == models.RequestTypeUnavailable {
			check.Unavailable[r.StaffID+":"+r.Date] = true
		}
	}
	for _, setting := range settings {
		check.Settings[setting.StaffID] = setting
	}
	return check, nil
}

// CreateEntry adds an entry to a draft or selected pattern.
func (s *Store) CreateEntry(ctx context.Context, draft models.EntryDraft) (*models.ShiftEntry, error) {
	if _, err := s.editablePattern(ctx, draft.PatternID); err != nil {
		return nil, err
	}
	entry, err := s.entries.Create(ctx, draft)
	if err != nil {
		return nil, storeError(err, "entry")
	}
	return entry, nil
}

// DeleteEntry removes an entry from a draft or selected pattern.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "entry")
	}
	if _, err := s.editablePattern(ctx, entry.PatternID); err != nil {
		return err
	}
	return storeError(s.entries.Delete(ctx, id), "entry")
}

// ListConstraints returns constraints matching filter.
func (s *Store) ListConstraints(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	list, err := s.constraints.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "constraints")
	}
	return list, nil
}

// GetConstraint returns one constraint.
func (s *Store) GetConstraint(ctx context.Context, id string) (*models.Constraint, error) {
	c, err := s.constraints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "constraint")
	}
	return c, nil
}

// CreateConstraint validates and stores a constraint.
func (s *Store) CreateConstraint(ctx context.Context, def models.Constraint) (*models.Constraint, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def.ID = ""
	if err := s.constraints.Create(ctx, &def); err != nil {
		return nil, storeError(err, "constraint")
	}
	return &def, nil
}

// UpdateConstraint applies patch to the stored row.
func (s *Store) UpdateConstraint(ctx context.Context, id string, patch models.ConstraintPatch) (*models.Constraint, error) {
	current, err := s.constraints.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "constraint")
	}
	next, err := patch.Apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.constraints.Update(ctx, &next); err != nil {
		return nil, storeError(err, "constraint")
	}
	return &next, nil
}

// DeleteConstraint hard-deletes a constraint.
func (s *Store) DeleteConstraint(ctx context.Context, id string) error {
	return storeError(s.constraints.Delete(ctx, id), "constraint")
}

// ListShiftRequests returns the requests of a period.
func (s *Store) ListShiftRequests(ctx context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error) {
	list, err := s.requests.List(ctx, yearMonth, staffID)
	if err != nil {
		return nil, storeError(err, "shift requests")
	}
	if list == nil {
		list = []models.ShiftRequest{}
	}
	return list, nil
}

// BatchCreateShiftRequests inserts every draft in one transaction.
func (s *Store) BatchCreateShiftRequests(ctx context.Context, drafts []models.ShiftRequestDraft) (created []models.ShiftRequest, err error) {
	if len(drafts) == 0 {
		return []models.ShiftRequest{}, nil
	}
	if len(drafts) > MaxBatchRequests {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d requests per batch", MaxBatchRequests))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError(err, "shift requests")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created, err = s.requests.CreateBatch(ctx, tx, drafts)
	if err != nil {
		return nil, storeError(err, "shift requests")
	}
	if err = tx.Commit(); err != nil {
		return nil, storeError(err, "shift requests")
	}
	return created, nil
}

// ListMonthlySettings returns hour preferences of a period.
func (s *Store) ListMonthlySettings(ctx context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error) {
	list, err := s.settings.List(ctx, yearMonth, staffID)
	if err != nil {
		return nil, storeError(err, "monthly settings")
	}
	if list == nil {
		list = []models.StaffMonthlySetting{}
	}
	return list, nil
}

// CreateMonthlySetting creates or overwrites a staff member's setting for the period.
func (s *Store) CreateMonthlySetting(ctx context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	setting, err := s.settings.Upsert(ctx, input)
	if err != nil {
		return nil, storeError(err, "monthly setting")
	}
	return setting, nil
}

// UpdateMonthlySetting changes an existing setting.
func (s *Store) UpdateMonthlySetting(ctx context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	setting, err := s.settings.Update(ctx, id, input)
	if err != nil {
		return nil, storeError(err, "monthly setting")
	}
	return setting, nil
}

// DeleteMonthlySetting removes a setting.
func (s *Store) DeleteMonthlySetting(ctx context.Context, id string) error {
	return storeError(s.settings.Delete(ctx, id), "monthly setting")
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return appErrors.Transient(err, "shift store unavailable")
	}
	return nil
}
