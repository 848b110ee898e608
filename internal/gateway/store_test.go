package gateway

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

var (
	patternCols = []string{"id", "year_month", "status", "reasoning", "score", "constraint_violations", "created_at", "updated_at"}
	entryCols   = []string{"id", "pattern_id", "staff_id", "staff_name", "date", "start_time", "end_time", "break_minutes", "is_manual_edit", "created_at", "updated_at"}
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewStore(sqlx.NewDb(db, "sqlmock"), nil), mock, func() { db.Close() }
}

func TestStoreSubmitRejectsBusyPeriod(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.SubmitGeneration(context.Background(), "2025-01", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSubmission))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFinalizeTwice(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns AS p SET status = 'finalized'")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patternCols).AddRow("p-1", "2025-01", "finalized", nil, nil, []byte(`[]`), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_entries e")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "p-1", "s-1", "Aiko", "2025-01-02", "09:00", "17:00", 60, false, now, now))

	pattern, err := store.FinalizePattern(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, models.PatternStatusFinalized, pattern.Status)
	require.NotNil(t, pattern.Summary)
	assert.Equal(t, 7.0, pattern.Summary.StaffHours["s-1"])

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns AS p SET status = 'finalized'")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patternCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_patterns WHERE id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patternCols).AddRow("p-1", "2025-01", "finalized", nil, nil, []byte(`[]`), now, now))

	_, err = store.FinalizePattern(context.Background(), "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFinalizeBlockedBySibling(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns AS p SET status = 'finalized'")).
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows(patternCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_patterns WHERE id = $1")).
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows(patternCols).AddRow("p-2", "2025-01", "selected", nil, nil, []byte(`[]`), now, now))

	_, err := store.FinalizePattern(context.Background(), "p-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "already finalized")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSelectMissingPattern(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns SET status = 'selected'")).
		WithArgs("p-9").
		WillReturnRows(sqlmock.NewRows(patternCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_patterns WHERE id = $1")).
		WithArgs("p-9").
		WillReturnRows(sqlmock.NewRows(patternCols))

	_, err := store.SelectPattern(context.Background(), "p-9")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateEntryOnFinalizedPattern(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "p-1", "s-1", "Aiko", "2025-01-02", "09:00", "17:00", 60, false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_patterns WHERE id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patternCols).AddRow("p-1", "2025-01", "finalized", nil, nil, []byte(`[]`), now, now))

	_, err := store.ValidateAndUpdateEntry(context.Background(), "e-1", models.EntryTimes{StartTime: "10:00", EndTime: "18:00"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateEntryRunsValidator(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "p-1", "s-1", "Aiko", "2025-01-02", "09:00", "17:00", 60, false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_patterns WHERE id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(patternCols).AddRow("p-1", "2025-01", "selected", nil, nil, []byte(`[]`), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_entries SET start_time")).
		WithArgs("06:00", "14:00", 60, "e-1").
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow("e-1", "p-1", "s-1", "Aiko", "2025-01-02", "06:00", "14:00", 60, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.pattern_id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e-0", "p-1", "s-1", "Aiko", "2025-01-01", "15:00", "23:00", 60, false, now, now).
			AddRow("e-1", "p-1", "s-1", "Aiko", "2025-01-02", "06:00", "14:00", 60, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM constraints WHERE is_active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "category", "config", "is_active", "priority", "created_at", "updated_at"}).
			AddRow("c-1", "Rest", "hard", "rest_hours", []byte(`{"min_hours":11}`), true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM shift_requests r")).
		WithArgs("2025-01", "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "staff_id", "staff_name", "year_month", "date", "start_time", "end_time", "request_type", "note", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff_monthly_settings m")).
		WithArgs("2025-01", "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "staff_id", "staff_name", "year_month", "min_preferred_hours", "max_preferred_hours", "note", "created_at", "updated_at"}))

	update, err := store.ValidateAndUpdateEntry(context.Background(), "e-1", models.EntryTimes{StartTime: "06:00", EndTime: "14:00", BreakMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, "06:00", update.Entry.StartTime)
	assert.False(t, update.Validation.IsValid)
	require.Len(t, update.Validation.Warnings, 1)
	assert.Contains(t, update.Validation.Warnings[0].Message, "7.0h rest")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchTooLarge(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	drafts := make([]models.ShiftRequestDraft, MaxBatchRequests+1)
	_, err := store.BatchCreateShiftRequests(context.Background(), drafts)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchRollsBackOnFailure(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_requests")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.BatchCreateShiftRequests(context.Background(), []models.ShiftRequestDraft{
		{StaffID: "s-1", YearMonth: "2025-01", Date: "2025-01-03", RequestType: models.RequestTypeAvailable},
	})
	assert.True(t, errors.Is(err, appErrors.ErrTransientFetch))
	require.NoError(t, mock.ExpectationsWereMet())
}
