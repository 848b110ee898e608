package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

var shiftPatternRowColumns = []string{"id", "year_month", "status", "reasoning", "score", "constraint_violations", "created_at", "updated_at"}

func TestShiftPatternRepositoryListByYearMonth(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftPatternRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(shiftPatternRowColumns).
		AddRow("p-1", "2025-01", "draft", "balanced weekends", 0.82, []byte(`[{"constraint_name":"Min cover","type":"soft","message":"short on 01-04"}]`), now, now).
		AddRow("p-2", "2025-01", "selected", nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year_month, status, reasoning, score, constraint_violations, created_at, updated_at FROM shift_patterns WHERE year_month = $1 ORDER BY created_at ASC")).
		WithArgs("2025-01").
		WillReturnRows(rows)

	patterns, err := repo.ListByYearMonth(context.Background(), "2025-01")
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	require.Len(t, patterns[0].ConstraintViolations, 1)
	assert.Equal(t, "Min cover", patterns[0].ConstraintViolations[0].ConstraintName)
	require.NotNil(t, patterns[0].Score)
	assert.InDelta(t, 0.82, *patterns[0].Score, 1e-9)
	assert.Equal(t, models.PatternStatusSelected, patterns[1].Status)
	assert.Empty(t, patterns[1].ConstraintViolations)
	assert.Nil(t, patterns[1].Reasoning)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPatternRepositorySelectIsConditional(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftPatternRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns SET status = 'selected', updated_at = NOW() WHERE id = $1 AND status IN ('draft', 'selected')")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(shiftPatternRowColumns).AddRow("p-1", "2025-01", "selected", nil, nil, []byte(`[]`), now, now))

	pattern, err := repo.Select(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, models.PatternStatusSelected, pattern.Status)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns SET status = 'selected'")).
		WithArgs("p-9").
		WillReturnRows(sqlmock.NewRows(shiftPatternRowColumns))

	_, err = repo.Select(context.Background(), "p-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPatternRepositoryFinalizeRequiresSelectedAndNoFinalizedSibling(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftPatternRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1 AND p.status = 'selected' AND NOT EXISTS (SELECT 1 FROM shift_patterns s WHERE s.year_month = p.year_month AND s.status = 'finalized' AND s.id <> p.id)")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(shiftPatternRowColumns).AddRow("p-1", "2025-01", "finalized", nil, nil, []byte(`[]`), now, now))

	pattern, err := repo.Finalize(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, models.PatternStatusFinalized, pattern.Status)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE shift_patterns AS p SET status = 'finalized'")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(shiftPatternRowColumns))

	_, err = repo.Finalize(context.Background(), "p-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftPatternRepositoryHasFinalized(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftPatternRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM shift_patterns WHERE year_month = $1 AND status = 'finalized')")).
		WithArgs("2025-01").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	finalized, err := repo.HasFinalized(context.Background(), "2025-01")
	require.NoError(t, err)
	assert.False(t, finalized)
	require.NoError(t, mock.ExpectationsWereMet())
}
