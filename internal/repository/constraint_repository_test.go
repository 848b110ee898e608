package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

var constraintRowColumns = []string{"id", "name", "type", "category", "config", "is_active", "priority", "created_at", "updated_at"}

func TestConstraintRepositoryListDecodesConfigs(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(constraintRowColumns).
		AddRow("c-1", "Morning cover", "hard", "min_staff", []byte(`{"time_ranges":[{"start":"09:00","end":"12:00","min_count":2}]}`), true, int64(5), now, now).
		AddRow("c-2", "Rest", "soft", "rest_hours", []byte(`{"min_hours":11}`), true, int64(0), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, category, config, is_active, priority, created_at, updated_at FROM constraints WHERE is_active = $1 AND category = $2 ORDER BY priority DESC, created_at ASC")).
		WithArgs(true, "min_staff").
		WillReturnRows(rows)

	active := true
	category := models.CategoryMinStaff
	list, err := repo.List(context.Background(), models.ConstraintFilter{IsActive: &active, Category: &category})
	require.NoError(t, err)
	require.Len(t, list, 2)

	minStaff, ok := list[0].Config.(models.MinStaffConfig)
	require.True(t, ok)
	require.Len(t, minStaff.TimeRanges, 1)
	assert.Equal(t, 2, minStaff.TimeRanges[0].Count)
	require.NotNil(t, list[0].Priority)
	assert.Equal(t, 5, *list[0].Priority)

	rest, ok := list[1].Config.(models.RestHoursConfig)
	require.True(t, ok)
	assert.Equal(t, 11.0, rest.MinHours)
	assert.Nil(t, list[1].Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryListRejectsCorruptConfig(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, category, config")).
		WillReturnRows(sqlmock.NewRows(constraintRowColumns).
			AddRow("c-9", "Broken", "soft", "monthly_hours", []byte(`{"min_hours":200,"max_hours":100}`), true, nil, now, now))

	_, err := repo.List(context.Background(), models.ConstraintFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c-9")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryCreateWritesLegacyCountKey(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	c := &models.Constraint{
		Name:     "Evening cap",
		Kind:     models.ConstraintKindSoft,
		Category: models.CategoryMaxStaff,
		Config:   models.MaxStaffConfig{TimeRanges: []models.StaffTimeRange{{Start: "17:00", End: "22:00", Count: 3}}},
		IsActive: true,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO constraints (id, name, type, category, config, is_active, priority, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "Evening cap", "soft", "max_staff", configContains("max_count"), true, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryUpdateAndDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	priority := 2
	c := &models.Constraint{
		ID:       "c-404",
		Name:     "Five in a row",
		Kind:     models.ConstraintKindSoft,
		Category: models.CategoryMaxConsecutiveDays,
		Config:   models.MaxConsecutiveDaysConfig{MaxDays: 5},
		Priority: &priority,
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE constraints SET name = $1")).
		WithArgs("Five in a row", "soft", "max_consecutive_days", sqlmock.AnyArg(), false, 2, sqlmock.AnyArg(), "c-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), c)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM constraints WHERE id = $1")).
		WithArgs("c-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Delete(context.Background(), "c-404")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

type configContains string

func (c configContains) Match(v driver.Value) bool {
	var raw string
	switch t := v.(type) {
	case []byte:
		raw = string(t)
	case string:
		raw = t
	default:
		return false
	}
	return regexp.MustCompile(regexp.QuoteMeta(string(c))).MatchString(raw)
}
