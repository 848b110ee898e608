package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

var shiftRequestRowColumns = []string{"id", "staff_id", "staff_name", "year_month", "date", "start_time", "end_time", "request_type", "note", "created_at", "updated_at"}

func TestShiftRequestRepositoryListForStaff(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(shiftRequestRowColumns).
		AddRow("r-1", "s-1", "Aiko", "2025-01", "2025-01-03", "09:00", "17:00", "preferred", nil, now, now).
		AddRow("r-2", "s-1", "Aiko", "2025-01", "2025-01-04", nil, nil, "unavailable", "dentist", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.year_month = $1 AND r.staff_id = $2 ORDER BY r.date ASC")).
		WithArgs("2025-01", "s-1").
		WillReturnRows(rows)

	requests, err := repo.List(context.Background(), "2025-01", "s-1")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, models.RequestTypePreferred, requests[0].RequestType)
	require.NotNil(t, requests[0].StartTime)
	assert.Equal(t, "09:00", *requests[0].StartTime)
	assert.Nil(t, requests[1].StartTime)
	require.NotNil(t, requests[1].Note)
	assert.Equal(t, "dentist", *requests[1].Note)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRequestRepositoryCreateBatchInTransaction(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftRequestRepository(db)

	now := time.Now()
	start, end := "09:00", "17:00"
	drafts := []models.ShiftRequestDraft{
		{StaffID: "s-1", YearMonth: "2025-01", Date: "2025-01-03", StartTime: &start, EndTime: &end, RequestType: models.RequestTypeAvailable},
		{StaffID: "s-1", YearMonth: "2025-01", Date: "2025-01-04", RequestType: models.RequestTypeUnavailable},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_requests")).
		WithArgs(sqlmock.AnyArg(), "s-1", "2025-01", "2025-01-03", "09:00", "17:00", "available", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(shiftRequestRowColumns).AddRow("r-1", "s-1", "Aiko", "2025-01", "2025-01-03", "09:00", "17:00", "available", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shift_requests")).
		WithArgs(sqlmock.AnyArg(), "s-1", "2025-01", "2025-01-04", nil, nil, "unavailable", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(shiftRequestRowColumns).AddRow("r-2", "s-1", "Aiko", "2025-01", "2025-01-04", nil, nil, "unavailable", nil, now, now))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	created, err := repo.CreateBatch(context.Background(), tx, drafts)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Len(t, created, 2)
	assert.Equal(t, "r-2", created[1].ID)
	assert.Nil(t, created[1].EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRequestRepositoryCreateBatchEmpty(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewShiftRequestRepository(db)

	created, err := repo.CreateBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}
