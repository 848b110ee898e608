package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

type entryEditorMock struct {
	entryID  string
	update   dto.UpdateEntryRequest
	create   dto.CreateEntryRequest
	rejected bool
	err      error
}

func (m *entryEditorMock) UpdateEntry(ctx context.Context, state *session.State, entryID string, req dto.UpdateEntryRequest) (dto.EditResult, error) {
	m.entryID = entryID
	m.update = req
	if m.err != nil {
		return dto.EditResult{}, m.err
	}
	entry := models.ShiftEntry{ID: entryID}
	result := dto.EditResult{Entry: &entry, Rejected: m.rejected}
	if m.rejected {
		result.Message = "edit violates hard constraints: overlapping shift"
	}
	return result, nil
}

func (m *entryEditorMock) CreateEntry(ctx context.Context, state *session.State, req dto.CreateEntryRequest) (dto.EditResult, error) {
	m.create = req
	entry := models.ShiftEntry{ID: "e-new", PatternID: req.PatternID}
	return dto.EditResult{Entry: &entry}, nil
}

func (m *entryEditorMock) DeleteEntry(ctx context.Context, state *session.State, entryID string) (dto.EditResult, error) {
	m.entryID = entryID
	return dto.EditResult{}, m.err
}

func TestEntryUpdateAccepted(t *testing.T) {
	mock := &entryEditorMock{}
	handler := &EntryHandler{service: mock}
	c, w, _ := newSessionContext(t, http.MethodPut, "/entries/e-1", `{"start_time":"09:00","end_time":"17:00","break_minutes":60}`)
	c.Params = gin.Params{{Key: "entryId", Value: "e-1"}}

	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e-1", mock.entryID)
	assert.Equal(t, "09:00", mock.update.StartTime)
	assert.Equal(t, 60, mock.update.BreakMinutes)
	assert.NotContains(t, w.Body.String(), "VALIDATION_REJECTED")
}

func TestEntryUpdateRejectedKeepsOK(t *testing.T) {
	handler := &EntryHandler{service: &entryEditorMock{rejected: true}}
	c, w, _ := newSessionContext(t, http.MethodPut, "/entries/e-1", `{"start_time":"06:00","end_time":"14:00"}`)
	c.Params = gin.Params{{Key: "entryId", Value: "e-1"}}

	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rejected":true`)
	assert.Contains(t, w.Body.String(), "VALIDATION_REJECTED")
}

func TestEntryUpdateInFlight(t *testing.T) {
	handler := &EntryHandler{service: &entryEditorMock{err: appErrors.ErrEditInFlight}}
	c, w, _ := newSessionContext(t, http.MethodPut, "/entries/e-1", `{"start_time":"06:00","end_time":"14:00"}`)
	c.Params = gin.Params{{Key: "entryId", Value: "e-1"}}

	handler.Update(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EDIT_IN_FLIGHT")
}

func TestEntryCreate(t *testing.T) {
	mock := &entryEditorMock{}
	handler := &EntryHandler{service: mock}
	c, w, _ := newSessionContext(t, http.MethodPost, "/entries", `{"pattern_id":"p-1","staff_id":"s-1","date":"2025-04-02","start_time":"09:00","end_time":"13:00"}`)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "p-1", mock.create.PatternID)
	assert.Equal(t, "2025-04-02", mock.create.Date)
}

func TestEntryDeleteFinalized(t *testing.T) {
	mock := &entryEditorMock{err: appErrors.Clone(appErrors.ErrInvalidState, "finalized patterns cannot be edited")}
	handler := &EntryHandler{service: mock}
	c, w, _ := newSessionContext(t, http.MethodDelete, "/entries/e-9", "")
	c.Params = gin.Params{{Key: "entryId", Value: "e-9"}}

	handler.Delete(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "e-9", mock.entryID)
}
