package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

type entryEditor interface {
	UpdateEntry(ctx context.Context, state *session.State, entryID string, req dto.UpdateEntryRequest) (dto.EditResult, error)
	CreateEntry(ctx context.Context, state *session.State, req dto.CreateEntryRequest) (dto.EditResult, error)
	DeleteEntry(ctx context.Context, state *session.State, entryID string) (dto.EditResult, error)
}

// EntryHandler exposes schedule entry edits.
type EntryHandler struct {
	service entryEditor
}

// NewEntryHandler constructs the handler.
func NewEntryHandler(svc *service.EditorService) *EntryHandler {
	return &EntryHandler{service: svc}
}

// Create godoc
// @Summary Add an entry to a pattern
// @Tags Entries
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid entry payload"))
		return
	}
	result, err := h.service.CreateEntry(c.Request.Context(), state, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Change the times of an entry
// @Description The edit is stored even when the validator reports hard violations; such results carry rejected=true and meta.code VALIDATION_REJECTED.
// @Tags Entries
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param entryId path string true "Entry ID"
// @Param payload body dto.UpdateEntryRequest true "Entry times"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/entries/{entryId} [put]
func (h *EntryHandler) Update(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid entry payload"))
		return
	}
	result, err := h.service.UpdateEntry(c.Request.Context(), state, c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Rejected {
		middleware.SetMeta(c, "code", appErrors.ErrValidationRejected.Code)
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Remove an entry
// @Tags Entries
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param entryId path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/entries/{entryId} [delete]
func (h *EntryHandler) Delete(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.DeleteEntry(c.Request.Context(), state, c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
