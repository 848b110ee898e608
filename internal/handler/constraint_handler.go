package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

const maxImportBytes = 1 << 20

type constraintRegistry interface {
	List(ctx context.Context, state *session.State, filter models.ConstraintFilter) ([]models.Constraint, error)
	Create(ctx context.Context, state *session.State, req dto.CreateConstraintRequest) (*models.Constraint, error)
	Update(ctx context.Context, state *session.State, id string, req dto.UpdateConstraintRequest) (*models.Constraint, error)
	Delete(ctx context.Context, state *session.State, id string) error
	Import(ctx context.Context, state *session.State, data []byte) (dto.ConstraintImportResult, error)
}

// ConstraintHandler exposes the constraint registry.
type ConstraintHandler struct {
	service constraintRegistry
}

// NewConstraintHandler constructs the handler.
func NewConstraintHandler(svc *service.ConstraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// List godoc
// @Summary List constraints
// @Tags Constraints
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param isActive query bool false "Active flag"
// @Param type query string false "hard or soft"
// @Param category query string false "Constraint category"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/constraints [get]
func (h *ConstraintHandler) List(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.ConstraintListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	filter, err := constraintFilter(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.service.List(c.Request.Context(), state, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(list))
	response.JSON(c, http.StatusOK, list, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create a constraint
// @Description Config is checked against the schema of the category before anything is sent.
// @Tags Constraints
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.CreateConstraintRequest true "Constraint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{sessionId}/constraints [post]
func (h *ConstraintHandler) Create(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid constraint payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), state, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update a constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param constraintId path string true "Constraint ID"
// @Param payload body dto.UpdateConstraintRequest true "Constraint patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{sessionId}/constraints/{constraintId} [put]
func (h *ConstraintHandler) Update(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid constraint payload"))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), state, c.Param("constraintId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a constraint
// @Tags Constraints
// @Param sessionId path string true "Session ID"
// @Param constraintId path string true "Constraint ID"
// @Success 204
// @Router /sessions/{sessionId}/constraints/{constraintId} [delete]
func (h *ConstraintHandler) Delete(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), state, c.Param("constraintId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import constraint presets
// @Description Body is a YAML document with a top-level constraints list. Each preset is created independently; rejected presets are reported in failed.
// @Tags Constraints
// @Accept plain
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{sessionId}/constraints/import [post]
func (h *ConstraintHandler) Import(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		response.Error(c, bindError(err, "unable to read preset document"))
		return
	}
	if len(body) > maxImportBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "preset document is too large"))
		return
	}
	result, err := h.service.Import(c.Request.Context(), state, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func constraintFilter(query dto.ConstraintListQuery) (models.ConstraintFilter, error) {
	filter := models.ConstraintFilter{IsActive: query.IsActive}
	if raw := strings.TrimSpace(query.Type); raw != "" {
		kind := models.ConstraintKind(strings.ToLower(raw))
		if !kind.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "type must be hard or soft")
		}
		filter.Kind = &kind
	}
	if raw := strings.TrimSpace(query.Category); raw != "" {
		category := models.ConstraintCategory(strings.ToLower(raw))
		if !category.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown constraint category")
		}
		filter.Category = &category
	}
	return filter, nil
}
