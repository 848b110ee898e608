package handler

import (
	"context"
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

type patternBrowser interface {
	List(ctx context.Context, state *session.State, yearMonth string) ([]models.ShiftPattern, error)
	Get(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error)
	Select(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error)
	Finalize(ctx context.Context, state *session.State, id string) (dto.PatternDetail, error)
}

// PatternHandler exposes generated shift patterns.
type PatternHandler struct {
	service patternBrowser
}

// NewPatternHandler constructs the handler.
func NewPatternHandler(svc *service.PatternService) *PatternHandler {
	return &PatternHandler{service: svc}
}

// List godoc
// @Summary List patterns of a period
// @Tags Patterns
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param yearMonth query string true "Period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.PatternListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	if strings.TrimSpace(query.YearMonth) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearMonth is required"))
		return
	}
	patterns, err := h.service.List(c.Request.Context(), state, query.YearMonth)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(patterns))
	response.JSON(c, http.StatusOK, dto.PatternListResponse{YearMonth: query.YearMonth, Patterns: patterns}, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a pattern with live hour totals
// @Tags Patterns
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param patternId path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/patterns/{patternId} [get]
func (h *PatternHandler) Get(c *gin.Context) {
	h.run(c, h.service.Get)
}

// Select godoc
// @Summary Select a pattern
// @Description Idempotent for an already selected pattern. Finalized patterns cannot be selected.
// @Tags Patterns
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param patternId path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/patterns/{patternId}/select [put]
func (h *PatternHandler) Select(c *gin.Context) {
	h.run(c, h.service.Select)
}

// Finalize godoc
// @Summary Finalize the selected pattern
// @Tags Patterns
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param patternId path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{sessionId}/patterns/{patternId}/finalize [put]
func (h *PatternHandler) Finalize(c *gin.Context) {
	h.run(c, h.service.Finalize)
}

func (h *PatternHandler) run(c *gin.Context, fn func(context.Context, *session.State, string) (dto.PatternDetail, error)) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	detail, err := fn(c.Request.Context(), state, c.Param("patternId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}
