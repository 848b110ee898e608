package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

type generationRunner interface {
	Start(ctx context.Context, state *session.State, yearMonth string, patternCount int) (models.JobSnapshot, error)
	Poll(ctx context.Context, state *session.State) (models.JobSnapshot, error)
	Current(state *session.State) (models.JobSnapshot, error)
	Cancel(state *session.State) (models.JobSnapshot, error)
}

// GenerationHandler exposes the generation job lifecycle of a session.
type GenerationHandler struct {
	service generationRunner
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(svc *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// Start godoc
// @Summary Submit a generation job
// @Description Submits a job to the optimizer and starts polling it in the background. Any previous loop of the session is cancelled.
// @Tags Generation
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.StartGenerationRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sessions/{sessionId}/generations [post]
func (h *GenerationHandler) Start(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.StartGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid generation payload"))
		return
	}
	snapshot, err := h.service.Start(c.Request.Context(), state, req.YearMonth, req.PatternCount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, snapshot)
}

// Current godoc
// @Summary Show the current job snapshot
// @Tags Generation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/generations/current [get]
func (h *GenerationHandler) Current(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Current(state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Poll godoc
// @Summary Poll the current job once
// @Description Runs one status round trip when no background loop is active. Terminal jobs and jobs the loop is still polling return their stored snapshot.
// @Tags Generation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /sessions/{sessionId}/generations/current/poll [post]
func (h *GenerationHandler) Poll(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Poll(c.Request.Context(), state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Cancel godoc
// @Summary Stop polling the current job
// @Description Stops the local poll loop. The optimizer keeps working on the job.
// @Tags Generation
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/generations/current [delete]
func (h *GenerationHandler) Cancel(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.service.Cancel(state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}
