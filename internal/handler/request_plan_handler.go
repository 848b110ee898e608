package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

type requestPlanner interface {
	Load(ctx context.Context, state *session.State, staffID, yearMonth string) (models.RequestPlan, error)
	Toggle(ctx context.Context, state *session.State, req dto.ToggleDayRequest) (models.DayRequest, error)
	SetTimes(ctx context.Context, state *session.State, date string, req dto.SetDayTimesRequest) (models.DayRequest, error)
	Save(ctx context.Context, state *session.State, req dto.SaveRequestPlanRequest) (dto.SaveRequestPlanResult, error)
}

// RequestPlanHandler exposes per-staff monthly request planning.
type RequestPlanHandler struct {
	service requestPlanner
}

// NewRequestPlanHandler constructs the handler.
func NewRequestPlanHandler(svc *service.RequestPlannerService) *RequestPlanHandler {
	return &RequestPlanHandler{service: svc}
}

// Load godoc
// @Summary Load a staff member's requests for a month
// @Description Reloads stored requests and the monthly hour preference, discarding unsaved changes.
// @Tags Requests
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param yearMonth query string true "Period (YYYY-MM)"
// @Param staffId query string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/requests [get]
func (h *RequestPlanHandler) Load(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var query dto.RequestPlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	if strings.TrimSpace(query.YearMonth) == "" || strings.TrimSpace(query.StaffID) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearMonth and staffId are required"))
		return
	}
	plan, err := h.service.Load(c.Request.Context(), state, query.StaffID, query.YearMonth)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Toggle godoc
// @Summary Cycle the request type of one day
// @Description available, unavailable, preferred, then back to no request.
// @Tags Requests
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ToggleDayRequest true "Day to toggle"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/requests/toggle [post]
func (h *RequestPlanHandler) Toggle(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.ToggleDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid toggle payload"))
		return
	}
	day, err := h.service.Toggle(c.Request.Context(), state, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day)
}

// SetTimes godoc
// @Summary Set the requested window of one day
// @Tags Requests
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.SetDayTimesRequest true "Requested window"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/requests/days/{date} [put]
func (h *RequestPlanHandler) SetTimes(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.SetDayTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid time payload"))
		return
	}
	day, err := h.service.SetTimes(c.Request.Context(), state, c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day)
}

// Save godoc
// @Summary Save a month of requests
// @Description Creates, updates or deletes the monthly hour preference, then batch-creates the day requests.
// @Tags Requests
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SaveRequestPlanRequest true "Save payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/requests/save [post]
func (h *RequestPlanHandler) Save(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveRequestPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), state, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
