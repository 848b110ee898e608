package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

// CalendarHandler lays out months for the editing grid.
type CalendarHandler struct{}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler() *CalendarHandler {
	return &CalendarHandler{}
}

// Month godoc
// @Summary Lay out a month
// @Description Dates of the period and Monday-first weeks.
// @Tags Calendar
// @Produce json
// @Param yearMonth path string true "Period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/{yearMonth} [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	period, err := calendar.Parse(c.Param("yearMonth"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "yearMonth must be YYYY-MM"))
		return
	}
	response.JSON(c, http.StatusOK, dto.CalendarResponse{
		YearMonth:   period.String(),
		DaysInMonth: period.DaysInMonth(),
		FirstDate:   period.First().Format(calendar.DateLayout),
		LastDate:    period.Last().Format(calendar.DateLayout),
		Dates:       period.Dates(),
		Weeks:       period.Weeks(),
	})
}
