package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

type patternExporter interface {
	Pattern(ctx context.Context, state *session.State, id string) (dto.PatternExport, error)
}

// ExportHandler serves roster downloads.
type ExportHandler struct {
	service patternExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Pattern godoc
// @Summary Download a pattern as a CSV roster
// @Tags Patterns
// @Produce text/csv
// @Param sessionId path string true "Session ID"
// @Param patternId path string true "Pattern ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/patterns/{patternId}/export [get]
func (h *ExportHandler) Pattern(c *gin.Context) {
	state, ok := sessionFromContext(c)
	if !ok {
		return
	}
	out, err := h.service.Pattern(c.Request.Context(), state, c.Param("patternId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Content)
}
