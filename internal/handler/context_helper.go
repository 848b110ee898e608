package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

// sessionFromContext returns the planning session resolved by middleware.Session,
// writing a SESSION_NOT_FOUND response when it is absent.
func sessionFromContext(c *gin.Context) (*session.State, bool) {
	value, exists := c.Get(middleware.ContextSessionKey)
	if exists {
		if state, ok := value.(*session.State); ok && state != nil {
			return state, true
		}
	}
	response.Error(c, appErrors.ErrSessionNotFound)
	return nil, false
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
