package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/logger"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the resolved planning session.
	ContextSessionKey = "planningSession"
	// CookieName names the signed cookie remembering the caller's last session.
	CookieName = "shift_planner_session"
)

type sessionResolver interface {
	Get(id string) (*session.State, error)
}

// Session resolves the :sessionId route parameter to an open planning session.
func Session(resolver sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param(logger.SessionParam))
		if id == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrSessionNotFound, "session id is required"))
			c.Abort()
			return
		}
		state, err := resolver.Get(id)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		state.Touch()
		c.Set(ContextSessionKey, state)
		c.Next()
	}
}

// CookieSessions installs the signed cookie store used to resume a session after a reload.
func CookieSessions(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
	})
	return sessions.Sessions(CookieName, store)
}
