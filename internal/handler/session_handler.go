package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/session"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/logger"
	"github.com/noah-isme/shift-planner-api/pkg/response"
)

const cookieSessionKey = "session_id"

type sessionManager interface {
	Create() *session.State
	Get(id string) (*session.State, error)
	Close(id string) error
}

// SessionHandler opens, resumes and closes planning sessions.
type SessionHandler struct {
	manager sessionManager
	logger  *zap.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(manager *session.Manager, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{manager: manager, logger: logger}
}

// Create godoc
// @Summary Open a planning session
// @Description Allocates session state and remembers its id in a signed cookie.
// @Tags Sessions
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	state := h.manager.Create()
	if store := cookieStore(c); store != nil {
		store.Set(cookieSessionKey, state.ID)
		if err := store.Save(); err != nil {
			h.logger.Sugar().Warnw("failed to persist session cookie", "session_id", state.ID, "error", err)
		}
	}
	response.Created(c, dto.SessionResponse{SessionID: state.ID, CreatedAt: state.CreatedAt})
}

// Current godoc
// @Summary Resume the session remembered by the cookie
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	store := cookieStore(c)
	if store == nil {
		response.Error(c, appErrors.ErrSessionNotFound)
		return
	}
	id, _ := store.Get(cookieSessionKey).(string)
	if id == "" {
		response.Error(c, appErrors.ErrSessionNotFound)
		return
	}
	state, err := h.manager.Get(id)
	if err != nil {
		store.Delete(cookieSessionKey)
		_ = store.Save()
		response.Error(c, err)
		return
	}
	state.Touch()
	response.JSON(c, http.StatusOK, dto.SessionResponse{SessionID: state.ID, CreatedAt: state.CreatedAt})
}

// Close godoc
// @Summary Close a planning session
// @Description Stops any poll loop of the session and releases its state.
// @Tags Sessions
// @Param sessionId path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId} [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	id := c.Param(logger.SessionParam)
	if err := h.manager.Close(id); err != nil {
		response.Error(c, err)
		return
	}
	if store := cookieStore(c); store != nil {
		if remembered, _ := store.Get(cookieSessionKey).(string); remembered == id {
			store.Delete(cookieSessionKey)
			_ = store.Save()
		}
	}
	response.NoContent(c)
}

// cookieStore returns nil when the cookie session middleware is not installed.
func cookieStore(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}
