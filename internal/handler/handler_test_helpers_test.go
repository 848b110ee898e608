package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/session"
)

// newSessionContext builds a test context carrying an open planning session.
func newSessionContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder, *session.State) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := session.NewManager(session.ManagerConfig{IdleTTL: time.Hour}, nil, nil)
	t.Cleanup(manager.Shutdown)
	state := manager.Create()

	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextSessionKey, state)
	return c, w, state
}
