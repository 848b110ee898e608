package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/session"
)

func buildPlanningRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := session.NewManager(session.ManagerConfig{IdleTTL: time.Hour}, nil, nil)
	t.Cleanup(manager.Shutdown)

	router := gin.New()
	router.Use(middleware.CookieSessions("test-secret", false))
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Sessions:    NewSessionHandler(manager, nil),
		Generations: &GenerationHandler{service: &generationRunnerMock{}},
		Patterns:    &PatternHandler{service: &patternBrowserMock{}},
		Entries:     &EntryHandler{service: &entryEditorMock{}},
		Constraints: &ConstraintHandler{service: &constraintRegistryMock{}},
		Requests:    &RequestPlanHandler{service: &requestPlannerMock{}},
		Exports:     &ExportHandler{service: &patternExporterMock{}},
		Calendar:    NewCalendarHandler(),
	}, manager)
	return router, manager
}

func perform(router *gin.Engine, method, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionLifecycleWithCookieResume(t *testing.T) {
	router, manager := buildPlanningRouter(t)

	created := perform(router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, created.Code)
	var body struct {
		Data dto.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.SessionID)
	assert.Equal(t, 1, manager.Len())

	cookies := created.Result().Cookies()
	require.NotEmpty(t, cookies)

	resumed := perform(router, http.MethodGet, "/api/v1/sessions/current", cookies)
	require.Equal(t, http.StatusOK, resumed.Code)
	assert.Contains(t, resumed.Body.String(), body.Data.SessionID)

	closed := perform(router, http.MethodDelete, "/api/v1/sessions/"+body.Data.SessionID, cookies)
	require.Equal(t, http.StatusNoContent, closed.Code)
	assert.Equal(t, 0, manager.Len())

	gone := perform(router, http.MethodGet, "/api/v1/sessions/current", cookies)
	require.Equal(t, http.StatusNotFound, gone.Code)
}

func TestSessionCurrentWithoutCookie(t *testing.T) {
	router, _ := buildPlanningRouter(t)

	w := perform(router, http.MethodGet, "/api/v1/sessions/current", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_NOT_FOUND")
}

func TestScopedRoutesRequireOpenSession(t *testing.T) {
	router, manager := buildPlanningRouter(t)

	missing := perform(router, http.MethodGet, "/api/v1/sessions/unknown/patterns?yearMonth=2025-04", nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), "SESSION_NOT_FOUND")

	state := manager.Create()
	found := perform(router, http.MethodGet, "/api/v1/sessions/"+state.ID+"/patterns?yearMonth=2025-04", nil)
	require.Equal(t, http.StatusOK, found.Code)
	assert.Contains(t, found.Body.String(), `"p-2"`)
}

func TestCalendarIsMountedOutsideSessions(t *testing.T) {
	router, _ := buildPlanningRouter(t)

	w := perform(router, http.MethodGet, "/api/v1/calendar/2025-02", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"days_in_month":28`)
}
