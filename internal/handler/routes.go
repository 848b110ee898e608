package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/session"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Sessions    *SessionHandler
	Generations *GenerationHandler
	Patterns    *PatternHandler
	Entries     *EntryHandler
	Constraints *ConstraintHandler
	Requests    *RequestPlanHandler
	Exports     *ExportHandler
	Calendar    *CalendarHandler
}

// RegisterRoutes mounts the planning API on group. Routes under
// /sessions/:sessionId resolve the session through manager first.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, manager *session.Manager) {
	group.POST("/sessions", h.Sessions.Create)
	group.GET("/sessions/current", h.Sessions.Current)
	group.DELETE("/sessions/:sessionId", h.Sessions.Close)

	group.GET("/calendar/:yearMonth", h.Calendar.Month)

	scoped := group.Group("/sessions/:sessionId")
	scoped.Use(middleware.Session(manager))

	scoped.POST("/generations", h.Generations.Start)
	scoped.GET("/generations/current", h.Generations.Current)
	scoped.DELETE("/generations/current", h.Generations.Cancel)
	scoped.POST("/generations/current/poll", h.Generations.Poll)

	scoped.GET("/patterns", h.Patterns.List)
	scoped.GET("/patterns/:patternId", h.Patterns.Get)
	scoped.PUT("/patterns/:patternId/select", h.Patterns.Select)
	scoped.PUT("/patterns/:patternId/finalize", h.Patterns.Finalize)
	scoped.GET("/patterns/:patternId/export", h.Exports.Pattern)

	scoped.POST("/entries", h.Entries.Create)
	scoped.PUT("/entries/:entryId", h.Entries.Update)
	scoped.DELETE("/entries/:entryId", h.Entries.Delete)

	scoped.GET("/constraints", h.Constraints.List)
	scoped.POST("/constraints", h.Constraints.Create)
	scoped.POST("/constraints/import", h.Constraints.Import)
	scoped.PUT("/constraints/:constraintId", h.Constraints.Update)
	scoped.DELETE("/constraints/:constraintId", h.Constraints.Delete)

	scoped.GET("/requests", h.Requests.Load)
	scoped.POST("/requests/toggle", h.Requests.Toggle)
	scoped.PUT("/requests/days/:date", h.Requests.SetTimes)
	scoped.POST("/requests/save", h.Requests.Save)
}
