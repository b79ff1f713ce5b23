package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig wires handlers into the engine. Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	PlanHandler       *PlanHandler
	GenerationHandler *GenerationHandler

	Auth           *TokenAuth
	DefaultOwner   string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if cfg.GenerationHandler != nil {
		fn := r.Group("/functions")
		fn.GET("/ready", cfg.GenerationHandler.Ready)
		fn.POST("/generate-week", cfg.GenerationHandler.GenerateWeek)
		fn.POST("/generate-roadmap", cfg.GenerationHandler.GenerateRoadmap)
	}

	api := r.Group("/api")
	api.Use(RequireOwner(cfg.Auth, cfg.DefaultOwner))
	if h := cfg.PlanHandler; h != nil {
		api.POST("/plans", h.CreatePlan)
		api.POST("/plans/lazy", h.StartPlan)
		api.GET("/plans", h.ListPlans)
		api.GET("/plans/:id", h.GetPlan)
		api.DELETE("/plans/:id", h.DeletePlan)
		api.GET("/plans/:id/stats", h.Stats)
		api.GET("/plans/:id/weeks/:week", h.GetWeek)
		api.GET("/plans/:id/weeks/:week/status", h.WeekStatus)
		api.POST("/plans/:id/weeks/:week/milestone", h.ToggleMilestone)
		api.POST("/plans/:id/weeks/:week/days/:day/toggle", h.Toggle)
		api.POST("/plans/:id/weeks/:week/reflections", h.RecordReflection)
		api.GET("/plans/:id/weeks/:week/reflections", h.ListReflections)
		api.POST("/weeks", h.ResolveWeek)
	}
	return r
}
