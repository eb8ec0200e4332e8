package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/freedom_case_2/opsync/internal/app"
	"github.com/freedom_case_2/opsync/internal/config"
	"github.com/freedom_case_2/opsync/internal/http/handlers"
	"github.com/freedom_case_2/opsync/internal/http/middleware"

	_ "github.com/freedom_case_2/opsync/docs"
)

func Router(a *app.App) *gin.Engine {
	h := &handlers.Handler{
		Health:       a.Store,
		Availability: a.Availability,
		Ledger:       a.Ledger,
		Sync:         a.Sync,
		Assignment:   a.Assignment,
		Pause:        a.Gate,
		Runs:         a.Store,
		Clock:        a.Clock,
		Validator:    validator.New(),
		Logger:       a.Logger,
	}
	return NewEngine(a.Config, h, a.Logger)
}

// NewEngine mounts every route on h.
func NewEngine(cfg config.Config, h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = config.SplitList(cfg.CORSAllowed)
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		api.GET("/operators/available", h.AvailableOperators)
		api.GET("/operators/:id/availability", h.OperatorAvailability)
		api.GET("/operators/:id/schedule-end", h.ScheduleEnd)
		api.GET("/operators/:id/reassignments", h.OperatorReassignments)
		api.GET("/tickets/:id/reassignments", h.TicketReassignments)
		api.GET("/reassignments", h.RecentReassignments)
		api.GET("/system/status", h.SystemStatus)
		api.GET("/runs/latest", h.RunsLatest)
	}

	// batch endpoints are not bounded by REQUEST_TIMEOUT
	admin := r.Group("/api")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/system/pause", h.PauseSystem)
		admin.POST("/system/resume", h.ResumeSystem)
		admin.POST("/tickets/sync", h.SyncTickets)
		admin.POST("/tickets/migrate-assigned", h.MigrateAssigned)
		admin.POST("/tickets/auto-assign", h.AutoAssign)
		admin.POST("/tickets/:id/reassign", h.Reassign)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
