package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/flowfi/flowai/internal/auth"
	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/internal/middleware"
	"github.com/flowfi/flowai/internal/services"
	"github.com/flowfi/flowai/pkg/config"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Dependencies are what the router needs to serve requests
type Dependencies struct {
	Config   *config.Config
	Services *services.Services
	Logger   logger.Logger
	// DB is checked by /health; nil when history is kept in memory
	DB HealthChecker
}

// NewRouter builds the gin engine with the middleware chain and all routes
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = logger.NewSimpleLogger()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(cfg.RateLimitPerMinute))
	}

	if err := SetupRoutes(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Dependencies) error {
	if deps.Services == nil {
		return fmt.Errorf("services are required")
	}
	cfg := deps.Config

	analysisHandler := NewAnalysisHandler(deps.Services.Analysis, cfg.AvailableVRAMGB, 2*cfg.BackendTimeout)
	historyHandler := NewHistoryHandler(deps.Services.History, deps.Services.Export)
	healthHandler := NewHealthHandler(deps.DB, Version)

	r.GET("/health", healthHandler.Health)

	public := r.Group("/api/v1")
	{
		public.POST("/analyze", analysisHandler.Analyze)
		public.POST("/analyze/upload", analysisHandler.Upload)
		public.POST("/analyze/batch", analysisHandler.AnalyzeBatch)

		public.GET("/model", analysisHandler.ModelInfo)
		public.GET("/models", analysisHandler.Models)
		public.GET("/status", analysisHandler.Status)
	}

	history := r.Group("/api/v1/assessments")
	if cfg.HasAuth() {
		history.Use(auth.JWTMiddleware(auth.NewJWTService(cfg.JWTSecret), auth.ScopeHistory))
	} else if deps.Logger != nil {
		deps.Logger.Warn("JWT_SECRET not set; assessment history is served without authentication")
	}
	{
		history.GET("", historyHandler.List)
		history.GET("/stats", historyHandler.Stats)
		history.GET("/export", historyHandler.Export)
		history.GET("/:id", historyHandler.Get)
	}

	return nil
}
