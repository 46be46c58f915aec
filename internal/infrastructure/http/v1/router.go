// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"snowid/internal/core/snowflake"
	"snowid/internal/domain/idgen"
	"snowid/internal/infrastructure/http/v1/handlers"
	"snowid/internal/infrastructure/http/v1/middleware"
	"snowid/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// IDService allocates and decodes IDs
	IDService *idgen.Service

	// Allocator feeds the health endpoints
	Allocator handlers.AllocatorStats

	// Clock used by the readiness probe; nil means the system clock
	Clock snowflake.Clock

	// TokenValidator enables bearer auth on ID routes when non-nil
	TokenValidator middleware.TokenValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Allocator, cfg.Clock)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	idHandler := handlers.NewIDHandler(handlers.NewBaseHandler(), cfg.IDService)

	var authChain []gin.HandlerFunc
	if cfg.TokenValidator != nil {
		authChain = append(authChain, middleware.Auth(cfg.TokenValidator))
	}
	protected := router.Group("", authChain...)

	// Header dispatch (Action: Next | Get) answers on any path without a route.
	protected.Any("/", idHandler.Dispatch)
	router.NoRoute(append(authChain, idHandler.Dispatch)...)

	// API v1
	idHandler.RegisterRoutes(protected.Group("/api/v1"))

	return router
}
