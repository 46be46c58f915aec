// Package main is the entry point for the snowid API server.
// One process is one node; NODE_ID must be unique across the fleet.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"snowid/internal/config"
	"snowid/internal/core/snowflake"
	"snowid/internal/domain/auth"
	"snowid/internal/domain/idgen"
	v1 "snowid/internal/infrastructure/http/v1"
	"snowid/internal/infrastructure/http/v1/middleware"
	"snowid/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		Fields:      map[string]any{"service": "snowid", "node_id": cfg.NodeID},
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Infow("starting snowid server", "node_id", cfg.NodeID)

	// --- Allocator ---
	allocator, err := snowflake.New(cfg.Allocator())
	if err != nil {
		log.Fatalw("failed to create allocator", "error", err)
	}
	idService := idgen.NewService(allocator)

	// --- Auth (optional) ---
	var validator middleware.TokenValidator
	if cfg.AuthEnabled() {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
		jwtConfig.Issuer = cfg.JWTIssuer
		validator = auth.NewJWTService(jwtConfig)
		log.Info("bearer token authentication enabled")
	} else {
		log.Warn("JWT_SECRET not set, ID endpoints are unauthenticated")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		IDService:      idService,
		Allocator:      allocator,
		TokenValidator: validator,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "node_id", cfg.NodeID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	stats := allocator.Stats()
	log.Infow("server stopped",
		"allocated", stats.Allocated,
		"exhausted", stats.Exhausted,
		"clock_backward", stats.ClockBackward,
	)
}
