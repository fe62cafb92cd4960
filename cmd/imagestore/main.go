package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/medview/imagestore/cmd/imagestore/container"
	"github.com/medview/imagestore/cmd/imagestore/repository"
	"github.com/medview/imagestore/cmd/imagestore/routes"
	"github.com/medview/imagestore/common/bootstrap"
	"github.com/medview/imagestore/common/db"
	mw "github.com/medview/imagestore/common/middleware"
	"github.com/medview/imagestore/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap common components (config, logger, DB, blob store)
	components, err := bootstrap.Setup(ctx, "imagestore",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.Migrate(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap imagestore: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	// Optional catalog/blob reconciliation sweep
	if components.Config.Reconcile.Enabled {
		go serviceContainer.ReconcileService.Run(ctx, components.Config.Reconcile.Interval)
	}

	// Start server with graceful shutdown
	srv := server.New("imagestore", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "imagestore",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	cfg := serviceContainer.Components.Config

	var uploadMiddleware []echo.MiddlewareFunc
	if serviceContainer.RateLimiter != nil {
		uploadMiddleware = append(uploadMiddleware, mw.UploadRateLimitMiddleware(
			serviceContainer.RateLimiter,
			cfg.RateLimit.UploadLimit,
			cfg.RateLimit.WindowSec,
		))
	}

	routes.RegisterImageRoutes(e, serviceContainer.ImageHandler, uploadMiddleware...)
}
