package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/medview/imagestore/cmd/imagestore/handlers"
)

// RegisterImageRoutes registers all image-related routes. Extra middleware
// (rate limiting) applies to the upload route only.
func RegisterImageRoutes(e *echo.Echo, h *handlers.ImageHandler, uploadMiddleware ...echo.MiddlewareFunc) {
	images := e.Group("/api/image")
	{
		images.POST("/upload", h.Upload, uploadMiddleware...) // POST /api/image/upload
		images.GET("", h.List)                                // GET /api/image
		images.GET("/:id", h.Get)                             // GET /api/image/42
		images.DELETE("/:id", h.Delete)                       // DELETE /api/image/42
	}
}
