package container

import (
	"github.com/medview/imagestore/cmd/imagestore/handlers"
	"github.com/medview/imagestore/cmd/imagestore/repository"
	"github.com/medview/imagestore/cmd/imagestore/service"
	"github.com/medview/imagestore/common/bootstrap"
	"github.com/medview/imagestore/common/ratelimit"
	"github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components
	Redis      *redis.Client

	// Repositories
	ImageRepo *repository.ImageRepository

	// Services
	ImageService     *service.ImageService
	ReconcileService *service.ReconcileService

	// Handlers
	ImageHandler *handlers.ImageHandler

	// Rate limiting
	RateLimiter *ratelimit.Limiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Initialize repositories
	imageRepo := repository.NewImageRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	imageService := service.NewImageService(imageRepo, components.Blobs, components.Logger)
	reconcileService := service.NewReconcileService(imageRepo, components.Blobs, components.Logger)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(
		imageService,
		components.Config.Storage.MaxUploadBytes,
		components.Logger,
	)

	c := &Container{
		Components:       components,
		ImageRepo:        imageRepo,
		ImageService:     imageService,
		ReconcileService: reconcileService,
		ImageHandler:     imageHandler,
	}

	// Rate limiting is optional; without Redis the upload route runs unguarded
	if components.Config.RateLimit.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       0,
		})
		c.RateLimiter = ratelimit.NewLimiter(c.Redis, components.Logger)
	}

	return c, nil
}
