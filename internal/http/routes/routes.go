package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flag-avatar/internal/http/handlers"
	"github.com/phambaophuc/flag-avatar/internal/http/middleware"
	"github.com/phambaophuc/flag-avatar/internal/http/templates"
	"go.uber.org/zap"
)

type Router struct {
	avatarHandler *handlers.AvatarHandler
	logger        *zap.Logger
}

func NewRouter(
	avatarHandler *handlers.AvatarHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		avatarHandler: avatarHandler,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() (*gin.Engine, error) {
	pages, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(pages)

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.SecurityHeaders())

	router.GET("/", r.avatarHandler.Index)
	router.GET("/health", r.avatarHandler.HealthCheck)

	router.GET("/upload", r.avatarHandler.UploadPage)
	router.POST("/upload", middleware.RequireMultipart(), r.avatarHandler.Upload)

	crop := router.Group("/crop")
	{
		crop.GET("/:avatarFileName", r.avatarHandler.Crop)
		crop.POST("/:avatarFileName", r.avatarHandler.CommitCrop)
		crop.DELETE("/:avatarFileName", r.avatarHandler.DiscardCrop)
	}

	router.GET("/download", r.avatarHandler.DownloadPage)

	return router, nil
}
