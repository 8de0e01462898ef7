package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/benetrust/trustadmin-backend/internal/handlers"
	"github.com/benetrust/trustadmin-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware
	WizardHandler  *handlers.WizardHandler
	FeedHandler    *handlers.FeedHandler
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("trustadmin-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Wizard type catalog
	api.GET("/wizard-types", cfg.WizardHandler.ListTypes)
	api.GET("/wizard-types/:name", cfg.WizardHandler.GetType)

	// Wizard instances and step navigation
	api.POST("/wizards", cfg.WizardHandler.Create)
	api.GET("/wizards", cfg.WizardHandler.List)
	api.GET("/wizards/:id", cfg.WizardHandler.Get)
	api.PATCH("/wizards/:id", cfg.WizardHandler.Update)
	api.DELETE("/wizards/:id", cfg.WizardHandler.Delete)
	api.POST("/wizards/:id/advance", cfg.WizardHandler.Advance)
	api.POST("/wizards/:id/retreat", cfg.WizardHandler.Retreat)

	// Feed files, mapping, pipeline
	api.POST("/wizards/:id/files", cfg.FeedHandler.UploadFile)
	api.DELETE("/wizards/:id/files/:fileId", cfg.FeedHandler.DeleteFile)
	api.GET("/wizards/:id/files/:fileId/preview", cfg.FeedHandler.PreviewFile)
	api.GET("/wizards/:id/mapping/suggestion", cfg.FeedHandler.MappingSuggestion)
	api.PUT("/wizards/:id/mapping", cfg.FeedHandler.SaveMapping)
	api.POST("/wizards/:id/validate", cfg.FeedHandler.Validate)
	api.POST("/wizards/:id/process", cfg.FeedHandler.Process)

	// Reports
	api.POST("/wizards/:id/report", cfg.FeedHandler.GenerateReport)
	api.GET("/wizards/:id/report", cfg.FeedHandler.GetReport)

	return router
}
