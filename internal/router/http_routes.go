package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httphandler "github.com/zerozero/labforge/internal/interface/http"
)

// RegisterHTTPRoutes sets up all HTTP/REST API routes
func RegisterHTTPRoutes(router *gin.Engine, deps *Dependencies) {
	// Health check and metrics endpoints (no auth required)
	router.GET("/health", healthCheckHandler(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Lab lifecycle routes
		registerLabRoutes(api, deps)

		// Template catalog routes
		registerTemplateRoutes(api, deps)
	}
}

// healthCheckHandler returns server health status including database reachability
func healthCheckHandler(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		status := http.StatusOK
		if deps.DBPool != nil {
			if err := deps.DBPool.Ping(ctx); err != nil {
				dbStatus = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		c.JSON(status, gin.H{
			"status":   "healthy",
			"database": dbStatus,
			"time":     time.Now(),
		})
	}
}

// registerLabRoutes sets up lab lifecycle routes
func registerLabRoutes(api *gin.RouterGroup, deps *Dependencies) {
	labHandler := httphandler.NewLabHandler(deps.LabUseCase, deps.Logger)

	labs := api.Group("/labs")
	{
		labs.POST("/create", labHandler.CreateLab)
		labs.POST("/execute", labHandler.ExecuteCommand)

		labs.GET("/types", labHandler.GetLabTypes)
		labs.GET("/user/:userId", labHandler.GetUserLabs)
		labs.GET("/:labId/status", labHandler.GetLabStatus)
		labs.GET("/:labId/suggested-commands", labHandler.GetSuggestedCommands)

		labs.DELETE("/:labId", labHandler.DeleteLab)
	}
}

// registerTemplateRoutes sets up template catalog routes
func registerTemplateRoutes(api *gin.RouterGroup, deps *Dependencies) {
	templateHandler := httphandler.NewTemplateHandler(deps.TemplateUseCase, deps.LabUseCase, deps.Logger)

	templates := api.Group("/templates")
	{
		templates.GET("", templateHandler.ListTemplates)
		templates.GET("/type/:labType", templateHandler.ListTemplatesByType)
		templates.GET("/:templateId", templateHandler.GetTemplate)
		templates.GET("/:templateId/steps", templateHandler.GetTemplateSteps)

		templates.POST("/create-lab", templateHandler.CreateLabFromTemplate)
		templates.GET("/labs/:labId/setup-logs", templateHandler.GetSetupLogs)
	}
}
