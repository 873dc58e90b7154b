package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zerozero/labforge/internal/usecase"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/logger"
)

// Dependencies holds all dependencies needed for routing
type Dependencies struct {
	LabUseCase      usecase.LabUseCase
	TemplateUseCase usecase.TemplateUseCase
	DBPool          *pgxpool.Pool
	Logger          logger.Logger
	Config          *config.Config
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *gin.Engine, deps *Dependencies) {
	// Register HTTP routes
	RegisterHTTPRoutes(router, deps)
}
