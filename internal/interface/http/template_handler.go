package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zerozero/labforge/internal/usecase"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

// TemplateHandler handles HTTP requests for the template catalog
type TemplateHandler struct {
	templateUseCase usecase.TemplateUseCase
	labUseCase      usecase.LabUseCase
	log             logger.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(
	templateUseCase usecase.TemplateUseCase,
	labUseCase usecase.LabUseCase,
	logger logger.Logger,
) *TemplateHandler {
	return &TemplateHandler{
		templateUseCase: templateUseCase,
		labUseCase:      labUseCase,
		log:             logger,
	}
}

// ListTemplates handles GET /api/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateUseCase.ListTemplates(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// ListTemplatesByType handles GET /api/templates/type/:labType
func (h *TemplateHandler) ListTemplatesByType(c *gin.Context) {
	labType := c.Param("labType")

	templates, err := h.templateUseCase.ListTemplatesByType(c.Request.Context(), labType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetTemplate handles GET /api/templates/:templateId
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID := c.Param("templateId")

	template, err := h.templateUseCase.GetTemplate(c.Request.Context(), templateID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetTemplateSteps handles GET /api/templates/:templateId/steps
func (h *TemplateHandler) GetTemplateSteps(c *gin.Context) {
	templateID := c.Param("templateId")

	steps, err := h.templateUseCase.GetTemplateSteps(c.Request.Context(), templateID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, steps)
}

// CreateLabFromTemplate handles POST /api/templates/create-lab
// Provisions a templated lab; setup runs asynchronously after the response
func (h *TemplateHandler) CreateLabFromTemplate(c *gin.Context) {
	var req usecase.CreateLabFromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	lab, err := h.labUseCase.CreateLabFromTemplate(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lab)
}

// GetSetupLogs handles GET /api/templates/labs/:labId/setup-logs
func (h *TemplateHandler) GetSetupLogs(c *gin.Context) {
	labID := c.Param("labId")

	logs, err := h.templateUseCase.GetSetupLogs(c.Request.Context(), labID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *TemplateHandler) handleError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":     appErr.Code,
				"message":  appErr.Message,
				"details":  appErr.Details,
				"metadata": appErr.Metadata,
			},
		})
		return
	}

	h.log.Error("Unhandled error", logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}
