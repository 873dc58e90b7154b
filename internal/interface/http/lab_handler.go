package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zerozero/labforge/internal/usecase"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

// LabHandler handles HTTP requests for lab lifecycle operations
type LabHandler struct {
	labUseCase usecase.LabUseCase
	log        logger.Logger
}

// NewLabHandler creates a new lab handler
func NewLabHandler(labUseCase usecase.LabUseCase, logger logger.Logger) *LabHandler {
	return &LabHandler{
		labUseCase: labUseCase,
		log:        logger,
	}
}

// CreateLab handles POST /api/labs/create
// Provisions a new ad-hoc lab for the requesting user
func (h *LabHandler) CreateLab(c *gin.Context) {
	var req usecase.CreateLabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	lab, err := h.labUseCase.CreateLab(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lab)
}

// GetUserLabs handles GET /api/labs/user/:userId
// Lists all labs owned by a user, newest first
func (h *LabHandler) GetUserLabs(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		h.handleError(c, errors.NewBadRequest("User ID is required"))
		return
	}

	labs, err := h.labUseCase.GetUserLabs(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, labs)
}

// GetLabTypes handles GET /api/labs/types
func (h *LabHandler) GetLabTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"types": h.labUseCase.SupportedLabTypes(),
	})
}

// GetLabStatus handles GET /api/labs/:labId/status
// Returns the stored lab state reconciled with the live pod phase
func (h *LabHandler) GetLabStatus(c *gin.Context) {
	labID := c.Param("labId")

	status, err := h.labUseCase.GetLabStatus(c.Request.Context(), labID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// DeleteLab handles DELETE /api/labs/:labId
func (h *LabHandler) DeleteLab(c *gin.Context) {
	labID := c.Param("labId")

	if err := h.labUseCase.DeleteLab(c.Request.Context(), labID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lab deleted successfully",
		"lab_id":  labID,
	})
}

// ExecuteCommand handles POST /api/labs/execute
// Runs a command inside the lab pod and returns its captured output
func (h *LabHandler) ExecuteCommand(c *gin.Context) {
	var req usecase.ExecuteCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.NewBadRequest("Invalid request body"))
		return
	}

	result, err := h.labUseCase.ExecuteCommand(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSuggestedCommands handles GET /api/labs/:labId/suggested-commands
func (h *LabHandler) GetSuggestedCommands(c *gin.Context) {
	labID := c.Param("labId")

	commands, err := h.labUseCase.SuggestedCommands(c.Request.Context(), labID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, commands)
}

// handleError converts application errors to HTTP responses
func (h *LabHandler) handleError(c *gin.Context, err error) {
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

	// Default to internal server error
	h.log.Error("Unhandled error", logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}
