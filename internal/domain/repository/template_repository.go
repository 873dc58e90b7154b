package repository

import (
	"context"

	"github.com/zerozero/labforge/internal/domain/entity"
)

// LabTemplateRepository defines the interface for template data access.
// Soft-deleted templates (is_active=false) are excluded from listings but
// remain retrievable by ID for labs that already reference them.
type LabTemplateRepository interface {
	// GetByID retrieves a template by its ID, active or not
	GetByID(ctx context.Context, id string) (*entity.LabTemplate, error)

	// ListActive retrieves active templates, newest first
	ListActive(ctx context.Context) ([]*entity.LabTemplate, error)

	// ListActiveByType retrieves active templates for a lab type
	ListActiveByType(ctx context.Context, labType string) ([]*entity.LabTemplate, error)

	// Create persists a new template
	Create(ctx context.Context, template *entity.LabTemplate) (*entity.LabTemplate, error)

	// Count counts all templates, active or not
	Count(ctx context.Context) (int64, error)
}

// SetupStepRepository defines the interface for setup step data access
type SetupStepRepository interface {
	// ListByTemplateID retrieves a template's steps in ascending step order
	ListByTemplateID(ctx context.Context, templateID string) ([]*entity.SetupStep, error)

	// Create persists a new setup step
	Create(ctx context.Context, step *entity.SetupStep) (*entity.SetupStep, error)
}
