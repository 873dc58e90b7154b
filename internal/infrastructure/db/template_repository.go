package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/pkg/errors"
	"gorm.io/gorm"
)

// LabTemplateRepository is the GORM implementation of the template repository
type LabTemplateRepository struct {
	db *gorm.DB
}

// NewLabTemplateRepository creates a new template repository using GORM
func NewLabTemplateRepository(db *gorm.DB) repository.LabTemplateRepository {
	return &LabTemplateRepository{
		db: db,
	}
}

// GetByID implements repository.LabTemplateRepository
func (r *LabTemplateRepository) GetByID(ctx context.Context, id string) (*entity.LabTemplate, error) {
	var template entity.LabTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFound("Template")
		}
		return nil, errors.NewDatabaseError("Failed to get template by ID").WithError(err)
	}
	return &template, nil
}

// ListActive implements repository.LabTemplateRepository
func (r *LabTemplateRepository) ListActive(ctx context.Context) ([]*entity.LabTemplate, error) {
	var templates []*entity.LabTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&templates).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to list active templates").WithError(err)
	}

	return templates, nil
}

// ListActiveByType implements repository.LabTemplateRepository
func (r *LabTemplateRepository) ListActiveByType(ctx context.Context, labType string) ([]*entity.LabTemplate, error) {
	var templates []*entity.LabTemplate
	err := r.db.WithContext(ctx).
		Where("lab_type = ? AND is_active = ?", labType, true).
		Order("created_at DESC").
		Find(&templates).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to list templates by type").WithError(err)
	}

	return templates, nil
}

// Create implements repository.LabTemplateRepository
func (r *LabTemplateRepository) Create(ctx context.Context, template *entity.LabTemplate) (*entity.LabTemplate, error) {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Create(template).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to create template").WithError(err)
	}

	return template, nil
}

// Count implements repository.LabTemplateRepository
func (r *LabTemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.LabTemplate{}).Count(&count).Error
	if err != nil {
		return 0, errors.NewDatabaseError("Failed to count templates").WithError(err)
	}

	return count, nil
}

// SetupStepRepository is the GORM implementation of the setup step repository
type SetupStepRepository struct {
	db *gorm.DB
}

// NewSetupStepRepository creates a new setup step repository using GORM
func NewSetupStepRepository(db *gorm.DB) repository.SetupStepRepository {
	return &SetupStepRepository{
		db: db,
	}
}

// ListByTemplateID implements repository.SetupStepRepository
func (r *SetupStepRepository) ListByTemplateID(ctx context.Context, templateID string) ([]*entity.SetupStep, error) {
	var steps []*entity.SetupStep
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("step_order ASC").
		Find(&steps).Error

	if err != nil {
		return nil, errors.NewDatabaseError("Failed to list setup steps").WithError(err)
	}

	return steps, nil
}

// Create implements repository.SetupStepRepository
func (r *SetupStepRepository) Create(ctx context.Context, step *entity.SetupStep) (*entity.SetupStep, error) {
	if step.ID == "" {
		step.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Create(step).Error
	if err != nil {
		return nil, errors.NewDatabaseError("Failed to create setup step").WithError(err)
	}

	return step, nil
}
