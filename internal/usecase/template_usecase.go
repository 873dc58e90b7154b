package usecase

import (
	"context"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/pkg/logger"
)

// TemplateUseCase defines the template catalog business logic
type TemplateUseCase interface {
	ListTemplates(ctx context.Context) ([]*entity.LabTemplate, error)
	ListTemplatesByType(ctx context.Context, labType string) ([]*entity.LabTemplate, error)
	GetTemplate(ctx context.Context, templateID string) (*entity.LabTemplate, error)
	GetTemplateSteps(ctx context.Context, templateID string) ([]*entity.SetupStep, error)
	GetSetupLogs(ctx context.Context, labID string) ([]*entity.SetupExecutionLog, error)
}

type templateUseCase struct {
	templates repository.LabTemplateRepository
	steps     repository.SetupStepRepository
	logs      repository.SetupExecutionLogRepository
	labs      repository.LabRepository
	log       logger.Logger
}

// NewTemplateUseCase creates the template catalog use case
func NewTemplateUseCase(
	templates repository.LabTemplateRepository,
	steps repository.SetupStepRepository,
	logs repository.SetupExecutionLogRepository,
	labs repository.LabRepository,
	log logger.Logger,
) TemplateUseCase {
	return &templateUseCase{
		templates: templates,
		steps:     steps,
		logs:      logs,
		labs:      labs,
		log:       log,
	}
}

// ListTemplates implements TemplateUseCase
func (uc *templateUseCase) ListTemplates(ctx context.Context) ([]*entity.LabTemplate, error) {
	return uc.templates.ListActive(ctx)
}

// ListTemplatesByType implements TemplateUseCase
func (uc *templateUseCase) ListTemplatesByType(ctx context.Context, labType string) ([]*entity.LabTemplate, error) {
	return uc.templates.ListActiveByType(ctx, labType)
}

// GetTemplate implements TemplateUseCase
func (uc *templateUseCase) GetTemplate(ctx context.Context, templateID string) (*entity.LabTemplate, error) {
	return uc.templates.GetByID(ctx, templateID)
}

// GetTemplateSteps implements TemplateUseCase
func (uc *templateUseCase) GetTemplateSteps(ctx context.Context, templateID string) ([]*entity.SetupStep, error) {
	if _, err := uc.templates.GetByID(ctx, templateID); err != nil {
		return nil, err
	}
	return uc.steps.ListByTemplateID(ctx, templateID)
}

// GetSetupLogs implements TemplateUseCase
func (uc *templateUseCase) GetSetupLogs(ctx context.Context, labID string) ([]*entity.SetupExecutionLog, error) {
	if _, err := uc.labs.GetByID(ctx, labID); err != nil {
		return nil, err
	}
	return uc.logs.ListByLabID(ctx, labID)
}
