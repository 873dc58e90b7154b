package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
	"github.com/zerozero/labforge/pkg/metrics"
)

// CreateLabRequest is the payload for creating an ad-hoc lab
type CreateLabRequest struct {
	UserID          string `json:"userId" binding:"required"`
	LabType         string `json:"labType" binding:"required"`
	DurationSeconds int    `json:"duration"`
}

// CreateLabFromTemplateRequest is the payload for creating a templated lab
type CreateLabFromTemplateRequest struct {
	UserID     string `json:"userId" binding:"required"`
	TemplateID string `json:"templateId" binding:"required"`
}

// ExecuteCommandRequest is the payload for running a command in a lab
type ExecuteCommandRequest struct {
	LabID   string `json:"labId" binding:"required"`
	Command string `json:"command" binding:"required"`
}

// CommandResult is the outcome of a user-initiated command
type CommandResult struct {
	Command  string `json:"command"`
	Output   string `json:"output"`
	Error    string `json:"error"`
	ExitCode int    `json:"exit_code"`
	Success  bool   `json:"success"`
}

// LabStatusResponse combines the stored lab state with the live pod phase
type LabStatusResponse struct {
	LabID       string             `json:"lab_id"`
	Status      entity.LabStatus   `json:"status"`
	SetupStatus entity.SetupStatus `json:"setup_status,omitempty"`
	PodPhase    string             `json:"pod_phase,omitempty"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// suggestedCommands are safe starter commands offered for any lab type
var suggestedCommands = []string{
	"ls -la",
	"pwd",
	"whoami",
	"ps aux",
	"df -h",
	"free -h",
	"uname -a",
	"cat /etc/os-release",
}

// PipelineRunner accepts labs whose template setup should run asynchronously
type PipelineRunner interface {
	Enqueue(lab *entity.Lab, template *entity.LabTemplate)
}

// LabUseCase defines the lab lifecycle business logic
type LabUseCase interface {
	CreateLab(ctx context.Context, req *CreateLabRequest) (*entity.Lab, error)
	CreateLabFromTemplate(ctx context.Context, req *CreateLabFromTemplateRequest) (*entity.Lab, error)
	GetUserLabs(ctx context.Context, userID string) ([]*entity.Lab, error)
	GetLabStatus(ctx context.Context, labID string) (*LabStatusResponse, error)
	DeleteLab(ctx context.Context, labID string) error
	ExecuteCommand(ctx context.Context, req *ExecuteCommandRequest) (*CommandResult, error)
	SupportedLabTypes() []string
	SuggestedCommands(ctx context.Context, labID string) ([]string, error)
}

type labUseCase struct {
	labs         repository.LabRepository
	templates    repository.LabTemplateRepository
	orchestrator kube.Orchestrator
	runner       PipelineRunner
	cfg          *config.Config
	log          logger.Logger
}

// NewLabUseCase creates the lab lifecycle use case
func NewLabUseCase(
	labs repository.LabRepository,
	templates repository.LabTemplateRepository,
	orchestrator kube.Orchestrator,
	runner PipelineRunner,
	cfg *config.Config,
	log logger.Logger,
) LabUseCase {
	return &labUseCase{
		labs:         labs,
		templates:    templates,
		orchestrator: orchestrator,
		runner:       runner,
		cfg:          cfg,
		log:          log,
	}
}

// CreateLab provisions an ad-hoc lab. The row is persisted before the pod
// is requested so a provisioning failure leaves an ERROR lab behind rather
// than an orphaned pod.
func (uc *labUseCase) CreateLab(ctx context.Context, req *CreateLabRequest) (*entity.Lab, error) {
	if _, ok := kube.ImageFor(req.LabType); !ok {
		return nil, errors.NewUnsupportedType(req.LabType)
	}

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = uc.cfg.Setup.DefaultDurationSeconds
	}

	labID := entity.NewLabID(req.UserID)
	now := time.Now()
	lab := &entity.Lab{
		ID:              labID,
		OwnerID:         req.UserID,
		LabType:         req.LabType,
		Status:          entity.LabStatusCreating,
		SetupStatus:     entity.SetupStatusReady, // ad-hoc labs have no setup pipeline
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(duration) * time.Second),
		AccessURL:       uc.accessURL(labID),
		PodName:         labID,
		DurationSeconds: duration,
	}

	if _, err := uc.labs.Create(ctx, lab); err != nil {
		return nil, err
	}

	if err := uc.orchestrator.CreateLabPod(ctx, lab); err != nil {
		lab.Status = entity.LabStatusError
		if _, saveErr := uc.labs.Save(ctx, lab); saveErr != nil {
			uc.log.Error("Failed to record provisioning failure", logger.String("lab_id", lab.ID), logger.Error(saveErr))
		}
		return nil, err
	}

	metrics.LabsCreated.WithLabelValues(lab.LabType, "adhoc").Inc()
	uc.log.Info("Lab created",
		logger.String("lab_id", lab.ID),
		logger.String("lab_type", lab.LabType),
		logger.String("owner_id", lab.OwnerID),
	)
	return lab, nil
}

// CreateLabFromTemplate provisions a templated lab and hands it to the
// setup pipeline. The call returns as soon as the pod request is accepted;
// setup progress is tracked through SetupStatus and the execution logs.
func (uc *labUseCase) CreateLabFromTemplate(ctx context.Context, req *CreateLabFromTemplateRequest) (*entity.Lab, error) {
	template, err := uc.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		// Deactivated templates stay readable for existing labs but are
		// not selectable for new ones.
		return nil, errors.NewNotFound("Template")
	}

	labID := entity.NewLabID(req.UserID)
	now := time.Now()
	duration := template.DurationMinutes * 60
	lab := &entity.Lab{
		ID:              labID,
		OwnerID:         req.UserID,
		TemplateID:      template.ID,
		LabType:         template.LabType,
		Status:          entity.LabStatusCreating,
		SetupStatus:     entity.SetupStatusInitializing,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(duration) * time.Second),
		AccessURL:       uc.accessURL(labID),
		PodName:         labID,
		DurationSeconds: duration,
	}

	if _, err := uc.labs.Create(ctx, lab); err != nil {
		return nil, err
	}

	if err := uc.orchestrator.CreateTemplatePod(ctx, lab, template); err != nil {
		lab.Status = entity.LabStatusError
		lab.SetupStatus = entity.SetupStatusFailed
		if _, saveErr := uc.labs.Save(ctx, lab); saveErr != nil {
			uc.log.Error("Failed to record provisioning failure", logger.String("lab_id", lab.ID), logger.Error(saveErr))
		}
		return nil, err
	}

	startedAt := time.Now()
	lab.SetupStatus = entity.SetupStatusSettingUp
	lab.SetupStartedAt = &startedAt
	if _, err := uc.labs.Save(ctx, lab); err != nil {
		return nil, err
	}

	uc.runner.Enqueue(lab, template)

	metrics.LabsCreated.WithLabelValues(lab.LabType, "template").Inc()
	uc.log.Info("Lab created from template",
		logger.String("lab_id", lab.ID),
		logger.String("template", template.Name),
		logger.String("owner_id", lab.OwnerID),
	)
	return lab, nil
}

// GetUserLabs implements LabUseCase
func (uc *labUseCase) GetUserLabs(ctx context.Context, userID string) ([]*entity.Lab, error) {
	return uc.labs.GetByOwnerID(ctx, userID)
}

// GetLabStatus reconciles the stored lab state with the live pod phase.
// Expired labs short-circuit without touching the cluster.
func (uc *labUseCase) GetLabStatus(ctx context.Context, labID string) (*LabStatusResponse, error) {
	lab, err := uc.labs.GetByID(ctx, labID)
	if err != nil {
		return nil, err
	}

	if lab.IsExpired() && lab.Status != entity.LabStatusStopped && lab.Status != entity.LabStatusExpired {
		lab.Status = entity.LabStatusExpired
		if _, err := uc.labs.Save(ctx, lab); err != nil {
			return nil, err
		}
		return uc.statusResponse(lab, ""), nil
	}

	phase, err := uc.orchestrator.GetPodPhase(ctx, lab.PodName)
	if err != nil {
		// Pod vanished or the cluster is unreachable; status queries
		// degrade to ERROR instead of failing outward.
		uc.log.Warn("Pod status lookup failed",
			logger.String("lab_id", labID),
			logger.Error(err),
		)
		lab.Status = entity.LabStatusError
		if _, saveErr := uc.labs.Save(ctx, lab); saveErr != nil {
			return nil, saveErr
		}
		return uc.statusResponse(lab, ""), nil
	}

	uc.applyPhase(lab, phase)
	if _, err := uc.labs.Save(ctx, lab); err != nil {
		return nil, err
	}
	return uc.statusResponse(lab, phase), nil
}

// applyPhase folds the pod phase into the lab status without moving a lab
// backwards through its lifecycle.
func (uc *labUseCase) applyPhase(lab *entity.Lab, phase string) {
	switch phase {
	case kube.PhaseRunning:
		// Templated labs stay in their setup-driven status until the
		// pipeline declares them RUNNING or ERROR.
		if lab.Status == entity.LabStatusCreating && !lab.HasTemplate() {
			lab.Status = entity.LabStatusRunning
		}
		if lab.Status == entity.LabStatusReady {
			lab.Status = entity.LabStatusRunning
		}
	case kube.PhaseStopped:
		if lab.Status != entity.LabStatusExpired && lab.Status != entity.LabStatusError {
			lab.Status = entity.LabStatusStopped
		}
	}
}

func (uc *labUseCase) statusResponse(lab *entity.Lab, phase string) *LabStatusResponse {
	return &LabStatusResponse{
		LabID:       lab.ID,
		Status:      lab.Status,
		SetupStatus: lab.SetupStatus,
		PodPhase:    phase,
		ExpiresAt:   lab.ExpiresAt,
	}
}

// DeleteLab tears down the pod best-effort and removes the lab row along
// with its execution logs.
func (uc *labUseCase) DeleteLab(ctx context.Context, labID string) error {
	lab, err := uc.labs.GetByID(ctx, labID)
	if err != nil {
		return err
	}

	if err := uc.orchestrator.DeletePod(ctx, lab.PodName); err != nil {
		uc.log.Warn("Pod teardown failed, removing lab anyway",
			logger.String("lab_id", labID),
			logger.Error(err),
		)
	}

	if err := uc.labs.Delete(ctx, labID); err != nil {
		return err
	}

	uc.log.Info("Lab deleted", logger.String("lab_id", labID))
	return nil
}

// ExecuteCommand runs a user command inside the lab pod. Unsafe commands,
// expired labs, and pods that are not running are rejected with a failed
// result rather than an error so clients get a uniform shape.
func (uc *labUseCase) ExecuteCommand(ctx context.Context, req *ExecuteCommandRequest) (*CommandResult, error) {
	lab, err := uc.labs.GetByID(ctx, req.LabID)
	if err != nil {
		return nil, err
	}

	if lab.IsExpired() {
		return &CommandResult{
			Command:  req.Command,
			Error:    "Lab has expired",
			ExitCode: -1,
		}, nil
	}

	if !IsCommandSafe(req.Command) {
		uc.log.Warn("Blocked potentially dangerous command",
			logger.String("lab_id", req.LabID),
			logger.String("command", req.Command),
		)
		return &CommandResult{
			Command:  req.Command,
			Error:    "Command not allowed for security reasons",
			ExitCode: -1,
		}, nil
	}

	phase, err := uc.orchestrator.GetPodPhase(ctx, lab.PodName)
	if err != nil || phase != kube.PhaseRunning {
		return &CommandResult{
			Command:  req.Command,
			Error:    "Lab is not running",
			ExitCode: -1,
		}, nil
	}

	timeout := time.Duration(uc.cfg.Setup.AdHocExecTimeoutSeconds) * time.Second
	result, err := uc.orchestrator.Exec(ctx, lab.PodName, req.Command, timeout)
	if err != nil {
		return nil, err
	}

	return &CommandResult{
		Command:  req.Command,
		Output:   result.Output,
		Error:    result.Error,
		ExitCode: result.ExitCode,
		Success:  result.Success,
	}, nil
}

// SupportedLabTypes implements LabUseCase
func (uc *labUseCase) SupportedLabTypes() []string {
	return kube.SupportedTypes()
}

// SuggestedCommands implements LabUseCase
func (uc *labUseCase) SuggestedCommands(ctx context.Context, labID string) ([]string, error) {
	if _, err := uc.labs.GetByID(ctx, labID); err != nil {
		return nil, err
	}

	commands := make([]string, len(suggestedCommands))
	copy(commands, suggestedCommands)
	return commands, nil
}

func (uc *labUseCase) accessURL(labID string) string {
	return fmt.Sprintf("%s/%s", uc.cfg.Kubernetes.AccessURLBase, labID)
}
