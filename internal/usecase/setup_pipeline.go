package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
	"github.com/zerozero/labforge/pkg/metrics"
)

// finalizeTimeout bounds the terminal status write when a pipeline's own
// context is already dead.
const finalizeTimeout = 10 * time.Second

type setupJob struct {
	lab      *entity.Lab
	template *entity.LabTemplate
}

// SetupRunner executes template setup pipelines on a bounded worker pool.
// Every enqueued lab reaches a terminal setup status, even when a worker
// panics or the pod never comes up.
type SetupRunner struct {
	labs         repository.LabRepository
	steps        repository.SetupStepRepository
	logs         repository.SetupExecutionLogRepository
	orchestrator kube.Orchestrator
	log          logger.Logger

	readinessTimeout time.Duration
	readinessPoll    time.Duration
	retryBackoff     time.Duration

	jobs chan setupJob
	wg   sync.WaitGroup
}

var _ PipelineRunner = (*SetupRunner)(nil)

// NewSetupRunner creates the pipeline runner and starts its workers
func NewSetupRunner(
	labs repository.LabRepository,
	steps repository.SetupStepRepository,
	logs repository.SetupExecutionLogRepository,
	orchestrator kube.Orchestrator,
	cfg *config.Config,
	log logger.Logger,
) *SetupRunner {
	workers := cfg.Setup.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.Setup.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	r := &SetupRunner{
		labs:             labs,
		steps:            steps,
		logs:             logs,
		orchestrator:     orchestrator,
		log:              log,
		readinessTimeout: time.Duration(cfg.Setup.ReadinessTimeoutSeconds) * time.Second,
		readinessPoll:    time.Duration(cfg.Setup.ReadinessPollSeconds) * time.Second,
		retryBackoff:     time.Duration(cfg.Setup.RetryBackoffSeconds) * time.Second,
		jobs:             make(chan setupJob, queueSize),
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

func (r *SetupRunner) worker() {
	defer r.wg.Done()
	for job := range r.jobs {
		metrics.PipelineQueueDepth.Dec()
		r.Run(context.Background(), job.lab, job.template)
	}
}

// Enqueue implements PipelineRunner. A full queue falls back to a
// dedicated goroutine so lab creation never blocks on setup throughput.
func (r *SetupRunner) Enqueue(lab *entity.Lab, template *entity.LabTemplate) {
	job := setupJob{lab: lab, template: template}
	select {
	case r.jobs <- job:
		metrics.PipelineQueueDepth.Inc()
	default:
		r.log.Warn("Setup queue full, running pipeline out of band",
			logger.String("lab_id", lab.ID))
		go r.Run(context.Background(), lab, template)
	}
}

// Stop drains the queue and waits for in-flight pipelines on the pool.
// Out-of-band pipelines started on queue overflow are not waited for.
func (r *SetupRunner) Stop() {
	close(r.jobs)
	r.wg.Wait()
}

// Run executes one lab's setup pipeline to a terminal status
func (r *SetupRunner) Run(ctx context.Context, lab *entity.Lab, template *entity.LabTemplate) {
	success := false
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Setup pipeline panicked",
				logger.String("lab_id", lab.ID),
				logger.Any("panic", rec),
			)
			success = false
		}
		r.finalize(lab, success)
	}()

	if err := r.waitForPodRunning(ctx, lab.PodName); err != nil {
		r.log.Error("Lab pod never became ready",
			logger.String("lab_id", lab.ID),
			logger.Error(err),
		)
		return
	}

	steps, err := r.steps.ListByTemplateID(ctx, template.ID)
	if err != nil {
		r.log.Error("Failed to load setup steps",
			logger.String("lab_id", lab.ID),
			logger.Error(err),
		)
		return
	}

	success = true
	for _, step := range steps {
		if r.executeStep(ctx, lab, step) {
			continue
		}
		if step.ContinueOnFailure {
			r.log.Warn("Step failed, continuing per template",
				logger.String("lab_id", lab.ID),
				logger.Int("step", step.StepOrder),
			)
			continue
		}
		success = false
		break
	}
}

// finalize persists the terminal lab state. It runs on a fresh context so
// a dead pipeline context cannot leave the lab stuck in SETTING_UP.
func (r *SetupRunner) finalize(lab *entity.Lab, success bool) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	result := "failed"
	if success {
		result = "success"
		completedAt := time.Now()
		lab.SetupStatus = entity.SetupStatusReady
		lab.Status = entity.LabStatusRunning
		lab.SetupCompletedAt = &completedAt
	} else {
		lab.SetupStatus = entity.SetupStatusFailed
		lab.Status = entity.LabStatusError
	}

	if _, err := r.labs.Save(ctx, lab); err != nil {
		r.log.Error("Failed to persist pipeline outcome",
			logger.String("lab_id", lab.ID),
			logger.Error(err),
		)
	}
	metrics.PipelinesCompleted.WithLabelValues(result).Inc()
	r.log.Info("Template setup completed",
		logger.String("lab_id", lab.ID),
		logger.String("setup_status", lab.SetupStatus.String()),
	)
}

// waitForPodRunning polls the pod phase until it reports Running. Poll
// errors are tolerated; only the deadline fails the pipeline.
func (r *SetupRunner) waitForPodRunning(ctx context.Context, podName string) error {
	deadline := time.Now().Add(r.readinessTimeout)
	for {
		phase, err := r.orchestrator.GetPodPhase(ctx, podName)
		if err != nil {
			r.log.Warn("Error checking pod status",
				logger.String("pod", podName),
				logger.Error(err),
			)
		} else if phase == kube.PhaseRunning {
			r.log.Info("Pod is now running", logger.String("pod", podName))
			return nil
		}

		if time.Now().After(deadline) {
			return errors.NewPipeline("Pod did not reach running state within timeout").
				WithMetadata("pod", podName)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.readinessPoll):
		}
	}
}

// executeStep runs one setup step with retries, recording every attempt
// into a single execution log row updated in place.
func (r *SetupRunner) executeStep(ctx context.Context, lab *entity.Lab, step *entity.SetupStep) bool {
	startedAt := time.Now()
	entry := &entity.SetupExecutionLog{
		ID:            uuid.New().String(),
		LabID:         lab.ID,
		SetupStepID:   step.ID,
		StepOrder:     step.StepOrder,
		StepTitle:     step.Title,
		Command:       step.SetupCommand,
		Status:        entity.ExecutionStatusRunning,
		AttemptNumber: 1,
		StartedAt:     startedAt,
	}
	if _, err := r.logs.Create(ctx, entry); err != nil {
		r.log.Warn("Failed to create execution log", logger.String("lab_id", lab.ID), logger.Error(err))
	}

	command := step.SetupCommand
	if wd := step.WorkingDirectory; wd != "" && wd != "/" {
		command = fmt.Sprintf("cd %s && %s", wd, step.SetupCommand)
	}
	timeout := time.Duration(step.TimeoutSeconds) * time.Second

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			metrics.StepRetries.Inc()
		}
		entry.AttemptNumber = attempt

		r.log.Info("Executing setup step",
			logger.String("lab_id", lab.ID),
			logger.Int("step", step.StepOrder),
			logger.Int("attempt", attempt),
			logger.String("title", step.Title),
		)

		result, err := r.orchestrator.Exec(ctx, lab.PodName, command, timeout)
		completedAt := time.Now()
		entry.CompletedAt = &completedAt
		entry.ExecutionTimeMs = completedAt.Sub(startedAt).Milliseconds()

		if err != nil {
			entry.ErrorMessage = "Execution error: " + err.Error()
			entry.ExitCode = nil
			return err
		}

		exitCode := result.ExitCode
		entry.Output = result.Output
		entry.ErrorMessage = result.Error
		entry.ExitCode = &exitCode

		if exitCode != step.ExpectedExitCode {
			return fmt.Errorf("step exited with code %d, expected %d", exitCode, step.ExpectedExitCode)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryBackoff), uint64(step.Attempts()-1))
	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))

	if err == nil {
		entry.Status = entity.ExecutionStatusSuccess
	} else {
		entry.Status = entity.ExecutionStatusFailed
		r.log.Error("Setup step failed",
			logger.String("lab_id", lab.ID),
			logger.Int("step", step.StepOrder),
			logger.Int("attempts", attempt),
			logger.Error(err),
		)
	}

	if _, saveErr := r.logs.Save(ctx, entry); saveErr != nil {
		r.log.Warn("Failed to save execution log", logger.String("lab_id", lab.ID), logger.Error(saveErr))
	}
	metrics.StepDuration.WithLabelValues(entry.Status.String()).Observe(time.Since(startedAt).Seconds())

	return err == nil
}
