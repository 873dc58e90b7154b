package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Kubernetes: config.KubernetesConfig{
			Namespace:     "labs",
			Container:     "lab",
			AccessURLBase: "http://labs.local",
		},
		Setup: config.SetupConfig{
			Workers:                 1,
			QueueSize:               4,
			ReadinessTimeoutSeconds: 1,
			ReadinessPollSeconds:    0,
			RetryBackoffSeconds:     0,
			AdHocExecTimeoutSeconds: 1,
			SweepSchedule:           "@every 5m",
			DefaultDurationSeconds:  3600,
		},
	}
}

func testLogger() logger.Logger {
	return logger.New("error")
}

// memLabRepo is an in-memory repository.LabRepository
type memLabRepo struct {
	mu   sync.Mutex
	labs map[string]entity.Lab
}

func newMemLabRepo() *memLabRepo {
	return &memLabRepo{labs: make(map[string]entity.Lab)}
}

func (r *memLabRepo) GetByID(_ context.Context, id string) (*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lab, ok := r.labs[id]
	if !ok {
		return nil, errors.NewNotFound("Lab")
	}
	copied := lab
	return &copied, nil
}

func (r *memLabRepo) GetByOwnerID(_ context.Context, ownerID string) ([]*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lab
	for _, lab := range r.labs {
		if lab.OwnerID == ownerID {
			copied := lab
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memLabRepo) GetByPodName(_ context.Context, podName string) (*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lab := range r.labs {
		if lab.PodName == podName {
			copied := lab
			return &copied, nil
		}
	}
	return nil, errors.NewNotFound("Lab")
}

func (r *memLabRepo) FindExpired(_ context.Context) ([]*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lab
	for _, lab := range r.labs {
		if lab.Status == entity.LabStatusRunning && lab.ExpiresAt.Before(time.Now()) {
			copied := lab
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memLabRepo) Create(_ context.Context, lab *entity.Lab) (*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labs[lab.ID] = *lab
	return lab, nil
}

// Save only updates an existing row; writes onto a deleted lab are dropped,
// mirroring the update-only semantics of the GORM repository.
func (r *memLabRepo) Save(_ context.Context, lab *entity.Lab) (*entity.Lab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.labs[lab.ID]; !ok {
		return lab, nil
	}
	r.labs[lab.ID] = *lab
	return lab, nil
}

func (r *memLabRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.labs[id]; !ok {
		return errors.NewNotFound("Lab")
	}
	delete(r.labs, id)
	return nil
}

func (r *memLabRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.labs)), nil
}

// memTemplateRepo is an in-memory repository.LabTemplateRepository
type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]entity.LabTemplate
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{templates: make(map[string]entity.LabTemplate)}
}

func (r *memTemplateRepo) GetByID(_ context.Context, id string) (*entity.LabTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, errors.NewNotFound("Template")
	}
	copied := template
	return &copied, nil
}

func (r *memTemplateRepo) ListActive(_ context.Context) ([]*entity.LabTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.LabTemplate
	for _, t := range r.templates {
		if t.IsActive {
			copied := t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memTemplateRepo) ListActiveByType(_ context.Context, labType string) ([]*entity.LabTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.LabTemplate
	for _, t := range r.templates {
		if t.IsActive && t.LabType == labType {
			copied := t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memTemplateRepo) Create(_ context.Context, template *entity.LabTemplate) (*entity.LabTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.ID] = *template
	return template, nil
}

func (r *memTemplateRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.templates)), nil
}

// memStepRepo is an in-memory repository.SetupStepRepository
type memStepRepo struct {
	mu    sync.Mutex
	steps []entity.SetupStep
}

func newMemStepRepo() *memStepRepo {
	return &memStepRepo{}
}

func (r *memStepRepo) ListByTemplateID(_ context.Context, templateID string) ([]*entity.SetupStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SetupStep
	for i := range r.steps {
		if r.steps[i].TemplateID == templateID {
			copied := r.steps[i]
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (r *memStepRepo) Create(_ context.Context, step *entity.SetupStep) (*entity.SetupStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, *step)
	return step, nil
}

// memLogRepo is an in-memory repository.SetupExecutionLogRepository
type memLogRepo struct {
	mu   sync.Mutex
	logs map[string]entity.SetupExecutionLog
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{logs: make(map[string]entity.SetupExecutionLog)}
}

func (r *memLogRepo) Create(_ context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.ID] = *log
	return log, nil
}

func (r *memLogRepo) Save(_ context.Context, log *entity.SetupExecutionLog) (*entity.SetupExecutionLog, error) {
	return r.Create(context.Background(), log)
}

func (r *memLogRepo) ListByLabID(_ context.Context, labID string) ([]*entity.SetupExecutionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SetupExecutionLog
	for _, l := range r.logs {
		if l.LabID == labID {
			copied := l
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (r *memLogRepo) CountSuccessByLabID(_ context.Context, labID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, l := range r.logs {
		if l.LabID == labID && l.Status == entity.ExecutionStatusSuccess {
			count++
		}
	}
	return count, nil
}

func (r *memLogRepo) DeleteByLabID(_ context.Context, labID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.logs {
		if l.LabID == labID {
			delete(r.logs, id)
		}
	}
	return nil
}

// fakeOrchestrator scripts cluster behavior for tests
type fakeOrchestrator struct {
	mu sync.Mutex

	createLabErr      error
	createTemplateErr error
	deleteErr         error

	phase    string
	phaseSeq []string
	phaseErr error

	execFn func(podName, command string) (*kube.ExecResult, error)

	createdPods []string
	deletedPods []string
	execCmds    []string
	phaseCalls  int
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{phase: kube.PhaseRunning}
}

func (f *fakeOrchestrator) CreateLabPod(_ context.Context, lab *entity.Lab) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createLabErr != nil {
		return f.createLabErr
	}
	f.createdPods = append(f.createdPods, lab.PodName)
	return nil
}

func (f *fakeOrchestrator) CreateTemplatePod(_ context.Context, lab *entity.Lab, _ *entity.LabTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTemplateErr != nil {
		return f.createTemplateErr
	}
	f.createdPods = append(f.createdPods, lab.PodName)
	return nil
}

func (f *fakeOrchestrator) DeletePod(_ context.Context, podName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedPods = append(f.deletedPods, podName)
	return nil
}

func (f *fakeOrchestrator) GetPodPhase(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phaseCalls++
	if f.phaseErr != nil {
		return "", f.phaseErr
	}
	if len(f.phaseSeq) > 0 {
		phase := f.phaseSeq[0]
		f.phaseSeq = f.phaseSeq[1:]
		return phase, nil
	}
	return f.phase, nil
}

func (f *fakeOrchestrator) Exec(_ context.Context, podName, command string, _ time.Duration) (*kube.ExecResult, error) {
	f.mu.Lock()
	fn := f.execFn
	f.execCmds = append(f.execCmds, command)
	f.mu.Unlock()

	if fn != nil {
		return fn(podName, command)
	}
	return &kube.ExecResult{Output: "ok\n", ExitCode: 0, Success: true}, nil
}

func (f *fakeOrchestrator) execCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.execCmds)
}

func (f *fakeOrchestrator) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deletedPods))
	copy(out, f.deletedPods)
	return out
}

// fakeRunner records enqueued pipelines without running them
type fakeRunner struct {
	mu       sync.Mutex
	enqueued []string
}

func (f *fakeRunner) Enqueue(lab *entity.Lab, _ *entity.LabTemplate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, lab.ID)
}
