package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/pkg/errors"
)

type labFixture struct {
	labs      *memLabRepo
	templates *memTemplateRepo
	orch      *fakeOrchestrator
	runner    *fakeRunner
	uc        LabUseCase
}

func newLabFixture() *labFixture {
	f := &labFixture{
		labs:      newMemLabRepo(),
		templates: newMemTemplateRepo(),
		orch:      newFakeOrchestrator(),
		runner:    &fakeRunner{},
	}
	f.uc = NewLabUseCase(f.labs, f.templates, f.orch, f.runner, testConfig(), testLogger())
	return f
}

func (f *labFixture) addLab(lab *entity.Lab) {
	_, _ = f.labs.Create(context.Background(), lab)
}

func runningLab(id, owner string, expiresIn time.Duration) *entity.Lab {
	return &entity.Lab{
		ID:        id,
		OwnerID:   owner,
		LabType:   "python",
		Status:    entity.LabStatusRunning,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiresIn),
		PodName:   id,
	}
}

func TestCreateAdHocLab(t *testing.T) {
	f := newLabFixture()

	lab, err := f.uc.CreateLab(context.Background(), &CreateLabRequest{
		UserID:          "alice",
		LabType:         "python",
		DurationSeconds: 1800,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(lab.ID, "lab-alice-"))
	assert.Equal(t, entity.LabStatusCreating, lab.Status)
	assert.Equal(t, entity.SetupStatusReady, lab.SetupStatus, "ad-hoc labs have no setup pipeline")
	assert.Equal(t, lab.ID, lab.PodName)
	assert.Equal(t, "http://labs.local/"+lab.ID, lab.AccessURL)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), lab.ExpiresAt, 5*time.Second)

	stored, err := f.labs.GetByID(context.Background(), lab.ID)
	require.NoError(t, err)
	assert.Equal(t, lab.ID, stored.ID)
	assert.Equal(t, []string{lab.ID}, f.orch.createdPods)
}

func TestCreateAdHocLabDefaultDuration(t *testing.T) {
	f := newLabFixture()

	lab, err := f.uc.CreateLab(context.Background(), &CreateLabRequest{
		UserID:  "alice",
		LabType: "nodejs",
	})
	require.NoError(t, err)
	assert.Equal(t, 3600, lab.DurationSeconds)
}

func TestCreateAdHocLabUnsupportedType(t *testing.T) {
	f := newLabFixture()

	_, err := f.uc.CreateLab(context.Background(), &CreateLabRequest{
		UserID:  "alice",
		LabType: "cobol",
	})
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedType(err))
	assert.Empty(t, f.orch.createdPods)
}

func TestCreateAdHocLabProvisionFailure(t *testing.T) {
	f := newLabFixture()
	f.orch.createLabErr = errors.NewProvision("quota exceeded")

	_, err := f.uc.CreateLab(context.Background(), &CreateLabRequest{
		UserID:  "alice",
		LabType: "python",
	})
	require.Error(t, err)

	// The lab row survives with ERROR status rather than vanishing
	labs, listErr := f.labs.GetByOwnerID(context.Background(), "alice")
	require.NoError(t, listErr)
	require.Len(t, labs, 1)
	assert.Equal(t, entity.LabStatusError, labs[0].Status)
}

func TestCreateLabFromTemplate(t *testing.T) {
	f := newLabFixture()
	_, _ = f.templates.Create(context.Background(), &entity.LabTemplate{
		ID:              "python-dev-template",
		Name:            "Python Development Environment",
		LabType:         "python",
		BaseImage:       "python:3.9-slim",
		DurationMinutes: 120,
		IsActive:        true,
	})

	lab, err := f.uc.CreateLabFromTemplate(context.Background(), &CreateLabFromTemplateRequest{
		UserID:     "bob",
		TemplateID: "python-dev-template",
	})
	require.NoError(t, err)

	assert.Equal(t, "python-dev-template", lab.TemplateID)
	assert.Equal(t, "python", lab.LabType)
	assert.Equal(t, entity.LabStatusCreating, lab.Status)
	assert.Equal(t, entity.SetupStatusSettingUp, lab.SetupStatus)
	require.NotNil(t, lab.SetupStartedAt)
	assert.Equal(t, 120*60, lab.DurationSeconds)

	assert.Equal(t, []string{lab.ID}, f.orch.createdPods)
	assert.Equal(t, []string{lab.ID}, f.runner.enqueued)
}

func TestCreateLabFromTemplateNotFound(t *testing.T) {
	f := newLabFixture()

	_, err := f.uc.CreateLabFromTemplate(context.Background(), &CreateLabFromTemplateRequest{
		UserID:     "bob",
		TemplateID: "missing",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.runner.enqueued)
}

func TestCreateLabFromTemplateInactive(t *testing.T) {
	f := newLabFixture()
	_, _ = f.templates.Create(context.Background(), &entity.LabTemplate{
		ID: "retired", LabType: "python", DurationMinutes: 60, IsActive: false,
	})

	_, err := f.uc.CreateLabFromTemplate(context.Background(), &CreateLabFromTemplateRequest{
		UserID:     "bob",
		TemplateID: "retired",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "a deactivated template is not selectable")
	assert.Empty(t, f.orch.createdPods)
	assert.Empty(t, f.runner.enqueued)
}

func TestCreateLabFromTemplateProvisionFailure(t *testing.T) {
	f := newLabFixture()
	_, _ = f.templates.Create(context.Background(), &entity.LabTemplate{
		ID: "tpl", LabType: "python", DurationMinutes: 60, IsActive: true,
	})
	f.orch.createTemplateErr = errors.NewProvision("no capacity")

	_, err := f.uc.CreateLabFromTemplate(context.Background(), &CreateLabFromTemplateRequest{
		UserID:     "bob",
		TemplateID: "tpl",
	})
	require.Error(t, err)

	labs, _ := f.labs.GetByOwnerID(context.Background(), "bob")
	require.Len(t, labs, 1)
	assert.Equal(t, entity.LabStatusError, labs[0].Status)
	assert.Equal(t, entity.SetupStatusFailed, labs[0].SetupStatus)
	assert.Empty(t, f.runner.enqueued, "failed provisioning must not enqueue a pipeline")
}

func TestDeleteLab(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))

	require.NoError(t, f.uc.DeleteLab(context.Background(), "lab-alice-1"))

	assert.Equal(t, []string{"lab-alice-1"}, f.orch.deleted())
	_, err := f.labs.GetByID(context.Background(), "lab-alice-1")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteLabNotFound(t *testing.T) {
	f := newLabFixture()

	err := f.uc.DeleteLab(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.orch.deleted(), "no teardown call for an unknown lab")
}

func TestDeleteLabPodTeardownFailureStillDeletesRow(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.deleteErr = errors.NewTermination("connection refused")

	require.NoError(t, f.uc.DeleteLab(context.Background(), "lab-alice-1"))

	_, err := f.labs.GetByID(context.Background(), "lab-alice-1")
	assert.True(t, errors.IsNotFound(err))
}

func TestExecuteCommand(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.execFn = func(_, _ string) (*kube.ExecResult, error) {
		return &kube.ExecResult{Output: "alice\n", ExitCode: 0, Success: true}, nil
	}

	result, err := f.uc.ExecuteCommand(context.Background(), &ExecuteCommandRequest{
		LabID:   "lab-alice-1",
		Command: "whoami",
	})
	require.NoError(t, err)

	assert.Equal(t, "whoami", result.Command)
	assert.Equal(t, "alice\n", result.Output)
	assert.True(t, result.Success)
}

func TestExecuteCommandPodNotRunning(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.phase = kube.PhaseCreating

	result, err := f.uc.ExecuteCommand(context.Background(), &ExecuteCommandRequest{
		LabID:   "lab-alice-1",
		Command: "whoami",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.Equal(t, "Lab is not running", result.Error)
	assert.Zero(t, f.orch.execCount())
}

func TestExecuteCommandBlocked(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))

	result, err := f.uc.ExecuteCommand(context.Background(), &ExecuteCommandRequest{
		LabID:   "lab-alice-1",
		Command: "rm -rf /",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.Equal(t, "Command not allowed for security reasons", result.Error)
	assert.Zero(t, f.orch.execCount(), "blocked commands never reach the pod")
}

func TestExecuteCommandExpiredLab(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", -time.Minute))

	result, err := f.uc.ExecuteCommand(context.Background(), &ExecuteCommandRequest{
		LabID:   "lab-alice-1",
		Command: "whoami",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ExitCode)
	assert.Equal(t, "Lab has expired", result.Error)
	assert.Zero(t, f.orch.execCount())
}

func TestExecuteCommandLabNotFound(t *testing.T) {
	f := newLabFixture()

	_, err := f.uc.ExecuteCommand(context.Background(), &ExecuteCommandRequest{
		LabID:   "missing",
		Command: "whoami",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetLabStatusExpiredShortCircuits(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", -time.Minute))

	status, err := f.uc.GetLabStatus(context.Background(), "lab-alice-1")
	require.NoError(t, err)

	assert.Equal(t, entity.LabStatusExpired, status.Status)
	assert.Empty(t, status.PodPhase)
	assert.Zero(t, f.orch.phaseCalls, "expired labs never hit the cluster")

	stored, _ := f.labs.GetByID(context.Background(), "lab-alice-1")
	assert.Equal(t, entity.LabStatusExpired, stored.Status)
}

func TestGetLabStatusPodGone(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.phaseErr = errors.NewNotFound("Pod")

	status, err := f.uc.GetLabStatus(context.Background(), "lab-alice-1")
	require.NoError(t, err)

	assert.Equal(t, entity.LabStatusError, status.Status)
	stored, _ := f.labs.GetByID(context.Background(), "lab-alice-1")
	assert.Equal(t, entity.LabStatusError, stored.Status)
}

func TestGetLabStatusClusterUnreachable(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.phaseErr = errors.NewProvision("apiserver unreachable")

	status, err := f.uc.GetLabStatus(context.Background(), "lab-alice-1")
	require.NoError(t, err, "status queries degrade instead of failing")

	assert.Equal(t, entity.LabStatusError, status.Status)
	stored, _ := f.labs.GetByID(context.Background(), "lab-alice-1")
	assert.Equal(t, entity.LabStatusError, stored.Status)
}

func TestGetLabStatusAdHocBecomesRunning(t *testing.T) {
	f := newLabFixture()
	lab := runningLab("lab-alice-1", "alice", time.Hour)
	lab.Status = entity.LabStatusCreating
	f.addLab(lab)
	f.orch.phase = kube.PhaseRunning

	status, err := f.uc.GetLabStatus(context.Background(), "lab-alice-1")
	require.NoError(t, err)

	assert.Equal(t, entity.LabStatusRunning, status.Status)
	assert.Equal(t, kube.PhaseRunning, status.PodPhase)
}

func TestGetLabStatusTemplatedStaysCreatingDuringSetup(t *testing.T) {
	f := newLabFixture()
	lab := runningLab("lab-bob-1", "bob", time.Hour)
	lab.Status = entity.LabStatusCreating
	lab.TemplateID = "tpl"
	lab.SetupStatus = entity.SetupStatusSettingUp
	f.addLab(lab)
	f.orch.phase = kube.PhaseRunning

	status, err := f.uc.GetLabStatus(context.Background(), "lab-bob-1")
	require.NoError(t, err)

	// The pipeline, not the pod phase, promotes templated labs
	assert.Equal(t, entity.LabStatusCreating, status.Status)
	assert.Equal(t, entity.SetupStatusSettingUp, status.SetupStatus)
}

func TestGetLabStatusStoppedPod(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))
	f.orch.phase = kube.PhaseStopped

	status, err := f.uc.GetLabStatus(context.Background(), "lab-alice-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LabStatusStopped, status.Status)
}

func TestSupportedLabTypes(t *testing.T) {
	f := newLabFixture()
	assert.Equal(t, []string{"docker", "kubernetes", "nodejs", "python"}, f.uc.SupportedLabTypes())
}

func TestSuggestedCommands(t *testing.T) {
	f := newLabFixture()
	f.addLab(runningLab("lab-alice-1", "alice", time.Hour))

	commands, err := f.uc.SuggestedCommands(context.Background(), "lab-alice-1")
	require.NoError(t, err)
	assert.Contains(t, commands, "ls -la")
	assert.Contains(t, commands, "uname -a")
	assert.Len(t, commands, 8)

	_, err = f.uc.SuggestedCommands(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}
