package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/pkg/errors"
	"github.com/zerozero/labforge/pkg/logger"
)

type stubTemplateRepo struct {
	templates []*entity.LabTemplate
}

func (r *stubTemplateRepo) GetByID(_ context.Context, id string) (*entity.LabTemplate, error) {
	for _, t := range r.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.NewNotFound("Template")
}

func (r *stubTemplateRepo) ListActive(_ context.Context) ([]*entity.LabTemplate, error) {
	return r.templates, nil
}

func (r *stubTemplateRepo) ListActiveByType(_ context.Context, labType string) ([]*entity.LabTemplate, error) {
	var out []*entity.LabTemplate
	for _, t := range r.templates {
		if t.LabType == labType {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubTemplateRepo) Create(_ context.Context, template *entity.LabTemplate) (*entity.LabTemplate, error) {
	r.templates = append(r.templates, template)
	return template, nil
}

func (r *stubTemplateRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.templates)), nil
}

type stubStepRepo struct {
	steps []*entity.SetupStep
}

func (r *stubStepRepo) ListByTemplateID(_ context.Context, templateID string) ([]*entity.SetupStep, error) {
	var out []*entity.SetupStep
	for _, s := range r.steps {
		if s.TemplateID == templateID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubStepRepo) Create(_ context.Context, step *entity.SetupStep) (*entity.SetupStep, error) {
	r.steps = append(r.steps, step)
	return step, nil
}

func TestSeedTemplates(t *testing.T) {
	templates := &stubTemplateRepo{}
	steps := &stubStepRepo{}

	require.NoError(t, Templates(context.Background(), templates, steps, logger.New("error")))

	require.Len(t, templates.templates, 4)

	wantSteps := map[string]int{
		"python-dev-template":   4,
		"docker-dev-template":   5,
		"nodejs-dev-template":   4,
		"johndoe-user-template": 15,
	}
	for templateID, want := range wantSteps {
		got, err := steps.ListByTemplateID(context.Background(), templateID)
		require.NoError(t, err)
		assert.Len(t, got, want, "step count for %s", templateID)
	}

	// Every seeded step carries the catalog-wide retry policy
	for _, step := range steps.steps {
		assert.Equal(t, 2, step.RetryCount)
		assert.Equal(t, 0, step.ExpectedExitCode)
		assert.False(t, step.ContinueOnFailure)
		assert.Equal(t, "/", step.WorkingDirectory)
		assert.Positive(t, step.TimeoutSeconds)
	}
}

func TestSeedTemplatesSkipsPopulatedCatalog(t *testing.T) {
	templates := &stubTemplateRepo{
		templates: []*entity.LabTemplate{{ID: "custom", LabType: "python", IsActive: true}},
	}
	steps := &stubStepRepo{}

	require.NoError(t, Templates(context.Background(), templates, steps, logger.New("error")))

	assert.Len(t, templates.templates, 1, "existing catalog is left untouched")
	assert.Empty(t, steps.steps)
}
