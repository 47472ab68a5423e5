package steps

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/resumeapi"
	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizard"
)

type nopGateway struct{}

func (nopGateway) Create(context.Context, resumeapi.Payload) (resumeapi.Resource, error) {
	return resumeapi.Resource{ID: "resume-1", Status: resumeapi.StatusDraft}, nil
}

func (nopGateway) Update(_ context.Context, id string, _ resumeapi.Payload) (resumeapi.Resource, error) {
	return resumeapi.Resource{ID: id, Status: resumeapi.StatusDraft}, nil
}

type instantGenerator struct{}

func (instantGenerator) Generate(context.Context, generation.Input, func(generation.Progress)) (string, error) {
	return "# Generated\n\n## Summary\nok", nil
}

func newController(t *testing.T) *wizard.Controller {
	t.Helper()
	c, err := wizard.New(wizard.Options{
		Key:       "wiz",
		Gateway:   nopGateway{},
		Generator: instantGenerator{},
		Debounce:  time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Discard(context.Background()) })
	return c
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	catalog, err := templates.Default()
	require.NoError(t, err)
	return NewRegistry(catalog)
}

func submit(t *testing.T, r *Registry, c *wizard.Controller, step wizard.Step, body string, next bool) error {
	t.Helper()
	return r.Submit(context.Background(), c, step, json.RawMessage(body), next)
}

func TestRegistryAddressesEveryStep(t *testing.T) {
	r := newRegistry(t)
	for _, s := range wizard.Steps() {
		h, ok := r.Handler(s)
		require.True(t, ok)
		require.Equal(t, s, h.Step())
		require.Equal(t, s.Title(), h.Title())
	}
	_, ok := r.Handler(7)
	require.False(t, ok)
}

func TestSubmitRejectsOtherStep(t *testing.T) {
	r := newRegistry(t)
	c := newController(t)
	err := submit(t, r, c, wizard.StepConfiguration, `{}`, false)
	require.ErrorIs(t, err, ErrStepMismatch)
}

func TestJobDescriptionStep(t *testing.T) {
	r := newRegistry(t)
	c := newController(t)

	err := submit(t, r, c, wizard.StepJobDescription, `{"jobText":"a","jobFile":{"name":"b"}}`, false)
	require.ErrorIs(t, err, wizard.ErrInvalidInput)

	err = submit(t, r, c, wizard.StepJobDescription, `{"unknown":1}`, false)
	require.ErrorIs(t, err, wizard.ErrInvalidInput)

	var verr *wizard.ValidationError
	err = submit(t, r, c, wizard.StepJobDescription, `{"jobText":"  "}`, true)
	require.ErrorAs(t, err, &verr)

	require.NoError(t, submit(t, r, c, wizard.StepJobDescription, `{"jobFile":{"name":"job.pdf","size":12,"type":"application/pdf"}}`, true))
	s := c.Snapshot()
	require.Equal(t, wizard.StepSourceDocuments, s.CurrentStep)
	require.Equal(t, "job.pdf", s.JobFile.Name)
}

func TestSourceDocumentsStepAddRemoveReplace(t *testing.T) {
	r := newRegistry(t)
	c := newController(t)
	c.ProposeUpdate(wizard.Patch{JobText: wizard.StringPtr("job")})
	require.NoError(t, c.RequestAdvance(context.Background()))

	require.NoError(t, submit(t, r, c, wizard.StepSourceDocuments, `{"add":[{"name":"a.txt","size":1},{"name":"a.txt","size":1},{"name":"b.md","size":2,"content":"hi"}]}`, false))
	require.Len(t, c.Snapshot().SourceDocuments, 3)

	require.NoError(t, submit(t, r, c, wizard.StepSourceDocuments, `{"remove":[0,1,1]}`, false))
	docs := c.Snapshot().SourceDocuments
	require.Len(t, docs, 1)
	require.Equal(t, "b.md", docs[0].Name)
	require.Equal(t, "hi", docs[0].Content)

	err := submit(t, r, c, wizard.StepSourceDocuments, `{"remove":[5]}`, false)
	require.ErrorIs(t, err, wizard.ErrInvalidInput)

	err = submit(t, r, c, wizard.StepSourceDocuments, `{"add":[{"name":" "}]}`, false)
	require.ErrorIs(t, err, wizard.ErrInvalidInput)

	require.NoError(t, submit(t, r, c, wizard.StepSourceDocuments, `{"documents":[]}`, false))
	require.Empty(t, c.Snapshot().SourceDocuments)

	var verr *wizard.ValidationError
	require.ErrorAs(t, submit(t, r, c, wizard.StepSourceDocuments, `{}`, true), &verr)
	require.Equal(t, "Please upload at least one source document", verr.Message)
}

func toConfiguration(t *testing.T, c *wizard.Controller) {
	t.Helper()
	ctx := context.Background()
	c.ProposeUpdate(wizard.Patch{
		JobText:         wizard.StringPtr("job"),
		SourceDocuments: &[]wizard.Document{{FileMeta: wizard.FileMeta{Name: "cv.txt"}}},
	})
	require.NoError(t, c.RequestAdvance(ctx))
	require.NoError(t, c.RequestAdvance(ctx))
}

func TestConfigurationStepMergesAndValidates(t *testing.T) {
	r := newRegistry(t)
	c := newController(t)
	toConfiguration(t, c)

	require.NoError(t, submit(t, r, c, wizard.StepConfiguration, `{"aiModel":"gpt-4"}`, false))
	require.NoError(t, submit(t, r, c, wizard.StepConfiguration, `{"template":"modern","language":"EN_us","wordLimit":500,"emphasis":["skills","skills","leadership"]}`, false))

	cfg := c.Snapshot().GenerationConfig
	require.Equal(t, "gpt-4", cfg.AIModel)
	require.Equal(t, "modern", cfg.Template)
	require.Equal(t, "en-us", cfg.Language)
	require.Equal(t, 500, *cfg.WordLimit)
	require.Equal(t, []string{"skills", "leadership"}, cfg.Emphasis)

	require.NoError(t, submit(t, r, c, wizard.StepConfiguration, `{"wordLimit":null}`, false))
	require.Nil(t, c.Snapshot().GenerationConfig.WordLimit)

	for _, body := range []string{
		`{"aiModel":"gpt-9"}`,
		`{"template":"fancy"}`,
		`{"language":"fr-fr"}`,
		`{"wordLimit":0}`,
		`{"wordLimit":"many"}`,
		`{"emphasis":["luck"]}`,
	} {
		require.ErrorIs(t, submit(t, r, c, wizard.StepConfiguration, body, false), wizard.ErrInvalidInput, body)
	}
	require.Equal(t, "gpt-4", c.Snapshot().GenerationConfig.AIModel)

	require.NoError(t, submit(t, r, c, wizard.StepConfiguration, `{}`, true))
	require.Equal(t, wizard.StepGeneration, c.Snapshot().CurrentStep)
}

func TestGenerationAndReviewSteps(t *testing.T) {
	r := newRegistry(t)
	c := newController(t)
	toConfiguration(t, c)
	require.NoError(t, submit(t, r, c, wizard.StepConfiguration, `{"aiModel":"gpt-4","template":"modern","language":"en-us"}`, true))

	require.NoError(t, submit(t, r, c, wizard.StepGeneration, `{"start":true}`, false))
	require.NoError(t, c.WaitGeneration(context.Background()))
	require.NoError(t, submit(t, r, c, wizard.StepGeneration, `{}`, true))

	err := submit(t, r, c, wizard.StepReview, `{"accept":true,"feedback":"shorter"}`, false)
	require.ErrorIs(t, err, wizard.ErrInvalidInput)

	require.NoError(t, submit(t, r, c, wizard.StepReview, `{"feedback":"shorter"}`, false))
	s := c.Snapshot()
	require.Contains(t, s.FinalResume, "<!-- Updated based on feedback -->")
	require.Equal(t, "Feedback: shorter", s.Changelog)

	require.NoError(t, submit(t, r, c, wizard.StepReview, `{"finalResume":"# Mine","changelog":"edited"}`, true))
	s = c.Snapshot()
	require.Equal(t, "# Mine", s.FinalResume)
	require.Equal(t, wizard.StepExport, s.CurrentStep)

	require.NoError(t, submit(t, r, c, wizard.StepExport, ``, false))
	require.ErrorIs(t, submit(t, r, c, wizard.StepExport, `{}`, true), wizard.ErrTerminalStep)
}

func TestReviewRequiresGeneratedResume(t *testing.T) {
	c := newController(t)
	err := Review{}.Apply(context.Background(), c.StepContext(), json.RawMessage(`{"accept":true}`))
	require.ErrorIs(t, err, wizard.ErrInvalidInput)
}
