package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/beeflow/model"
	"github.com/hupe1980/beeflow/workflow"
)

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		category string
		handler  string
	}{
		{CategoryLanguage, StepLanguage},
		{CategoryVision, StepVision},
		{CategoryTimeSeries, StepTimeSeries},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			m := model.NewMockModel("mock", "mock").
				Reply(`{"category":"` + tt.category + `"}`).
				Reply("specialist answer")

			wf, err := New(m)
			require.NoError(t, err)

			res, err := wf.Run(context.Background(), workflow.State{"message": "help me"})
			require.NoError(t, err)
			assert.Equal(t, []string{StepClassify, StepRoute, tt.handler}, res.Steps)
			assert.Equal(t, tt.category, res.State["category"])
			assert.Equal(t, "specialist answer", res.State["response"])
			assert.Equal(t, tt.handler, res.State["handled_by"])

			reqs := m.Requests()
			require.Len(t, reqs, 2)
			assert.Equal(t, specialists[tt.handler], reqs[1].System)
		})
	}
}

func TestRouter_Fallback(t *testing.T) {
	m := model.NewMockModel("mock", "mock").Reply("```json\n{\"category\": \"other\"}\n```")

	wf, err := New(m)
	require.NoError(t, err)

	res, err := wf.Run(context.Background(), workflow.State{"message": "What's for dinner?"})
	require.NoError(t, err)
	assert.Equal(t, []string{StepClassify, StepRoute, StepFallback}, res.Steps)
	assert.Contains(t, res.State["response"], `"What's for dinner?"`)
	assert.Len(t, m.Requests(), 1)
}

func TestRouter_InvalidCategoryFailsClassify(t *testing.T) {
	m := model.NewMockModel("mock", "mock").Reply(`{"category":"audio"}`)

	wf, err := New(m)
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{"message": "transcribe this"})
	var serr *workflow.StepExecutionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepClassify, serr.Step)
}

func TestRouter_RequiresMessage(t *testing.T) {
	wf, err := New(model.NewMockModel("mock", "mock"))
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{"text": "wrong key"})
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestRouter_StartAtRoute(t *testing.T) {
	wf, err := New(model.NewMockModel("mock", "mock"))
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{"message": "hi"}, func(o *workflow.RunOptions) {
		o.StartAt = StepRoute
	})
	assert.ErrorIs(t, err, workflow.ErrPrecondition)
}
