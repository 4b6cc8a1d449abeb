package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/beeflow/internal/testutil"
	"github.com/hupe1980/beeflow/model"
	"github.com/hupe1980/beeflow/tool"
	"github.com/hupe1980/beeflow/workflow"
)

func TestBlog_HappyPath(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		Reply(`{"topic":"Go generics","notes":["type constraints"]}`).
		Reply("# Outline\n- Why generics").
		Reply("Draft about generics").
		Reply("Final post about generics")

	rec := &testutil.Recorder{}
	wf, err := New(m, func(o *Options) { o.Observers = []workflow.Observer{rec} })
	require.NoError(t, err)
	assert.Equal(t, []string{StepPreprocess, StepPlanner, StepWriter, StepEditor}, wf.Steps())

	res, err := wf.Run(context.Background(), workflow.State{"input": "Write about Go generics, mention type constraints"})
	require.NoError(t, err)
	assert.Equal(t, []string{StepPreprocess, StepPlanner, StepWriter, StepEditor}, res.Steps)

	out, err := Result(res.State)
	require.NoError(t, err)
	assert.Equal(t, "Go generics", out.Topic)
	assert.Equal(t, []string{"type constraints"}, out.Notes)
	assert.Equal(t, "# Outline\n- Why generics", out.Plan)
	assert.Equal(t, "Draft about generics", out.Draft)
	assert.Equal(t, "Final post about generics", out.Output)

	reqs := m.Requests()
	require.Len(t, reqs, 4)
	assert.True(t, reqs[0].JSONMode)
	assert.Contains(t, reqs[1].System, `"Go generics"`)
	assert.Contains(t, reqs[1].Messages[0].Content, "- type constraints")
	assert.Contains(t, reqs[2].Messages[0].Content, "# Outline")
	assert.Contains(t, reqs[3].Messages[0].Content, "Draft about generics")

	assert.Equal(t, []string{StepPreprocess, StepPlanner, StepWriter, StepEditor}, rec.Steps(workflow.StepStarted))
}

func TestBlog_PreprocessErrorFinishesEarly(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		Reply(`{"topic":"","error":"This is a cooking question, not a blog request."}`)

	wf, err := New(m)
	require.NoError(t, err)

	res, err := wf.Run(context.Background(), workflow.State{"input": "How long do I boil an egg?"})
	require.NoError(t, err)
	assert.Equal(t, []string{StepPreprocess}, res.Steps)
	assert.Equal(t, "This is a cooking question, not a blog request.", res.State["output"])
	assert.Equal(t, res.State["output"], res.State["error"])
	assert.Len(t, m.Requests(), 1)
}

type searchArgs struct {
	Query string `json:"query"`
}

func TestBlog_PlannerUsesSearchTool(t *testing.T) {
	var queries []string
	search, err := tool.NewTypedTool("web_search", "Searches the web", func(_ context.Context, args searchArgs) (any, error) {
		queries = append(queries, args.Query)
		return map[string]any{"abstract": "Generics landed in Go 1.18."}, nil
	})
	require.NoError(t, err)

	m := model.NewMockModel("mock", "mock").
		Reply(`{"topic":"Go generics"}`).
		ReplyToolCall("call-1", "web_search", `{"query":"Go generics release"}`).
		Reply("# Outline").
		Reply("draft").
		Reply("final")

	wf, err := New(m, func(o *Options) { o.Tools = []tool.Tool{search} })
	require.NoError(t, err)

	res, err := wf.Run(context.Background(), workflow.State{"input": "Go generics"})
	require.NoError(t, err)
	assert.Equal(t, "final", res.State["output"])
	assert.Equal(t, []string{"Go generics release"}, queries)

	reqs := m.Requests()
	require.Len(t, reqs, 5)
	require.Len(t, reqs[1].Tools, 1)
	assert.Equal(t, model.RoleTool, reqs[2].Messages[len(reqs[2].Messages)-1].Role)
}

func TestBlog_RejectsMissingInput(t *testing.T) {
	wf, err := New(model.NewMockModel("mock", "mock"))
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{})
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestBlog_ModelFailureIsStepError(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		Reply(`{"topic":"Go"}`).
		ReplyError(errors.New("quota exceeded"))

	wf, err := New(m)
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{"input": "Go"})
	var serr *workflow.StepExecutionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepPlanner, serr.Step)
	assert.Equal(t, "Go", serr.State["topic"])
}

func TestBlog_MalformedObject(t *testing.T) {
	m := model.NewMockModel("mock", "mock").Reply("I cannot comply.")

	wf, err := New(m)
	require.NoError(t, err)

	_, err = wf.Run(context.Background(), workflow.State{"input": "anything"})
	var objErr *model.ObjectError
	assert.ErrorAs(t, err, &objErr)
	assert.ErrorIs(t, err, workflow.ErrStepExecution)
}
