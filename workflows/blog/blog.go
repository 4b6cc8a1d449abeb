// Package blog implements a four step blog writing workflow:
//
//	preprocess -> planner -> writer -> editor
//
// preprocess extracts a topic and notes from the raw request, planner
// researches the topic with an agent (optionally backed by a search tool),
// writer drafts the post and editor polishes it into the final output.
package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/beeflow/agent"
	"github.com/hupe1980/beeflow/internal/prompt"
	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/model"
	"github.com/hupe1980/beeflow/tool"
	"github.com/hupe1980/beeflow/workflow"
)

// Name is the registered workflow name.
const Name = "blog"

// Step names.
const (
	StepPreprocess = "preprocess"
	StepPlanner    = "planner"
	StepWriter     = "writer"
	StepEditor     = "editor"
)

// Input is the initial state.
type Input struct {
	Input string `json:"input" jsonschema:"description=Free form request describing the post"`
}

// Output is the guaranteed part of the final state.
type Output struct {
	Output string `json:"output"`
}

// State is the full record threaded through the steps.
type State struct {
	Input string   `json:"input"`
	Topic string   `json:"topic,omitempty"`
	Notes []string `json:"notes,omitempty"`
	Plan  string   `json:"plan,omitempty"`
	Draft string   `json:"draft,omitempty"`
	Error string   `json:"error,omitempty"`

	Output string `json:"output,omitempty"`
}

// Request is the object preprocess asks the model for.
type Request struct {
	Topic string   `json:"topic" jsonschema:"description=Main topic of the blog post, empty when the request is not about writing a post"`
	Notes []string `json:"notes,omitempty" jsonschema:"description=Additional points the author asked for"`
	Error string   `json:"error,omitempty" jsonschema:"description=Explanation why the request cannot be turned into a blog post"`
}

// Options configures the workflow.
type Options struct {
	// Tools are handed to the planner agent, typically a web search tool.
	Tools []tool.Tool

	// MaxSteps overrides workflow.DefaultMaxSteps.
	MaxSteps int

	Logger    logging.Logger
	Observers []workflow.Observer
}

var (
	preprocessSystem = `You analyse requests for blog posts. Extract the topic and any specific notes the user wants covered. If the request is not about writing a blog post, leave the topic empty and explain the problem in "error".`

	plannerSystem = prompt.MustParse("planner", `You are a senior content planner. Research the topic "{{.topic}}" with the tools available to you and produce a concise outline in markdown: a title, 3 to 6 section headings with one line each describing the content, and a short list of key facts with sources.`)

	plannerPrompt = prompt.MustParse("planner-prompt", `Create an outline for a blog post about: {{.topic}}
{{- if .notes}}

Cover these points:
{{bullets .notes}}
{{- end}}`)

	writerSystem = `You are an experienced technical writer. Write engaging, accurate blog posts in markdown that follow the given outline.`

	writerPrompt = prompt.MustParse("writer", `Write the full blog post about "{{.topic}}" following this outline:

{{.plan}}`)

	editorSystem = `You are a meticulous editor. Improve clarity, flow and correctness of the draft. Keep the markdown structure. Reply with the final post only.`

	editorPrompt = prompt.MustParse("editor", `Edit this draft:

{{.draft}}`)
)

// New builds the blog workflow on top of m.
func New(m model.Model, optFns ...func(o *Options)) (*workflow.Workflow, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	inSchema, err := workflow.SchemaFor[Input]()
	if err != nil {
		return nil, fmt.Errorf("blog input schema: %w", err)
	}
	outSchema, err := workflow.SchemaFor[Output]()
	if err != nil {
		return nil, fmt.Errorf("blog output schema: %w", err)
	}

	wf := workflow.New(Name, func(o *workflow.Options) {
		o.InputSchema = inSchema
		o.OutputSchema = outSchema
		o.MaxSteps = opts.MaxSteps
		o.Logger = opts.Logger
		o.Observers = opts.Observers
	})

	planner := agent.New(StepPlanner, m, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromFunc(func(_ context.Context, vars map[string]any) (string, error) {
			return plannerSystem.Render(vars)
		})
		o.Tools = opts.Tools
		o.Logger = opts.Logger
	})

	steps := []struct {
		name string
		desc string
		h    workflow.Handler
		req  []string
	}{
		{StepPreprocess, "Extracts topic and notes from the request", preprocess(m), nil},
		{StepPlanner, "Researches the topic and writes an outline", plan(planner), []string{"topic"}},
		{StepWriter, "Drafts the post from the outline", write(m), []string{"plan"}},
		{StepEditor, "Polishes the draft into the final output", edit(m), []string{"draft"}},
	}
	for _, s := range steps {
		if err := wf.AddStep(s.name, s.h, workflow.WithDescription(s.desc), workflow.Requires(s.req...)); err != nil {
			return nil, err
		}
	}

	return wf, nil
}

func preprocess(m model.Model) workflow.Handler {
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		var req Request
		err := model.GenerateObject(ctx, m, model.Request{
			System:   preprocessSystem,
			Messages: []model.Message{model.UserMessage(state.String("input"))},
		}, &req)
		if err != nil {
			return workflow.Transition{}, err
		}

		topic := strings.TrimSpace(req.Topic)
		if req.Error != "" || topic == "" {
			msg := req.Error
			if msg == "" {
				msg = "the request does not name a topic for a blog post"
			}
			return workflow.UpdateFinish(workflow.State{"error": msg, "output": msg}), nil
		}

		update := workflow.State{"topic": topic}
		if len(req.Notes) > 0 {
			update["notes"] = req.Notes
		}
		return workflow.Update(update), nil
	}
}

func plan(planner *agent.Agent) workflow.Handler {
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		vars := map[string]any{"topic": state.String("topic"), "notes": state.Strings("notes")}
		p, err := plannerPrompt.Render(vars)
		if err != nil {
			return workflow.Transition{}, err
		}
		outline, err := planner.Ask(ctx, p, vars)
		if err != nil {
			return workflow.Transition{}, err
		}
		return workflow.Update(workflow.State{"plan": outline}), nil
	}
}

func write(m model.Model) workflow.Handler {
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		draft, err := complete(ctx, m, writerSystem, writerPrompt, state)
		if err != nil {
			return workflow.Transition{}, err
		}
		return workflow.Update(workflow.State{"draft": draft}), nil
	}
}

func edit(m model.Model) workflow.Handler {
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		final, err := complete(ctx, m, editorSystem, editorPrompt, state)
		if err != nil {
			return workflow.Transition{}, err
		}
		return workflow.UpdateFinish(workflow.State{"output": final}), nil
	}
}

func complete(ctx context.Context, m model.Model, system string, tmpl *prompt.Template, state workflow.State) (string, error) {
	text, err := tmpl.Render(state)
	if err != nil {
		return "", err
	}
	return model.GenerateText(ctx, m, model.Request{
		System:   system,
		Messages: []model.Message{model.UserMessage(text)},
	})
}

// Result decodes the final state of a run.
func Result(state workflow.State) (*State, error) {
	var s State
	if err := state.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
