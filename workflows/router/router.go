// Package router classifies an incoming message and dispatches it to a
// specialised handler.
//
//	classify -> route -> language | vision | timeseries | fallback
package router

import (
	"context"
	"fmt"

	"github.com/hupe1980/beeflow/internal/prompt"
	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/model"
	"github.com/hupe1980/beeflow/workflow"
)

// Name is the registered workflow name.
const Name = "router"

// Categories assigned by the classify step.
const (
	CategoryLanguage   = "language"
	CategoryVision     = "vision"
	CategoryTimeSeries = "timeseries"
	CategoryOther      = "other"
)

// Step names.
const (
	StepClassify   = "classify"
	StepRoute      = "route"
	StepLanguage   = "language"
	StepVision     = "vision"
	StepTimeSeries = "timeseries"
	StepFallback   = "fallback"
)

// Input is the initial state.
type Input struct {
	Message string `json:"message"`
}

// Output is the guaranteed part of the final state.
type Output struct {
	Category string `json:"category"`
	Response string `json:"response"`
}

// Classification is the object the classify step asks the model for.
type Classification struct {
	Category string `json:"category" jsonschema:"enum=language,enum=vision,enum=timeseries,enum=other,description=Problem domain of the message"`
}

// Options configures the workflow.
type Options struct {
	MaxSteps  int
	Logger    logging.Logger
	Observers []workflow.Observer
}

const classifySystem = `You route messages to machine learning specialists. Decide which domain the message belongs to:
- language: natural language processing, text generation, translation, chatbots
- vision: images, video, object detection, OCR
- timeseries: forecasting, anomaly detection on metrics, sensor data
- other: anything else`

var specialists = map[string]string{
	StepLanguage:   "You are an expert in natural language processing. Answer the question concisely and practically.",
	StepVision:     "You are an expert in computer vision. Answer the question concisely and practically.",
	StepTimeSeries: "You are an expert in time series analysis and forecasting. Answer the question concisely and practically.",
}

var fallbackResponse = prompt.MustParse("fallback", `Sorry, I can only help with language, vision or time series questions. I could not place: "{{.message}}"`)

// New builds the router workflow on top of m.
func New(m model.Model, optFns ...func(o *Options)) (*workflow.Workflow, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	inSchema, err := workflow.SchemaFor[Input]()
	if err != nil {
		return nil, fmt.Errorf("router input schema: %w", err)
	}
	outSchema, err := workflow.SchemaFor[Output]()
	if err != nil {
		return nil, fmt.Errorf("router output schema: %w", err)
	}

	route, err := workflow.Switch(StepFallback,
		workflow.When(`category == "language"`, StepLanguage),
		workflow.When(`category == "vision"`, StepVision),
		workflow.When(`category == "timeseries"`, StepTimeSeries),
	)
	if err != nil {
		return nil, err
	}

	wf := workflow.New(Name, func(o *workflow.Options) {
		o.InputSchema = inSchema
		o.OutputSchema = outSchema
		o.MaxSteps = opts.MaxSteps
		o.Logger = opts.Logger
		o.Observers = opts.Observers
	})

	wf.MustAddStep(StepClassify, classify(m), workflow.WithDescription("Assigns a category to the message")).
		MustAddStep(StepRoute, route, workflow.Requires("category"), workflow.WithDescription("Dispatches on the category")).
		MustAddStep(StepLanguage, specialist(m, StepLanguage), workflow.Requires("message")).
		MustAddStep(StepVision, specialist(m, StepVision), workflow.Requires("message")).
		MustAddStep(StepTimeSeries, specialist(m, StepTimeSeries), workflow.Requires("message")).
		MustAddStep(StepFallback, fallback, workflow.Requires("message"))

	return wf, nil
}

func classify(m model.Model) workflow.Handler {
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		var c Classification
		err := model.GenerateObject(ctx, m, model.Request{
			System:   classifySystem,
			Messages: []model.Message{model.UserMessage(state.String("message"))},
		}, &c)
		if err != nil {
			return workflow.Transition{}, err
		}
		return workflow.Update(workflow.State{"category": c.Category}), nil
	}
}

func specialist(m model.Model, step string) workflow.Handler {
	system := specialists[step]
	return func(ctx context.Context, state workflow.State) (workflow.Transition, error) {
		text, err := model.GenerateText(ctx, m, model.Request{
			System:   system,
			Messages: []model.Message{model.UserMessage(state.String("message"))},
		})
		if err != nil {
			return workflow.Transition{}, err
		}
		return workflow.UpdateFinish(workflow.State{"response": text, "handled_by": step}), nil
	}
}

func fallback(_ context.Context, state workflow.State) (workflow.Transition, error) {
	text, err := fallbackResponse.Render(state)
	if err != nil {
		return workflow.Transition{}, err
	}
	return workflow.UpdateFinish(workflow.State{"response": text, "handled_by": StepFallback}), nil
}
