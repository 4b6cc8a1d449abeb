package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/beeflow/internal/testutil"
	"github.com/hupe1980/beeflow/workflow"
)

type blogInput struct {
	Input string `json:"input"`
}

type blogOutput struct {
	Output string `json:"output"`
}

func appendVisit(name string) workflow.Handler {
	return func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		return workflow.Update(workflow.State{"visits": append(s.Strings("visits"), name)}), nil
	}
}

func TestRun_FallthroughVisitsInOrder(t *testing.T) {
	wf := workflow.New("abc")
	wf.MustAddStep("a", appendVisit("a")).
		MustAddStep("b", appendVisit("b")).
		MustAddStep("c", appendVisit("c"))

	res, err := wf.Run(context.Background(), workflow.State{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, res.Steps)
	assert.Equal(t, []string{"a", "b", "c"}, res.State.Strings("visits"))
	assert.NotEmpty(t, res.RunID)
}

func TestRun_ExplicitNextSkipsSteps(t *testing.T) {
	wf := workflow.New("router")
	wf.MustAddStep("route", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.UpdateGoto(workflow.State{"category": "vision"}, "vision"), nil
	})
	wf.MustAddStep("language", appendVisit("language"))
	wf.MustAddStep("vision", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.UpdateFinish(workflow.State{"response": "image"}), nil
	})
	wf.MustAddStep("timeseries", appendVisit("timeseries"))

	res, err := wf.Run(context.Background(), workflow.State{"message": "what is in this image?"})
	require.NoError(t, err)

	assert.Equal(t, []string{"route", "vision"}, res.Steps)
	assert.Equal(t, "image", res.State.String("response"))
	assert.False(t, res.State.Has("visits"))
}

func TestRun_DuplicateStep(t *testing.T) {
	wf := workflow.New("dup")
	require.NoError(t, wf.AddStep("a", appendVisit("a")))

	err := wf.AddStep("a", appendVisit("a"))
	require.ErrorIs(t, err, workflow.ErrDuplicateStep)

	var dup *workflow.DuplicateStepError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "dup", dup.Workflow)
	assert.Equal(t, []string{"a"}, wf.Steps())
}

func TestRun_PreconditionBlocksHandler(t *testing.T) {
	called := false
	wf := workflow.New("blog")
	wf.MustAddStep("planner", func(context.Context, workflow.State) (workflow.Transition, error) {
		called = true
		return workflow.Finish(), nil
	}, workflow.Requires("topic"))

	_, err := wf.Run(context.Background(), workflow.State{"input": "x", "topic": nil})
	require.ErrorIs(t, err, workflow.ErrPrecondition)
	assert.False(t, called)

	var pe *workflow.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "planner", pe.Step)
	assert.Equal(t, []string{"topic"}, pe.Missing)
	assert.Equal(t, "x", pe.State.String("input"))
}

func TestRun_NilPointerFailsPrecondition(t *testing.T) {
	called := false
	wf := workflow.New("blog")
	wf.MustAddStep("planner", func(context.Context, workflow.State) (workflow.Transition, error) {
		called = true
		return workflow.Finish(), nil
	}, workflow.Requires("topic"))

	_, err := wf.Run(context.Background(), workflow.State{"topic": (*string)(nil)})
	require.ErrorIs(t, err, workflow.ErrPrecondition)
	assert.False(t, called)
}

func TestRun_UnsetOptionalPassesOutputSchema(t *testing.T) {
	type output struct {
		Output string  `json:"output"`
		Topic  *string `json:"topic,omitempty"`
	}
	wf := workflow.New("blog", func(o *workflow.Options) {
		o.OutputSchema = workflow.MustSchemaFor[output]()
	})
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.UpdateFinish(workflow.State{"output": "done", "topic": (*string)(nil)}), nil
	})

	res, err := wf.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", res.State.String("output"))
}

func TestRun_EmptyStringSatisfiesPrecondition(t *testing.T) {
	wf := workflow.New("blog")
	wf.MustAddStep("planner", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Finish(), nil
	}, workflow.Requires("topic"))

	_, err := wf.Run(context.Background(), workflow.State{"topic": ""})
	assert.NoError(t, err)
}

func TestRun_InputValidation(t *testing.T) {
	wf := workflow.New("blog", func(o *workflow.Options) {
		o.InputSchema = workflow.MustSchemaFor[blogInput]()
	})
	wf.MustAddStep("a", appendVisit("a"))

	_, err := wf.Run(context.Background(), workflow.State{"input": 42})
	require.ErrorIs(t, err, workflow.ErrValidation)

	var fe workflow.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "/input", fe[0].Field)

	_, err = wf.Run(context.Background(), workflow.State{})
	require.ErrorIs(t, err, workflow.ErrValidation)
}

func TestRun_OutputValidation(t *testing.T) {
	wf := workflow.New("blog", func(o *workflow.Options) {
		o.OutputSchema = workflow.MustSchemaFor[blogOutput]()
	})
	wf.MustAddStep("noop", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Finish(), nil
	})

	_, err := wf.Run(context.Background(), workflow.State{"input": "x"})
	require.ErrorIs(t, err, workflow.ErrOutputValidation)

	var oe *workflow.OutputValidationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "noop", oe.Step)
}

func TestRun_UnknownStep(t *testing.T) {
	wf := workflow.New("bad")
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Goto("nowhere"), nil
	})

	_, err := wf.Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrUnknownStep)

	var ue *workflow.UnknownStepError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nowhere", ue.Step)
	assert.Equal(t, "a", ue.From)

	_, err = wf.Run(context.Background(), nil, func(o *workflow.RunOptions) { o.StartAt = "missing" })
	require.ErrorIs(t, err, workflow.ErrUnknownStep)

	_, err = workflow.New("empty").Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrUnknownStep)
}

func TestRun_StartAt(t *testing.T) {
	wf := workflow.New("abc")
	wf.MustAddStep("a", appendVisit("a")).
		MustAddStep("b", appendVisit("b")).
		MustAddStep("c", appendVisit("c"))

	res, err := wf.Run(context.Background(), nil, func(o *workflow.RunOptions) {
		o.StartAt = "b"
		o.RunID = "run-1"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, res.Steps)
	assert.Equal(t, "run-1", res.RunID)
}

func TestRun_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	wf := workflow.New("fail")
	wf.MustAddStep("a", appendVisit("a"))
	wf.MustAddStep("b", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Transition{}, boom
	})

	_, err := wf.Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrStepExecution)
	require.ErrorIs(t, err, boom)

	var se *workflow.StepExecutionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "b", se.Step)
	assert.Equal(t, []string{"a"}, se.State.Strings("visits"))

	st, ok := workflow.StateOf(err)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, st.Strings("visits"))
}

func TestRun_HandlerPanic(t *testing.T) {
	wf := workflow.New("panic")
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		panic("kaboom")
	})

	_, err := wf.Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrStepExecution)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRun_HandlerPanicKeepsErrorChain(t *testing.T) {
	errQuota := errors.New("quota exhausted")
	wf := workflow.New("panic")
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		panic(errQuota)
	})

	_, err := wf.Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrStepExecution)
	assert.ErrorIs(t, err, errQuota)
}

func TestRun_FailureLeavesWorkflowReusable(t *testing.T) {
	wf := workflow.New("flaky")
	wf.MustAddStep("check", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		if s.String("mode") == "fail" {
			return workflow.Transition{}, errors.New("bad mode")
		}
		return workflow.UpdateFinish(workflow.State{"ok": true}), nil
	})

	_, err := wf.Run(context.Background(), workflow.State{"mode": "fail"})
	require.Error(t, err)

	res, err := wf.Run(context.Background(), workflow.State{"mode": "pass"})
	require.NoError(t, err)
	assert.Equal(t, true, res.State["ok"])
	assert.Equal(t, []string{"check"}, wf.Steps())
}

func TestRun_MaxStepsExceeded(t *testing.T) {
	wf := workflow.New("loop", func(o *workflow.Options) { o.MaxSteps = 5 })
	wf.MustAddStep("ping", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Goto("pong"), nil
	})
	wf.MustAddStep("pong", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Goto("ping"), nil
	})

	_, err := wf.Run(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrMaxStepsExceeded)

	var me *workflow.MaxStepsExceededError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 5, me.Limit)
	assert.Equal(t, "pong", me.Step)
}

func TestNew_DefaultMaxSteps(t *testing.T) {
	assert.Equal(t, workflow.DefaultMaxSteps, workflow.New("x").MaxSteps())
	assert.Equal(t, workflow.DefaultMaxSteps, workflow.New("x", func(o *workflow.Options) { o.MaxSteps = -1 }).MaxSteps())
}

func TestRun_HandlerSeesCopy(t *testing.T) {
	wf := workflow.New("copy")
	wf.MustAddStep("mutate", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		s["input"] = "tampered"
		return workflow.Continue(), nil
	})
	wf.MustAddStep("read", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		return workflow.UpdateFinish(workflow.State{"seen": s.String("input")}), nil
	})

	input := workflow.State{"input": "original"}
	res, err := wf.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "original", res.State.String("seen"))
	assert.Equal(t, "original", input.String("input"))
}

func TestRun_DeterministicReplay(t *testing.T) {
	wf := workflow.New("replay")
	wf.MustAddStep("a", appendVisit("a"))
	wf.MustAddStep("b", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		return workflow.Update(workflow.State{"upper": s.String("input") + "!"}), nil
	})

	input := workflow.State{"input": "hi"}
	first, err := wf.Run(context.Background(), input)
	require.NoError(t, err)
	second, err := wf.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Steps, second.Steps)
}

func TestRun_Observers(t *testing.T) {
	rec := &testutil.Recorder{}
	var started []string

	wf := workflow.New("observed", func(o *workflow.Options) { o.Observers = []workflow.Observer{rec} })
	wf.Observe(workflow.ObserverFunc(func(context.Context, workflow.Event) { panic("observer bug") }))
	wf.Observe(workflow.StepObserver(func(step string, s workflow.State) {
		s["tampered"] = true
		started = append(started, step)
	}))
	wf.MustAddStep("a", appendVisit("a")).MustAddStep("b", appendVisit("b"))

	res, err := wf.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.State.Has("tampered"))
	assert.Equal(t, []string{"a", "b"}, started)

	assert.Equal(t, []workflow.EventKind{
		workflow.RunStarted,
		workflow.StepStarted, workflow.StepCompleted,
		workflow.StepStarted, workflow.StepCompleted,
		workflow.RunCompleted,
	}, rec.Kinds())

	done, ok := rec.Last(workflow.StepCompleted)
	require.True(t, ok)
	assert.Equal(t, "b", done.Step)
	assert.Equal(t, 1, done.Index)
	assert.Equal(t, workflow.End, done.Next)
	assert.Equal(t, res.RunID, done.RunID)
	assert.Equal(t, []string{"a", "b"}, done.State.Strings("visits"))
}

func TestRun_ObserverSeesFailure(t *testing.T) {
	rec := &testutil.Recorder{}
	wf := workflow.New("observed", func(o *workflow.Options) { o.Observers = []workflow.Observer{rec} })
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		return workflow.Transition{}, errors.New("nope")
	})

	_, err := wf.Run(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, []workflow.EventKind{
		workflow.RunStarted, workflow.StepStarted, workflow.StepFailed, workflow.RunFailed,
	}, rec.Kinds())

	failed, ok := rec.Last(workflow.RunFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, workflow.ErrStepExecution)
}

func TestRun_ContextCanceledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := workflow.New("cancel")
	wf.MustAddStep("a", func(context.Context, workflow.State) (workflow.Transition, error) {
		cancel()
		return workflow.Continue(), nil
	})
	wf.MustAddStep("b", appendVisit("b"))

	_, err := wf.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_ConcurrentRuns(t *testing.T) {
	wf := workflow.New("parallel")
	wf.MustAddStep("echo", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		return workflow.UpdateFinish(workflow.State{"out": s.String("in")}), nil
	})

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := string(rune('a' + i))
			res, err := wf.Run(context.Background(), workflow.State{"in": in})
			if err == nil {
				results[i] = res.State.String("out")
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, string(rune('a'+i)), got)
	}
}

func TestWorkflow_StepInfo(t *testing.T) {
	wf := workflow.New("info")
	wf.MustAddStep("planner", appendVisit("p"), workflow.Requires("topic"), workflow.WithDescription("plans"))

	s, ok := wf.Step("planner")
	require.True(t, ok)
	assert.Equal(t, []string{"topic"}, s.Requires)
	assert.Equal(t, "plans", s.Description)

	_, ok = wf.Step("missing")
	assert.False(t, ok)
}
