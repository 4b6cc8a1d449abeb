package beeflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/beeflow/internal/testutil"
	"github.com/hupe1980/beeflow/workflow"
)

func echoWorkflow(name string) *workflow.Workflow {
	return workflow.New(name).MustAddStep("echo", func(_ context.Context, s workflow.State) (workflow.Transition, error) {
		return workflow.UpdateFinish(workflow.State{"echo": s["input"]}), nil
	})
}

func TestRuntime_RegisterAndRun(t *testing.T) {
	rec := &testutil.Recorder{}
	rt := New(func(o *Options) { o.Observers = []workflow.Observer{rec} })

	require.NoError(t, rt.Register(echoWorkflow("b"), echoWorkflow("a")))
	assert.Equal(t, []string{"a", "b"}, rt.Names())

	res, err := rt.Run(context.Background(), "a", workflow.State{"input": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.State["echo"])
	assert.Equal(t, []string{"echo"}, rec.Steps(workflow.StepStarted))
}

func TestRuntime_SharedWorkflowAcrossRuntimes(t *testing.T) {
	wf := echoWorkflow("a")
	first, second := &testutil.Recorder{}, &testutil.Recorder{}

	rt1 := New(func(o *Options) { o.Observers = []workflow.Observer{first} })
	rt2 := New(func(o *Options) { o.Observers = []workflow.Observer{second} })
	require.NoError(t, rt1.Register(wf))
	require.NoError(t, rt2.Register(wf))

	_, err := rt1.Run(context.Background(), "a", workflow.State{"input": "hi"})
	require.NoError(t, err)

	assert.Equal(t, []string{"echo"}, first.Steps(workflow.StepStarted))
	assert.Empty(t, second.Events())

	_, err = wf.Run(context.Background(), workflow.State{"input": "direct"})
	require.NoError(t, err)
	assert.Len(t, first.Steps(workflow.StepStarted), 1)
}

func TestRuntime_Duplicate(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Register(echoWorkflow("a")))
	assert.ErrorIs(t, rt.Register(echoWorkflow("a")), ErrDuplicateWorkflow)
}

func TestRuntime_NotFound(t *testing.T) {
	_, err := New().Run(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestRuntime_LimitsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	wf := workflow.New("slow").MustAddStep("work", func(context.Context, workflow.State) (workflow.Transition, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inflight.Add(-1)
		return workflow.Finish(), nil
	})

	rt := New(func(o *Options) { o.MaxConcurrentRuns = 2 })
	require.NoError(t, rt.Register(wf))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rt.Run(context.Background(), "slow", workflow.State{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRuntime_WaitRespectsContext(t *testing.T) {
	release := make(chan struct{})
	wf := workflow.New("block").MustAddStep("wait", func(context.Context, workflow.State) (workflow.Transition, error) {
		<-release
		return workflow.Finish(), nil
	})

	rt := New(func(o *Options) { o.MaxConcurrentRuns = 1 })
	require.NoError(t, rt.Register(wf))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = rt.Run(context.Background(), "block", workflow.State{})
	}()

	require.Eventually(t, func() bool { return len(rt.sem) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := rt.Run(ctx, "block", workflow.State{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}
