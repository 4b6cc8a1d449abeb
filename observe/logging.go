package observe

import (
	"context"

	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/workflow"
)

// Logging writes one structured record per event.
type Logging struct {
	logger    logging.Logger
	withState bool
}

var _ workflow.Observer = (*Logging)(nil)

// NewLogging creates a logging observer. With withState the full state is
// attached to step records, which is verbose but handy when debugging.
func NewLogging(logger logging.Logger, withState bool) *Logging {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Logging{logger: logger, withState: withState}
}

// OnEvent implements workflow.Observer.
func (l *Logging) OnEvent(_ context.Context, e workflow.Event) {
	args := []any{"workflow", e.Workflow, "run_id", e.RunID}
	if e.Step != "" {
		args = append(args, "step", e.Step, "index", e.Index)
	}

	switch e.Kind {
	case workflow.RunStarted:
		l.logger.Info("run started", args...)
	case workflow.StepStarted:
		if l.withState {
			args = append(args, "state", map[string]any(e.State))
		}
		l.logger.Debug("step started", args...)
	case workflow.StepCompleted:
		args = append(args, "next", e.Next, "duration", e.Duration)
		if l.withState {
			args = append(args, "state", map[string]any(e.State))
		}
		l.logger.Info("step completed", args...)
	case workflow.StepFailed:
		l.logger.Warn("step failed", append(args, "duration", e.Duration, "error", e.Err)...)
	case workflow.RunCompleted:
		l.logger.Info("run completed", append(args, "duration", e.Duration)...)
	case workflow.RunFailed:
		l.logger.Error("run failed", append(args, "duration", e.Duration, "error", e.Err)...)
	}
}
