// Package server exposes a beeflow Runtime over HTTP.
//
//	GET  /healthz
//	GET  /v1/workflows
//	POST /v1/workflows/{name}/runs?start=<step>
//	GET  /metrics                               (when a metrics gatherer is set)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/beeflow"
	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/workflow"
)

// Options configures the handler.
type Options struct {
	// Gatherer enables GET /metrics.
	Gatherer prometheus.Gatherer

	// MetricsPath defaults to /metrics.
	MetricsPath string

	// RunTimeout bounds a single run. 0 leaves it to the request context.
	RunTimeout time.Duration

	// MaxBodyBytes limits the size of a run request. Defaults to 1 MiB.
	MaxBodyBytes int64

	Logger logging.Logger
}

// Server serves a Runtime.
type Server struct {
	rt   *beeflow.Runtime
	opts Options
}

// WorkflowInfo describes a registered workflow.
type WorkflowInfo struct {
	Name         string         `json:"name"`
	Steps        []StepInfo     `json:"steps"`
	MaxSteps     int            `json:"max_steps"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// StepInfo describes one step.
type StepInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Requires    []string `json:"requires,omitempty"`
}

// RunResponse is returned by a successful run.
type RunResponse struct {
	RunID string         `json:"run_id"`
	State workflow.State `json:"state"`
	Steps []string       `json:"steps"`
}

// ErrorResponse is returned for failed requests and runs.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  string         `json:"kind,omitempty"`
	Step  string         `json:"step,omitempty"`
	State workflow.State `json:"state,omitempty"`
}

// NewHandler creates the HTTP handler for rt.
func NewHandler(rt *beeflow.Runtime, optFns ...func(o *Options)) http.Handler {
	opts := Options{
		MetricsPath:  "/metrics",
		MaxBodyBytes: 1 << 20,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{rt: rt, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/v1/workflows", func(r chi.Router) {
		r.Get("/", s.listWorkflows)
		r.Get("/{name}", s.getWorkflow)
		r.Post("/{name}/runs", s.runWorkflow)
	})
	if opts.Gatherer != nil {
		r.Handle(opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listWorkflows(w http.ResponseWriter, _ *http.Request) {
	names := s.rt.Names()
	out := make([]WorkflowInfo, 0, len(names))
	for _, n := range names {
		if wf, ok := s.rt.Workflow(n); ok {
			out = append(out, describe(wf, false))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": out})
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	wf, ok := s.rt.Workflow(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "workflow not found: " + name, Kind: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, describe(wf, true))
}

func (s *Server) runWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	logger := logging.With(s.opts.Logger, "workflow", name, "request_id", middleware.GetReqID(r.Context()))

	input := workflow.State{}
	if r.ContentLength != 0 {
		body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
		if err := json.NewDecoder(body).Decode(&input); err != nil {
			logger.Warn("server.run.bad_request", "error", err)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Kind: "bad_request"})
			return
		}
	}

	ctx := r.Context()
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	start := r.URL.Query().Get("start")
	res, err := s.rt.Run(ctx, name, input, func(o *workflow.RunOptions) {
		o.StartAt = start
	})
	if err != nil {
		status, body := errorResponse(err)
		logger.Warn("server.run.failed", "status", status, "error", err)
		writeJSON(w, status, body)
		return
	}

	logger.Info("server.run.complete", "run_id", res.RunID, "steps", len(res.Steps))
	writeJSON(w, http.StatusOK, RunResponse{RunID: res.RunID, State: res.State, Steps: res.Steps})
}

// errorResponse maps run errors onto HTTP statuses.
func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}
	if st, ok := workflow.StateOf(err); ok {
		body.State = st
	}

	var (
		unknown *workflow.UnknownStepError
		pre     *workflow.PreconditionError
		exec    *workflow.StepExecutionError
		out     *workflow.OutputValidationError
		limit   *workflow.MaxStepsExceededError
	)

	switch {
	case errors.Is(err, beeflow.ErrWorkflowNotFound):
		body.Kind = "not_found"
		return http.StatusNotFound, body
	case errors.As(err, &exec):
		body.Kind, body.Step = "step_execution", exec.Step
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &out):
		body.Kind, body.Step = "output_validation", out.Step
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &limit):
		body.Kind, body.Step = "max_steps", limit.Step
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &unknown):
		body.Kind, body.Step = "unknown_step", unknown.Step
		return http.StatusNotFound, body
	case errors.Is(err, workflow.ErrValidation):
		body.Kind = "validation"
		return http.StatusBadRequest, body
	case errors.As(err, &pre):
		body.Kind, body.Step = "precondition", pre.Step
		return http.StatusBadRequest, body
	case errors.Is(err, context.DeadlineExceeded):
		body.Kind = "timeout"
		return http.StatusGatewayTimeout, body
	case errors.Is(err, context.Canceled):
		body.Kind = "canceled"
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func describe(wf *workflow.Workflow, schemas bool) WorkflowInfo {
	info := WorkflowInfo{Name: wf.Name(), MaxSteps: wf.MaxSteps()}
	for _, n := range wf.Steps() {
		st, _ := wf.Step(n)
		info.Steps = append(info.Steps, StepInfo{Name: st.Name, Description: st.Description, Requires: st.Requires})
	}
	if schemas {
		if s := wf.InputSchema(); s != nil {
			info.InputSchema = s.Document()
		}
		if s := wf.OutputSchema(); s != nil {
			info.OutputSchema = s.Document()
		}
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
