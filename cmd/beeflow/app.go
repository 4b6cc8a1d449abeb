package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/hupe1980/beeflow"
	"github.com/hupe1980/beeflow/config"
	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/memory"
	"github.com/hupe1980/beeflow/memory/redis"
	"github.com/hupe1980/beeflow/model"
	anthropicmodel "github.com/hupe1980/beeflow/model/anthropic"
	openaimodel "github.com/hupe1980/beeflow/model/openai"
	"github.com/hupe1980/beeflow/observe"
	"github.com/hupe1980/beeflow/tool"
	"github.com/hupe1980/beeflow/tool/search"
	"github.com/hupe1980/beeflow/workflow"
	"github.com/hupe1980/beeflow/workflows/blog"
	"github.com/hupe1980/beeflow/workflows/router"
)

const version = "0.1.0"

// app bundles everything a command needs. Close releases it.
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	model     model.Model
	observers []workflow.Observer
	closers   []func(context.Context) error
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("provider"); v != "" {
		cfg.Model.Provider = v
		cfg.Model.APIKey = ""
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
	}
	if v, _ := flags.GetString("model"); v != "" {
		cfg.Model.Name = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetBool("trace"); v {
		cfg.Telemetry.Trace = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: cfg.Logger()}

	a.model, err = buildModel(cfg, a.logger)
	if err != nil {
		return nil, err
	}

	a.observers = append(a.observers, observe.NewLogging(logging.With(a.logger, "component", "workflow"), false))

	if cfg.Telemetry.Trace {
		tp, err := setupTracing(cfg.Telemetry.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		a.observers = append(a.observers, observe.NewTracing(tp))
		a.closers = append(a.closers, tp.Shutdown)
	}

	return a, nil
}

// Close flushes exporters and closes stores.
func (a *app) Close() {
	ctx := context.Background()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown", "error", err)
		}
	}
}

func buildModel(cfg *config.Config, logger logging.Logger) (model.Model, error) {
	var m model.Model

	switch cfg.Model.Provider {
	case config.ProviderOpenAI:
		if cfg.Model.APIKey == "" && cfg.Model.BaseURL == "" {
			return nil, fmt.Errorf("openai: set %s or model.api_key", config.EnvOpenAIKey)
		}
		m = openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.Model.Name
			o.APIKey = cfg.Model.APIKey
			o.BaseURL = cfg.Model.BaseURL
			if cfg.Model.Temperature != nil {
				o.Temperature = *cfg.Model.Temperature
			}
			if cfg.Model.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.Model.MaxTokens)
			}
		})
	case config.ProviderAnthropic:
		if cfg.Model.APIKey == "" {
			return nil, fmt.Errorf("anthropic: set %s or model.api_key", config.EnvAnthropicKey)
		}
		m = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.Model.Name)
			o.APIKey = cfg.Model.APIKey
			o.BaseURL = cfg.Model.BaseURL
			if cfg.Model.Temperature != nil {
				o.Temperature = *cfg.Model.Temperature
			}
			if cfg.Model.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.Model.MaxTokens)
			}
		})
	case config.ProviderMock:
		return model.NewMockModel("mock", config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Model.Provider)
	}

	if cfg.Model.MaxRetries > 0 {
		m = model.WithRetry(m, model.RetryOptions{
			MaxAttempts: cfg.Model.MaxRetries,
			Logger:      logger,
		})
	}
	return m, nil
}

// store opens the configured history backend.
func (a *app) store(ctx context.Context) (memory.Store, error) {
	var store memory.Store

	switch a.cfg.Memory.Backend {
	case config.BackendRedis:
		rc := a.cfg.Memory.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("connect redis %s: %w", rc.Addr, err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rs.Close() })
		store = rs
	default:
		store = memory.NewInMemoryStore()
	}

	return memory.Sliding(store, a.cfg.Memory.Window), nil
}

// runtime registers the bundled workflows.
func (a *app) runtime(extra ...workflow.Observer) (*beeflow.Runtime, error) {
	searchTool, err := search.New(search.NewClient())
	if err != nil {
		return nil, err
	}

	observers := append(append([]workflow.Observer(nil), a.observers...), extra...)

	blogWF, err := blog.New(a.model, func(o *blog.Options) {
		o.Tools = []tool.Tool{searchTool}
		o.MaxSteps = a.cfg.Workflow.MaxSteps
		o.Logger = a.logger
	})
	if err != nil {
		return nil, err
	}

	routerWF, err := router.New(a.model, func(o *router.Options) {
		o.MaxSteps = a.cfg.Workflow.MaxSteps
		o.Logger = a.logger
	})
	if err != nil {
		return nil, err
	}

	rt := beeflow.New(func(o *beeflow.Options) {
		o.Observers = observers
		o.Logger = a.logger
	})
	if err := rt.Register(blogWF, routerWF); err != nil {
		return nil, err
	}
	return rt, nil
}

func setupTracing(file string) (*sdktrace.TracerProvider, error) {
	var w io.Writer = os.Stderr
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return nil, err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "beeflow"),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}

// readInput joins args or, without args, reads all of stdin.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("no input: pass it as arguments or on stdin")
	}
	return string(data), nil
}
