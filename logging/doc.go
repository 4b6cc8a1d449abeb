// Package logging provides a minimal logging interface and adapters for beeflow.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the workflow executor, agents and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	wf := workflow.New("blog", func(o *workflow.Options) { o.Logger = logger })
package logging
