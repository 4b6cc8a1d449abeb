package tool

import (
	"context"

	"github.com/hupe1980/beeflow/logging"
)

// CallInfo describes the model request that triggered a tool call.
type CallInfo struct {
	ID      string // tool call id assigned by the model
	Agent   string
	Session string
	Logger  logging.Logger
}

type callInfoKey struct{}

// WithCallInfo returns a context carrying info for the tool being called.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFrom returns the call info stored in ctx. The logger is never nil.
func CallInfoFrom(ctx context.Context) CallInfo {
	info, _ := ctx.Value(callInfoKey{}).(CallInfo)
	if info.Logger == nil {
		info.Logger = logging.NoOpLogger{}
	}
	return info
}
