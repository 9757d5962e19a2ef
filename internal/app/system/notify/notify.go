// internal/app/system/notify/notify.go

// Package notify carries operator-facing feedback out of the engines.
// The engine reports what happened; how the message reaches the operator
// (toast, websocket, email) is the caller's concern.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Result is one piece of operator feedback.
type Result struct {
	Success bool
	Message string
	Detail  string
}

// Notifier receives operation results for display to the operator.
type Notifier interface {
	Notify(ctx context.Context, r Result)
}

// LogNotifier writes results to the structured log. It is the default
// sink wired in bootstrap; a real-time push channel can replace it
// without touching the engines.
type LogNotifier struct {
	Log *zap.Logger
}

// NewLogNotifier builds a LogNotifier on the given logger.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Notify(_ context.Context, r Result) {
	fields := []zap.Field{
		zap.Bool("success", r.Success),
		zap.String("message", r.Message),
	}
	if r.Detail != "" {
		fields = append(fields, zap.String("detail", r.Detail))
	}
	if r.Success {
		n.Log.Info("operation result", fields...)
		return
	}
	n.Log.Warn("operation result", fields...)
}

// Recorder collects results in memory. Test helper.
type Recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *Recorder) Notify(_ context.Context, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of everything recorded so far.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}
