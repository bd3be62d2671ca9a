// Package event describes what happens during a bootstrap run so observers
// (logs, remote monitors) can follow along.
package event

import (
	"context"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
)

// Kind names an event.
type Kind string

const (
	PackageInitialized Kind = "package.initialized"
	DependenciesLoaded Kind = "package.dependencies_loaded"
	SymbolResolved     Kind = "symbol.resolved"
	PhaseCompleted     Kind = "loader.phase_completed"
	LoaderActivated    Kind = "loader.activated"
	ActivationFailed   Kind = "activation.failed"
	ActivationFinished Kind = "activation.finished"
)

// Event is a single bootstrap notification. Fields irrelevant to Kind are
// left empty.
type Event struct {
	Kind     Kind
	Package  string
	LoaderID string
	Symbol   string
	Path     string
	Phase    string
	Err      error
}

// Observer receives events synchronously, in the order they happen.
type Observer interface {
	Notify(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Observers fans an event out to every member.
type Observers []Observer

func (o Observers) Notify(ctx context.Context, e Event) {
	for _, obs := range o {
		obs.Notify(ctx, e)
	}
}

// LogObserver writes every event to the context logger.
type LogObserver struct{}

func (LogObserver) Notify(ctx context.Context, e Event) {
	logger := ctxlog.FromContext(ctx)
	args := []any{"event", string(e.Kind)}
	for _, kv := range [][2]string{
		{"package", e.Package},
		{"loader", e.LoaderID},
		{"symbol", e.Symbol},
		{"path", e.Path},
		{"phase", e.Phase},
	} {
		if kv[1] != "" {
			args = append(args, kv[0], kv[1])
		}
	}
	if e.Err != nil {
		logger.Error("Bootstrap event.", append(args, "error", e.Err)...)
		return
	}
	logger.Debug("Bootstrap event.", args...)
}
