package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/specialistvlad/bootloader/internal/loader"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/bootloader/internal/pipeline"

// Phase names an activation phase.
type Phase string

const (
	PreLoad  Phase = "preLoad"
	Load     Phase = "load"
	PostLoad Phase = "postLoad"
)

// PhaseError reports the hook that aborted an activation run.
type PhaseError struct {
	LoaderID string
	Package  string
	Phase    Phase
	Err      error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("loader %s (package %s) failed during %s: %v", e.LoaderID, e.Package, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Tracker owns the activated flags.
type Tracker interface {
	IsActivated(id string) bool
	MarkActivated(id string)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer sets the tracer used for run and hook spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithObserver sets the observer notified of completed phases and activated
// loaders.
func WithObserver(o event.Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline executes activation runs. It is not safe for concurrent use.
type Pipeline struct {
	tracker  Tracker
	tracer   trace.Tracer
	observer event.Observer
	// loading holds loaders whose Load hook is on the call stack.
	loading map[string]bool
}

// New creates a pipeline recording activation in tracker.
func New(tracker Tracker, opts ...Option) *Pipeline {
	p := &Pipeline{
		tracker:  tracker,
		tracer:   otel.Tracer(tracerName),
		observer: event.Observers(nil),
		loading:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InProgress reports whether the loader id is currently inside its Load hook.
func (p *Pipeline) InProgress(id string) bool {
	return p.loading[id]
}

// Activate runs ordered through preLoad, load and postLoad.
func (p *Pipeline) Activate(ctx context.Context, ordered []loader.Descriptor) (err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Activate",
		trace.WithAttributes(attribute.Int("loaders.count", len(ordered))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Activation run started.", "loaders", len(ordered))

	for _, d := range ordered {
		if p.skip(d) {
			continue
		}
		pre, ok := d.Loader.(loader.PreLoader)
		if !ok {
			continue
		}
		if err := p.run(ctx, d, PreLoad, pre.PreLoad); err != nil {
			return err
		}
	}

	ran := make(map[string]bool, len(ordered))
	for _, d := range ordered {
		if p.skip(d) {
			continue
		}
		p.loading[d.ID] = true
		err := p.run(ctx, d, Load, d.Loader.Load)
		delete(p.loading, d.ID)
		if err != nil {
			return err
		}
		p.tracker.MarkActivated(d.ID)
		ran[d.ID] = true
		p.observer.Notify(ctx, event.Event{Kind: event.LoaderActivated, LoaderID: d.ID, Package: d.Package})
	}

	for _, d := range ordered {
		if !ran[d.ID] {
			continue
		}
		post, ok := d.Loader.(loader.PostLoader)
		if !ok {
			continue
		}
		if err := p.run(ctx, d, PostLoad, post.PostLoad); err != nil {
			return err
		}
	}

	logger.Debug("Activation run finished.", "activated", len(ran))
	return nil
}

func (p *Pipeline) skip(d loader.Descriptor) bool {
	return p.loading[d.ID] || p.tracker.IsActivated(d.ID)
}

func (p *Pipeline) run(ctx context.Context, d loader.Descriptor, phase Phase, hook func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "loader."+string(phase), trace.WithAttributes(
		attribute.String("loader.id", d.ID),
		attribute.String("loader.package", d.Package),
	))
	defer span.End()

	ctxlog.FromContext(ctx).Debug("Calling loader hook.", "phase", string(phase), "loader", d.ID)
	if err := hook(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &PhaseError{LoaderID: d.ID, Package: d.Package, Phase: phase, Err: err}
	}

	p.observer.Notify(ctx, event.Event{Kind: event.PhaseCompleted, LoaderID: d.ID, Package: d.Package, Phase: string(phase)})
	return nil
}
