package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/discovery"
	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/specialistvlad/bootloader/internal/pipeline"
	"github.com/specialistvlad/bootloader/internal/registry"
	"github.com/specialistvlad/bootloader/internal/scheduler"
	"github.com/specialistvlad/bootloader/internal/script"
	"github.com/specialistvlad/bootloader/internal/state"
	"github.com/specialistvlad/bootloader/internal/symbol"
	"go.opentelemetry.io/otel/trace"
)

// Option customizes an App during construction.
type Option func(*options)

type options struct {
	modules   []loader.Module
	observers []event.Observer
	tracer    trace.Tracer
}

// WithModules replaces the compiled-in loader modules.
func WithModules(mods ...loader.Module) Option {
	return func(o *options) { o.modules = mods }
}

// WithObserver adds an observer notified of every bootstrap event.
func WithObserver(obs event.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithTracer sets the tracer used for activation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger *slog.Logger
	ctx    context.Context
	config *Config

	registry  *registry.Store
	catalog   *loader.Catalog
	table     *symbol.Table
	resolvers *symbol.Stack
	scripts   *script.Runtime
	state     *state.State
	finder    *discovery.Finder
	scheduler *scheduler.Scheduler
	pipeline  *pipeline.Pipeline
	observer  event.Observers
	instances map[string]*instance

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads every package
// manifest under cfg.PackagesPath and wires the bootstrap components around
// the resulting registry. Nothing is initialized or activated yet.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	o := options{modules: coreModules()}
	for _, opt := range opts {
		opt(&o)
	}

	core := cfg.CorePackage
	if core == "" {
		core = DefaultCorePackage
	}

	reg, err := registry.LoadDir(ctx, cfg.PackagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if err := reg.Validate(core); err != nil {
		return nil, err
	}
	logger.Debug("Package registry loaded.", "packages", len(reg.ListPackages()))

	catalog := loader.NewCatalog()
	for _, mod := range o.modules {
		mod.Register(catalog)
	}
	logger.Debug("All Go modules registered.", "count", len(o.modules), "loaders", len(catalog.IDs()))

	a := &App{
		logger:    logger,
		ctx:       ctx,
		config:    cfg,
		registry:  reg,
		catalog:   catalog,
		table:     symbol.NewTable(),
		resolvers: symbol.NewStack(),
		state:     state.New(),
		observer:  append(event.Observers{event.LogObserver{}}, o.observers...),
		instances: make(map[string]*instance),
	}

	a.scripts = script.New(a.table)
	a.scripts.SetResolver(func(ctx context.Context, name string) (bool, error) {
		_, ok, err := a.resolvers.Resolve(ctx, name)
		return ok, err
	})
	a.scripts.SetActivator(a.ActivateLoaders)

	pipeOpts := []pipeline.Option{pipeline.WithObserver(a.observer)}
	if o.tracer != nil {
		pipeOpts = append(pipeOpts, pipeline.WithTracer(o.tracer))
	}
	a.pipeline = pipeline.New(a.state, pipeOpts...)
	a.scheduler = scheduler.New(reg.NormalizeName, a)
	a.finder = discovery.New(reg, catalog, a.table, a.resolvers,
		discovery.OnFound(func(ctx context.Context, pkg *registry.Package) error {
			return a.loadDependencies(ctx, pkg)
		}))

	// The host package needs no loading of its own.
	core = reg.NormalizeName(core)
	a.state.MarkInitialized(core)
	a.state.MarkLoaded(core)

	return a, nil
}

// IsActivated reports whether the loader id has been activated or is being
// activated further up the call stack.
func (a *App) IsActivated(id string) bool {
	return a.state.IsActivated(id) || a.pipeline.InProgress(id)
}

// Registry returns the application's package registry.
func (a *App) Registry() registry.Registry {
	return a.registry
}

// Catalog returns the compiled-in loader catalog.
func (a *App) Catalog() *loader.Catalog {
	return a.catalog
}

// Symbols returns the table of symbols defined so far.
func (a *App) Symbols() *symbol.Table {
	return a.table
}

// Resolvers returns the resolver stack. Hosts may register resolvers of
// their own on it.
func (a *App) Resolvers() *symbol.Stack {
	return a.resolvers
}

// State returns a snapshot of what has been initialized, loaded and activated.
func (a *App) State() state.Snapshot {
	return a.state.Snapshot()
}

// Resolve resolves a symbol through the resolver stack.
func (a *App) Resolve(ctx context.Context, name string) (string, bool, error) {
	return a.resolvers.Resolve(a.withLogger(ctx), name)
}

// withLogger makes sure ctx carries the App's logger.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.Ensure(ctx, a.logger)
}
