package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/specialistvlad/bootloader/internal/registry"
	"github.com/specialistvlad/bootloader/internal/symbol"
)

// Init initializes every package that asks for it through auto_init.
func (a *App) Init(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Initializing packages.")

	err := a.registry.IteratePackages(func(pkg *registry.Package) error {
		if !pkg.Settings.AutoInit {
			return nil
		}
		return a.initPackage(ctx, pkg)
	})
	if err != nil {
		return err
	}

	logger.Info("Packages initialized.", "count", len(a.state.Snapshot().Initialized))
	return nil
}

// InitPackage sets up symbol resolution for the named package and runs its
// static includes. Initializing a package twice is a no-op.
func (a *App) InitPackage(ctx context.Context, name string) error {
	if a.state.IsInitialized(a.registry.NormalizeName(name)) {
		return nil
	}
	pkg, err := a.registry.PackageByName(name)
	if err != nil {
		return err
	}
	return a.initPackage(a.withLogger(ctx), pkg)
}

// LoadDependencies initializes every package the named package depends on
// and runs its includes. Loading a package twice is a no-op.
func (a *App) LoadDependencies(ctx context.Context, name string) error {
	if a.state.IsLoaded(a.registry.NormalizeName(name)) {
		return nil
	}
	pkg, err := a.registry.PackageByName(name)
	if err != nil {
		return err
	}
	return a.loadDependencies(a.withLogger(ctx), pkg)
}

func (a *App) initPackage(ctx context.Context, pkg *registry.Package) error {
	if !a.state.MarkInitialized(pkg.Name) {
		return nil
	}
	ctx = ctxlog.With(ctx, "package", pkg.Name)
	logger := ctxlog.FromContext(ctx)

	root := symbol.Root{
		Namespace: a.registry.Namespace(pkg.Name),
		Dir:       pkg.SourceDir(),
		Extension: pkg.Settings.Extension,
		Separator: pkg.Separator(),
	}
	r := symbol.NewResolver(root, a.scripts, a.table).
		OnResolved(func(ctx context.Context, _ *symbol.Resolver, typeName, path string) error {
			a.observer.Notify(ctx, event.Event{Kind: event.SymbolResolved, Package: pkg.Name, Symbol: typeName, Path: path})
			return a.loadDependencies(ctx, pkg)
		})
	a.resolvers.Register(r)
	logger.Debug("Resolver registered.", "namespace", root.Namespace, "dir", root.Dir)

	if err := a.registerInstances(ctx, pkg); err != nil {
		return fmt.Errorf("package %s: %w", pkg.Name, err)
	}

	if err := a.runIncludes(ctx, pkg, pkg.Settings.StaticIncludes); err != nil {
		return fmt.Errorf("package %s: static includes: %w", pkg.Name, err)
	}

	a.observer.Notify(ctx, event.Event{Kind: event.PackageInitialized, Package: pkg.Name})
	return nil
}

func (a *App) loadDependencies(ctx context.Context, pkg *registry.Package) error {
	if !a.state.MarkLoaded(pkg.Name) {
		return nil
	}
	ctx = ctxlog.With(ctx, "package", pkg.Name)

	for _, dep := range pkg.Settings.Dependencies {
		if a.state.IsInitialized(a.registry.NormalizeName(dep)) {
			continue
		}
		depPkg, err := a.registry.PackageByName(dep)
		if err != nil {
			return fmt.Errorf("package %s: dependency: %w", pkg.Name, err)
		}
		if err := a.initPackage(ctx, depPkg); err != nil {
			return err
		}
	}

	if err := a.runIncludes(ctx, pkg, pkg.Settings.Includes); err != nil {
		return fmt.Errorf("package %s: includes: %w", pkg.Name, err)
	}

	a.observer.Notify(ctx, event.Event{Kind: event.DependenciesLoaded, Package: pkg.Name})
	return nil
}

// runIncludes evaluates files relative to the package root. A leading slash
// is ignored, so "/init.lua" and "init.lua" name the same file.
func (a *App) runIncludes(ctx context.Context, pkg *registry.Package, includes []string) error {
	for _, p := range includes {
		path := filepath.Join(pkg.Root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
		ctxlog.FromContext(ctx).Debug("Running include.", "path", path)
		if err := a.scripts.LoadFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}
