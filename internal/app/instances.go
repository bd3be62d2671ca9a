package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/registry"
)

// ErrInstanceNotFound is returned by Instance for a name no initialized
// package provides.
var ErrInstanceNotFound = errors.New("instance not found")

// instance is a core class declared by a package. It is resolved on first
// access.
type instance struct {
	pkg    *registry.Package
	symbol string
	value  any
	ready  bool
}

// registerInstances records the core classes of pkg under their instance
// names.
func (a *App) registerInstances(ctx context.Context, pkg *registry.Package) error {
	names := make([]string, 0, len(pkg.Settings.CoreClasses))
	for name := range pkg.Settings.CoreClasses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if prev, ok := a.instances[name]; ok {
			return fmt.Errorf("instance %s is already provided by package %s", name, prev.pkg.Name)
		}
		sym := a.registry.Namespace(pkg.Name) + pkg.Separator() + pkg.Settings.CoreClasses[name]
		a.instances[name] = &instance{pkg: pkg, symbol: sym}
		ctxlog.FromContext(ctx).Debug("Instance registered.", "instance", name, "symbol", sym)
	}
	return nil
}

// Instance returns the core class registered under name. The first call
// loads the dependencies of the owning package and resolves the symbol.
func (a *App) Instance(ctx context.Context, name string) (any, error) {
	inst, ok := a.instances[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	}
	if inst.ready {
		return inst.value, nil
	}

	ctx = a.withLogger(ctx)
	if err := a.loadDependencies(ctx, inst.pkg); err != nil {
		return nil, fmt.Errorf("instance %s: %w", name, err)
	}

	v, ok := a.table.Lookup(inst.symbol)
	if !ok {
		if _, _, err := a.resolvers.Resolve(ctx, inst.symbol); err != nil {
			return nil, fmt.Errorf("instance %s: %w", name, err)
		}
		v, ok = a.table.Lookup(inst.symbol)
	}
	if !ok {
		return nil, fmt.Errorf("instance %s: symbol %s is not defined", name, inst.symbol)
	}

	inst.value, inst.ready = v, true
	return v, nil
}
