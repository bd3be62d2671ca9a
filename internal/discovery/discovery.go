// Package discovery finds the loader of every registered package.
//
// A package's loader lives under a predicted symbol name: the package
// namespace followed by "Loader". Compiled-in loaders are looked up in the
// loader catalog; everything else goes through the symbol resolver and the
// symbol table it fills.
package discovery

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/specialistvlad/bootloader/internal/registry"
	"github.com/specialistvlad/bootloader/internal/symbol"
)

// LoaderSymbol is the leaf name of every package loader.
const LoaderSymbol = "Loader"

// Resolver resolves a symbol on demand.
type Resolver interface {
	Resolve(ctx context.Context, typeName string) (string, bool, error)
}

// FoundFunc is called for every loader found, before it is returned.
type FoundFunc func(ctx context.Context, pkg *registry.Package) error

// Option configures a Finder.
type Option func(*Finder)

// OnFound registers fn to run for each package whose loader is found.
func OnFound(fn FoundFunc) Option {
	return func(f *Finder) { f.onFound = fn }
}

// Finder discovers loaders.
type Finder struct {
	reg      registry.Registry
	catalog  *loader.Catalog
	table    *symbol.Table
	resolver Resolver
	onFound  FoundFunc
}

// New creates a Finder. catalog and resolver may be nil.
func New(reg registry.Registry, catalog *loader.Catalog, table *symbol.Table, resolver Resolver, opts ...Option) *Finder {
	f := &Finder{reg: reg, catalog: catalog, table: table, resolver: resolver}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PredictID returns the symbol name the loader of pkg is expected under.
func (f *Finder) PredictID(pkg *registry.Package) string {
	return f.reg.Namespace(pkg.Name) + pkg.Separator() + LoaderSymbol
}

// FindLoaders returns a descriptor for every package that has a loader, in
// registry order. Packages without one, or whose symbol is not a loader, are
// skipped.
//
// OnFound may initialize packages that were already visited without a
// resolver, so the registry is walked again until a pass finds nothing new.
func (f *Finder) FindLoaders(ctx context.Context) ([]loader.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	byPackage := make(map[string]loader.Descriptor)
	for pass := 1; ; pass++ {
		before := len(byPackage)
		err := f.reg.IteratePackages(func(pkg *registry.Package) error {
			if _, done := byPackage[pkg.Name]; done {
				return nil
			}
			d, ok, err := f.find(ctx, pkg)
			if err != nil {
				return fmt.Errorf("package %s: %w", pkg.Name, err)
			}
			if ok {
				byPackage[pkg.Name] = d
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Discovery pass finished.", "pass", pass, "new", len(byPackage)-before)
		if f.onFound == nil || len(byPackage) == before {
			break
		}
	}

	found := make([]loader.Descriptor, 0, len(byPackage))
	for _, pkg := range f.reg.ListPackages() {
		if d, ok := byPackage[pkg.Name]; ok {
			found = append(found, d)
		}
	}

	logger.Debug("Loaders discovered.", "count", len(found))
	return found, nil
}

func (f *Finder) find(ctx context.Context, pkg *registry.Package) (loader.Descriptor, bool, error) {
	id := f.PredictID(pkg)
	l, ok, err := f.lookup(ctx, id)
	if err != nil {
		return loader.Descriptor{}, false, err
	}
	if !ok {
		ctxlog.FromContext(ctx).Debug("No loader for package.", "package", pkg.Name, "symbol", id)
		return loader.Descriptor{}, false, nil
	}
	if f.onFound != nil {
		if err := f.onFound(ctx, pkg); err != nil {
			return loader.Descriptor{}, false, err
		}
	}
	return loader.NewDescriptor(id, pkg.Name, l), true, nil
}

func (f *Finder) lookup(ctx context.Context, id string) (loader.Loader, bool, error) {
	if f.catalog != nil {
		if l, ok := f.catalog.Lookup(id); ok {
			return l, true, nil
		}
	}

	candidate, ok := f.table.Lookup(id)
	if !ok && f.resolver != nil {
		if _, _, err := f.resolver.Resolve(ctx, id); err != nil {
			return nil, false, err
		}
		candidate, ok = f.table.Lookup(id)
	}
	if !ok {
		return nil, false, nil
	}

	l, ok := candidate.(loader.Loader)
	if !ok {
		ctxlog.FromContext(ctx).Debug("Symbol is not a loader.", "symbol", id, "type", fmt.Sprintf("%T", candidate))
	}
	return l, ok, nil
}
