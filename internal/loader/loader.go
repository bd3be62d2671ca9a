// Package loader defines the contract every package loader implements, the
// descriptor discovery produces for it, and the typed catalog through which
// compiled-in loaders register themselves.
package loader

import "context"

// Loader is run once per process during activation. Dependencies names the
// packages whose loaders must run first.
type Loader interface {
	Dependencies() []string
	Load(ctx context.Context) error
}

// PreLoader is implemented by loaders that need a hook before any loader's
// Load runs.
type PreLoader interface {
	PreLoad(ctx context.Context) error
}

// PostLoader is implemented by loaders that need a hook after every loader's
// Load has run.
type PostLoader interface {
	PostLoad(ctx context.Context) error
}

// Descriptor identifies a discovered loader and the package that owns it.
type Descriptor struct {
	ID      string
	Package string
	Loader  Loader
}

// NewDescriptor creates a descriptor for l.
func NewDescriptor(id, pkg string, l Loader) Descriptor {
	return Descriptor{ID: id, Package: pkg, Loader: l}
}

// Funcs adapts plain functions to the Loader, PreLoader and PostLoader
// contracts. Nil hooks are no-ops.
type Funcs struct {
	Deps []string
	Pre  func(ctx context.Context) error
	Main func(ctx context.Context) error
	Post func(ctx context.Context) error
}

func (f *Funcs) Dependencies() []string { return f.Deps }

func (f *Funcs) PreLoad(ctx context.Context) error { return call(ctx, f.Pre) }

func (f *Funcs) Load(ctx context.Context) error { return call(ctx, f.Main) }

func (f *Funcs) PostLoad(ctx context.Context) error { return call(ctx, f.Post) }

func call(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
