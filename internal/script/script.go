// Package script evaluates Lua source files for the symbol resolver.
//
// A script defines symbols by calling the global `define(name, table)`. A
// table carrying a `load` function becomes a loader unit: its
// `dependencies` list and its `preLoad`, `load` and `postLoad` functions
// back the loader contract. Any other table defines a plain symbol.
//
//	define("forall.http.Loader", {
//	  dependencies = { "forall.log" },
//	  load = function() log("http ready") end,
//	})
//
// Scripts can also call `symbol(name)` to resolve another symbol on demand,
// `activate()` to run a nested activation, and `log(message)`.
//
// One Runtime owns one Lua state and is not safe for concurrent use.
package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Shopify/go-lua"
	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/symbol"
)

// ResolveFunc resolves a symbol by name.
type ResolveFunc func(ctx context.Context, name string) (bool, error)

// ActivateFunc runs an activation pass.
type ActivateFunc func(ctx context.Context) error

// Runtime evaluates Lua files into a symbol table.
type Runtime struct {
	state    *lua.State
	table    *symbol.Table
	resolve  ResolveFunc
	activate ActivateFunc
	// ctx is the context of the Go call currently running Lua code.
	ctx context.Context
}

// New creates a runtime that defines symbols into table.
func New(table *symbol.Table) *Runtime {
	rt := &Runtime{
		state: lua.NewState(),
		table: table,
		ctx:   context.Background(),
	}
	lua.OpenLibraries(rt.state)
	rt.state.Register("define", rt.define)
	rt.state.Register("symbol", rt.symbol)
	rt.state.Register("activate", rt.activateFn)
	rt.state.Register("log", rt.log)
	return rt
}

// SetResolver wires the `symbol` global.
func (rt *Runtime) SetResolver(fn ResolveFunc) { rt.resolve = fn }

// SetActivator wires the `activate` global.
func (rt *Runtime) SetActivator(fn ActivateFunc) { rt.activate = fn }

// LoadFile evaluates the file at path. A missing file yields an error
// wrapping fs.ErrNotExist.
func (rt *Runtime) LoadFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("script %s: %w", path, fs.ErrNotExist)
		}
		return err
	}

	ctxlog.FromContext(ctx).Debug("Evaluating script.", "path", path)
	return rt.protect(ctx, func(l *lua.State) error {
		if err := lua.LoadFile(l, path, ""); err != nil {
			return fmt.Errorf("load lua: %w", err)
		}
		if err := l.ProtectedCall(0, 0, 0); err != nil {
			return fmt.Errorf("run lua: %w", err)
		}
		return nil
	})
}

// protect runs fn with rt.ctx set to ctx and restores the Lua stack after it.
func (rt *Runtime) protect(ctx context.Context, fn func(l *lua.State) error) error {
	prev := rt.ctx
	rt.ctx = ctx
	top := rt.state.Top()
	defer func() {
		rt.state.SetTop(top)
		rt.ctx = prev
	}()
	return fn(rt.state)
}

// call invokes the function stored under key in the Lua registry.
func (rt *Runtime) call(ctx context.Context, key string) error {
	return rt.protect(ctx, func(l *lua.State) error {
		l.Field(lua.RegistryIndex, key)
		return l.ProtectedCall(0, 0, 0)
	})
}

func (rt *Runtime) define(l *lua.State) int {
	name := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeTable)

	if rt.table.Has(name) {
		lua.Errorf(l, "%s: %s", symbol.ErrAlreadyDefined.Error(), name)
	}

	var value any = &Value{Name: name}
	if hasFunction(l, 2, hookLoad) {
		u := &Unit{name: name, rt: rt, hooks: make(map[string]string)}
		for _, hook := range []string{hookPreLoad, hookLoad, hookPostLoad} {
			l.Field(2, hook)
			if !l.IsFunction(-1) {
				l.Pop(1)
				continue
			}
			key := "bootloader.hook." + name + "." + hook
			l.SetField(lua.RegistryIndex, key)
			u.hooks[hook] = key
		}
		u.deps = stringList(l, 2, "dependencies")
		value = u
	}

	if err := rt.table.Define(name, value); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	ctxlog.FromContext(rt.ctx).Debug("Symbol defined.", "symbol", name, "loader", isUnit(value))
	return 0
}

func (rt *Runtime) symbol(l *lua.State) int {
	name := lua.CheckString(l, 1)
	if rt.resolve == nil {
		lua.Errorf(l, "symbol resolution is not available")
	}
	ok, err := rt.resolve(rt.ctx, name)
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	l.PushBoolean(ok)
	return 1
}

func (rt *Runtime) activateFn(l *lua.State) int {
	if rt.activate == nil {
		lua.Errorf(l, "activation is not available")
	}
	if err := rt.activate(rt.ctx); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return 0
}

func (rt *Runtime) log(l *lua.State) int {
	msg := lua.CheckString(l, 1)
	ctxlog.FromContext(rt.ctx).Info(msg, "source", "script")
	return 0
}

func hasFunction(l *lua.State, index int, field string) bool {
	l.Field(index, field)
	defer l.Pop(1)
	return l.IsFunction(-1)
}

func stringList(l *lua.State, index int, field string) []string {
	l.Field(index, field)
	defer l.Pop(1)
	if !l.IsTable(-1) {
		return nil
	}

	n := l.RawLength(-1)
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		l.RawGetInt(-1, i)
		if s, ok := l.ToString(-1); ok {
			out = append(out, s)
		}
		l.Pop(1)
	}
	return out
}

func isUnit(v any) bool {
	_, ok := v.(*Unit)
	return ok
}
