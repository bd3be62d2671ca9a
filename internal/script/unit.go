package script

import (
	"context"
	"fmt"
)

const (
	hookPreLoad  = "preLoad"
	hookLoad     = "load"
	hookPostLoad = "postLoad"
)

// Value is a symbol defined by a script that is not a loader.
type Value struct {
	Name string
}

// Unit is a loader defined by a script.
type Unit struct {
	name  string
	deps  []string
	hooks map[string]string
	rt    *Runtime
}

// Name returns the symbol the unit was defined under.
func (u *Unit) Name() string { return u.name }

func (u *Unit) Dependencies() []string { return u.deps }

func (u *Unit) PreLoad(ctx context.Context) error { return u.invoke(ctx, hookPreLoad) }

func (u *Unit) Load(ctx context.Context) error { return u.invoke(ctx, hookLoad) }

func (u *Unit) PostLoad(ctx context.Context) error { return u.invoke(ctx, hookPostLoad) }

func (u *Unit) invoke(ctx context.Context, hook string) error {
	key, ok := u.hooks[hook]
	if !ok {
		return nil
	}
	if err := u.rt.call(ctx, key); err != nil {
		return fmt.Errorf("%s.%s: %w", u.name, hook, err)
	}
	return nil
}
