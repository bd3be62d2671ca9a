package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/event"
	"github.com/specialistvlad/bootloader/internal/loader"
)

// ActivateLoaders discovers the loaders of all registered packages and runs
// the ones not yet activated, dependencies first. It may be called again,
// including from inside a loader hook, to pick up loaders that became
// available since the last call.
func (a *App) ActivateLoaders(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)

	ordered, err := a.plan(ctx)
	if err != nil {
		a.observer.Notify(ctx, event.Event{Kind: event.ActivationFailed, Err: err})
		return err
	}
	if len(ordered) == 0 {
		return nil
	}

	logger.Info("Activating loaders.", "count", len(ordered))
	if err := a.pipeline.Activate(ctx, ordered); err != nil {
		a.observer.Notify(ctx, event.Event{Kind: event.ActivationFailed, Err: err})
		return fmt.Errorf("activation failed: %w", err)
	}

	a.observer.Notify(ctx, event.Event{Kind: event.ActivationFinished})
	logger.Info("Loaders activated.", "count", len(ordered))
	return nil
}

// Plan returns the loaders ActivateLoaders would run next, in the order it
// would run them. No loader hook runs, but discovery still loads the
// dependencies of every package whose loader it finds, so their includes
// are evaluated.
func (a *App) Plan(ctx context.Context) ([]loader.Descriptor, error) {
	return a.plan(a.withLogger(ctx))
}

func (a *App) plan(ctx context.Context) ([]loader.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	found, err := a.finder.FindLoaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover loaders: %w", err)
	}
	if len(found) == 0 {
		logger.Info("No package loaders found. Nothing to activate.")
		return nil, nil
	}

	pending := a.scheduler.Pending(found)
	if len(pending) == 0 {
		logger.Info("No new package loaders found. Nothing new to activate.")
		return nil, nil
	}

	ordered, err := a.scheduler.Order(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve load order: %w", err)
	}
	return ordered, nil
}
