package app

import (
	"context"
	"fmt"
)

// Run initializes auto-init packages and activates every loader. When a
// healthcheck port is configured, Run then keeps serving the healthcheck
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")

	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize packages: %w", err)
	}

	a.logger.Info("🚀 Activating package loaders...")
	if err := a.ActivateLoaders(ctx); err != nil {
		return err
	}
	snap := a.state.Snapshot()
	a.logger.Info("🏁 Bootstrap finished.", "initialized", len(snap.Initialized), "activated", len(snap.Activated))

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer(ctx)
		<-ctx.Done()
		if err := a.closeHealthCheckServer(); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
