package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/bootloader/internal/app"
	"github.com/specialistvlad/bootloader/internal/cli"
	"github.com/specialistvlad/bootloader/internal/monitor"
	"github.com/specialistvlad/bootloader/internal/tracing"
)

// main is the entrypoint for the bootloader application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string, opts ...app.Option) (err error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Module registration panics on programmer errors such as a loader
	// registered twice, so we recover here to provide a clean exit message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	tracingCfg, err := tracing.LoadConfig()
	if err != nil {
		return err
	}
	shutdown, err := tracing.Setup(ctx, tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil {
			slog.Warn("Tracing shutdown failed.", "error", serr)
		}
	}()

	if inv.MonitorURL != "" {
		reporter, err := monitor.Dial(ctx, monitor.Options{URL: inv.MonitorURL})
		if err != nil {
			return err
		}
		defer reporter.Close()
		opts = append(opts, app.WithObserver(reporter))
	}

	bootApp, err := app.NewApp(outW, inv.Config, opts...)
	if err != nil {
		return err
	}

	switch inv.Command {
	case cli.CommandPlan:
		return plan(ctx, outW, bootApp)
	case cli.CommandResolve:
		return resolve(ctx, outW, bootApp, inv.Symbols)
	default:
		return bootApp.Run(ctx)
	}
}

func plan(ctx context.Context, outW io.Writer, a *app.App) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	ordered, err := a.Plan(ctx)
	if err != nil {
		return err
	}
	for i, d := range ordered {
		fmt.Fprintf(outW, "%d. %s (%s)\n", i+1, d.ID, d.Package)
	}
	return nil
}

func resolve(ctx context.Context, outW io.Writer, a *app.App, symbols []string) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	missing := 0
	for _, name := range symbols {
		path, ok, err := a.Resolve(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			missing++
			fmt.Fprintf(outW, "%s: not found\n", name)
			continue
		}
		fmt.Fprintf(outW, "%s => %s\n", name, path)
	}
	if missing > 0 {
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("%d of %d symbols could not be resolved", missing, len(symbols))}
	}
	return nil
}
