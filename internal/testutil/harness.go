package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/bootloader/internal/app"
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Events    *Recorder
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...loader.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext writes files (paths relative to the packages
// directory) to a temporary tree, builds an App over it with only the given
// compiled-in modules, and runs it.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...loader.Module) *HarnessResult {
	t.Helper()

	packagesDir := WriteFiles(t, files)

	cfg, err := app.NewConfig(app.Config{
		PackagesPath: packagesDir,
		LogLevel:     "debug",
		LogFormat:    "text",
	})
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	events := &Recorder{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp, err = app.NewApp(logBuffer, cfg, app.WithModules(modules...), app.WithObserver(events))
	}()

	result := &HarnessResult{Events: events}
	switch {
	case panicErr != nil:
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
	case err != nil:
		result.Err = err
	default:
		result.App = testApp
		result.Err = testApp.Run(ctx)
	}
	result.LogOutput = logBuffer.String()

	if os.Getenv("BOOTLOADER_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}

// WriteFiles creates files under a fresh temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
