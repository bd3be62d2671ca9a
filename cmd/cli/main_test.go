package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/bootloader/internal/app"
	"github.com/specialistvlad/bootloader/internal/cli"
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/stretchr/testify/require"
)

type duplicateModule struct{}

func (duplicateModule) Register(c *loader.Catalog) {
	c.Register("forall.dup.Loader", &loader.Funcs{})
	c.Register("forall.dup.Loader", &loader.Funcs{})
}

func writePackages(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"log/package.hcl": `package "forall.log" {}`,
		"log/Loader.lua":  `define("forall.log.Loader", { load = function() end })`,
		"http/package.hcl": `
package "forall.http" {
  loader {
    auto_init    = true
    dependencies = ["forall.log"]
  }
}
`,
		"http/Loader.lua": `define("forall.http.Loader", { dependencies = { "forall.log" }, load = function() end })`,
		"http/Client.lua": `define("forall.http.Client", {})`,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestRun_PanicRecovery(t *testing.T) {
	// Registering the same loader twice panics inside app.NewApp().
	out := &bytes.Buffer{}
	runErr := run(context.Background(), out, []string{"run", writePackages(t)}, app.WithModules(duplicateModule{}))

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "forall.dup.Loader")
}

func TestRun_ShouldExit(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_Commands(t *testing.T) {
	root := writePackages(t)

	t.Run("run", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, run(context.Background(), out, []string{"run", root, "--log-format=text"}, app.WithModules()))
		require.Contains(t, out.String(), "Bootstrap finished.")
	})

	t.Run("plan", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, run(context.Background(), out, []string{"plan", root, "--log-level=error"}, app.WithModules()))
		require.Equal(t, "1. forall.log.Loader (forall.log)\n2. forall.http.Loader (forall.http)\n", out.String())
	})

	t.Run("resolve", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(context.Background(), out, []string{"resolve", "-p", root, "--log-level=error", "forall.http.Client", "forall.http.Nope"}, app.WithModules())

		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		require.Equal(t, 1, exitErr.Code)
		require.Contains(t, out.String(), "forall.http.Client => "+filepath.Join(root, "http", "Client.lua"))
		require.Contains(t, out.String(), "forall.http.Nope: not found")
	})
}
