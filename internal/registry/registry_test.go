package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel, ManifestName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return filepath.Dir(path)
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	httpRoot := writeManifest(t, root, "http", `
package "forall.http" {
  title               = "HTTP"
  namespace_separator = "."
  meta = {
    author  = "someone"
    version = 2
  }

  loader {
    source_directory = "src"
    extension        = ".lua"
    auto_init        = true
    dependencies     = ["forall.core", "Forall/Log"]
    includes         = ["init.lua"]
    static_includes  = ["/boot.lua"]
    core_classes     = { client = "Client_Pool" }
  }
}
`)
	logRoot := writeManifest(t, root, "log", `
package "forall.log" {
  title = "Log"
}

package "forall.log_extra" {
  namespace_separator = "\\"
  loader {}
}
`)

	store, err := LoadDir(context.Background(), root)
	require.NoError(t, err)

	var names []string
	for _, p := range store.ListPackages() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"forall.http", "forall.log", "forall.log_extra"}, names)

	http, err := store.PackageByName("Forall.HTTP")
	require.NoError(t, err)
	assert.Equal(t, "HTTP", http.Title)
	assert.Equal(t, httpRoot, http.Root)
	assert.Equal(t, filepath.Join(httpRoot, "src"), http.SourceDir())
	assert.Equal(t, map[string]string{"author": "someone", "version": "2"}, http.Meta)
	assert.Equal(t, Settings{
		NamespaceSeparator: ".",
		SourceDirectory:    "src",
		Extension:          ".lua",
		AutoInit:           true,
		Dependencies:       []string{"forall.core", "Forall/Log"},
		Includes:           []string{"init.lua"},
		StaticIncludes:     []string{"/boot.lua"},
		CoreClasses:        map[string]string{"client": "Client_Pool"},
	}, http.Settings)

	logPkg, err := store.PackageByName("forall.log")
	require.NoError(t, err)
	assert.Equal(t, logRoot, logPkg.Root)
	assert.True(t, logPkg.Settings.AutoInit, "packages without loading settings auto-init")

	extra, err := store.PackageByName("forall.log_extra")
	require.NoError(t, err)
	assert.False(t, extra.Settings.AutoInit, "declaring loading settings makes init opt-in")
	assert.Equal(t, `forall\log\extra`, store.Namespace("forall.log_extra"))

	assert.NoError(t, store.Validate("forall.core"))
	assert.ErrorContains(t, store.Validate(), "dependency 'forall.core' is not installed")
}

func TestLoadDir_Empty(t *testing.T) {
	store, err := LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, store.ListPackages())
}

func TestLoadDir_Errors(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
		want     string
	}{
		{"syntax error", `package "a" {`, "failed to parse package manifest"},
		{"unknown attribute", `package "a" { colour = "red" }`, "Unsupported argument"},
		{"duplicate loader block", `package "a" {
  loader {}
  loader {}
}`, "Duplicate \"loader\" block"},
		{"meta must be an object", `package "a" { meta = ["x"] }`, "meta must be an object"},
		{"duplicate package", `
package "a" {}
package "A" {}
`, "declared twice"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeManifest(t, root, "pkg", tc.manifest)
			_, err := LoadDir(context.Background(), root)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestStore(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(&Package{Name: " Vendor/Widgets "}))
	require.NoError(t, s.Add(&Package{Name: "vendor.my_tools", Settings: Settings{NamespaceSeparator: "::"}}))
	assert.Error(t, s.Add(&Package{Name: "  "}))

	t.Run("normalize", func(t *testing.T) {
		assert.Equal(t, "vendor.widgets", s.NormalizeName(`Vendor\Widgets`))
	})

	t.Run("namespace", func(t *testing.T) {
		assert.Equal(t, "vendor.widgets", s.Namespace("vendor.widgets"))
		assert.Equal(t, "vendor::my::tools", s.Namespace("vendor.my_tools"))
		assert.Equal(t, "unknown.pkg", s.Namespace("unknown_pkg"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.PackageByName("nope")
		assert.True(t, errors.Is(err, ErrPackageNotFound))
	})

	t.Run("iterate stops on error", func(t *testing.T) {
		stop := errors.New("stop")
		var seen []string
		err := s.IteratePackages(func(p *Package) error {
			seen = append(seen, p.Name)
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, []string{"vendor.widgets"}, seen)
	})
}
