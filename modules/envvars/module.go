// Package envvars provides the compiled-in loader of the forall.env package.
// It captures environment variables during activation so later loaders see a
// stable view of them.
package envvars

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/loader"
)

// LoaderID is the symbol the loader is registered under.
const LoaderID = "forall.env.Loader"

// Module implements the loader.Module interface for this package.
type Module struct {
	// Prefix selects the variables to capture. It is stripped from the keys.
	Prefix string
	// Required variables must be set, or activation fails in preLoad.
	Required []string

	mu   sync.RWMutex
	vars map[string]string
}

// Register registers the loader with the catalog.
func (m *Module) Register(c *loader.Catalog) {
	c.Register(LoaderID, &loader.Funcs{
		Pre:  m.check,
		Main: m.capture,
	})
}

// Vars returns the captured variables. It is empty before activation.
func (m *Module) Vars() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.vars))
	for k, v := range m.vars {
		out[k] = v
	}
	return out
}

func (m *Module) check(ctx context.Context) error {
	var missing []string
	for _, name := range m.Required {
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (m *Module) capture(ctx context.Context) error {
	vars := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], m.Prefix) {
			continue
		}
		vars[strings.TrimPrefix(pair[0], m.Prefix)] = pair[1]
	}

	m.mu.Lock()
	m.vars = vars
	m.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Environment captured.", "prefix", m.Prefix, "count", len(vars))
	return nil
}
