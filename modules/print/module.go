// Package print provides the compiled-in loader of the forall.print package.
// It prints a set of values once its dependencies are active.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/loader"
)

// LoaderID is the symbol the loader is registered under.
const LoaderID = "forall.print.Loader"

// Module implements the loader.Module interface for this package.
type Module struct {
	// Out defaults to os.Stdout.
	Out io.Writer
	// Values supplies what to print. It is called during load.
	Values func() map[string]string
	// Dependencies are the packages whose loaders must run first.
	Dependencies []string
}

// Register registers the loader with the catalog.
func (m *Module) Register(c *loader.Catalog) {
	c.Register(LoaderID, &loader.Funcs{
		Deps: m.Dependencies,
		Main: m.print,
	})
}

func (m *Module) print(ctx context.Context) error {
	ctxlog.FromContext(ctx).Info("Printing values")

	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	var values map[string]string
	if m.Values != nil {
		values = m.Values()
	}
	if len(values) == 0 {
		_, err := fmt.Fprintln(out, "      (null)")
		return err
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "      %s = %q\n", k, values[k]); err != nil {
			return err
		}
	}
	return nil
}
