package symbol

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
)

// Defaults applied by NewResolver to an unset Root field.
const (
	DefaultSeparator = "."
	DefaultExtension = ".lua"
)

// SourceLoader evaluates a source file so that the symbols it declares are
// defined in a Table. A missing file must be reported with an error wrapping
// fs.ErrNotExist.
type SourceLoader interface {
	LoadFile(ctx context.Context, path string) error
}

// Root configures the namespace a Resolver serves.
type Root struct {
	// Namespace is the prefix a type name must start with. An empty
	// namespace accepts every name.
	Namespace string
	Dir       string
	Extension string
	Separator string
}

// Callback is invoked after a type name has been resolved to path.
type Callback func(ctx context.Context, r *Resolver, typeName, path string) error

// Resolver maps the type names of one namespace to files and loads them.
type Resolver struct {
	root      Root
	source    SourceLoader
	table     *Table
	callbacks []Callback
}

// NewResolver creates a resolver for root. Files are evaluated by source and
// the resolved symbol is expected to appear in table afterwards.
func NewResolver(root Root, source SourceLoader, table *Table) *Resolver {
	if root.Separator == "" {
		root.Separator = DefaultSeparator
	}
	if root.Extension == "" {
		root.Extension = DefaultExtension
	}
	return &Resolver{root: root, source: source, table: table}
}

// Root returns the resolver's namespace configuration.
func (r *Resolver) Root() Root {
	return r.root
}

// OnResolved appends a callback fired after every successful resolution.
func (r *Resolver) OnResolved(cb Callback) *Resolver {
	r.callbacks = append(r.callbacks, cb)
	return r
}

// Path computes the file that should define typeName. The boolean is false
// when typeName lies outside the resolver's namespace.
func (r *Resolver) Path(typeName string) (string, bool) {
	sep := r.root.Separator
	rest := typeName
	if r.root.Namespace != "" {
		prefix := r.root.Namespace + sep
		if !strings.HasPrefix(typeName, prefix) {
			return "", false
		}
		rest = typeName[len(prefix):]
	}
	if rest == "" {
		return "", false
	}

	var dir string
	leaf := rest
	if i := strings.LastIndex(rest, sep); i >= 0 {
		dir = strings.ReplaceAll(rest[:i], sep, string(filepath.Separator))
		leaf = rest[i+len(sep):]
	}
	leaf = strings.ReplaceAll(leaf, "_", string(filepath.Separator))

	return filepath.Join(r.root.Dir, dir, leaf+r.root.Extension), true
}

// Resolve loads the file for typeName and reports where it was found. It
// returns ok=false without error whenever the name is not served here.
func (r *Resolver) Resolve(ctx context.Context, typeName string) (string, bool, error) {
	path, ok := r.Path(typeName)
	if !ok {
		return "", false, nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving symbol.", "symbol", typeName, "path", path)

	if !r.table.Has(typeName) {
		if err := r.source.LoadFile(ctx, path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Symbol source not found.", "symbol", typeName, "path", path)
				return "", false, nil
			}
			return "", false, fmt.Errorf("load %s for symbol %s: %w", path, typeName, err)
		}
	}

	if !r.table.Has(typeName) {
		logger.Debug("Source file did not define the expected symbol.", "symbol", typeName, "path", path)
		return "", false, nil
	}

	for _, cb := range r.callbacks {
		if err := cb(ctx, r, typeName, path); err != nil {
			return "", false, fmt.Errorf("on-resolved callback for %s: %w", typeName, err)
		}
	}

	return path, true, nil
}
