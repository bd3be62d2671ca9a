package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrDuplicate is returned when a loader ID is registered twice.
var ErrDuplicate = errors.New("loader already registered")

// Module is implemented by compiled-in packages that contribute loaders.
type Module interface {
	Register(c *Catalog)
}

// Catalog is the typed registry of compiled-in loaders, keyed by the symbol
// name discovery predicts for their package.
type Catalog struct {
	mu      sync.RWMutex
	loaders map[string]Loader
	order   []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{loaders: make(map[string]Loader)}
}

// Add registers l under id.
func (c *Catalog) Add(id string, l Loader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.loaders[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	slog.Debug("Registering loader.", "id", id)
	c.loaders[id] = l
	c.order = append(c.order, id)
	return nil
}

// Register is Add for module init code, where a duplicate ID is a
// programming error.
func (c *Catalog) Register(id string, l Loader) {
	if err := c.Add(id, l); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the loader registered under id.
func (c *Catalog) Lookup(id string) (Loader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.loaders[id]
	return l, ok
}

// IDs returns the registered IDs in registration order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.order...)
}
