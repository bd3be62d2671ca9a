package symbol

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyDefined is returned when a symbol name is defined twice.
var ErrAlreadyDefined = errors.New("symbol already defined")

// Table holds every symbol defined so far, keyed by its fully qualified name.
type Table struct {
	mu      sync.RWMutex
	symbols map[string]any
	order   []string
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{symbols: make(map[string]any)}
}

// Define records value under name.
func (t *Table) Define(name string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.symbols[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, name)
	}
	t.symbols[name] = value
	t.order = append(t.order, name)
	return nil
}

// Lookup returns the value defined under name.
func (t *Table) Lookup(name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.symbols[name]
	return v, ok
}

// Has reports whether name is defined.
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Names returns the defined names in definition order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.order...)
}
