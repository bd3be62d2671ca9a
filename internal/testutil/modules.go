package testutil

import "github.com/specialistvlad/bootloader/internal/loader"

// SimpleModule registers a single loader under ID.
type SimpleModule struct {
	ID     string
	Loader loader.Loader
}

// Register implements loader.Module.
func (m *SimpleModule) Register(c *loader.Catalog) {
	c.Register(m.ID, m.Loader)
}
