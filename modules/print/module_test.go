package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, m *Module) {
	t.Helper()
	c := loader.NewCatalog()
	m.Register(c)
	l, ok := c.Lookup(LoaderID)
	require.True(t, ok)
	require.NoError(t, l.Load(context.Background()))
}

func TestPrint_SortedValues(t *testing.T) {
	var buf bytes.Buffer
	load(t, &Module{Out: &buf, Values: func() map[string]string {
		return map[string]string{"b": "2", "a": "1"}
	}})
	assert.Equal(t, "      a = \"1\"\n      b = \"2\"\n", buf.String())
}

func TestPrint_NoValues(t *testing.T) {
	var buf bytes.Buffer
	load(t, &Module{Out: &buf})
	assert.Equal(t, "      (null)\n", buf.String())
}

func TestRegister_Dependencies(t *testing.T) {
	c := loader.NewCatalog()
	(&Module{Dependencies: []string{"forall.env"}}).Register(c)
	l, _ := c.Lookup(LoaderID)
	assert.Equal(t, []string{"forall.env"}, l.Dependencies())
}
