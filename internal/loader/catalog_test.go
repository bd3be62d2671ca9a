package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moduleFunc func(c *Catalog)

func (f moduleFunc) Register(c *Catalog) { f(c) }

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	a := &Funcs{}
	b := &Funcs{Deps: []string{"a"}}

	require.NoError(t, c.Add("pkg.b.Loader", b))
	require.NoError(t, c.Add("pkg.a.Loader", a))

	got, ok := c.Lookup("pkg.a.Loader")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = c.Lookup("pkg.c.Loader")
	assert.False(t, ok)

	assert.Equal(t, []string{"pkg.b.Loader", "pkg.a.Loader"}, c.IDs())
}

func TestCatalog_Duplicate(t *testing.T) {
	c := NewCatalog()
	c.Register("pkg.a.Loader", &Funcs{})

	err := c.Add("pkg.a.Loader", &Funcs{})
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.PanicsWithValue(t, "loader already registered: pkg.a.Loader", func() {
		var m Module = moduleFunc(func(c *Catalog) { c.Register("pkg.a.Loader", &Funcs{}) })
		m.Register(c)
	})
}

func TestFuncs(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	f := &Funcs{
		Deps: []string{"x"},
		Pre:  func(context.Context) error { calls = append(calls, "pre"); return nil },
		Main: func(context.Context) error { calls = append(calls, "load"); return boom },
	}

	ctx := context.Background()
	assert.Equal(t, []string{"x"}, f.Dependencies())
	assert.NoError(t, f.PreLoad(ctx))
	assert.ErrorIs(t, f.Load(ctx), boom)
	assert.NoError(t, f.PostLoad(ctx), "nil hooks are no-ops")
	assert.Equal(t, []string{"pre", "load"}, calls)

	var _ PreLoader = f
	var _ PostLoader = f
}
