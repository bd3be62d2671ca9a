package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activatedSet map[string]bool

func (a activatedSet) IsActivated(id string) bool { return a[id] }

func desc(id, pkg string, deps ...string) loader.Descriptor {
	return loader.NewDescriptor(id, pkg, &loader.Funcs{Deps: deps})
}

func idsOf(ds []loader.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestOrder_Chain(t *testing.T) {
	l1 := desc("L1", "p1")
	l2 := desc("L2", "p2", "p1")
	l3 := desc("L3", "p3", "p2")

	ordered, err := New(nil, nil).Order(context.Background(), []loader.Descriptor{l3, l1, l2})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2", "L3"}, idsOf(ordered))
}

func TestOrder_Cycle(t *testing.T) {
	l1 := desc("L1", "p1", "p2")
	l2 := desc("L2", "p2", "p1")

	_, err := New(nil, nil).Order(context.Background(), []loader.Descriptor{l1, l2})
	var cycle *CycleDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"p1", "p2"}, cycle.Packages)
	assert.ErrorContains(t, err, "p1")
	assert.ErrorContains(t, err, "p2")
}

func TestOrder_SelfDependencyIsACycle(t *testing.T) {
	_, err := New(nil, nil).Order(context.Background(), []loader.Descriptor{desc("L1", "p1", "p1")})
	var cycle *CycleDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"p1"}, cycle.Packages)
}

func TestOrder_NormalizesDependencyNames(t *testing.T) {
	l1 := desc("L1", "forall.core")
	l2 := desc("L2", "forall.http", "  Forall.Core ")

	ordered, err := New(func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }, nil).
		Order(context.Background(), []loader.Descriptor{l2, l1})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, idsOf(ordered))
}

func TestOrder_UnknownDependenciesAreSatisfied(t *testing.T) {
	l1 := desc("L1", "p1", "activated.earlier", "no.loader")

	ordered, err := New(nil, nil).Order(context.Background(), []loader.Descriptor{l1})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, idsOf(ordered))
}

func TestOrder_SkipsActivatedLoaders(t *testing.T) {
	l1 := desc("L1", "p1")
	l2 := desc("L2", "p2", "p1")

	ordered, err := New(nil, activatedSet{"L1": true}).Order(context.Background(), []loader.Descriptor{l2, l1})
	require.NoError(t, err)
	assert.Equal(t, []string{"L2"}, idsOf(ordered))
}

func TestOrder_DuplicatePackage(t *testing.T) {
	_, err := New(nil, nil).Order(context.Background(), []loader.Descriptor{desc("L1", "p1"), desc("L2", "p1")})
	assert.ErrorContains(t, err, "more than one loader")
}

func TestOrder_Empty(t *testing.T) {
	ordered, err := New(nil, nil).Order(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

// TestOrder_RandomDAGs checks the two scheduling properties on random input:
// the output is a permutation of the input and every dependency precedes its
// dependent.
func TestOrder_RandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 100; round++ {
		size := 1 + rng.Intn(15)
		pkgs := make([]string, size)
		for i := range pkgs {
			pkgs[i] = fmt.Sprintf("p%d", i)
		}

		deps := make(map[string][]string, size)
		for i := 0; i < size; i++ {
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					deps[pkgs[i]] = append(deps[pkgs[i]], pkgs[j])
				}
			}
		}

		var input []loader.Descriptor
		for _, i := range rng.Perm(size) {
			input = append(input, desc("L"+pkgs[i], pkgs[i], deps[pkgs[i]]...))
		}

		ordered, err := New(nil, nil).Order(context.Background(), input)
		require.NoError(t, err)
		assert.ElementsMatch(t, idsOf(input), idsOf(ordered))

		pos := make(map[string]int, len(ordered))
		for i, d := range ordered {
			pos[d.Package] = i
		}
		for pkg, ds := range deps {
			for _, dep := range ds {
				assert.Less(t, pos[dep], pos[pkg], "%s must precede %s", dep, pkg)
			}
		}
	}
}
