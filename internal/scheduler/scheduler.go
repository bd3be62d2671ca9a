package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/dag"
	"github.com/specialistvlad/bootloader/internal/loader"
)

// CycleDependencyError is returned when the declared dependencies of the
// scheduled loaders cannot be put in a total order.
type CycleDependencyError struct {
	Packages []string
}

func (e *CycleDependencyError) Error() string {
	return fmt.Sprintf("cyclic loader dependencies between packages: %s", strings.Join(e.Packages, ", "))
}

// ActivationChecker reports whether a loader has already been activated.
type ActivationChecker interface {
	IsActivated(id string) bool
}

// Scheduler orders loader descriptors so dependencies come first.
type Scheduler struct {
	normalize func(string) string
	activated ActivationChecker
}

// New creates a Scheduler. normalize maps declared dependency names to the
// canonical package name form; nil leaves names untouched.
func New(normalize func(string) string, activated ActivationChecker) *Scheduler {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &Scheduler{normalize: normalize, activated: activated}
}

// Pending drops descriptors whose loader is already activated.
func (s *Scheduler) Pending(descriptors []loader.Descriptor) []loader.Descriptor {
	pending := make([]loader.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if s.activated != nil && s.activated.IsActivated(d.ID) {
			continue
		}
		pending = append(pending, d)
	}
	return pending
}

// Order filters out activated loaders and returns the rest in dependency
// order.
func (s *Scheduler) Order(ctx context.Context, descriptors []loader.Descriptor) ([]loader.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	pending := s.Pending(descriptors)
	logger.Debug("Scheduling loaders.", "discovered", len(descriptors), "pending", len(pending))

	g := dag.New()
	byPackage := make(map[string]loader.Descriptor, len(pending))
	for _, d := range pending {
		key := s.normalize(d.Package)
		if _, dup := byPackage[key]; dup {
			return nil, fmt.Errorf("package %s has more than one loader", key)
		}
		byPackage[key] = d
		g.AddNode(key)
	}

	for _, d := range pending {
		key := s.normalize(d.Package)
		for _, raw := range d.Loader.Dependencies() {
			dep := s.normalize(raw)
			if dep == key {
				return nil, &CycleDependencyError{Packages: []string{key}}
			}
			if !g.HasNode(dep) {
				logger.Debug("Dependency has no pending loader, treating as satisfied.", "package", key, "dependency", dep)
				continue
			}
			if err := g.AddEdge(dep, key); err != nil {
				return nil, fmt.Errorf("link %s -> %s: %w", dep, key, err)
			}
		}
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			return nil, &CycleDependencyError{Packages: cycle.Nodes}
		}
		return nil, err
	}

	ordered := make([]loader.Descriptor, 0, len(sorted))
	for _, key := range sorted {
		ordered = append(ordered, byPackage[key])
	}
	logger.Debug("Loader order resolved.", "order", ids(ordered))
	return ordered, nil
}

func ids(ds []loader.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}
