package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultSeparator is the namespace separator used when a package declares none.
const DefaultSeparator = "."

// ErrPackageNotFound is returned when a package name is not registered.
var ErrPackageNotFound = errors.New("package not found")

// Registry is the read side of the package registry consumed by discovery
// and the App.
type Registry interface {
	ListPackages() []*Package
	PackageByName(name string) (*Package, error)
	IteratePackages(visit func(*Package) error) error
	NormalizeName(name string) string
	Namespace(name string) string
}

// Settings controls how a package is initialized and loaded.
type Settings struct {
	NamespaceSeparator string
	// SourceDirectory is relative to the package root.
	SourceDirectory string
	Extension       string
	// AutoInit initializes the package during App.Init.
	AutoInit     bool
	Dependencies []string
	// Includes run when the package's dependencies are loaded.
	Includes []string
	// StaticIncludes run when the package is initialized.
	StaticIncludes []string
	// CoreClasses maps an instance name to a symbol leaf in the package
	// namespace. See App.Instance.
	CoreClasses map[string]string
}

// Package is a named unit of code with its own namespace and root directory.
type Package struct {
	Name     string
	Title    string
	Root     string
	Settings Settings
	Meta     map[string]string
}

// SourceDir is the directory symbols of the package resolve under.
func (p *Package) SourceDir() string {
	return filepath.Join(p.Root, p.Settings.SourceDirectory)
}

// Separator returns the package's namespace separator.
func (p *Package) Separator() string {
	if p.Settings.NamespaceSeparator == "" {
		return DefaultSeparator
	}
	return p.Settings.NamespaceSeparator
}

// Store is an in-memory Registry preserving registration order.
type Store struct {
	packages []*Package
	byName   map[string]*Package
}

// New creates an empty Store.
func New() *Store {
	return &Store{byName: make(map[string]*Package)}
}

// Add registers p under its normalized name.
func (s *Store) Add(p *Package) error {
	name := s.NormalizeName(p.Name)
	if name == "" {
		return errors.New("package name must not be empty")
	}
	if existing, ok := s.byName[name]; ok {
		return fmt.Errorf("package %s declared twice (%s and %s)", name, existing.Root, p.Root)
	}
	p.Name = name
	s.packages = append(s.packages, p)
	s.byName[name] = p
	return nil
}

func (s *Store) ListPackages() []*Package {
	return append([]*Package(nil), s.packages...)
}

func (s *Store) PackageByName(name string) (*Package, error) {
	p, ok := s.byName[s.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	return p, nil
}

// IteratePackages calls visit for each package in order and stops at the
// first error.
func (s *Store) IteratePackages(visit func(*Package) error) error {
	for _, p := range s.ListPackages() {
		if err := visit(p); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeName returns the canonical form of a package name: trimmed, lower
// case, with path separators turned into dots.
func (s *Store) NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("/", ".", `\`, ".").Replace(name)
}

// Namespace derives the symbol namespace of a package: its name with every
// '.', '/', '\' and '_' replaced by the package's namespace separator.
func (s *Store) Namespace(name string) string {
	sep := DefaultSeparator
	if p, ok := s.byName[s.NormalizeName(name)]; ok {
		sep = p.Separator()
	}
	return strings.NewReplacer(".", sep, "/", sep, `\`, sep, "_", sep).Replace(s.NormalizeName(name))
}

// Validate checks that every declared dependency names a registered package
// or one of the extra names (packages provided by the host itself).
func (s *Store) Validate(extra ...string) error {
	known := make(map[string]bool, len(extra))
	for _, name := range extra {
		known[s.NormalizeName(name)] = true
	}

	var errs []string
	for _, p := range s.packages {
		for _, dep := range p.Settings.Dependencies {
			n := s.NormalizeName(dep)
			if _, ok := s.byName[n]; ok || known[n] {
				continue
			}
			errs = append(errs, fmt.Sprintf("package '%s': dependency '%s' is not installed", p.Name, dep))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
