// Package dag implements the dependency graph behind loader scheduling: nodes
// keyed by string ID, directed edges from a dependency to its dependent, and
// a deterministic topological sort.
package dag
