package dag

import "sync"

// Graph is a collection of nodes and their dependencies, representing a DAG.
// Nodes remember the order in which they were added; that order breaks ties
// whenever the graph is sorted. All operations are concurrency-safe.
type Graph struct {
	// mutex protects nodes and order during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order lists node IDs in insertion order.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	id string
	// index is the insertion position, used as the tie-break rank.
	index int
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents lists nodes that depend on this node (successors), in the
	// order the edges were added.
	dependents []*node
}
