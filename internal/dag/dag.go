package dag

import (
	"container/heap"
	"fmt"
	"strings"
)

// CycleError reports the nodes that could not be ordered because they sit on,
// or downstream of, a dependency cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(e.Nodes, ", "))
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:    id,
		index: len(g.order),
		deps:  make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an existing edge again is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if _, exists := toNode.deps[fromID]; exists {
		return nil
	}
	toNode.deps[fromID] = fromNode
	fromNode.dependents = append(fromNode.dependents, toNode)

	return nil
}

// Dependencies returns the IDs of the nodes that id depends on, in insertion
// order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	deps := make([]string, 0, len(n.deps))
	for _, candidate := range g.order {
		if _, ok := n.deps[candidate]; ok {
			deps = append(deps, candidate)
		}
	}
	return deps, nil
}

// Dependents returns the IDs of the nodes that depend on id, in the order the
// edges were added.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	dependents := make([]string, 0, len(n.dependents))
	for _, d := range n.dependents {
		dependents = append(dependents, d.id)
	}
	return dependents, nil
}

// TopologicalSort orders the graph with Kahn's algorithm so that every node
// follows all of its dependencies. Among nodes that are ready at the same time
// the one added first wins. A *CycleError lists the nodes left unordered.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	ready := &rankQueue{}
	for _, id := range g.order {
		n := g.nodes[id]
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, n)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		sorted = append(sorted, n.id)
		for _, dependent := range n.dependents {
			inDegree[dependent.id]--
			if inDegree[dependent.id] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(sorted) < len(g.order) {
		var remaining []string
		for _, id := range g.order {
			if inDegree[id] > 0 {
				remaining = append(remaining, id)
			}
		}
		return nil, &CycleError{Nodes: remaining}
	}

	return sorted, nil
}

// rankQueue is a min-heap of nodes ordered by insertion index.
type rankQueue []*node

func (q rankQueue) Len() int           { return len(q) }
func (q rankQueue) Less(i, j int) bool { return q[i].index < q[j].index }
func (q rankQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *rankQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *rankQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
