// Package scheduler computes the order in which discovered loaders activate.
//
// # How It Works
//
//  1. Loaders whose activated flag is already set are dropped; they neither
//     need ordering nor re-activation.
//  2. Each remaining descriptor becomes a node of a dag.Graph, keyed by its
//     normalized package name, in discovery order.
//  3. Every declared dependency that names another scheduled package adds an
//     edge from that package to the dependent. Dependencies on packages that
//     have no loader in this run are satisfied already and add nothing.
//  4. The graph is sorted with Kahn's algorithm, breaking ties by discovery
//     order. Leftover nodes mean the dependencies are cyclic and the run
//     fails with a *CycleDependencyError before any hook executes.
//
// Ordering is never derived from a pairwise "A depends on B" comparator: such
// a comparator is neither total nor transitive over a dependency DAG, so a
// general-purpose sort cannot produce a valid order from it.
package scheduler
