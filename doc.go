// Package qgraph builds and transforms directed acyclic dataflow graphs in
// which nodes are operations ("bloqs") and edges are typed, single-use data
// ports ("soquets").
//
// # Overview
//
// A graph is constructed incrementally with a BloqBuilder and frozen into
// an immutable CompositeBloq:
//
//	bb := qgraph.NewBloqBuilder()
//	q, _ := bb.AddRegister(qgraph.NewRegister("q", qgraph.Any{Bits: 2}))
//
//	bits, _ := bb.Split(q.One())
//	joined, _ := bb.Join(bits, nil)
//
//	cbloq, err := bb.Finalize(qgraph.SoqDict{"q": qgraph.Scalar(joined)})
//
// Every soquet returned by the builder must be consumed exactly once:
// passing it to a later Add (or to Finalize) consumes it, passing it twice
// fails with ErrSoquetUnavailable, and never passing it on fails Finalize
// with ErrUnconsumedSoquets. This explicit available-set discipline is the
// package's substitute for a linear type system.
//
// # Determinism
//
// Identical builder call sequences yield identical graphs, and iterating
// one graph twice yields identical node orders: topological ties are broken
// by ascending node ID. Downstream consumers (debug output, structural
// diffing, caching by graph shape) rely on this contract.
//
// # Transforms
//
// CompositeBloq offers Copy (renumber node IDs), FlattenOnce/Flatten
// (inline the decompositions of selected nodes), and Adjoint (reverse the
// graph, swapping boundaries and replacing every bloq by its adjoint). Each
// transform replays the graph through a fresh BloqBuilder, so construction
// invariants are enforced identically whether building forward or
// rewriting.
//
// # Error Handling
//
// Failures wrap sentinel errors (ErrSoquetUnavailable, ErrDTypeMismatch,
// ErrDidNotFlatten, ...) checkable with errors.Is. Fatal construction
// errors leave the builder in an undefined state; discard it and start
// over.
//
// # Thread Safety
//
// A BloqBuilder is NOT safe for concurrent use; build each graph on a
// single goroutine. A finished CompositeBloq is immutable and safe to share.
package qgraph
