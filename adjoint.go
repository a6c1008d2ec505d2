package qgraph

import "fmt"

// adjointOf resolves the adjoint of a single bloq. Composite bloqs reverse
// themselves; leaf bloqs must implement Adjointable.
func adjointOf(bloq Bloq) (Bloq, error) {
	if cb, ok := bloq.(*CompositeBloq); ok {
		return cb.Adjoint()
	}
	if a, ok := bloq.(Adjointable); ok {
		return a.Adjoint()
	}
	return nil, fmt.Errorf("%w: %s", ErrAdjointUnsupported, bloqName(bloq))
}

// Adjoint returns the structural reverse of the graph: connections are
// reversed, the boundary roles are swapped (with register sides flipped
// accordingly), and every node's bloq is replaced by its own adjoint. Every
// contained bloq must supply an adjoint; the first one that cannot fails
// the transform with ErrAdjointUnsupported naming the node.
//
// This mirrors Copy, run backwards: the builder starts from the adjoint
// signature, the nodes are replayed in reverse topological order with their
// successor connections acting as inputs, and the left boundary's
// successors become the final outputs.
func (c *CompositeBloq) Adjoint() (*CompositeBloq, error) {
	newSig := c.sig.Adjoint()
	bb, _, err := FromSignature(newSig)
	if err != nil {
		return nil, err
	}

	// The old right-boundary soquets become the new graph's initial
	// (left-boundary) soquets.
	sm := NewSoqMap()
	oldRights := c.sig.Rights()
	newLefts := newSig.Lefts()
	for i, reg := range oldRights {
		oldSoqs := regToSoqs(RightDangleID, reg, nil)
		newSoqs := regToSoqs(LeftDangleID, newLefts[i], nil)
		if err := sm.Extend(oldSoqs, newSoqs); err != nil {
			return nil, err
		}
	}

	bns := c.Bloqnections()
	for i := len(bns) - 1; i >= 0; i-- {
		bn := bns[i]
		sig := bn.Binst.Bloq.Signature()

		// Walking backwards, the node's outputs are fed by its
		// successor connections.
		ins := cxnsToSoqDict(sig.Rights(), bn.Succs,
			func(cxn Connection) Soquet { return cxn.Left },
			func(cxn Connection) Soquet { return cxn.Right },
		)
		ins = sm.ApplyDict(ins)

		adj, err := adjointOf(bn.Binst.Bloq)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bn.Binst, err)
		}
		outs, err := bb.Add(adj, ins)
		if err != nil {
			return nil, err
		}

		lefts := sig.Lefts()
		for j, reg := range lefts {
			oldOut := regToSoqs(bn.Binst.I, reg, nil)
			if err := sm.Extend(oldOut, outs[j]); err != nil {
				return nil, err
			}
		}
	}

	// Finalize with the old left boundary's successors instead of the
	// right boundary's predecessors.
	g := c.instGraphCached()
	initSuccs := g.succCxns(LeftDangleID)
	final := cxnsToSoqDict(newSig.Rights(), initSuccs,
		func(cxn Connection) Soquet { return cxn.Left },
		func(cxn Connection) Soquet { return cxn.Right },
	)
	return bb.Finalize(sm.ApplyDict(final))
}
