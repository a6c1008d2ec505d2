package qgraph

import (
	"errors"
	"fmt"
)

// FlattenOnce rebuilds the graph with every node matching pred replaced by
// the inlined contents of its decomposition. A nil pred matches every node.
//
// Nodes that do not match, or whose bloq declines to decompose, are
// preserved verbatim with their original IDs; fresh IDs are only minted for
// inlined content, starting above the current maximum so preserved IDs
// cannot collide. Results are not flattened recursively; see Flatten.
//
// Returns ErrDidNotFlatten if the graph is empty or no node both matched
// pred and produced a decomposition; callers use this to detect a fixed
// point.
func (c *CompositeBloq) FlattenOnce(pred func(BloqInstance) bool) (*CompositeBloq, error) {
	if pred == nil {
		pred = func(BloqInstance) bool { return true }
	}
	if len(c.nodes) == 0 {
		return nil, ErrDidNotFlatten
	}

	bb, _, err := FromSignature(c.sig)
	if err != nil {
		return nil, err
	}
	maxID := NodeID(-1)
	for id := range c.nodes {
		if id > maxID {
			maxID = id
		}
	}
	bb.seedNodeID(maxID + 1)

	sm := NewSoqMap()
	didWork := false
	for _, bs := range c.BloqSoquets() {
		ins := sm.ApplyDict(bs.InSoqs)
		var outs []Soquets
		if pred(bs.Binst) {
			outs, err = bb.AddFrom(bs.Binst.Bloq, ins)
			switch {
			case err == nil:
				didWork = true
			case errors.Is(err, ErrDecomposeNotImplemented) || errors.Is(err, ErrDecomposeUnsupported):
				// AddFrom fails before mutating the builder in
				// these cases, so the node can be kept as-is.
				outs, err = bb.addBinst(bs.Binst, ins)
			}
		} else {
			outs, err = bb.addBinst(bs.Binst, ins)
		}
		if err != nil {
			return nil, err
		}
		for i, out := range outs {
			if err := sm.Extend(bs.OutSoqs[i], out); err != nil {
				return nil, err
			}
		}
	}
	if !didWork {
		return nil, ErrDidNotFlatten
	}
	return bb.Finalize(sm.ApplyDict(c.FinalSoqs()))
}

// Flatten repeatedly applies FlattenOnce until nothing is left to flatten,
// returning the fixed point. If maxDepth passes complete without reaching
// one, Flatten fails with ErrMaxDepthExceeded: some decomposition chain is
// most likely cyclic or unbounded.
func (c *CompositeBloq) Flatten(pred func(BloqInstance) bool, maxDepth int) (*CompositeBloq, error) {
	cur := c
	for i := 0; i < maxDepth; i++ {
		next, err := cur.FlattenOnce(pred)
		if errors.Is(err, ErrDidNotFlatten) {
			return cur, nil
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return nil, fmt.Errorf("%w: no fixed point after %d passes", ErrMaxDepthExceeded, maxDepth)
}
