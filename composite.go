package qgraph

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// CompositeBloq is an immutable snapshot of a finished dataflow graph: the
// connection set, the external signature, and the node arena. It is created
// by BloqBuilder.Finalize or by the Copy/FlattenOnce/Adjoint transforms and
// must never be mutated afterward.
//
// A CompositeBloq is itself a Bloq, so a finished graph can be placed as a
// node inside another graph.
type CompositeBloq struct {
	cxns  []Connection
	sig   Signature
	nodes map[NodeID]Bloq

	// Derived instance graph, built once on first use. Read-only from
	// then on; callers needing a private copy must duplicate it.
	graph *instGraph
}

func newCompositeBloq(cxns []Connection, sig Signature, nodes map[NodeID]Bloq) *CompositeBloq {
	return &CompositeBloq{cxns: cxns, sig: sig, nodes: nodes}
}

// Signature returns the graph's external port schema.
func (c *CompositeBloq) Signature() Signature { return c.sig }

// Connections returns the full connection set. Callers must not mutate the
// returned slice.
func (c *CompositeBloq) Connections() []Connection { return c.cxns }

// BloqInstances returns the graph's nodes in ascending ID order.
func (c *CompositeBloq) BloqInstances() []BloqInstance {
	ids := sortedNodeIDs(c.nodes)
	out := make([]BloqInstance, 0, len(ids))
	for _, id := range ids {
		out = append(out, BloqInstance{Bloq: c.nodes[id], I: id})
	}
	return out
}

// Len returns the number of nodes, excluding the boundary sentinels.
func (c *CompositeBloq) Len() int { return len(c.nodes) }

func (c *CompositeBloq) String() string {
	return fmt.Sprintf("CompositeBloq([%d subbloqs])", len(c.nodes))
}

func sortedNodeIDs(nodes map[NodeID]Bloq) []NodeID {
	ids := make([]NodeID, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// instGraph is the derived adjacency view of a CompositeBloq: nodes
// (including the boundary sentinels) with, per ordered node pair, the list
// of connections crossing it in insertion order.
type instGraph struct {
	nodes []NodeID
	preds map[NodeID][]NodeID
	succs map[NodeID][]NodeID
	edges map[[2]NodeID][]Connection
}

func newInstGraph(cxns []Connection, nodes map[NodeID]Bloq) *instGraph {
	g := &instGraph{
		preds: make(map[NodeID][]NodeID),
		succs: make(map[NodeID][]NodeID),
		edges: make(map[[2]NodeID][]Connection),
	}
	seen := make(map[NodeID]struct{}, len(nodes)+2)
	add := func(id NodeID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			g.nodes = append(g.nodes, id)
		}
	}
	for id := range nodes {
		add(id)
	}
	for _, cxn := range cxns {
		from, to := cxn.Left.Node, cxn.Right.Node
		add(from)
		add(to)
		pair := [2]NodeID{from, to}
		if _, ok := g.edges[pair]; !ok {
			g.succs[from] = append(g.succs[from], to)
			g.preds[to] = append(g.preds[to], from)
		}
		g.edges[pair] = append(g.edges[pair], cxn)
	}
	slices.SortFunc(g.nodes, compareNode)
	for _, id := range g.nodes {
		slices.SortFunc(g.preds[id], compareNode)
		slices.SortFunc(g.succs[id], compareNode)
	}
	return g
}

// predCxns returns the incoming connections of id: neighbors in
// deterministic order, connections within a neighbor pair in insertion
// order.
func (g *instGraph) predCxns(id NodeID) []Connection {
	var out []Connection
	for _, p := range g.preds[id] {
		out = append(out, g.edges[[2]NodeID{p, id}]...)
	}
	return out
}

func (g *instGraph) succCxns(id NodeID) []Connection {
	var out []Connection
	for _, s := range g.succs[id] {
		out = append(out, g.edges[[2]NodeID{id, s}]...)
	}
	return out
}

// insertByNode inserts id into a slice kept sorted by compareNode.
func insertByNode(ids []NodeID, id NodeID) []NodeID {
	at := sort.Search(len(ids), func(i int) bool {
		return compareNode(ids[i], id) >= 0
	})
	return slices.Insert(ids, at, id)
}

// kahn returns a topological order over all nodes including the boundary
// sentinels. Ties are broken by compareNode, which makes the order a stable
// contract, not an implementation accident. ok is false if a cycle kept
// some nodes unordered.
func (g *instGraph) kahn() (order []NodeID, ok bool) {
	indeg := make(map[NodeID]int, len(g.nodes))
	var ready []NodeID
	for _, id := range g.nodes {
		indeg[id] = len(g.preds[id])
		if indeg[id] == 0 {
			ready = insertByNode(ready, id)
		}
	}
	order = make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, s := range g.succs[id] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = insertByNode(ready, s)
			}
		}
	}
	return order, len(order) == len(g.nodes)
}

// generations groups nodes into topological generations: the first holds
// every node with no predecessors, the next every node whose predecessors
// all sit in prior generations, and so on.
func (g *instGraph) generations() [][]NodeID {
	indeg := make(map[NodeID]int, len(g.nodes))
	var ready []NodeID
	for _, id := range g.nodes {
		indeg[id] = len(g.preds[id])
		if indeg[id] == 0 {
			ready = insertByNode(ready, id)
		}
	}
	var gens [][]NodeID
	for len(ready) > 0 {
		gen := ready
		ready = nil
		for _, id := range gen {
			for _, s := range g.succs[id] {
				indeg[s]--
				if indeg[s] == 0 {
					ready = insertByNode(ready, s)
				}
			}
		}
		gens = append(gens, gen)
	}
	return gens
}

func (c *CompositeBloq) instGraphCached() *instGraph {
	if c.graph == nil {
		c.graph = newInstGraph(c.cxns, c.nodes)
	}
	return c.graph
}

// Bloqnection is one step of topological iteration: a node together with
// its ordered predecessor and successor connections. Connections to the
// boundary sentinels are included; every node-to-node connection appears
// twice across the iteration, once as a successor and once as a
// predecessor.
type Bloqnection struct {
	Binst BloqInstance
	Preds []Connection
	Succs []Connection
}

// Bloqnections iterates the graph's nodes in topological order, boundary
// sentinels excluded. Because a DAG admits many valid total orders, ties
// are broken by ascending node ID; iterating the same graph twice always
// yields the same sequence.
func (c *CompositeBloq) Bloqnections() []Bloqnection {
	g := c.instGraphCached()
	order, _ := g.kahn()
	out := make([]Bloqnection, 0, len(c.nodes))
	for _, id := range order {
		if id.IsDangling() {
			continue
		}
		out = append(out, Bloqnection{
			Binst: BloqInstance{Bloq: c.nodes[id], I: id},
			Preds: g.predCxns(id),
			Succs: g.succCxns(id),
		})
	}
	return out
}

// BloqSoquet is one step of soquet-resolved iteration: a node, the soquets
// feeding each of its input registers, and the node's own freshly
// identified output soquets ordered by its right registers.
type BloqSoquet struct {
	Binst   BloqInstance
	InSoqs  SoqDict
	OutSoqs []Soquets
}

// BloqSoquets iterates like Bloqnections but resolves per-node port
// dictionaries. This is the primitive behind every rewrite: replay each
// node through a fresh builder, remapping InSoqs through a SoqMap and
// extending the map with each node's OutSoqs.
func (c *CompositeBloq) BloqSoquets() []BloqSoquet {
	bns := c.Bloqnections()
	out := make([]BloqSoquet, 0, len(bns))
	for _, bn := range bns {
		sig := bn.Binst.Bloq.Signature()
		ins := cxnsToSoqDict(sig.Lefts(), bn.Preds,
			func(cxn Connection) Soquet { return cxn.Right },
			func(cxn Connection) Soquet { return cxn.Left },
		)
		rights := sig.Rights()
		outs := make([]Soquets, 0, len(rights))
		for _, reg := range rights {
			outs = append(outs, regToSoqs(bn.Binst.I, reg, nil))
		}
		out = append(out, BloqSoquet{Binst: bn.Binst, InSoqs: ins, OutSoqs: outs})
	}
	return out
}

// FinalSoqs resolves, for each right register of the signature, the
// soquet(s) feeding the right boundary: the graph's materialized outputs.
func (c *CompositeBloq) FinalSoqs() SoqDict {
	g := c.instGraphCached()
	preds := g.predCxns(RightDangleID)
	if len(preds) == 0 {
		return SoqDict{}
	}
	return cxnsToSoqDict(c.sig.Rights(), preds,
		func(cxn Connection) Soquet { return cxn.Right },
		func(cxn Connection) Soquet { return cxn.Left },
	)
}

// Copy rebuilds an equivalent graph through a fresh builder, renumbering
// node IDs sequentially from zero.
func (c *CompositeBloq) Copy() (*CompositeBloq, error) {
	bb, _, err := FromSignature(c.sig)
	if err != nil {
		return nil, err
	}
	sm := NewSoqMap()
	for _, bs := range c.BloqSoquets() {
		outs, err := bb.Add(bs.Binst.Bloq, sm.ApplyDict(bs.InSoqs))
		if err != nil {
			return nil, err
		}
		for i, out := range outs {
			if err := sm.Extend(bs.OutSoqs[i], out); err != nil {
				return nil, err
			}
		}
	}
	return bb.Finalize(sm.ApplyDict(c.FinalSoqs()))
}

// Validate checks the structural invariants of the graph: boundary
// completeness, single-producer/single-consumer linearity, per-connection
// dtype consistency, full wiring of every node's registers, and
// acyclicity. All violations are collected and returned together.
func (c *CompositeBloq) Validate() error {
	var err error

	producers := make(map[string]int, len(c.cxns))
	consumers := make(map[string]int, len(c.cxns))
	for _, cxn := range c.cxns {
		producers[cxn.Left.Key()]++
		consumers[cxn.Right.Key()]++
		if !DTypesConsistent(cxn.Left.Reg.Dtype, cxn.Right.Reg.Dtype) {
			err = multierr.Append(err, fmt.Errorf("%w: %s", ErrDTypeMismatch, cxn))
		}
	}
	for _, cxn := range c.cxns {
		if n := producers[cxn.Left.Key()]; n > 1 {
			err = multierr.Append(err, fmt.Errorf("soquet %s produced %d times", cxn.Left, n))
			producers[cxn.Left.Key()] = 1 // report once
		}
		if n := consumers[cxn.Right.Key()]; n > 1 {
			err = multierr.Append(err, fmt.Errorf("soquet %s consumed %d times", cxn.Right, n))
			consumers[cxn.Right.Key()] = 1
		}
	}

	for _, reg := range c.sig.Lefts() {
		for _, soq := range regToSoqs(LeftDangleID, reg, nil).Flat() {
			if producers[soq.Key()] != 1 {
				err = multierr.Append(err, fmt.Errorf("left boundary soquet %s has no connection", soq))
			}
		}
	}
	for _, reg := range c.sig.Rights() {
		for _, soq := range regToSoqs(RightDangleID, reg, nil).Flat() {
			if consumers[soq.Key()] != 1 {
				err = multierr.Append(err, fmt.Errorf("right boundary soquet %s has no connection", soq))
			}
		}
	}

	for _, binst := range c.BloqInstances() {
		sig := binst.Bloq.Signature()
		for _, reg := range sig.Lefts() {
			for _, soq := range regToSoqs(binst.I, reg, nil).Flat() {
				if consumers[soq.Key()] != 1 {
					err = multierr.Append(err, fmt.Errorf("input %s of %s is not wired", soq.Pretty(), binst))
				}
			}
		}
		for _, reg := range sig.Rights() {
			for _, soq := range regToSoqs(binst.I, reg, nil).Flat() {
				if producers[soq.Key()] != 1 {
					err = multierr.Append(err, fmt.Errorf("output %s of %s is not wired", soq.Pretty(), binst))
				}
			}
		}
	}

	if _, ok := c.instGraphCached().kahn(); !ok {
		err = multierr.Append(err, fmt.Errorf("graph contains a cycle"))
	}
	return err
}

const debugDelimiter = "--------------------"

func (c *CompositeBloq) nodeLabel(id NodeID) string {
	if id.IsDangling() {
		return id.String()
	}
	return BloqInstance{Bloq: c.nodes[id], I: id}.String()
}

// DebugText renders the graph as a deterministic, topologically grouped
// listing. Nodes are grouped by generation, generations separated by a
// dashed delimiter; each node is followed by its incoming and outgoing
// connections in iteration order.
func (c *CompositeBloq) DebugText() string {
	g := c.instGraphCached()
	var genTexts []string
	for _, gen := range g.generations() {
		var lines []string
		for _, id := range gen {
			if id.IsDangling() {
				continue
			}
			lines = append(lines, c.nodeLabel(id))
			for _, cxn := range g.predCxns(id) {
				lines = append(lines, fmt.Sprintf("  %s.%s -> %s",
					c.nodeLabel(cxn.Left.Node), cxn.Left.Pretty(), cxn.Right.Pretty()))
			}
			for _, cxn := range g.succCxns(id) {
				lines = append(lines, fmt.Sprintf("  %s -> %s.%s",
					cxn.Left.Pretty(), c.nodeLabel(cxn.Right.Node), cxn.Right.Pretty()))
			}
		}
		if len(lines) > 0 {
			genTexts = append(genTexts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(genTexts, "\n"+debugDelimiter+"\n")
}
