package qgraph

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"golang.org/x/exp/maps"
)

// BloqBuilder incrementally constructs a CompositeBloq.
//
// The builder is the linear-resource checkpoint: every soquet it mints goes
// into an available set, and every port-consuming operation removes from
// that set, failing if the soquet was never produced here or was already
// consumed. Finalize fails if anything is left over.
//
// A builder is a single construction session. It is NOT safe for concurrent
// use, and once an error has been returned or Finalize has succeeded it
// must be discarded; internal state may have been partially mutated before
// a failing check.
type BloqBuilder struct {
	log logr.Logger

	cxns      []Connection
	regs      []Register
	nodes     map[NodeID]Bloq
	next      NodeID
	available map[string]Soquet

	allowRegisters bool
	finalized      bool
}

// BuilderOption configures a BloqBuilder.
type BuilderOption func(*BloqBuilder)

// WithLogr sets the logger used to trace construction at V(1).
func WithLogr(log logr.Logger) BuilderOption {
	return func(bb *BloqBuilder) {
		bb.log = log
	}
}

// NewBloqBuilder returns an empty builder with register declaration open.
func NewBloqBuilder(opts ...BuilderOption) *BloqBuilder {
	bb := &BloqBuilder{
		log:            logr.Discard(),
		nodes:          make(map[NodeID]Bloq),
		available:      make(map[string]Soquet),
		allowRegisters: true,
	}
	for _, opt := range opts {
		opt(bb)
	}
	return bb
}

// FromSignature returns a builder pre-seeded with a fixed signature and the
// left-boundary soquets for its left registers. Register declaration is
// closed on the returned builder, so schema drift relative to sig fails
// fast. This is the constructor used when decomposing an existing bloq.
func FromSignature(sig Signature, opts ...BuilderOption) (*BloqBuilder, SoqDict, error) {
	bb := NewBloqBuilder(opts...)
	initial := make(SoqDict)
	for _, reg := range sig.Registers() {
		soqs, err := bb.addRegister(reg)
		if err != nil {
			return nil, nil, err
		}
		if reg.Side&SideLeft != 0 {
			initial[reg.Name] = soqs
		}
	}
	bb.allowRegisters = false
	return bb, initial, nil
}

// AddRegister declares a new register of the graph under construction. For
// left and pass-through registers it mints the left-boundary soquets, adds
// them to the available set, and returns them; for right-only registers it
// returns an empty collection.
func (bb *BloqBuilder) AddRegister(reg Register) (Soquets, error) {
	if bb.finalized {
		return Soquets{}, ErrBuilderFinalized
	}
	if !bb.allowRegisters {
		return Soquets{}, fmt.Errorf("%w: this builder was constructed from a fixed signature", ErrRegistersClosed)
	}
	return bb.addRegister(reg)
}

func (bb *BloqBuilder) addRegister(reg Register) (Soquets, error) {
	if reg.IsSymbolic() {
		return Soquets{}, fmt.Errorf("%w: register %q has shape %v", ErrSymbolicShape, reg.Name, reg.Shape)
	}
	for _, existing := range bb.regs {
		if existing.Name == reg.Name && existing.Side&reg.Side != 0 {
			return Soquets{}, fmt.Errorf("%w: %q", ErrDuplicateRegister, reg.Name)
		}
	}
	bb.regs = append(bb.regs, reg)
	if reg.Side&SideLeft != 0 {
		return regToSoqs(LeftDangleID, reg, bb.available), nil
	}
	return Soquets{}, nil
}

func (bb *BloqBuilder) newNodeID() NodeID {
	id := bb.next
	bb.next++
	return id
}

// seedNodeID raises the node-ID counter so that freshly minted IDs start at
// or above floor. Used by FlattenOnce to keep preserved IDs collision-free.
func (bb *BloqBuilder) seedNodeID(floor NodeID) {
	if floor > bb.next {
		bb.next = floor
	}
}

// addCxn consumes soq from the available set and records a connection from
// it to (node, reg, idx).
func (bb *BloqBuilder) addCxn(node NodeID, subject string, soq Soquet, reg Register, idx []int) error {
	key := soq.Key()
	if _, ok := bb.available[key]; !ok {
		return fmt.Errorf("%w: %s is not an available soquet for %s.%s",
			ErrSoquetUnavailable, soq, subject, reg.Name)
	}
	delete(bb.available, key)
	bb.cxns = append(bb.cxns, Connection{Left: soq, Right: Soquet{Node: node, Reg: reg, Idx: idx}})
	return nil
}

// Add places a new node for bloq into the graph, consuming one available
// soquet per port of its left registers and minting fresh soquets for its
// right registers. The outputs are returned ordered by the bloq's right
// registers, irrespective of the order of ins.
func (bb *BloqBuilder) Add(bloq Bloq, ins SoqDict) ([]Soquets, error) {
	if bb.finalized {
		return nil, ErrBuilderFinalized
	}
	return bb.addBinst(BloqInstance{Bloq: bloq, I: bb.newNodeID()}, ins)
}

// AddD is like Add but returns the outputs keyed by right register name.
func (bb *BloqBuilder) AddD(bloq Bloq, ins SoqDict) (SoqDict, error) {
	outs, err := bb.Add(bloq, ins)
	if err != nil {
		return nil, err
	}
	rights := bloq.Signature().Rights()
	d := make(SoqDict, len(outs))
	for i, reg := range rights {
		d[reg.Name] = outs[i]
	}
	return d, nil
}

// AddOne is the unwrapped convenience form of Add for bloqs with exactly
// one scalar output register.
func (bb *BloqBuilder) AddOne(bloq Bloq, ins SoqDict) (Soquet, error) {
	outs, err := bb.Add(bloq, ins)
	if err != nil {
		return Soquet{}, err
	}
	if len(outs) != 1 || !outs[0].IsScalar() {
		return Soquet{}, fmt.Errorf("%w: %s does not have exactly one scalar output register",
			ErrShapeMismatch, bloqName(bloq))
	}
	return outs[0].One(), nil
}

// MustAdd is like Add but panics on error.
func (bb *BloqBuilder) MustAdd(bloq Bloq, ins SoqDict) []Soquets {
	outs, err := bb.Add(bloq, ins)
	must(err)
	return outs
}

// MustAddOne is like AddOne but panics on error.
func (bb *BloqBuilder) MustAddOne(bloq Bloq, ins SoqDict) Soquet {
	out, err := bb.AddOne(bloq, ins)
	must(err)
	return out
}

// addBinst wires a specific instance into the graph. The instance's ID must
// not collide with any node already placed; Add mints fresh IDs, while
// FlattenOnce passes preserved instances through here directly.
func (bb *BloqBuilder) addBinst(binst BloqInstance, ins SoqDict) ([]Soquets, error) {
	if _, exists := bb.nodes[binst.I]; exists {
		return nil, fmt.Errorf("%w: %d", ErrNodeExists, int(binst.I))
	}
	if binst.I >= bb.next {
		bb.next = binst.I + 1
	}
	bb.nodes[binst.I] = binst.Bloq

	sig := binst.Bloq.Signature()
	subject := binst.String()
	err := processSoquets(sig.Lefts(), ins, subject, func(soq Soquet, reg Register, idx []int) error {
		return bb.addCxn(binst.I, subject, soq, reg, idx)
	})
	if err != nil {
		return nil, err
	}

	rights := sig.Rights()
	outs := make([]Soquets, 0, len(rights))
	for _, reg := range rights {
		outs = append(outs, regToSoqs(binst.I, reg, bb.available))
	}
	bb.log.V(1).Info("added bloq instance", "bloq", bloqName(binst.Bloq), "id", int(binst.I))
	return outs, nil
}

// AddFrom splices the contents of bloq into the graph under construction:
// its left-boundary soquets are bound to ins, its nodes are replayed
// through Add, and the remapped final outputs are returned ordered by its
// right registers. If bloq is not already a *CompositeBloq it is decomposed
// first; decomposition failures surface before any state is mutated.
func (bb *BloqBuilder) AddFrom(bloq Bloq, ins SoqDict) ([]Soquets, error) {
	cb, ok := bloq.(*CompositeBloq)
	if !ok {
		var err error
		cb, err = DecomposeBloq(bloq)
		if err != nil {
			return nil, err
		}
	}

	sm := NewSoqMap()
	lefts := cb.Signature().Lefts()
	supplied := make(map[string]struct{}, len(ins))
	for name := range ins {
		supplied[name] = struct{}{}
	}
	for _, reg := range lefts {
		in, ok := ins[reg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: AddFrom(%s) requires a soquet named %q",
				ErrMissingInput, bloqName(bloq), reg.Name)
		}
		delete(supplied, reg.Name)
		if err := sm.Extend(regToSoqs(LeftDangleID, reg, nil), in); err != nil {
			return nil, err
		}
	}
	if len(supplied) > 0 {
		names := maps.Keys(supplied)
		slices.Sort(names)
		return nil, fmt.Errorf("%w: AddFrom(%s) does not accept soquets named %v",
			ErrUnknownRegister, bloqName(bloq), names)
	}

	for _, bs := range cb.BloqSoquets() {
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

	final := sm.ApplyDict(cb.FinalSoqs())
	rights := cb.Signature().Rights()
	outs := make([]Soquets, 0, len(rights))
	for _, reg := range rights {
		outs = append(outs, final[reg.Name])
	}
	return outs, nil
}

// DecomposeBloq expands bloq into a CompositeBloq by driving its
// BuildComposite through a fresh builder seeded with the bloq's own
// signature. Bloqs that are not Decomposable fail with
// ErrDecomposeNotImplemented; signatures that cannot be instantiated (e.g.
// symbolic shapes) fail with ErrDecomposeUnsupported.
func DecomposeBloq(bloq Bloq) (*CompositeBloq, error) {
	d, ok := bloq.(Decomposable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDecomposeNotImplemented, bloqName(bloq))
	}
	bb, initial, err := FromSignature(bloq.Signature())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecomposeUnsupported, bloqName(bloq), err)
	}
	final, err := d.BuildComposite(bb, initial)
	if err != nil {
		return nil, err
	}
	return bb.Finalize(final)
}

// Finalize consumes the supplied soquets into the right boundary and
// returns the finished immutable CompositeBloq. If register declaration is
// still open, right registers are inferred for names not declared yet;
// otherwise the supplied names are validated strictly against the declared
// signature. Finalize fails if any minted soquet was never consumed.
func (bb *BloqBuilder) Finalize(outs SoqDict) (*CompositeBloq, error) {
	if bb.finalized {
		return nil, ErrBuilderFinalized
	}
	if bb.allowRegisters {
		if err := bb.inferRightRegisters(outs); err != nil {
			return nil, err
		}
	}
	sig, err := NewSignature(bb.regs)
	if err != nil {
		return nil, err
	}
	err = processSoquets(sig.Rights(), outs, "finalize", func(soq Soquet, reg Register, idx []int) error {
		return bb.addCxn(RightDangleID, "finalize", soq, reg, idx)
	})
	if err != nil {
		return nil, err
	}
	if len(bb.available) > 0 {
		leaked := make([]string, 0, len(bb.available))
		for _, soq := range maps.Values(bb.available) {
			leaked = append(leaked, soq.String())
		}
		slices.Sort(leaked)
		return nil, fmt.Errorf("%w: %v", ErrUnconsumedSoquets, leaked)
	}
	bb.finalized = true
	cb := newCompositeBloq(bb.cxns, sig, bb.nodes)
	bb.log.V(1).Info("finalized composite bloq", "nodes", len(bb.nodes), "connections", len(bb.cxns))
	return cb, nil
}

// MustFinalize is like Finalize but panics on error.
func (bb *BloqBuilder) MustFinalize(outs SoqDict) *CompositeBloq {
	cb, err := bb.Finalize(outs)
	must(err)
	return cb
}

// inferRightRegisters declares a right register for every finalize argument
// that names no declared right register. Names are processed in sorted
// order so construction stays deterministic.
func (bb *BloqBuilder) inferRightRegisters(outs SoqDict) error {
	declared := make(map[string]struct{})
	for _, reg := range bb.regs {
		if reg.Side&SideRight != 0 {
			declared[reg.Name] = struct{}{}
		}
	}
	names := maps.Keys(outs)
	slices.Sort(names)
	for _, name := range names {
		if _, ok := declared[name]; ok {
			continue
		}
		soqs := outs[name]
		if soqs.Len() == 0 {
			return fmt.Errorf("%w: cannot infer a register for empty %q", ErrShapeMismatch, name)
		}
		reg := Register{
			Name:  name,
			Dtype: soqs.Flat()[0].Reg.Dtype,
			Shape: slices.Clone(soqs.Shape()),
			Side:  SideRight,
		}
		if _, err := bb.addRegister(reg); err != nil {
			return err
		}
	}
	return nil
}

// Allocate mints a fresh soquet of the given dtype, backed by an Allocate
// bookkeeping node. Like all conveniences this goes through Add, keeping
// the linear-use invariant uniform.
func (bb *BloqBuilder) Allocate(dtype DType) (Soquet, error) {
	return bb.AddOne(Allocate{Dtype: dtype}, nil)
}

// Free discards a soquet, consuming it into a Free bookkeeping node.
func (bb *BloqBuilder) Free(soq Soquet) error {
	_, err := bb.Add(Free{Dtype: soq.Reg.Dtype}, SoqDict{"reg": Scalar(soq)})
	return err
}

// Split fans a multi-bit soquet out into unit ports, one Bit soquet per bit
// of its dtype.
func (bb *BloqBuilder) Split(soq Soquet) (Soquets, error) {
	outs, err := bb.Add(Split{Dtype: soq.Reg.Dtype}, SoqDict{"reg": Scalar(soq)})
	if err != nil {
		return Soquets{}, err
	}
	return outs[0], nil
}

// Join fans unit ports back into one soquet of the given dtype, which must
// be as wide as soqs has elements. Passing a nil dtype joins into
// Any(len).
func (bb *BloqBuilder) Join(soqs Soquets, dtype DType) (Soquet, error) {
	if len(soqs.Shape()) != 1 {
		return Soquet{}, fmt.Errorf("%w: Join expects a rank-1 collection, got shape %v",
			ErrShapeMismatch, soqs.Shape())
	}
	if dtype == nil {
		dtype = Any{Bits: soqs.Len()}
	}
	return bb.AddOne(Join{Dtype: dtype}, SoqDict{"reg": soqs})
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
