package qgraph

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// allIdxs enumerates every multi-index of shape in row-major order. A nil or
// empty shape yields a single empty index (the scalar case); a shape with a
// zero dimension yields none.
func allIdxs(shape []int) [][]int {
	if len(shape) == 0 {
		return [][]int{nil}
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n == 0 {
		return nil
	}
	out := make([][]int, 0, n)
	idx := make([]int, len(shape))
	for {
		out = append(out, slices.Clone(idx))
		d := len(shape) - 1
		for d >= 0 {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			d--
		}
		if d < 0 {
			return out
		}
	}
}

// regToSoqs mints the soquets of reg owned by node. If avail is non-nil,
// every minted soquet is recorded in it; this is the builder's bookkeeping
// hook for linear-use tracking.
func regToSoqs(node NodeID, reg Register, avail map[string]Soquet) Soquets {
	if reg.IsScalar() {
		soq := Soquet{Node: node, Reg: reg}
		if avail != nil {
			avail[soq.Key()] = soq
		}
		return Scalar(soq)
	}
	idxs := allIdxs(reg.Shape)
	flat := make([]Soquet, 0, len(idxs))
	for _, idx := range idxs {
		soq := Soquet{Node: node, Reg: reg, Idx: idx}
		if avail != nil {
			avail[soq.Key()] = soq
		}
		flat = append(flat, soq)
	}
	return Soquets{shape: slices.Clone(reg.Shape), flat: flat}
}

// cxnsToSoqDict resolves a register-name-keyed soquet dictionary from a list
// of connections. getMe selects the side of each connection whose register
// names the dictionary key; getAssign selects the soquet stored as the
// value. For predecessor connections of a node this is (Right, Left): keyed
// by the node's own input register, valued with the soquet feeding it.
func cxnsToSoqDict(regs []Register, cxns []Connection, getMe, getAssign func(Connection) Soquet) SoqDict {
	out := make(SoqDict, len(regs))
	flats := make(map[string][]Soquet, len(regs))
	for _, reg := range regs {
		if !reg.IsScalar() {
			flats[reg.Name] = make([]Soquet, reg.NumPorts())
		}
	}
	for _, cxn := range cxns {
		me := getMe(cxn)
		assign := getAssign(cxn)
		if flat, ok := flats[me.Reg.Name]; ok {
			flat[flatOffset(me.Reg.Shape, me.Idx)] = assign
		} else {
			out[me.Reg.Name] = Scalar(assign)
		}
	}
	for _, reg := range regs {
		if flat, ok := flats[reg.Name]; ok {
			out[reg.Name] = Soquets{shape: slices.Clone(reg.Shape), flat: flat}
		}
	}
	return out
}

// SoqMap tracks the correspondence between the soquets of an existing graph
// and the soquets minted while replaying it through a builder. It is the
// remapping table behind Copy, FlattenOnce, Adjoint and AddFrom.
type SoqMap struct {
	m map[string]Soquet
}

// NewSoqMap returns an empty remapping table.
func NewSoqMap() *SoqMap {
	return &SoqMap{m: make(map[string]Soquet)}
}

// Extend records that every soquet of old now corresponds to the soquet of
// next at the same position.
func (s *SoqMap) Extend(old, next Soquets) error {
	if !slices.Equal(old.shape, next.shape) || old.Len() != next.Len() {
		return fmt.Errorf("%w: mapping %v onto %v", ErrShapeMismatch, old.shape, next.shape)
	}
	for i, o := range old.flat {
		s.m[o.Key()] = next.flat[i]
	}
	return nil
}

// Apply maps each soquet through the table; unmapped soquets pass through
// unchanged.
func (s *SoqMap) Apply(soqs Soquets) Soquets {
	flat := make([]Soquet, len(soqs.flat))
	for i, soq := range soqs.flat {
		if mapped, ok := s.m[soq.Key()]; ok {
			flat[i] = mapped
		} else {
			flat[i] = soq
		}
	}
	return Soquets{shape: soqs.shape, flat: flat}
}

// ApplyDict maps every collection in the dictionary through the table.
func (s *SoqMap) ApplyDict(d SoqDict) SoqDict {
	out := make(SoqDict, len(d))
	for name, soqs := range d {
		out[name] = s.Apply(soqs)
	}
	return out
}

// processSoquets validates ins against regs and invokes fn once per indexed
// soquet, in register order. It checks for missing names, shape mismatches,
// inconsistent dtypes and surplus names; subject identifies the operation in
// error messages.
func processSoquets(regs []Register, ins SoqDict, subject string, fn func(soq Soquet, reg Register, idx []int) error) error {
	unchecked := make(map[string]struct{}, len(ins))
	for name := range ins {
		unchecked[name] = struct{}{}
	}
	for _, reg := range regs {
		soqs, ok := ins[reg.Name]
		if !ok {
			return fmt.Errorf("%w: %s requires a soquet named %q", ErrMissingInput, subject, reg.Name)
		}
		delete(unchecked, reg.Name)

		if !slices.Equal(soqs.shape, reg.Shape) || soqs.Len() != reg.NumPorts() {
			return fmt.Errorf("%w: %s register %q has shape %v, got %v",
				ErrShapeMismatch, subject, reg.Name, reg.Shape, soqs.shape)
		}
		for _, idx := range reg.AllIdxs() {
			var soq Soquet
			if reg.IsScalar() {
				soq = soqs.One()
			} else {
				soq = soqs.At(idx...)
			}
			if err := fn(soq, reg, idx); err != nil {
				return err
			}
			if !DTypesConsistent(soq.Reg.Dtype, reg.Dtype) {
				return fmt.Errorf("%w: %s: %s is %s but register %q wants %s",
					ErrDTypeMismatch, subject, soq.Pretty(), soq.Reg.Dtype, reg.Name, reg.Dtype)
			}
		}
	}
	if len(unchecked) > 0 {
		names := maps.Keys(unchecked)
		slices.Sort(names)
		return fmt.Errorf("%w: %s does not accept soquets named %v", ErrUnknownRegister, subject, names)
	}
	return nil
}
