package qgraph

import (
	"fmt"
	"slices"
)

// Side records on which side(s) of an operation a register appears.
type Side uint8

const (
	// SideLeft registers are inputs only; the operation consumes them.
	SideLeft Side = 1 << iota
	// SideRight registers are outputs only; the operation produces them.
	SideRight
	// SideThru registers pass through: consumed on the left, re-produced
	// on the right.
	SideThru = SideLeft | SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	case SideThru:
		return "Thru"
	default:
		return "Unknown"
	}
}

// DimSymbolic marks a shape dimension that is not yet resolved to a concrete
// size. Registers with symbolic dimensions cannot be instantiated; a bloq
// whose signature contains one cannot be decomposed.
const DimSymbolic = -1

// Register is one named, typed port group in a signature. It is a value
// type; do not mutate Shape after construction.
type Register struct {
	Name  string
	Dtype DType
	// Shape is the multiplicity of the register. Empty means a single
	// scalar port; otherwise the register is an array of ports indexed
	// row-major over Shape.
	Shape []int
	Side  Side
}

// NewRegister returns a scalar pass-through register, the common case.
func NewRegister(name string, dtype DType) Register {
	return Register{Name: name, Dtype: dtype, Side: SideThru}
}

// IsScalar reports whether the register holds exactly one unindexed port.
func (r Register) IsScalar() bool { return len(r.Shape) == 0 }

// IsSymbolic reports whether any shape dimension is unresolved.
func (r Register) IsSymbolic() bool {
	for _, d := range r.Shape {
		if d < 0 {
			return true
		}
	}
	return false
}

// NumPorts returns the number of individual ports of this register: the
// product of the shape dimensions, or 1 for a scalar register.
func (r Register) NumPorts() int {
	n := 1
	for _, d := range r.Shape {
		n *= d
	}
	return n
}

// TotalBits returns the summed width of all ports of this register.
func (r Register) TotalBits() int { return r.Dtype.NumBits() * r.NumPorts() }

// AllIdxs returns every multi-index valid within Shape, in row-major order.
// For a scalar register it returns a single empty index.
func (r Register) AllIdxs() [][]int { return allIdxs(r.Shape) }

// Adjoint returns the register with its side flipped. Pass-through
// registers are self-adjoint.
func (r Register) Adjoint() Register {
	out := r
	switch r.Side {
	case SideLeft:
		out.Side = SideRight
	case SideRight:
		out.Side = SideLeft
	}
	return out
}

func (r Register) String() string {
	if r.IsScalar() {
		return fmt.Sprintf("%s: %s (%s)", r.Name, r.Dtype, r.Side)
	}
	return fmt.Sprintf("%s: %s%v (%s)", r.Name, r.Dtype, r.Shape, r.Side)
}

// Signature is the ordered port schema of an operation or graph. Names are
// unique per side: a left-only and a right-only register may share a name
// (as Split and Join do), but no two registers visible on the same side may.
type Signature struct {
	regs []Register
}

// NewSignature validates the registers and returns a Signature over them.
func NewSignature(regs []Register) (Signature, error) {
	seenLeft := make(map[string]struct{}, len(regs))
	seenRight := make(map[string]struct{}, len(regs))
	for _, reg := range regs {
		if reg.Name == "" {
			return Signature{}, fmt.Errorf("%w: register name cannot be empty", ErrDuplicateRegister)
		}
		if reg.Side&SideLeft != 0 {
			if _, ok := seenLeft[reg.Name]; ok {
				return Signature{}, fmt.Errorf("%w: %q appears twice on the left", ErrDuplicateRegister, reg.Name)
			}
			seenLeft[reg.Name] = struct{}{}
		}
		if reg.Side&SideRight != 0 {
			if _, ok := seenRight[reg.Name]; ok {
				return Signature{}, fmt.Errorf("%w: %q appears twice on the right", ErrDuplicateRegister, reg.Name)
			}
			seenRight[reg.Name] = struct{}{}
		}
	}
	return Signature{regs: slices.Clone(regs)}, nil
}

// MustSignature is like NewSignature but panics on error. Intended for
// signatures assembled from literals in Bloq implementations.
func MustSignature(regs ...Register) Signature {
	sig, err := NewSignature(regs)
	if err != nil {
		panic(err)
	}
	return sig
}

// Registers returns the ordered registers. Callers must not mutate the
// returned slice.
func (s Signature) Registers() []Register { return s.regs }

// Len returns the number of registers.
func (s Signature) Len() int { return len(s.regs) }

// Lefts returns the registers consumed by the operation, in order.
func (s Signature) Lefts() []Register {
	out := make([]Register, 0, len(s.regs))
	for _, reg := range s.regs {
		if reg.Side&SideLeft != 0 {
			out = append(out, reg)
		}
	}
	return out
}

// Rights returns the registers produced by the operation, in order.
func (s Signature) Rights() []Register {
	out := make([]Register, 0, len(s.regs))
	for _, reg := range s.regs {
		if reg.Side&SideRight != 0 {
			out = append(out, reg)
		}
	}
	return out
}

// NBits returns the port width of the signature: the larger of the total
// left width and total right width, so asymmetric (allocating or freeing)
// signatures are not double-counted.
func (s Signature) NBits() int {
	var left, right int
	for _, reg := range s.regs {
		if reg.Side&SideLeft != 0 {
			left += reg.TotalBits()
		}
		if reg.Side&SideRight != 0 {
			right += reg.TotalBits()
		}
	}
	return max(left, right)
}

// Adjoint returns the signature with every register's side flipped.
func (s Signature) Adjoint() Signature {
	regs := make([]Register, len(s.regs))
	for i, reg := range s.regs {
		regs[i] = reg.Adjoint()
	}
	return Signature{regs: regs}
}
