package qgraph

import (
	"fmt"
	"reflect"
	"strconv"
)

// NodeID identifies a node within one graph. Real nodes get small
// non-negative integers assigned monotonically by the builder; the two
// boundary sentinels use reserved negative IDs.
type NodeID int

const (
	// LeftDangleID is the sentinel node representing the graph's external
	// inputs.
	LeftDangleID NodeID = -1
	// RightDangleID is the sentinel node representing the graph's
	// external outputs.
	RightDangleID NodeID = -2
)

// IsDangling reports whether the ID refers to a boundary sentinel.
func (id NodeID) IsDangling() bool { return id < 0 }

func (id NodeID) String() string {
	switch id {
	case LeftDangleID:
		return "LeftDangle"
	case RightDangleID:
		return "RightDangle"
	default:
		return strconv.Itoa(int(id))
	}
}

// compareNode orders node IDs for deterministic traversal: the left
// boundary first, then real nodes in ascending (insertion) order, then the
// right boundary.
func compareNode(a, b NodeID) int {
	ra, rb := nodeRank(a), nodeRank(b)
	if ra != rb {
		return ra - rb
	}
	return int(a) - int(b)
}

func nodeRank(id NodeID) int {
	switch id {
	case LeftDangleID:
		return 0
	case RightDangleID:
		return 2
	default:
		return 1
	}
}

// Bloq is the contract an operation must satisfy to be placed in a graph.
// The core never interprets what a bloq computes; it only consults the port
// schema.
type Bloq interface {
	Signature() Signature
}

// Decomposable is the optional capability of a bloq to expand into a
// subgraph. BuildComposite receives a builder seeded with the bloq's left
// boundary soquets and must return final soquets for its right registers.
// Implementations that cannot decompose for their current operands should
// return an error wrapping ErrDecomposeUnsupported.
type Decomposable interface {
	BuildComposite(bb *BloqBuilder, soqs SoqDict) (SoqDict, error)
}

// Adjointable is the optional capability of a bloq to supply its inverse.
type Adjointable interface {
	Adjoint() (Bloq, error)
}

// BloqInstance is a bloq placed into a graph under a unique ID. Two
// instances of the same bloq are distinct nodes.
type BloqInstance struct {
	Bloq Bloq
	I    NodeID
}

func (b BloqInstance) String() string {
	return fmt.Sprintf("%s<%d>", bloqName(b.Bloq), int(b.I))
}

func bloqName(b Bloq) string {
	if s, ok := b.(fmt.Stringer); ok {
		return s.String()
	}
	t := reflect.TypeOf(b)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Soquet is one concrete port instance: a node (or boundary sentinel), one
// of its registers, and a multi-index within the register's shape (empty
// for scalar registers). A soquet is produced exactly once and consumed
// exactly once.
type Soquet struct {
	Node NodeID
	Reg  Register
	Idx  []int
}

// Key returns the canonical identity of the soquet, suitable as a map key.
// It includes the register's side so that one-sided registers sharing a
// name on the same node stay distinct.
func (s Soquet) Key() string {
	return fmt.Sprintf("%d/%s/%s/%s%v", int(s.Node), s.Reg.Name, s.Reg.Side, s.Reg.Dtype, s.Idx)
}

// Pretty returns the register name with the index, e.g. "q" or "q[1 0]".
func (s Soquet) Pretty() string {
	if len(s.Idx) > 0 {
		return fmt.Sprintf("%s%v", s.Reg.Name, s.Idx)
	}
	return s.Reg.Name
}

func (s Soquet) String() string {
	return fmt.Sprintf("%s.%s", s.Node, s.Pretty())
}

// Connection is a directed edge from a producing soquet to a consuming
// soquet.
type Connection struct {
	Left  Soquet // producer
	Right Soquet // consumer
}

func (c Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.Left, c.Right)
}

// Soquets holds one register's worth of soquets: a single scalar soquet or
// a shaped, row-major collection. The zero value is empty, as returned when
// declaring a right-only register.
type Soquets struct {
	shape []int
	flat  []Soquet
}

// Scalar wraps a single soquet.
func Scalar(s Soquet) Soquets {
	return Soquets{flat: []Soquet{s}}
}

// Vector wraps soquets as a rank-1 collection of shape [len(soqs)].
func Vector(soqs ...Soquet) Soquets {
	return Soquets{shape: []int{len(soqs)}, flat: soqs}
}

// Shaped wraps a row-major flat slice under the given shape.
func Shaped(shape []int, soqs []Soquet) (Soquets, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Soquets{}, fmt.Errorf("%w: dim %d", ErrSymbolicShape, d)
		}
		n *= d
	}
	if n != len(soqs) {
		return Soquets{}, fmt.Errorf("%w: shape %v holds %d soquets, got %d", ErrShapeMismatch, shape, n, len(soqs))
	}
	return Soquets{shape: shape, flat: soqs}, nil
}

// IsScalar reports whether the collection is a single unindexed soquet.
func (s Soquets) IsScalar() bool { return len(s.shape) == 0 && len(s.flat) == 1 }

// Shape returns the collection's shape; empty for a scalar.
func (s Soquets) Shape() []int { return s.shape }

// Len returns the number of soquets held.
func (s Soquets) Len() int { return len(s.flat) }

// One returns the single soquet of a scalar collection.
func (s Soquets) One() Soquet { return s.flat[0] }

// At returns the soquet at the given multi-index.
func (s Soquets) At(idx ...int) Soquet {
	return s.flat[flatOffset(s.shape, idx)]
}

// Flat returns the soquets in row-major order. Callers must not mutate the
// returned slice.
func (s Soquets) Flat() []Soquet { return s.flat }

func flatOffset(shape, idx []int) int {
	off := 0
	for i, d := range shape {
		off = off*d + idx[i]
	}
	return off
}

// SoqDict maps register names to their soquets, as passed to Add and
// returned from resolution helpers.
type SoqDict map[string]Soquets
