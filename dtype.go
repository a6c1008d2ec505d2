package qgraph

import "fmt"

// DType is the data type carried by a port. Implementations are small value
// types; two DType values are compared with ==.
type DType interface {
	// NumBits returns the fixed width of a value of this type.
	NumBits() int
	String() string
}

// Bit is a single-bit port type.
type Bit struct{}

func (Bit) NumBits() int   { return 1 }
func (Bit) String() string { return "Bit" }

// UInt is an unsigned integer of a fixed width.
type UInt struct {
	Bits int
}

func (d UInt) NumBits() int   { return d.Bits }
func (d UInt) String() string { return fmt.Sprintf("UInt(%d)", d.Bits) }

// Any is an opaque bag of bits of a fixed width. It is assignable to and
// from any type of the same width.
type Any struct {
	Bits int
}

func (d Any) NumBits() int   { return d.Bits }
func (d Any) String() string { return fmt.Sprintf("Any(%d)", d.Bits) }

// DTypesConsistent reports whether a value of type a may be wired to a port
// of type b. Widths must match exactly; beyond that, Any is compatible with
// every type and all other types must match.
func DTypesConsistent(a, b DType) bool {
	if a.NumBits() != b.NumBits() {
		return false
	}
	if _, ok := a.(Any); ok {
		return true
	}
	if _, ok := b.(Any); ok {
		return true
	}
	return a == b
}
