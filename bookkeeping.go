package qgraph

// Bookkeeping bloqs back the builder's convenience ports. They carry no
// computational meaning: Allocate/Free introduce and retire soquets, and
// Split/Join re-shape one multi-bit port into unit ports and back. Keeping
// them as ordinary bloqs means the linear-use checkpoint in Add applies to
// them like to everything else.

// Allocate mints a fresh value of Dtype out of nothing: a single right-only
// register named "reg".
type Allocate struct {
	Dtype DType
}

func (a Allocate) Signature() Signature {
	return MustSignature(Register{Name: "reg", Dtype: a.Dtype, Side: SideRight})
}

func (a Allocate) Adjoint() (Bloq, error) { return Free{Dtype: a.Dtype}, nil }
func (a Allocate) String() string         { return "Allocate" }

// Free retires a value of Dtype: a single left-only register named "reg".
type Free struct {
	Dtype DType
}

func (f Free) Signature() Signature {
	return MustSignature(Register{Name: "reg", Dtype: f.Dtype, Side: SideLeft})
}

func (f Free) Adjoint() (Bloq, error) { return Allocate{Dtype: f.Dtype}, nil }
func (f Free) String() string         { return "Free" }

// Split turns one port of Dtype into an array of unit Bit ports, one per
// bit of the dtype. The left and right registers deliberately share the
// name "reg"; signature names are unique per side.
type Split struct {
	Dtype DType
}

func (s Split) Signature() Signature {
	return MustSignature(
		Register{Name: "reg", Dtype: s.Dtype, Side: SideLeft},
		Register{Name: "reg", Dtype: Bit{}, Shape: []int{s.Dtype.NumBits()}, Side: SideRight},
	)
}

func (s Split) Adjoint() (Bloq, error) { return Join{Dtype: s.Dtype}, nil }
func (s Split) String() string         { return "Split" }

// Join is the inverse of Split: an array of unit Bit ports in, one port of
// Dtype out.
type Join struct {
	Dtype DType
}

func (j Join) Signature() Signature {
	return MustSignature(
		Register{Name: "reg", Dtype: Bit{}, Shape: []int{j.Dtype.NumBits()}, Side: SideLeft},
		Register{Name: "reg", Dtype: j.Dtype, Side: SideRight},
	)
}

func (j Join) Adjoint() (Bloq, error) { return Split{Dtype: j.Dtype}, nil }
func (j Join) String() string         { return "Join" }
