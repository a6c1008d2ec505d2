package qgraph

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRegister(t *testing.T) {
	t.Run("scalar thru by default", func(t *testing.T) {
		reg := NewRegister("q", Bit{})
		assert.True(t, reg.IsScalar())
		assert.Equal(t, SideThru, reg.Side)
		assert.Equal(t, 1, reg.NumPorts())
		assert.Equal(t, 1, reg.TotalBits())
	})

	t.Run("shaped ports and bits", func(t *testing.T) {
		reg := Register{Name: "qs", Dtype: UInt{Bits: 4}, Shape: []int{2, 3}, Side: SideThru}
		assert.Equal(t, 6, reg.NumPorts())
		assert.Equal(t, 24, reg.TotalBits())
	})

	t.Run("zero dimension has no ports", func(t *testing.T) {
		reg := Register{Name: "qs", Dtype: Bit{}, Shape: []int{0}, Side: SideThru}
		assert.Equal(t, 0, reg.NumPorts())
		assert.Equal(t, 0, len(reg.AllIdxs()))
	})

	t.Run("row-major index order", func(t *testing.T) {
		reg := Register{Name: "qs", Dtype: Bit{}, Shape: []int{2, 2}, Side: SideThru}
		assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, reg.AllIdxs())
	})

	t.Run("symbolic shape", func(t *testing.T) {
		reg := Register{Name: "qs", Dtype: Bit{}, Shape: []int{DimSymbolic}, Side: SideThru}
		assert.True(t, reg.IsSymbolic())
		assert.True(t, !NewRegister("q", Bit{}).IsSymbolic())
	})

	t.Run("adjoint flips one-sided registers", func(t *testing.T) {
		left := Register{Name: "in", Dtype: Bit{}, Side: SideLeft}
		assert.Equal(t, SideRight, left.Adjoint().Side)
		assert.Equal(t, SideLeft, left.Adjoint().Adjoint().Side)
		assert.Equal(t, SideThru, NewRegister("q", Bit{}).Adjoint().Side)
	})
}

func TestSignature(t *testing.T) {
	t.Run("duplicate name on one side", func(t *testing.T) {
		_, err := NewSignature([]Register{
			NewRegister("q", Bit{}),
			NewRegister("q", Bit{}),
		})
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateRegister))
	})

	t.Run("same name across sides", func(t *testing.T) {
		sig, err := NewSignature([]Register{
			{Name: "reg", Dtype: Any{Bits: 2}, Side: SideLeft},
			{Name: "reg", Dtype: Bit{}, Shape: []int{2}, Side: SideRight},
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, sig.Len())
	})

	t.Run("lefts and rights preserve declaration order", func(t *testing.T) {
		sig := MustSignature(
			Register{Name: "a", Dtype: Bit{}, Side: SideRight},
			NewRegister("b", Bit{}),
			Register{Name: "c", Dtype: Bit{}, Side: SideLeft},
		)
		lefts := sig.Lefts()
		assert.Equal(t, 2, len(lefts))
		assert.Equal(t, "b", lefts[0].Name)
		assert.Equal(t, "c", lefts[1].Name)

		rights := sig.Rights()
		assert.Equal(t, 2, len(rights))
		assert.Equal(t, "a", rights[0].Name)
		assert.Equal(t, "b", rights[1].Name)
	})

	t.Run("nbits is the wider side", func(t *testing.T) {
		sig := MustSignature(
			Register{Name: "in", Dtype: Any{Bits: 4}, Side: SideLeft},
			Register{Name: "out", Dtype: Bit{}, Shape: []int{2}, Side: SideRight},
		)
		assert.Equal(t, 4, sig.NBits())

		assert.Equal(t, 3, TestSerialCombo{}.Signature().NBits())
	})

	t.Run("adjoint flips every register", func(t *testing.T) {
		sig := MustSignature(
			Register{Name: "in", Dtype: Bit{}, Side: SideLeft},
			NewRegister("q", Bit{}),
		)
		adj := sig.Adjoint()
		assert.Equal(t, sig.Len(), adj.Len())
		assert.Equal(t, SideRight, adj.Registers()[0].Side)
		assert.Equal(t, SideThru, adj.Registers()[1].Side)
	})
}
