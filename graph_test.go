package qgraph

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNodeID(t *testing.T) {
	assert.True(t, LeftDangleID.IsDangling())
	assert.True(t, RightDangleID.IsDangling())
	assert.True(t, !NodeID(0).IsDangling())

	assert.Equal(t, "LeftDangle", LeftDangleID.String())
	assert.Equal(t, "RightDangle", RightDangleID.String())
	assert.Equal(t, "7", NodeID(7).String())
}

func TestCompareNode(t *testing.T) {
	// LeftDangle sorts before every real node, RightDangle after.
	assert.True(t, compareNode(LeftDangleID, NodeID(0)) < 0)
	assert.True(t, compareNode(NodeID(0), NodeID(1)) < 0)
	assert.True(t, compareNode(NodeID(1), RightDangleID) < 0)
	assert.True(t, compareNode(LeftDangleID, RightDangleID) < 0)
	assert.Equal(t, 0, compareNode(NodeID(3), NodeID(3)))
}

func TestSoquetIdentity(t *testing.T) {
	reg := NewRegister("q", Bit{})

	t.Run("scalar and empty index agree", func(t *testing.T) {
		a := Soquet{Node: 0, Reg: reg}
		b := Soquet{Node: 0, Reg: reg, Idx: []int{}}
		assert.Equal(t, a.Key(), b.Key())
	})

	t.Run("index distinguishes ports", func(t *testing.T) {
		shaped := Register{Name: "qs", Dtype: Bit{}, Shape: []int{2}, Side: SideThru}
		a := Soquet{Node: 0, Reg: shaped, Idx: []int{0}}
		b := Soquet{Node: 0, Reg: shaped, Idx: []int{1}}
		assert.NotEqual(t, a.Key(), b.Key())
	})

	t.Run("side distinguishes same-name registers", func(t *testing.T) {
		left := Soquet{Node: 0, Reg: Register{Name: "reg", Dtype: Any{Bits: 2}, Side: SideLeft}}
		right := Soquet{Node: 0, Reg: Register{Name: "reg", Dtype: Any{Bits: 2}, Side: SideRight}}
		assert.NotEqual(t, left.Key(), right.Key())
	})

	t.Run("pretty and string", func(t *testing.T) {
		s := Soquet{Node: 2, Reg: reg}
		assert.Equal(t, "q", s.Pretty())

		shaped := Register{Name: "qs", Dtype: Bit{}, Shape: []int{2, 2}, Side: SideThru}
		idx := Soquet{Node: LeftDangleID, Reg: shaped, Idx: []int{1, 0}}
		assert.Equal(t, "qs[1 0]", idx.Pretty())
		assert.Equal(t, "LeftDangle.qs[1 0]", idx.String())
	})
}

func TestSoquets(t *testing.T) {
	reg := NewRegister("q", Bit{})
	a := Soquet{Node: 0, Reg: reg}
	b := Soquet{Node: 1, Reg: reg}

	t.Run("scalar", func(t *testing.T) {
		s := Scalar(a)
		assert.True(t, s.IsScalar())
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, a, s.One())
	})

	t.Run("vector", func(t *testing.T) {
		s := Vector(a, b)
		assert.True(t, !s.IsScalar())
		assert.Equal(t, []int{2}, s.Shape())
		assert.Equal(t, b, s.At(1))
	})

	t.Run("shaped", func(t *testing.T) {
		s, err := Shaped([]int{2, 1}, []Soquet{a, b})
		assert.NoError(t, err)
		assert.Equal(t, a, s.At(0, 0))
		assert.Equal(t, b, s.At(1, 0))
	})

	t.Run("shaped size mismatch", func(t *testing.T) {
		_, err := Shaped([]int{3}, []Soquet{a, b})
		assert.Error(t, err)
	})
}

func TestSoqMap(t *testing.T) {
	reg := NewRegister("q", Bit{})
	old := Soquet{Node: 0, Reg: reg}
	mid := Soquet{Node: 1, Reg: reg}
	next := Soquet{Node: 2, Reg: reg}

	t.Run("identity for unmapped soquets", func(t *testing.T) {
		sm := NewSoqMap()
		assert.Equal(t, old, sm.Apply(Scalar(old)).One())
	})

	t.Run("maps recorded soquets", func(t *testing.T) {
		sm := NewSoqMap()
		assert.NoError(t, sm.Extend(Scalar(old), Scalar(mid)))
		assert.Equal(t, mid, sm.Apply(Scalar(old)).One())
		// Unrelated soquets are untouched.
		assert.Equal(t, next, sm.Apply(Scalar(next)).One())
	})

	t.Run("shape mismatch", func(t *testing.T) {
		sm := NewSoqMap()
		err := sm.Extend(Vector(old, mid), Scalar(next))
		assert.Error(t, err)
	})

	t.Run("dict application", func(t *testing.T) {
		sm := NewSoqMap()
		assert.NoError(t, sm.Extend(Scalar(old), Scalar(next)))
		got := sm.ApplyDict(SoqDict{"q": Scalar(old)})
		assert.Equal(t, next, got["q"].One())
	})
}
