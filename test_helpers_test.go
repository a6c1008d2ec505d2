package qgraph

import "fmt"

// TestAtom is a single-port leaf operation used throughout the tests. It is
// its own adjoint. Tag, if set, is used as the display name so expected
// debug output stays readable.
type TestAtom struct {
	Tag string
}

func (t TestAtom) Signature() Signature {
	return MustSignature(NewRegister("q", Bit{}))
}

func (t TestAtom) Adjoint() (Bloq, error) { return t, nil }

func (t TestAtom) String() string {
	if t.Tag != "" {
		return t.Tag
	}
	return "TestAtom"
}

// TestTwoBit consumes and re-produces two bit ports.
type TestTwoBit struct{}

func (TestTwoBit) Signature() Signature {
	return MustSignature(NewRegister("ctrl", Bit{}), NewRegister("target", Bit{}))
}

func (t TestTwoBit) Adjoint() (Bloq, error) { return t, nil }
func (TestTwoBit) String() string           { return "TestTwoBit" }

// TestWide has one pass-through unsigned register, used for dtype checks.
type TestWide struct {
	Bits int
}

func (t TestWide) Signature() Signature {
	return MustSignature(NewRegister("x", UInt{Bits: t.Bits}))
}

func (TestWide) String() string { return "TestWide" }

// TestSerialCombo decomposes into split / per-bit TestAtom / join over a
// three-bit word.
type TestSerialCombo struct{}

func (TestSerialCombo) Signature() Signature {
	return MustSignature(NewRegister("reg", Any{Bits: 3}))
}

func (TestSerialCombo) BuildComposite(bb *BloqBuilder, soqs SoqDict) (SoqDict, error) {
	bits, err := bb.Split(soqs["reg"].One())
	if err != nil {
		return nil, err
	}
	outs := make([]Soquet, 0, bits.Len())
	for _, bit := range bits.Flat() {
		out, err := bb.AddOne(TestAtom{}, SoqDict{"q": Scalar(bit)})
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	joined, err := bb.Join(Vector(outs...), Any{Bits: 3})
	if err != nil {
		return nil, err
	}
	return SoqDict{"reg": Scalar(joined)}, nil
}

func (t TestSerialCombo) Adjoint() (Bloq, error) { return t, nil }
func (TestSerialCombo) String() string           { return "TestSerialCombo" }

// TestCyclicDecompose decomposes into a single copy of itself, so
// flattening it never reaches a fixed point.
type TestCyclicDecompose struct{}

func (TestCyclicDecompose) Signature() Signature {
	return MustSignature(NewRegister("q", Bit{}))
}

func (TestCyclicDecompose) BuildComposite(bb *BloqBuilder, soqs SoqDict) (SoqDict, error) {
	out, err := bb.AddOne(TestCyclicDecompose{}, SoqDict{"q": Scalar(soqs["q"].One())})
	if err != nil {
		return nil, err
	}
	return SoqDict{"q": Scalar(out)}, nil
}

func (TestCyclicDecompose) String() string { return "TestCyclicDecompose" }

// TestDeclines reports that its operands do not support decomposition.
type TestDeclines struct{}

func (TestDeclines) Signature() Signature {
	return MustSignature(NewRegister("q", Bit{}))
}

func (TestDeclines) BuildComposite(bb *BloqBuilder, soqs SoqDict) (SoqDict, error) {
	return nil, fmt.Errorf("%w: TestDeclines", ErrDecomposeUnsupported)
}

func (TestDeclines) String() string { return "TestDeclines" }

// TestSymbolicCombo carries an unresolved symbolic shape, so its signature
// cannot be instantiated for decomposition.
type TestSymbolicCombo struct{}

func (TestSymbolicCombo) Signature() Signature {
	return MustSignature(Register{Name: "xs", Dtype: Bit{}, Shape: []int{DimSymbolic}, Side: SideThru})
}

func (TestSymbolicCombo) BuildComposite(bb *BloqBuilder, soqs SoqDict) (SoqDict, error) {
	return soqs, nil
}

func (TestSymbolicCombo) String() string { return "TestSymbolicCombo" }

// TestNoAdjoint supports neither adjoint nor decomposition.
type TestNoAdjoint struct{}

func (TestNoAdjoint) Signature() Signature {
	return MustSignature(NewRegister("q", Bit{}))
}

func (TestNoAdjoint) String() string { return "TestNoAdjoint" }

// buildChain builds tags into a series graph on one scalar bit register.
func buildChain(tags ...string) *CompositeBloq {
	bb := NewBloqBuilder()
	soqs, err := bb.AddRegister(NewRegister("q", Bit{}))
	must(err)
	q := soqs.One()
	for _, tag := range tags {
		q = bb.MustAddOne(TestAtom{Tag: tag}, SoqDict{"q": Scalar(q)})
	}
	return bb.MustFinalize(SoqDict{"q": Scalar(q)})
}
