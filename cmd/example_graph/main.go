package main

import (
	"fmt"

	qgraph "github.com/birdayz/qgraph"
	"github.com/birdayz/qgraph/pkg/log"
)

// Flip is a toy single-bit operation. It is its own adjoint.
type Flip struct{}

func (Flip) Signature() qgraph.Signature {
	return qgraph.MustSignature(qgraph.NewRegister("q", qgraph.Bit{}))
}

func (f Flip) Adjoint() (qgraph.Bloq, error) { return f, nil }
func (Flip) String() string                  { return "Flip" }

// FlipAll flips every bit of a 3-bit word. Its decomposition splits the
// word, applies Flip per bit, and joins the result back up.
type FlipAll struct{}

func (FlipAll) Signature() qgraph.Signature {
	return qgraph.MustSignature(qgraph.NewRegister("word", qgraph.Any{Bits: 3}))
}

func (FlipAll) BuildComposite(bb *qgraph.BloqBuilder, soqs qgraph.SoqDict) (qgraph.SoqDict, error) {
	bits, err := bb.Split(soqs["word"].One())
	if err != nil {
		return nil, err
	}
	flipped := make([]qgraph.Soquet, 0, bits.Len())
	for _, bit := range bits.Flat() {
		out, err := bb.AddOne(Flip{}, qgraph.SoqDict{"q": qgraph.Scalar(bit)})
		if err != nil {
			return nil, err
		}
		flipped = append(flipped, out)
	}
	word, err := bb.Join(qgraph.Vector(flipped...), qgraph.Any{Bits: 3})
	if err != nil {
		return nil, err
	}
	return qgraph.SoqDict{"word": qgraph.Scalar(word)}, nil
}

func (f FlipAll) Adjoint() (qgraph.Bloq, error) { return f, nil }
func (FlipAll) String() string                  { return "FlipAll" }

func main() {
	bb := qgraph.NewBloqBuilder(qgraph.WithLogr(log.New()))

	word, err := bb.AddRegister(qgraph.NewRegister("word", qgraph.Any{Bits: 3}))
	if err != nil {
		panic(err)
	}
	outs := bb.MustAdd(FlipAll{}, qgraph.SoqDict{"word": word})
	cbloq := bb.MustFinalize(qgraph.SoqDict{"word": outs[0]})

	fmt.Println("=== as built ===")
	fmt.Println(cbloq.DebugText())

	flat, err := cbloq.Flatten(nil, 10)
	if err != nil {
		panic(err)
	}
	fmt.Println("=== flattened ===")
	fmt.Println(flat.DebugText())

	adj, err := flat.Adjoint()
	if err != nil {
		panic(err)
	}
	fmt.Println("=== adjoint ===")
	fmt.Println(adj.DebugText())
}
