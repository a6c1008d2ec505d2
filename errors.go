package qgraph

import "errors"

// Sentinel errors for graph construction and transformation. Errors returned
// by this package wrap one of these, so callers can check with errors.Is().
var (
	// ErrMissingInput indicates that Add or Finalize did not receive a
	// soquet for one of the target's left registers.
	ErrMissingInput = errors.New("missing required input soquet")

	// ErrSoquetUnavailable indicates that a supplied soquet is not in the
	// builder's available set: it was never produced here, or it has
	// already been consumed.
	ErrSoquetUnavailable = errors.New("soquet not available")

	// ErrUnknownRegister indicates a supplied name that matches no
	// register of the target signature.
	ErrUnknownRegister = errors.New("no register with that name")

	// ErrDTypeMismatch indicates that a soquet's data type is not
	// assignable to the register it is being wired to.
	ErrDTypeMismatch = errors.New("dtype mismatch")

	// ErrShapeMismatch indicates a soquet collection whose shape does not
	// match the register it is bound to.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnconsumedSoquets indicates that Finalize found minted soquets
	// that were never consumed (a linear-resource leak).
	ErrUnconsumedSoquets = errors.New("unconsumed soquets at finalize")

	// ErrDuplicateRegister indicates two registers with the same name on
	// the same side of one signature.
	ErrDuplicateRegister = errors.New("duplicate register name")

	// ErrRegistersClosed indicates a call to AddRegister on a builder that
	// was constructed from a fixed signature.
	ErrRegistersClosed = errors.New("register declaration closed")

	// ErrSymbolicShape indicates a register shape with an unresolved
	// symbolic dimension.
	ErrSymbolicShape = errors.New("symbolic register shape")

	// ErrBuilderFinalized indicates use of a builder after Finalize.
	ErrBuilderFinalized = errors.New("builder already finalized")

	// ErrNodeExists indicates an attempt to place a node under an ID that
	// is already in use within the builder.
	ErrNodeExists = errors.New("node id already in use")

	// ErrDecomposeNotImplemented indicates a bloq that does not provide a
	// decomposition. Recoverable: flatten leaves such nodes as-is.
	ErrDecomposeNotImplemented = errors.New("decomposition not implemented")

	// ErrDecomposeUnsupported indicates a bloq that cannot decompose for
	// its current operands, e.g. a symbolic shape. Recoverable: flatten
	// leaves such nodes as-is.
	ErrDecomposeUnsupported = errors.New("decomposition not supported for this operand shape")

	// ErrDidNotFlatten is the fixed-point signal: FlattenOnce found no
	// node that both matched the predicate and produced a decomposition.
	ErrDidNotFlatten = errors.New("nothing flattened")

	// ErrMaxDepthExceeded indicates that Flatten did not reach a fixed
	// point within its iteration bound, which usually means a cyclic or
	// unbounded decomposition chain.
	ErrMaxDepthExceeded = errors.New("max flatten depth exceeded")

	// ErrAdjointUnsupported indicates a bloq without an adjoint inside a
	// graph whose adjoint was requested.
	ErrAdjointUnsupported = errors.New("adjoint not supported")
)
