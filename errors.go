package regrid

import "errors"

// Sentinel error kinds. All errors returned by this package wrap one of
// these; test with errors.Is.
var (
	// ErrDimensionMismatch reports a coordinate, box, or index whose
	// arity disagrees with the grid dimensionality.
	ErrDimensionMismatch = errors.New("dimension count mismatch")

	// ErrShapeMismatch reports a coordinate or field array whose shape
	// disagrees with the declared grid dims.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedType reports a field slice whose element type is not
	// one of the supported numeric kinds.
	ErrUnsupportedType = errors.New("unsupported field type")
)
