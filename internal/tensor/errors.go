package tensor

import "github.com/pkg/errors"

// Sentinel errors shared by the tensor package and the operators built on it.
// Callers match them with errors.Is; the wrapped message carries the details.
var (
	// ErrShapeMismatch reports operands whose shapes violate an operator contract.
	// Operators never broadcast or truncate to paper over it.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDType reports a tensor of the wrong data type.
	ErrDType = errors.New("unsupported dtype")

	// ErrIndexOutOfRange reports a class id or embedding index outside its table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotDifferentiable reports an attempt to request a gradient for an
	// integer tensor (class targets, embedding indices).
	ErrNotDifferentiable = errors.New("tensor is not differentiable")
)

// CheckShape returns ErrShapeMismatch (wrapped with what) when got differs from want.
func CheckShape(what string, got, want Shape) error {
	if !got.Equal(want) {
		return errors.Wrapf(ErrShapeMismatch, "%s: got %s, want %s", what, got, want)
	}
	return nil
}

// CheckRank returns ErrShapeMismatch when t does not have the given rank.
func CheckRank(what string, t *RawTensor, rank int) error {
	if t.Shape().Rank() != rank {
		return errors.Wrapf(ErrShapeMismatch, "%s: expected rank %d, got shape %s", what, rank, t.Shape())
	}
	return nil
}

// CheckDType returns ErrDType when t is not of the given data type.
func CheckDType(what string, t *RawTensor, dtype DataType) error {
	if t.DType() != dtype {
		return errors.Wrapf(ErrDType, "%s: got %s, want %s", what, t.DType(), dtype)
	}
	return nil
}
