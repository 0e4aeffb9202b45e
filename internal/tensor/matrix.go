package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix returns a gonum view over a rank-2 float64 tensor.
// The view shares storage with the tensor: writing through it mutates r.
func (r *RawTensor) Matrix() (*mat.Dense, error) {
	if err := CheckDType("matrix view", r, Float64); err != nil {
		return nil, err
	}
	if err := CheckRank("matrix view", r, 2); err != nil {
		return nil, err
	}
	return mat.NewDense(r.shape[0], r.shape[1], r.AsFloat64()), nil
}

// Row returns row i of a rank-2 float64 tensor as a shared slice.
func (r *RawTensor) Row(i int) []float64 {
	cols := r.shape[1]
	return r.AsFloat64()[i*cols : (i+1)*cols]
}

// FromDense copies a gonum matrix into a new [rows, cols] float64 tensor.
func FromDense(m mat.Matrix) *RawTensor {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Copy(m)
	return fromFloat64Slice(out.RawMatrix().Data, Shape{rows, cols})
}

// FromVector copies a gonum vector into a new [n] float64 tensor.
func FromVector(v mat.Vector) *RawTensor {
	n := v.Len()
	data := make([]float64, n)
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return fromFloat64Slice(data, Shape{n})
}

// Adopt wraps a freshly computed float64 slice as a tensor of the given shape
// without copying. The caller gives up ownership of data.
func Adopt(data []float64, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "data has %d elements, shape %s needs %d",
			len(data), shape, shape.NumElements())
	}
	return fromFloat64Slice(data, shape), nil
}
