// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/handgrad/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Type aliases for public API

// RawTensor is a dense, contiguous, row-major tensor.
type RawTensor = tensor.RawTensor

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a 2×3 matrix, Shape{} is a scalar.
type Shape = tensor.Shape

// Errors reported by tensor validation.
var (
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrDType             = tensor.ErrDType
	ErrIndexOutOfRange   = tensor.ErrIndexOutOfRange
	ErrNotDifferentiable = tensor.ErrNotDifferentiable
)

// NewRaw allocates a zeroed tensor of the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// Zeros creates a float64 tensor filled with zeros.
func Zeros(shape Shape) *RawTensor {
	return tensor.Zeros(shape)
}

// Ones creates a float64 tensor filled with ones.
func Ones(shape Shape) *RawTensor {
	return tensor.Ones(shape)
}

// Full creates a float64 tensor filled with value.
func Full(shape Shape, value float64) *RawTensor {
	return tensor.Full(shape, value)
}

// Scalar creates a float64 tensor with Shape{}.
func Scalar(value float64) *RawTensor {
	return tensor.Scalar(value)
}

// FromFloat64s copies data into a float64 tensor.
func FromFloat64s(data []float64, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat64s(data, shape)
}

// FromInt64s copies data into an int64 tensor.
func FromInt64s(data []int64, shape Shape) (*RawTensor, error) {
	return tensor.FromInt64s(data, shape)
}

// FromInt32s copies data into an int32 tensor.
func FromInt32s(data []int32, shape Shape) (*RawTensor, error) {
	return tensor.FromInt32s(data, shape)
}

// FromDense copies a gonum matrix into a rank-2 float64 tensor.
func FromDense(m mat.Matrix) *RawTensor {
	return tensor.FromDense(m)
}

// Rand draws a float64 tensor from U[0, 1).
func Rand(shape Shape, rng *rand.Rand) *RawTensor {
	return tensor.Rand(shape, rng)
}

// Randn draws a float64 tensor from N(0, 1).
func Randn(shape Shape, rng *rand.Rand) *RawTensor {
	return tensor.Randn(shape, rng)
}

// RandInt draws an int64 tensor with values in [0, n).
func RandInt(shape Shape, n int, rng *rand.Rand) *RawTensor {
	return tensor.RandInt(shape, n, rng)
}
