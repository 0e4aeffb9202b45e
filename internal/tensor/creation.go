package tensor

import (
	"math/rand"
	"unsafe"

	"github.com/pkg/errors"
)

// Zeros creates a float64 tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *RawTensor {
	raw, err := NewRaw(shape, Float64)
	if err != nil {
		panic(err) // Shape validation is the caller's contract
	}
	return raw
}

// Full creates a float64 tensor filled with a specific value.
func Full(shape Shape, value float64) *RawTensor {
	raw := Zeros(shape)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = value
	}
	return raw
}

// Ones creates a float64 tensor filled with ones.
func Ones(shape Shape) *RawTensor {
	return Full(shape, 1)
}

// Scalar creates a rank-0 float64 tensor.
func Scalar(value float64) *RawTensor {
	return Full(Shape{}, value)
}

// FromFloat64s creates a float64 tensor holding a copy of data.
//
// Example:
//
//	x, err := tensor.FromFloat64s([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromFloat64s(data []float64, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "data has %d elements, shape %s needs %d",
			len(data), shape, shape.NumElements())
	}
	raw, err := NewRaw(shape, Float64)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat64(), data)
	return raw, nil
}

// FromInt64s creates an int64 tensor holding a copy of data.
func FromInt64s(data []int64, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "data has %d elements, shape %s needs %d",
			len(data), shape, shape.NumElements())
	}
	raw, err := NewRaw(shape, Int64)
	if err != nil {
		return nil, err
	}
	copy(raw.AsInt64(), data)
	return raw, nil
}

// FromInt32s creates an int32 tensor holding a copy of data.
func FromInt32s(data []int32, shape Shape) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "data has %d elements, shape %s needs %d",
			len(data), shape, shape.NumElements())
	}
	raw, err := NewRaw(shape, Int32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsInt32(), data)
	return raw, nil
}

// Rand creates a float64 tensor with values drawn uniformly from [0, 1).
// The generator is explicit so callers control reproducibility.
func Rand(shape Shape, rng *rand.Rand) *RawTensor {
	raw := Zeros(shape)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = rng.Float64()
	}
	return raw
}

// Randn creates a float64 tensor with values drawn from N(0, 1).
func Randn(shape Shape, rng *rand.Rand) *RawTensor {
	raw := Zeros(shape)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return raw
}

// RandInt creates an int64 tensor with values drawn uniformly from [0, n).
func RandInt(shape Shape, n int, rng *rand.Rand) *RawTensor {
	raw, err := NewRaw(shape, Int64)
	if err != nil {
		panic(err)
	}
	data := raw.AsInt64()
	for i := range data {
		data[i] = rng.Int63n(int64(n))
	}
	return raw
}

// fromFloat64Slice wraps data as a float64 tensor without copying.
// data must not be used by anyone else afterwards.
func fromFloat64Slice(data []float64, shape Shape) *RawTensor {
	if len(data) != shape.NumElements() {
		panic("fromFloat64Slice: data length does not match shape")
	}
	//nolint:gosec // unsafe.Slice for zero-copy adoption of a freshly allocated buffer
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*Float64.Size())
	return &RawTensor{
		data:   bytes,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  Float64,
	}
}
