package tensor

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
)

// RawTensor is the low-level tensor representation: a contiguous row-major
// buffer plus shape and runtime type information.
//
// Operators treat every RawTensor they receive as immutable and return new
// tensors. The only mutable state is the requires-grad flag, which belongs
// to whoever created the tensor.
type RawTensor struct {
	data         []byte   // Row-major storage
	shape        Shape    // Tensor dimensions
	stride       []int    // Memory strides (row-major)
	dtype        DataType // Runtime type information
	requiresGrad bool
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zeroed.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// RequiresGrad reports whether gradients should be computed for this tensor.
func (r *RawTensor) RequiresGrad() bool {
	return r.requiresGrad
}

// SetRequiresGrad flags the tensor as requiring a gradient.
// Integer tensors hold class ids or indices and are rejected with ErrNotDifferentiable.
func (r *RawTensor) SetRequiresGrad(requiresGrad bool) error {
	if requiresGrad && !r.dtype.IsFloat() {
		return errors.Wrapf(ErrNotDifferentiable, "%s tensor of shape %s", r.dtype, r.shape)
	}
	r.requiresGrad = requiresGrad
	return nil
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Indices returns the values of an integer tensor as ints.
// Returns ErrDType for floating-point tensors.
func (r *RawTensor) Indices() ([]int, error) {
	out := make([]int, r.NumElements())
	switch r.dtype {
	case Int32:
		for i, v := range r.AsInt32() {
			out[i] = int(v)
		}
	case Int64:
		for i, v := range r.AsInt64() {
			out[i] = int(v)
		}
	default:
		return nil, errors.Wrapf(ErrDType, "indices must be int32 or int64, got %s", r.dtype)
	}
	return out, nil
}

// Clone returns a deep copy of the tensor. The requires-grad flag is not copied.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
}

// String returns a short description, e.g. "float64(32, 64)".
func (r *RawTensor) String() string {
	return r.dtype.String() + r.shape.String()
}
