package nn

import (
	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// GELU is the tanh-approximated Gaussian Error Linear Unit.
//
// Applies the element-wise function:
//
//	f(x) = 0.5 * x * (1 + tanh(sqrt(2/π) * (x + 0.044715 * x³)))
//
// Example:
//
//	gelu := nn.NewGELU()
//	output, err := gelu.Forward(input)
type GELU struct {
	op *ops.GELUOp
}

// NewGELU creates a new GELU activation module.
func NewGELU() *GELU {
	return &GELU{op: ops.NewGELUOp()}
}

// Apply records GELU(x).
func (g *GELU) Apply(x *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(g.op, x)
}

// Forward applies GELU activation.
func (g *GELU) Forward(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(g.Apply(x))
}

// Parameters returns an empty slice (GELU has no trainable parameters).
func (g *GELU) Parameters() []*Parameter {
	return nil
}

// Add sums two equally shaped tensors, typically a residual connection.
type Add struct {
	op *ops.AddOp
}

// NewAdd creates a new Add module.
func NewAdd() *Add {
	return &Add{op: ops.NewAddOp()}
}

// Apply records a + b.
func (a *Add) Apply(x, y *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(a.op, x, y)
}

// Forward computes a + b.
func (a *Add) Forward(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(a.Apply(x, y))
}

// Parameters returns an empty slice.
func (a *Add) Parameters() []*Parameter {
	return nil
}
