package ops

import (
	"github.com/born-ml/handgrad/internal/tensor"
	"gonum.org/v1/gonum/floats"
)

// AddOp represents an element-wise addition: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// Both operands must have identical shapes; AddOp never broadcasts.
type AddOp struct{}

// AddContext saves only the output shape; the gradient is the identity.
type AddContext struct {
	saved
	shape tensor.Shape
}

func (*AddContext) operatorName() string { return "add" }

// NewAddOp creates a new AddOp.
func NewAddOp() *AddOp {
	return &AddOp{}
}

// Name returns "add".
func (*AddOp) Name() string { return "add" }

// Differentiable reports that both operands receive gradients.
func (*AddOp) Differentiable() []bool { return []bool{true, true} }

// Forward computes a + b.
func (op *AddOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	a, b := inputs[0], inputs[1]
	if err := tensor.CheckDType("add a", a, tensor.Float64); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckDType("add b", b, tensor.Float64); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckShape("add operands", b.Shape(), a.Shape()); err != nil {
		return nil, nil, err
	}

	data := make([]float64, a.NumElements())
	floats.AddTo(data, a.AsFloat64(), b.AsFloat64())
	out, err := tensor.Adopt(data, a.Shape())
	if err != nil {
		return nil, nil, err
	}
	return out, &AddContext{shape: a.Shape().Clone()}, nil
}

// Backward passes outputGrad through unchanged to both inputs.
func (op *AddOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*AddContext](op, ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOutputGrad(op, outputGrad, c.shape); err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{outputGrad, outputGrad}, nil
}
