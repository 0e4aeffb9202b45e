package ops

import (
	"github.com/born-ml/handgrad/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// LinearOp represents the affine transform y = x @ W.T + b.
//
// Shapes:
//   - x: [batch, in_features]
//   - W: [out_features, in_features]
//   - b: [out_features], broadcast over the batch axis
//   - y: [batch, out_features]
//
// Backward:
//
//	dL/dx = grad @ W
//	dL/dW = grad.T @ x
//	dL/db = sum over batch of grad
type LinearOp struct{}

// LinearContext saves the input, the weight and the bias.
// Only x and W are read by Backward; b is kept alongside them.
type LinearContext struct {
	saved
	x      *tensor.RawTensor
	weight *tensor.RawTensor
	bias   *tensor.RawTensor
}

func (*LinearContext) operatorName() string { return "linear" }

// NewLinearOp creates a new LinearOp.
func NewLinearOp() *LinearOp {
	return &LinearOp{}
}

// Name returns "linear".
func (*LinearOp) Name() string { return "linear" }

// Differentiable reports that input, weight and bias all receive gradients.
func (*LinearOp) Differentiable() []bool { return []bool{true, true, true} }

// Forward computes x @ W.T + b. Inputs are (x, weight, bias).
func (op *LinearOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	x, weight, bias := inputs[0], inputs[1], inputs[2]

	xm, err := x.Matrix()
	if err != nil {
		return nil, nil, err
	}
	wm, err := weight.Matrix()
	if err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckDType("linear bias", bias, tensor.Float64); err != nil {
		return nil, nil, err
	}

	batch, inFeatures := xm.Dims()
	outFeatures, _ := wm.Dims()
	if err := tensor.CheckShape("linear weight", weight.Shape(), tensor.Shape{outFeatures, inFeatures}); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckShape("linear bias", bias.Shape(), tensor.Shape{outFeatures}); err != nil {
		return nil, nil, err
	}

	out := mat.NewDense(batch, outFeatures, nil)
	out.Mul(xm, wm.T())

	b := bias.AsFloat64()
	out.Apply(func(_, j int, v float64) float64 {
		return v + b[j]
	}, out)

	return tensor.FromDense(out), &LinearContext{x: x, weight: weight, bias: bias}, nil
}

// Backward computes gradients for (x, weight, bias).
func (op *LinearOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*LinearContext](op, ctx)
	if err != nil {
		return nil, err
	}
	batch := c.x.Shape()[0]
	inFeatures := c.x.Shape()[1]
	outFeatures := c.weight.Shape()[0]
	if err := checkOutputGrad(op, outputGrad, tensor.Shape{batch, outFeatures}); err != nil {
		return nil, err
	}

	gm, err := outputGrad.Matrix()
	if err != nil {
		return nil, err
	}
	xm, err := c.x.Matrix()
	if err != nil {
		return nil, err
	}
	wm, err := c.weight.Matrix()
	if err != nil {
		return nil, err
	}

	dx := mat.NewDense(batch, inFeatures, nil)
	dx.Mul(gm, wm)

	dw := mat.NewDense(outFeatures, inFeatures, nil)
	dw.Mul(gm.T(), xm)

	db := mat.NewVecDense(outFeatures, nil)
	for j := 0; j < outFeatures; j++ {
		db.SetVec(j, mat.Sum(gm.ColView(j)))
	}

	return []*tensor.RawTensor{
		tensor.FromDense(dx),
		tensor.FromDense(dw),
		tensor.FromVector(db),
	}, nil
}
