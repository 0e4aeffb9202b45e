package ops

import (
	"math"

	"github.com/born-ml/handgrad/internal/tensor"
)

// geluCubic is the coefficient of x³ in the tanh approximation.
const geluCubic = 0.044715

// GELUOp represents the tanh approximation of the Gaussian error linear unit.
//
// Forward:
//
//	b = a * (x + 0.044715 * x³),  a = sqrt(2/π)
//	y = 0.5 * x * (1 + tanh(b))
//
// Backward:
//
//	db/dx = a * (1 + 3 * 0.044715 * x²)
//	dy/dx = 0.5 * (1 + tanh(b) + x * sech²(b) * db/dx)
type GELUOp struct{}

// GELUContext saves the input, the constant a and the pre-tanh argument b.
type GELUContext struct {
	saved
	x *tensor.RawTensor
	a float64
	b []float64
}

func (*GELUContext) operatorName() string { return "gelu" }

// NewGELUOp creates a new GELUOp.
func NewGELUOp() *GELUOp {
	return &GELUOp{}
}

// Name returns "gelu".
func (*GELUOp) Name() string { return "gelu" }

// Differentiable reports a single differentiable input.
func (*GELUOp) Differentiable() []bool { return []bool{true} }

// Forward computes GELU(x) element-wise.
func (op *GELUOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	x := inputs[0]
	if err := tensor.CheckDType("gelu input", x, tensor.Float64); err != nil {
		return nil, nil, err
	}

	a := math.Sqrt(2 / math.Pi)
	xData := x.AsFloat64()
	b := make([]float64, len(xData))
	y := make([]float64, len(xData))
	for i, v := range xData {
		b[i] = a * (v + geluCubic*v*v*v)
		y[i] = 0.5 * v * (1 + math.Tanh(b[i]))
	}

	out, err := tensor.Adopt(y, x.Shape())
	if err != nil {
		return nil, nil, err
	}
	return out, &GELUContext{x: x, a: a, b: b}, nil
}

// Backward computes dL/dx = dL/dy * dy/dx.
func (op *GELUOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*GELUContext](op, ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOutputGrad(op, outputGrad, c.x.Shape()); err != nil {
		return nil, err
	}

	xData := c.x.AsFloat64()
	g := outputGrad.AsFloat64()
	dx := make([]float64, len(xData))
	for i, v := range xData {
		cosh := math.Cosh(c.b[i])
		sech2 := 1 / (cosh * cosh)
		db := c.a * (1 + 3*geluCubic*v*v)
		dx[i] = g[i] * 0.5 * (1 + math.Tanh(c.b[i]) + v*sech2*db)
	}

	grad, err := tensor.Adopt(dx, c.x.Shape())
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{grad}, nil
}
