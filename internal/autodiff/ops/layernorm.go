package ops

import (
	"math"

	"github.com/born-ml/handgrad/internal/tensor"
	"gonum.org/v1/gonum/floats"
)

// DefaultLayerNormEpsilon is added to the variance before the inverse square root.
const DefaultLayerNormEpsilon = 1e-5

// LayerNormOp normalizes each row of a [T, C] input over its C features.
//
// Forward:
//
//	μ[t]  = x[t] - mean(x[t])
//	σ[t]  = 1 / sqrt(mean(μ[t]²) + eps)
//	y[t]  = μ[t] * σ[t] * γ + β
//
// Backward, with g = dL/dy and per-row sums over the feature axis:
//
//	dγ = Σ_t g ⊙ μ ⊙ σ
//	dβ = Σ_t g
//	dx = g⊙γ⊙σ − σ/C · Σ_c(g⊙γ) − μ⊙σ³/C · Σ_c(g⊙γ⊙μ)
//
// The second term removes the contribution of the mean, the third the
// contribution of the variance: ∂mean/∂x = 1/C and ∂var/∂x = 2μ/C.
type LayerNormOp struct {
	Epsilon float64
}

// LayerNormContext saves the centered input, the per-row inverse standard
// deviation and the gain. The normalized activations μ⊙σ are not stored:
// every term of the gradient uses μ and σ separately.
type LayerNormContext struct {
	saved
	centered *tensor.RawTensor // μ, [T, C]
	invStd   []float64         // σ, [T]
	gamma    *tensor.RawTensor // γ, [C]
}

func (*LayerNormContext) operatorName() string { return "layer_norm" }

// NewLayerNormOp creates a LayerNormOp with the default epsilon.
func NewLayerNormOp() *LayerNormOp {
	return &LayerNormOp{Epsilon: DefaultLayerNormEpsilon}
}

// Name returns "layer_norm".
func (*LayerNormOp) Name() string { return "layer_norm" }

// Differentiable reports that input, gain and bias all receive gradients.
func (*LayerNormOp) Differentiable() []bool { return []bool{true, true, true} }

// Forward normalizes x. Inputs are (x [T, C], gamma [C], beta [C]).
func (op *LayerNormOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	x, gamma, beta := inputs[0], inputs[1], inputs[2]
	for _, in := range []struct {
		name string
		t    *tensor.RawTensor
	}{{"layer_norm input", x}, {"layer_norm gamma", gamma}, {"layer_norm beta", beta}} {
		if err := tensor.CheckDType(in.name, in.t, tensor.Float64); err != nil {
			return nil, nil, err
		}
	}
	if err := tensor.CheckRank("layer_norm input", x, 2); err != nil {
		return nil, nil, err
	}
	rows, cols := x.Shape()[0], x.Shape()[1]
	if err := tensor.CheckShape("layer_norm gamma", gamma.Shape(), tensor.Shape{cols}); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckShape("layer_norm beta", beta.Shape(), tensor.Shape{cols}); err != nil {
		return nil, nil, err
	}

	n := float64(cols)
	g := gamma.AsFloat64()
	b := beta.AsFloat64()
	mu := make([]float64, rows*cols)
	sigma := make([]float64, rows)
	y := make([]float64, rows*cols)

	for t := 0; t < rows; t++ {
		row := x.Row(t)
		m := floats.Sum(row) / n

		muRow := mu[t*cols : (t+1)*cols]
		copy(muRow, row)
		floats.AddConst(-m, muRow)
		sigma[t] = 1 / math.Sqrt(floats.Dot(muRow, muRow)/n+op.Epsilon)

		yRow := y[t*cols : (t+1)*cols]
		for c, v := range muRow {
			yRow[c] = v*sigma[t]*g[c] + b[c]
		}
	}

	centered, err := tensor.Adopt(mu, tensor.Shape{rows, cols})
	if err != nil {
		return nil, nil, err
	}
	out, err := tensor.Adopt(y, tensor.Shape{rows, cols})
	if err != nil {
		return nil, nil, err
	}
	return out, &LayerNormContext{centered: centered, invStd: sigma, gamma: gamma}, nil
}

// Backward computes gradients for (x, gamma, beta).
func (op *LayerNormOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*LayerNormContext](op, ctx)
	if err != nil {
		return nil, err
	}
	shape := c.centered.Shape()
	if err := checkOutputGrad(op, outputGrad, shape); err != nil {
		return nil, err
	}

	rows, cols := shape[0], shape[1]
	n := float64(cols)
	gamma := c.gamma.AsFloat64()

	dx := make([]float64, rows*cols)
	dgamma := make([]float64, cols)
	dbeta := make([]float64, cols)
	gg := make([]float64, cols) // g⊙γ for the current row

	for t := 0; t < rows; t++ {
		g := outputGrad.Row(t)
		mu := c.centered.Row(t)
		sigma := c.invStd[t]

		floats.Add(dbeta, g)
		for j := range dgamma {
			dgamma[j] += g[j] * mu[j] * sigma
		}

		floats.MulTo(gg, g, gamma)
		meanTerm := sigma / n * floats.Sum(gg)
		varTerm := sigma * sigma * sigma / n * floats.Dot(gg, mu)

		dxRow := dx[t*cols : (t+1)*cols]
		for j := range dxRow {
			dxRow[j] = gg[j]*sigma - meanTerm - mu[j]*varTerm
		}
	}

	grads := make([]*tensor.RawTensor, 3)
	if grads[0], err = tensor.Adopt(dx, shape); err != nil {
		return nil, err
	}
	if grads[1], err = tensor.Adopt(dgamma, tensor.Shape{cols}); err != nil {
		return nil, err
	}
	if grads[2], err = tensor.Adopt(dbeta, tensor.Shape{cols}); err != nil {
		return nil, err
	}
	return grads, nil
}
