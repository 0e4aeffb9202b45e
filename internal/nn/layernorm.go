package nn

import (
	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// LayerNorm applies Layer Normalization over the last dimension of a [T, C] input.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale parameter [C]
//   - beta is the learnable shift parameter [C]
//   - mean and variance are computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// Example:
//
//	layernorm := nn.NewLayerNorm(64)
//	output, err := layernorm.Forward(hidden)  // [T, 64] -> [T, 64]
type LayerNorm struct {
	Gamma *Parameter // learnable scale [C]
	Beta  *Parameter // learnable shift [C]
	op    *ops.LayerNormOp
}

// NewLayerNorm creates a new LayerNorm layer with eps = 1e-5.
//
// The gamma parameter is initialized to ones, beta to zeros.
func NewLayerNorm(normalizedShape int) *LayerNorm {
	return NewLayerNormWithEpsilon(normalizedShape, ops.DefaultLayerNormEpsilon)
}

// NewLayerNormWithEpsilon creates a LayerNorm layer with a custom epsilon.
func NewLayerNormWithEpsilon(normalizedShape int, epsilon float64) *LayerNorm {
	return &LayerNorm{
		Gamma: NewParameter("gamma", tensor.Ones(tensor.Shape{normalizedShape})),
		Beta:  NewParameter("beta", tensor.Zeros(tensor.Shape{normalizedShape})),
		op:    &ops.LayerNormOp{Epsilon: epsilon},
	}
}

// Epsilon returns the variance epsilon.
func (l *LayerNorm) Epsilon() float64 {
	return l.op.Epsilon
}

// Apply records the normalization of x.
func (l *LayerNorm) Apply(x *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(l.op, x, l.Gamma.Tensor(), l.Beta.Tensor())
}

// Forward applies LayerNorm to the input tensor.
func (l *LayerNorm) Forward(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(l.Apply(x))
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.Gamma, l.Beta}
}
