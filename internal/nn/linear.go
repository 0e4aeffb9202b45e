package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights use Kaiming-uniform initialization with a = sqrt(5); biases are
// drawn from U(-1/sqrt(in_features), 1/sqrt(in_features)).
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(64, 64, rng)
//	output, err := layer.Forward(input)  // [32, 64] -> [32, 64]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
	op          *ops.LinearOp
}

// NewLinear creates a new Linear layer initialized from rng.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("NewLinear: features must be positive, got in=%d out=%d", inFeatures, outFeatures))
	}

	weightTensor := KaimingUniform(tensor.Shape{outFeatures, inFeatures}, math.Sqrt(5), inFeatures, rng)
	bound := FanInBound(inFeatures)
	biasTensor := Uniform(tensor.Shape{outFeatures}, -bound, bound, rng)

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weightTensor),
		bias:        NewParameter("bias", biasTensor),
		op:          ops.NewLinearOp(),
	}
}

// Apply records x @ W.T + b. Input shape: [batch_size, in_features].
func (l *Linear) Apply(input *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(l.op, input, l.weight.Tensor(), l.bias.Tensor())
}

// Forward computes the output of the linear layer.
func (l *Linear) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(l.Apply(input))
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
