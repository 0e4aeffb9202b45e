// Package ops defines the differentiable operators and their hand-derived gradients.
//
// Each operator implements the Operator interface, which provides:
//   - Forward: computes the output and a Context holding what Backward needs
//   - Backward: computes one gradient per positional input from that Context
//
// Supported operators:
//   - CrossEntropyOp: mean negative log-likelihood of softmax(logits)[targets]
//   - LayerNormOp: row-wise normalization with learned gain and bias
//   - LinearOp: affine transform y = x@W.T + b
//   - GELUOp: tanh-approximated Gaussian error linear unit
//   - AddOp: element-wise sum of equally shaped tensors (d(a+b)/da = d(a+b)/db = 1)
//   - EmbeddingOp: row lookup into a table
//
// The autodiff engine that schedules these calls and accumulates gradients
// lives outside this package; it only sees Node values.
package ops

import (
	"github.com/born-ml/handgrad/internal/tensor"
	"github.com/pkg/errors"
)

var (
	// ErrArity reports a Forward call with the wrong number of inputs.
	ErrArity = errors.New("wrong number of inputs")

	// ErrContextMismatch reports a Context handed to the wrong operator's Backward.
	ErrContextMismatch = errors.New("context belongs to another operator")

	// ErrContextConsumed reports a second Backward over the same Context.
	ErrContextConsumed = errors.New("context already consumed")
)

// Operator is one differentiable function with a hand-derived gradient.
//
// Operators are stateless apart from fixed hyper-parameters (epsilon, the
// softmax policy); everything an invocation needs for its backward pass is
// returned in the Context.
type Operator interface {
	// Name identifies the operator in errors and reports.
	Name() string

	// Differentiable has one entry per positional Forward input.
	// Backward returns nil exactly where the entry is false.
	Differentiable() []bool

	// Forward computes the output. Inputs are never modified.
	Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error)

	// Backward computes input gradients given dL/d(output).
	// The Context is consumed; a second call fails with ErrContextConsumed.
	Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error)
}

// Context is the per-invocation slot bridging Forward and Backward.
// The set of implementations is closed: one struct per operator in this package.
type Context interface {
	operatorName() string
	consume() error
}

// saved carries the bookkeeping shared by every Context.
type saved struct {
	consumed bool
}

func (s *saved) consume() error {
	if s.consumed {
		return ErrContextConsumed
	}
	s.consumed = true
	return nil
}

// takeContext checks that ctx was produced by op and marks it consumed.
func takeContext[C Context](op Operator, ctx Context) (C, error) {
	var zero C
	c, ok := ctx.(C)
	// A typed nil, e.g. (*GELUContext)(nil), asserts fine but holds nothing.
	if !ok || any(c) == any(zero) {
		return zero, errors.Wrapf(ErrContextMismatch, "%s backward", op.Name())
	}
	if err := c.consume(); err != nil {
		return zero, errors.Wrapf(err, "%s backward", op.Name())
	}
	return c, nil
}

// checkArity validates the number of Forward inputs.
func checkArity(op Operator, inputs []*tensor.RawTensor) error {
	want := len(op.Differentiable())
	if len(inputs) != want {
		return errors.Wrapf(ErrArity, "%s: got %d inputs, want %d", op.Name(), len(inputs), want)
	}
	for i, in := range inputs {
		if in == nil {
			return errors.Errorf("%s: input %d is nil", op.Name(), i)
		}
	}
	return nil
}

// checkOutputGrad validates that dL/d(output) matches the forward output shape.
func checkOutputGrad(op Operator, outputGrad *tensor.RawTensor, want tensor.Shape) error {
	if outputGrad == nil {
		return errors.Errorf("%s backward: output gradient is nil", op.Name())
	}
	if err := tensor.CheckDType(op.Name()+" output gradient", outputGrad, tensor.Float64); err != nil {
		return err
	}
	return tensor.CheckShape(op.Name()+" output gradient", outputGrad.Shape(), want)
}
