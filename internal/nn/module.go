// Package nn implements the parameter-owning modules around the handgrad operators.
//
// This package provides:
//   - Parameter: trainable tensor with a gradient slot
//   - Linear, LayerNorm, Embedding: modules that own parameters
//   - GELU, Add, CrossEntropy: parameter-free modules
//   - KaimingUniform, Uniform: initialization policies
//
// Every module offers Apply, which returns the ops.Node an autodiff engine
// records, and Forward, which returns just the output tensor.
package nn

import (
	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Module is the interface shared by single-input modules.
//
// Apply threads the module's own parameter tensors into its operator and
// returns the recorded invocation. Parameters returns nil for modules
// without trainable state.
type Module interface {
	Apply(input *tensor.RawTensor) (*ops.Node, error)
	Forward(input *tensor.RawTensor) (*tensor.RawTensor, error)
	Parameters() []*Parameter
}

// output unwraps the node produced by Apply.
func output(node *ops.Node, err error) (*tensor.RawTensor, error) {
	if err != nil {
		return nil, err
	}
	return node.Output(), nil
}

var (
	_ Module = (*Linear)(nil)
	_ Module = (*LayerNorm)(nil)
	_ Module = (*Embedding)(nil)
	_ Module = (*GELU)(nil)
)
