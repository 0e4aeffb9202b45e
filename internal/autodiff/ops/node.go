package ops

import (
	"github.com/born-ml/handgrad/internal/tensor"
)

// Node records one operator invocation: its inputs, its output and the
// Context saved for the backward pass. It is what an autodiff engine keeps
// on its tape; calling Backward routes gradients back in input order.
type Node struct {
	op     Operator
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	ctx    Context
}

// Apply runs op.Forward and wraps the result in a Node.
func Apply(op Operator, inputs ...*tensor.RawTensor) (*Node, error) {
	output, ctx, err := op.Forward(inputs...)
	if err != nil {
		return nil, err
	}
	return &Node{
		op:     op,
		inputs: inputs,
		output: output,
		ctx:    ctx,
	}, nil
}

// Op returns the operator that produced this node.
func (n *Node) Op() Operator {
	return n.op
}

// Inputs returns the forward inputs, in positional order.
func (n *Node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the forward output.
func (n *Node) Output() *tensor.RawTensor {
	return n.output
}

// Backward computes the input gradients for dL/d(output).
// Entries are nil for inputs that are not differentiable. It can run once.
func (n *Node) Backward(outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return n.op.Backward(n.ctx, outputGrad)
}
