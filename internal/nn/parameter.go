package nn

import (
	"github.com/born-ml/handgrad/internal/tensor"
)

// Parameter represents a trainable parameter owned by a module.
//
// The parameter's tensor always requires a gradient. Modules hand this exact
// tensor (not a copy) to their operator, so the gradient an engine routes
// back for that input belongs to this Parameter.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
//
//	// Store the gradient after a backward pass
//	weight.SetGrad(grads[1])
type Parameter struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.RawTensor // The parameter tensor
	grad   *tensor.RawTensor // Gradient tensor (set by whoever runs backward)
}

// NewParameter creates a new trainable parameter and flags its tensor as
// requiring a gradient. Panics on integer tensors, which cannot be trained.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	if err := t.SetRequiresGrad(true); err != nil {
		panic(err)
	}
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been stored yet.
func (p *Parameter) Grad() *tensor.RawTensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.RawTensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
