package nn

import (
	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// CrossEntropyLoss computes the mean cross-entropy loss for multi-class classification.
//
// Mathematical Formulation:
//
//	Loss = mean_t(-log softmax(logits[t])[targets[t]])
//
// Gradient (Backward):
//
//	∂L/∂logits = (Softmax(logits) - y_one_hot) / batch_size
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss()
//	loss, err := criterion.Forward(logits, targets)  // targets: [batch_size] class indices
//
// The row max is subtracted before exponentiating. SetShiftMax(false) selects
// the direct exp(x)/Σexp(x) form, which only holds for small logits.
type CrossEntropyLoss struct {
	op *ops.CrossEntropyOp
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{op: ops.NewCrossEntropyOp()}
}

// SetShiftMax selects whether the softmax subtracts the row maximum.
func (c *CrossEntropyLoss) SetShiftMax(shift bool) {
	c.op.ShiftMax = shift
}

// Apply records the loss of logits [T, C] against targets [T].
func (c *CrossEntropyLoss) Apply(logits, targets *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(c.op, logits, targets)
}

// Forward computes the scalar loss.
func (c *CrossEntropyLoss) Forward(logits, targets *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(c.Apply(logits, targets))
}

// Parameters returns an empty slice.
func (c *CrossEntropyLoss) Parameters() []*Parameter {
	return nil
}
