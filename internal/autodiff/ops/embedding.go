package ops

import (
	"github.com/born-ml/handgrad/internal/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// EmbeddingOp represents an embedding lookup operation.
//
// Forward: output[i] = table[indices[i]]
//
// Backward:
//
//	For each index i, accumulate grad_output[i] to grad_table[indices[i]]
//	This is a scatter-add operation where gradients for the same index are summed.
//
// Example:
//
//	indices = [0, 1, 0]  // index 0 appears twice
//	grad_output = [[1,2], [3,4], [5,6]]
//	grad_table[0] = [1,2] + [5,6] = [6,8]  // Accumulated!
//	grad_table[1] = [3,4]
//
// Inputs are (indices [T] int32/int64, table [N, D] float64). Indices are not
// differentiable; Backward returns nil in their slot.
type EmbeddingOp struct{}

// EmbeddingContext saves the indices and the table shape. The table values
// never enter the gradient, so they are not kept.
type EmbeddingContext struct {
	saved
	indices    []int
	tableShape tensor.Shape
}

func (*EmbeddingContext) operatorName() string { return "embedding" }

// NewEmbeddingOp creates a new embedding operation.
func NewEmbeddingOp() *EmbeddingOp {
	return &EmbeddingOp{}
}

// Name returns "embedding".
func (*EmbeddingOp) Name() string { return "embedding" }

// Differentiable reports that only the table receives a gradient.
func (*EmbeddingOp) Differentiable() []bool { return []bool{false, true} }

// Forward gathers table rows at the given indices.
func (op *EmbeddingOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	indicesT, table := inputs[0], inputs[1]

	if err := tensor.CheckRank("embedding indices", indicesT, 1); err != nil {
		return nil, nil, err
	}
	indices, err := indicesT.Indices()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "embedding")
	}
	if err := tensor.CheckDType("embedding table", table, tensor.Float64); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckRank("embedding table", table, 2); err != nil {
		return nil, nil, err
	}

	numEmbeddings, embeddingDim := table.Shape()[0], table.Shape()[1]
	out := make([]float64, len(indices)*embeddingDim)
	for i, idx := range indices {
		if idx < 0 || idx >= numEmbeddings {
			return nil, nil, errors.Wrapf(tensor.ErrIndexOutOfRange,
				"embedding: index %d at position %d, table has %d rows", idx, i, numEmbeddings)
		}
		copy(out[i*embeddingDim:(i+1)*embeddingDim], table.Row(idx))
	}

	output, err := tensor.Adopt(out, tensor.Shape{len(indices), embeddingDim})
	if err != nil {
		return nil, nil, err
	}
	return output, &EmbeddingContext{indices: indices, tableShape: table.Shape().Clone()}, nil
}

// Backward scatter-adds the output gradient rows into a zero table.
func (op *EmbeddingOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*EmbeddingContext](op, ctx)
	if err != nil {
		return nil, err
	}
	embeddingDim := c.tableShape[1]
	if err := checkOutputGrad(op, outputGrad, tensor.Shape{len(c.indices), embeddingDim}); err != nil {
		return nil, err
	}

	gradTable := tensor.Zeros(c.tableShape)
	for i, idx := range c.indices {
		floats.Add(gradTable.Row(idx), outputGrad.Row(i))
	}

	// Return gradient for table (indices don't need gradient)
	return []*tensor.RawTensor{nil, gradTable}, nil
}
