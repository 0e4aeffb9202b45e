package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [T] -> embeddings [T, EmbedDim]
//   - Backward: gradients scatter-add to weight rows
//
// Example:
//
//	embed := nn.NewEmbedding(1000, 64, rng)
//	ids, _ := tensor.FromInt64s([]int64{1, 2, 3}, tensor.Shape{3})
//	embeddings, err := embed.Forward(ids)  // [3, 64]
type Embedding struct {
	Weight   *Parameter // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int        // Number of embeddings (vocabulary size)
	EmbedDim int        // Embedding dimension (vector size)
	op       *ops.EmbeddingOp
}

// NewEmbedding creates a new Embedding layer.
//
// The embedding weights are initialized from a standard normal distribution N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int, rng *rand.Rand) *Embedding {
	return NewEmbeddingWithWeight(tensor.Randn(tensor.Shape{numEmbeddings, embeddingDim}, rng))
}

// NewEmbeddingWithWeight creates an Embedding layer with pre-initialized weights.
// The layer takes ownership of weight.
func NewEmbeddingWithWeight(weight *tensor.RawTensor) *Embedding {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding{
		Weight:   NewParameter("weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
		op:       ops.NewEmbeddingOp(),
	}
}

// Apply records the lookup of indices (int32 or int64, shape [T]).
func (e *Embedding) Apply(indices *tensor.RawTensor) (*ops.Node, error) {
	return ops.Apply(e.op, indices, e.Weight.Tensor())
}

// Forward looks up the embeddings for indices.
func (e *Embedding) Forward(indices *tensor.RawTensor) (*tensor.RawTensor, error) {
	return output(e.Apply(indices))
}

// Parameters returns the embedding weight.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}
