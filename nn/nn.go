// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/handgrad/internal/nn"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Module interface defines the common interface for single-input modules.
type Module = nn.Module

// Parameter represents a trainable parameter and its gradient slot.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and float tensor.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected layer y = x @ W.T + b.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Kaiming-uniform weights.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(784, 128, rng)
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// LayerNorm represents layer normalization over the last axis.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a layer norm with gamma = 1, beta = 0 and eps = 1e-5.
func NewLayerNorm(normalizedShape int) *LayerNorm {
	return nn.NewLayerNorm(normalizedShape)
}

// NewLayerNormWithEpsilon creates a layer norm with a custom epsilon.
func NewLayerNormWithEpsilon(normalizedShape int, epsilon float64) *LayerNorm {
	return nn.NewLayerNormWithEpsilon(normalizedShape, epsilon)
}

// Embedding represents a lookup table of embeddings.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int, rng *rand.Rand) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, rng)
}

// NewEmbeddingWithWeight creates an embedding around an existing [N, D] table.
func NewEmbeddingWithWeight(weight *tensor.RawTensor) *Embedding {
	return nn.NewEmbeddingWithWeight(weight)
}

// Parameter-free modules

// GELU is the tanh-approximated GELU activation.
type GELU = nn.GELU

// NewGELU creates a GELU activation.
func NewGELU() *GELU {
	return nn.NewGELU()
}

// Add sums two same-shaped tensors, typically a residual connection.
type Add = nn.Add

// NewAdd creates an addition module.
func NewAdd() *Add {
	return nn.NewAdd()
}

// CrossEntropyLoss is mean softmax cross-entropy against integer targets.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss()
}

// Initialization

// KaimingUniform draws from U(-bound, bound), bound = gain * sqrt(3 / fanIn).
func KaimingUniform(shape tensor.Shape, a float64, fanIn int, rng *rand.Rand) *tensor.RawTensor {
	return nn.KaimingUniform(shape, a, fanIn, rng)
}

// Uniform draws from U(low, high).
func Uniform(shape tensor.Shape, low, high float64, rng *rand.Rand) *tensor.RawTensor {
	return nn.Uniform(shape, low, high, rng)
}
