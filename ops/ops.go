// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the hand-derived differentiable operators.
//
// Every operator has a Forward that returns its output and a Context, and a
// Backward that consumes that Context once and returns one gradient per input
// (nil for integer inputs). Operators do not record anything themselves; an
// engine keeps the Nodes produced by Apply and walks them in reverse.
//
// Example:
//
//	import (
//	    "github.com/born-ml/handgrad/ops"
//	    "github.com/born-ml/handgrad/tensor"
//	)
//
//	func main() {
//	    gelu := ops.NewGELUOp()
//	    y, ctx, _ := gelu.Forward(x)
//	    grads, _ := gelu.Backward(ctx, tensor.Ones(y.Shape()))
//	    dx := grads[0]
//	}
package ops

import (
	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Operator is a differentiable function with an explicit backward pass.
type Operator = ops.Operator

// Context carries what Forward saved for Backward.
type Context = ops.Context

// Node is one recorded operator application.
type Node = ops.Node

// Errors reported by every operator.
var (
	ErrArity           = ops.ErrArity
	ErrContextMismatch = ops.ErrContextMismatch
	ErrContextConsumed = ops.ErrContextConsumed
)

// DefaultLayerNormEpsilon is the variance epsilon used by NewLayerNormOp.
const DefaultLayerNormEpsilon = ops.DefaultLayerNormEpsilon

// Apply runs op forward and records the result as a Node.
func Apply(op Operator, inputs ...*tensor.RawTensor) (*Node, error) {
	return ops.Apply(op, inputs...)
}

// Operators

// CrossEntropyOp is mean softmax cross-entropy over rows of logits.
type CrossEntropyOp = ops.CrossEntropyOp

// NewCrossEntropyOp creates a cross-entropy operator with max-shifted softmax.
func NewCrossEntropyOp() *CrossEntropyOp {
	return ops.NewCrossEntropyOp()
}

// LayerNormOp normalizes each row and applies gamma and beta.
type LayerNormOp = ops.LayerNormOp

// NewLayerNormOp creates a layer normalization operator with eps = 1e-5.
func NewLayerNormOp() *LayerNormOp {
	return ops.NewLayerNormOp()
}

// LinearOp computes x @ W.T + b.
type LinearOp = ops.LinearOp

// NewLinearOp creates a linear operator.
func NewLinearOp() *LinearOp {
	return ops.NewLinearOp()
}

// GELUOp is the tanh approximation of GELU.
type GELUOp = ops.GELUOp

// NewGELUOp creates a GELU operator.
func NewGELUOp() *GELUOp {
	return ops.NewGELUOp()
}

// AddOp is element-wise addition of same-shaped tensors.
type AddOp = ops.AddOp

// NewAddOp creates an addition operator.
func NewAddOp() *AddOp {
	return ops.NewAddOp()
}

// EmbeddingOp gathers table rows by index.
type EmbeddingOp = ops.EmbeddingOp

// NewEmbeddingOp creates an embedding operator.
func NewEmbeddingOp() *EmbeddingOp {
	return ops.NewEmbeddingOp()
}
