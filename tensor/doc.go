// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensor consumed and produced by the handgrad operators.
//
// # Overview
//
// A RawTensor is a contiguous row-major buffer with a Shape and a DataType:
//   - float64 tensors carry activations, parameters and gradients
//   - int32 / int64 tensors carry class targets and embedding indices
//   - Shape{} is a scalar with one element
//
// Rank-2 float64 tensors can be viewed as a gonum *mat.Dense without copying.
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/handgrad/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(42))
//
//	    x := tensor.Rand(tensor.Shape{32, 64}, rng)      // U[0, 1)
//	    y := tensor.RandInt(tensor.Shape{32}, 63, rng)   // int64 in [0, 63)
//
//	    m, _ := x.Matrix()                                // shares storage
//	    _ = m.At(0, 0)
//	}
//
// Integer tensors cannot require gradients:
//
//	err := y.SetRequiresGrad(true) // errors.Is(err, tensor.ErrNotDifferentiable)
package tensor
