// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the modules that own parameters for the handgrad operators.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, LayerNorm, Embedding
//   - Parameter-free modules: GELU, Add, CrossEntropyLoss
//   - Utilities: Module interface, Parameter
//   - Initialization: KaimingUniform, Uniform
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/handgrad/nn"
//	    "github.com/born-ml/handgrad/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(42))
//
//	    layer := nn.NewLinear(64, 64, rng)
//	    node, err := layer.Apply(tensor.Rand(tensor.Shape{32, 64}, rng))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // The node holds the layer's own weight and bias as inputs 1 and 2.
//	    grads, _ := node.Backward(tensor.Ones(node.Output().Shape()))
//	    layer.Weight().SetGrad(grads[1])
//	}
package nn
