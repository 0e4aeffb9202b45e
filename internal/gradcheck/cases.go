package gradcheck

import (
	"math/rand"

	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
)

// Case is one operator together with its inputs and reference.
type Case struct {
	Name      string
	Op        ops.Operator
	Inputs    []*tensor.RawTensor
	Reference ReferenceFunc
}

// Cases builds the six fixed cases, in AllOperators order, from cfg.Seed.
//
// Floating inputs are drawn from U[0, 1). Cross-entropy targets lie in
// [0, C-1) and embedding indices in [0, T-1) over a [T, C] table. Inputs for
// every operator are drawn even when cfg selects a subset, so a case sees
// the same data whether it runs alone or with the others.
func Cases(cfg Config) []Case {
	rng := rand.New(rand.NewSource(cfg.Seed))
	T, C := cfg.Batch, cfg.Features
	layerNorm := ops.NewLayerNormOp()

	all := []Case{
		{
			Name:      CrossEntropy,
			Op:        ops.NewCrossEntropyOp(),
			Inputs:    []*tensor.RawTensor{tensor.Rand(tensor.Shape{T, C}, rng), tensor.RandInt(tensor.Shape{T}, C-1, rng)},
			Reference: crossEntropyReference,
		},
		{
			Name: LayerNorm,
			Op:   layerNorm,
			Inputs: []*tensor.RawTensor{
				tensor.Rand(tensor.Shape{T, C}, rng), tensor.Rand(tensor.Shape{C}, rng), tensor.Rand(tensor.Shape{C}, rng),
			},
			Reference: layerNormReference(layerNorm.Epsilon),
		},
		{
			Name: Linear,
			Op:   ops.NewLinearOp(),
			Inputs: []*tensor.RawTensor{
				tensor.Rand(tensor.Shape{T, C}, rng), tensor.Rand(tensor.Shape{C, C}, rng), tensor.Rand(tensor.Shape{C}, rng),
			},
			Reference: linearReference,
		},
		{
			Name:      GELU,
			Op:        ops.NewGELUOp(),
			Inputs:    []*tensor.RawTensor{tensor.Rand(tensor.Shape{T, C}, rng)},
			Reference: geluReference,
		},
		{
			Name:      Add,
			Op:        ops.NewAddOp(),
			Inputs:    []*tensor.RawTensor{tensor.Rand(tensor.Shape{T, C}, rng), tensor.Rand(tensor.Shape{T, C}, rng)},
			Reference: addReference,
		},
		{
			Name:      Embedding,
			Op:        ops.NewEmbeddingOp(),
			Inputs:    []*tensor.RawTensor{tensor.RandInt(tensor.Shape{T}, T-1, rng), tensor.Rand(tensor.Shape{T, C}, rng)},
			Reference: embeddingReference,
		},
	}

	cases := make([]Case, 0, len(all))
	for _, c := range all {
		if cfg.selected(c.Name) {
			cases = append(cases, c)
		}
	}
	return cases
}
