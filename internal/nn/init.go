package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/handgrad/internal/tensor"
)

// KaimingUniform initializes a weight tensor from U(-bound, bound) with
//
//	gain  = sqrt(2 / (1 + a²))
//	bound = gain * sqrt(3 / fan_in)
//
// This is the leaky-ReLU Kaiming policy. With a = sqrt(5), the value used by
// Linear, the bound reduces to 1/sqrt(fan_in).
func KaimingUniform(shape tensor.Shape, a float64, fanIn int, rng *rand.Rand) *tensor.RawTensor {
	gain := math.Sqrt(2 / (1 + a*a))
	bound := gain * math.Sqrt(3/float64(fanIn))
	return Uniform(shape, -bound, bound, rng)
}

// Uniform creates a tensor with values drawn from U(low, high).
func Uniform(shape tensor.Shape, low, high float64, rng *rand.Rand) *tensor.RawTensor {
	t := tensor.Zeros(shape)
	data := t.AsFloat64()
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = low + (high-low)*rng.Float64()
	}
	return t
}

// FanInBound returns 1/sqrt(fanIn), or 0 when fanIn is not positive.
// Linear draws its bias from U(-FanInBound, FanInBound).
func FanInBound(fanIn int) float64 {
	if fanIn <= 0 {
		return 0
	}
	return 1 / math.Sqrt(float64(fanIn))
}
