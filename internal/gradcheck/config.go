// Package gradcheck verifies the handgrad operators.
//
// For every operator it runs two checks on seeded random inputs:
//   - forward: the output against an independent reference implementation
//   - gradient: each analytic input gradient against a central finite
//     difference of the projected output ⟨v, f(x)⟩ for a random upstream v
//
// The first mismatch aborts the checks for that operator and is reported as
// a *MismatchError naming the operator, the check and the element.
package gradcheck

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

// Operator names, in the order the harness runs them.
const (
	CrossEntropy = "cross_entropy"
	LayerNorm    = "layer_norm"
	Linear       = "linear"
	GELU         = "gelu"
	Add          = "add"
	Embedding    = "embedding"
)

// AllOperators lists every checked operator in run order.
var AllOperators = []string{CrossEntropy, LayerNorm, Linear, GELU, Add, Embedding}

// Config controls input generation and the tolerance contract.
//
// Values compare equal when they are within Atol absolutely or within Rtol
// relative to the larger magnitude.
type Config struct {
	Seed      int64    // seeds every random input and upstream gradient
	Batch     int      // T: rows of every [T, C] input
	Features  int      // C: feature width / number of classes
	Atol      float64  // absolute tolerance
	Rtol      float64  // relative tolerance
	Step      float64  // finite-difference step
	Operators []string // subset of AllOperators; empty means all
}

// DefaultConfig returns the standard check: T=32, C=64, float64 inputs,
// seed 42, atol = rtol = 1e-2, step 1e-6.
func DefaultConfig() Config {
	return Config{
		Seed:     42,
		Batch:    32,
		Features: 64,
		Atol:     1e-2,
		Rtol:     1e-2,
		Step:     1e-6,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Batch < 2:
		return errors.Errorf("gradcheck: batch must be at least 2, got %d", c.Batch)
	case c.Features < 2:
		return errors.Errorf("gradcheck: features must be at least 2, got %d", c.Features)
	case math.IsNaN(c.Atol) || math.IsNaN(c.Rtol) || math.IsNaN(c.Step):
		return errors.Errorf("gradcheck: atol, rtol and step must be numbers, got atol=%g rtol=%g step=%g",
			c.Atol, c.Rtol, c.Step)
	case c.Atol < 0 || c.Rtol < 0:
		return errors.Errorf("gradcheck: tolerances must be non-negative, got atol=%g rtol=%g", c.Atol, c.Rtol)
	case c.Atol == 0 && c.Rtol == 0:
		return errors.New("gradcheck: atol and rtol cannot both be zero")
	case c.Step <= 0:
		return errors.Errorf("gradcheck: step must be positive, got %g", c.Step)
	}
	for _, name := range c.Operators {
		if !slices.Contains(AllOperators, name) {
			return errors.Errorf("gradcheck: unknown operator %q (known: %v)", name, AllOperators)
		}
	}
	return nil
}

// selected reports whether the operator is part of this run.
func (c Config) selected(name string) bool {
	return len(c.Operators) == 0 || slices.Contains(c.Operators, name)
}
