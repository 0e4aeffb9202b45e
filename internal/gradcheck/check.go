package gradcheck

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/handgrad/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Check names the comparison that failed.
type Check string

// Checks performed per operator.
const (
	CheckForward  Check = "forward"
	CheckGradient Check = "gradient"
)

// ErrGradientContract reports a backward pass that returned the wrong number
// of gradients, a gradient for a non-differentiable input, a missing
// gradient, or a gradient whose shape or dtype does not match its input.
var ErrGradientContract = errors.New("gradient contract violated")

// MismatchError reports the first element outside tolerance.
type MismatchError struct {
	Operator string
	Check    Check
	Input    int // positional input for gradient checks, -1 for forward
	Index    int // flat element index
	Got      float64
	Want     float64
}

func (e *MismatchError) Error() string {
	if e.Check == CheckForward {
		return fmt.Sprintf("%s: forward mismatch at element %d: got %.10g, reference %.10g",
			e.Operator, e.Index, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: gradient mismatch for input %d at element %d: analytic %.10g, numerical %.10g",
		e.Operator, e.Input, e.Index, e.Got, e.Want)
}

// compare returns the first index where got and want differ beyond tolerance, or -1.
func compare(got, want []float64, cfg Config) int {
	for i := range got {
		if !scalar.EqualWithinAbsOrRel(got[i], want[i], cfg.Atol, cfg.Rtol) {
			return i
		}
	}
	return -1
}

// CheckForwardValues compares the operator output with the reference output.
func CheckForwardValues(c Case, cfg Config) error {
	got, _, err := c.Op.Forward(c.Inputs...)
	if err != nil {
		return errors.WithMessagef(err, "%s forward", c.Name)
	}
	want, err := c.Reference(c.Inputs)
	if err != nil {
		return errors.WithMessagef(err, "%s reference", c.Name)
	}
	if err := tensor.CheckShape(c.Name+" forward output", got.Shape(), want.Shape()); err != nil {
		return err
	}
	if i := compare(got.AsFloat64(), want.AsFloat64(), cfg); i >= 0 {
		return &MismatchError{
			Operator: c.Name, Check: CheckForward, Input: -1, Index: i,
			Got: got.AsFloat64()[i], Want: want.AsFloat64()[i],
		}
	}
	return nil
}

// CheckGradients compares every analytic input gradient with a central
// finite difference of x ↦ ⟨v, Forward(x)⟩, v drawn from rng.
func CheckGradients(c Case, cfg Config, rng *rand.Rand) error {
	out, ctx, err := c.Op.Forward(c.Inputs...)
	if err != nil {
		return errors.WithMessagef(err, "%s forward", c.Name)
	}
	upstream := tensor.Randn(out.Shape(), rng)
	grads, err := c.Op.Backward(ctx, upstream)
	if err != nil {
		return errors.WithMessagef(err, "%s backward", c.Name)
	}

	differentiable := c.Op.Differentiable()
	if len(grads) != len(differentiable) {
		return errors.Wrapf(ErrGradientContract, "%s: %d gradients for %d inputs", c.Name, len(grads), len(differentiable))
	}

	for i, wantGrad := range differentiable {
		switch {
		case !wantGrad && grads[i] != nil:
			return errors.Wrapf(ErrGradientContract, "%s: gradient returned for non-differentiable input %d", c.Name, i)
		case !wantGrad:
			continue
		case grads[i] == nil:
			return errors.Wrapf(ErrGradientContract, "%s: no gradient for input %d", c.Name, i)
		case !grads[i].Shape().Equal(c.Inputs[i].Shape()):
			return errors.Wrapf(ErrGradientContract, "%s: gradient %d has shape %s, input has %s",
				c.Name, i, grads[i].Shape(), c.Inputs[i].Shape())
		case grads[i].DType() != tensor.Float64:
			return errors.Wrapf(ErrGradientContract, "%s: gradient %d has dtype %s, want %s",
				c.Name, i, grads[i].DType(), tensor.Float64)
		}

		numerical := numericalGradient(c, i, upstream, cfg.Step)
		analytic := grads[i].AsFloat64()
		if j := compare(analytic, numerical, cfg); j >= 0 {
			return &MismatchError{
				Operator: c.Name, Check: CheckGradient, Input: i, Index: j,
				Got: analytic[j], Want: numerical[j],
			}
		}
	}
	return nil
}

// numericalGradient differentiates ⟨upstream, Forward(inputs)⟩ with respect to
// input i. Forward failures panic; Run converts them into errors.
func numericalGradient(c Case, i int, upstream *tensor.RawTensor, step float64) []float64 {
	shape := c.Inputs[i].Shape()
	v := upstream.AsFloat64()
	inputs := make([]*tensor.RawTensor, len(c.Inputs))
	copy(inputs, c.Inputs)

	f := func(x []float64) float64 {
		perturbed, err := tensor.FromFloat64s(x, shape)
		if err != nil {
			exceptions.Panicf("%s: perturbing input %d: %v", c.Name, i, err)
		}
		inputs[i] = perturbed
		out, _, err := c.Op.Forward(inputs...)
		if err != nil {
			exceptions.Panicf("%s: forward at perturbed input %d: %v", c.Name, i, err)
		}
		return floats.Dot(v, out.AsFloat64())
	}

	return fd.Gradient(nil, f, c.Inputs[i].AsFloat64(), &fd.Settings{
		Formula: fd.Central,
		Step:    step,
	})
}
