package ops

import (
	"math"

	"github.com/born-ml/handgrad/internal/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// CrossEntropyOp represents the mean cross-entropy loss of a batch.
//
// Forward:
//
//	s = softmax(logits) row-wise
//	Loss = mean_t(-log s[t, targets[t]])
//
// Backward:
//
//	∂L/∂logits[t,c] = grad * (s[t,c] - 1{c == targets[t]}) / T
//
// With ShiftMax the row maximum is subtracted before exponentiating and the
// loss is taken as logsumexp(x[t]) - x[t, target], which is exact for any
// logit magnitude. Without it the softmax is computed directly as
// exp(x)/Σexp(x); that form overflows once logits approach ~700 and is only
// meant for small-magnitude inputs.
//
// Assumptions:
//   - Logits shape: [batch_size, num_classes] (2D float64)
//   - Targets shape: [batch_size] (1D int32/int64 class indices)
//   - Output: scalar loss (mean over batch)
type CrossEntropyOp struct {
	ShiftMax bool
}

// CrossEntropyContext saves the logits, the targets and the softmax probabilities.
type CrossEntropyContext struct {
	saved
	logits  *tensor.RawTensor // [T, C]
	targets []int             // [T]
	softmax *tensor.RawTensor // [T, C]
}

func (*CrossEntropyContext) operatorName() string { return "cross_entropy" }

// NewCrossEntropyOp creates a cross-entropy operation that subtracts the row max.
func NewCrossEntropyOp() *CrossEntropyOp {
	return &CrossEntropyOp{ShiftMax: true}
}

// Name returns "cross_entropy".
func (*CrossEntropyOp) Name() string { return "cross_entropy" }

// Differentiable reports that only the logits receive a gradient.
func (*CrossEntropyOp) Differentiable() []bool { return []bool{true, false} }

// Forward computes the mean loss. Inputs are (logits, targets).
func (op *CrossEntropyOp) Forward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, Context, error) {
	if err := checkArity(op, inputs); err != nil {
		return nil, nil, err
	}
	logits, targetsT := inputs[0], inputs[1]

	if err := tensor.CheckDType("cross_entropy logits", logits, tensor.Float64); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckRank("cross_entropy logits", logits, 2); err != nil {
		return nil, nil, err
	}
	if err := tensor.CheckRank("cross_entropy targets", targetsT, 1); err != nil {
		return nil, nil, err
	}
	batchSize, numClasses := logits.Shape()[0], logits.Shape()[1]
	if targetsT.Shape()[0] != batchSize {
		return nil, nil, errors.Wrapf(tensor.ErrShapeMismatch,
			"cross_entropy: %d targets for %d rows of logits", targetsT.Shape()[0], batchSize)
	}
	targets, err := targetsT.Indices()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "cross_entropy targets")
	}

	probs := make([]float64, batchSize*numClasses)
	totalLoss := 0.0
	for t := 0; t < batchSize; t++ {
		target := targets[t]
		if target < 0 || target >= numClasses {
			return nil, nil, errors.Wrapf(tensor.ErrIndexOutOfRange,
				"cross_entropy: target %d at row %d, %d classes", target, t, numClasses)
		}
		row := logits.Row(t)
		p := probs[t*numClasses : (t+1)*numClasses]
		if op.ShiftMax {
			totalLoss += softmaxShifted(p, row) - row[target]
		} else {
			softmaxDirect(p, row)
			totalLoss += -math.Log(p[target])
		}
	}

	softmax, err := tensor.Adopt(probs, logits.Shape())
	if err != nil {
		return nil, nil, err
	}
	ctx := &CrossEntropyContext{logits: logits, targets: targets, softmax: softmax}
	return tensor.Scalar(totalLoss / float64(batchSize)), ctx, nil
}

// Backward computes the gradient with respect to the logits.
// The upstream gradient must hold a single element.
func (op *CrossEntropyOp) Backward(ctx Context, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	c, err := takeContext[*CrossEntropyContext](op, ctx)
	if err != nil {
		return nil, err
	}
	if outputGrad == nil || outputGrad.DType() != tensor.Float64 || outputGrad.NumElements() != 1 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch,
			"cross_entropy backward: upstream gradient must be a float64 scalar, got %v", outputGrad)
	}

	batchSize, numClasses := c.logits.Shape()[0], c.logits.Shape()[1]
	scale := outputGrad.AsFloat64()[0] / float64(batchSize)

	dx := make([]float64, batchSize*numClasses)
	copy(dx, c.softmax.AsFloat64())
	for t, target := range c.targets {
		dx[t*numClasses+target] -= 1
	}
	floats.Scale(scale, dx)

	grad, err := tensor.Adopt(dx, c.logits.Shape())
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{grad, nil}, nil
}

// softmaxDirect writes exp(x)/Σexp(x) into dst.
func softmaxDirect(dst, x []float64) {
	for i, v := range x {
		dst[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}

// softmaxShifted writes softmax(x) into dst using exp(x - max) and
// returns logsumexp(x).
func softmaxShifted(dst, x []float64) float64 {
	maxVal := floats.Max(x)
	for i, v := range x {
		dst[i] = math.Exp(v - maxVal)
	}
	sum := floats.Sum(dst)
	floats.Scale(1/sum, dst)
	return maxVal + math.Log(sum)
}
