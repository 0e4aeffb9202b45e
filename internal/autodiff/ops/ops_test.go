package ops_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/handgrad/internal/autodiff/ops"
	"github.com/born-ml/handgrad/internal/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fromSlice builds a float64 tensor or fails the test.
func fromSlice(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat64s(data, shape)
	require.NoError(t, err)
	return raw
}

// indices builds an int64 index tensor or fails the test.
func indices(t *testing.T, data ...int64) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromInt64s(data, tensor.Shape{len(data)})
	require.NoError(t, err)
	return raw
}

// numericalGradient estimates d<v, op(inputs)>/d inputs[which] with central differences.
func numericalGradient(t *testing.T, op ops.Operator, inputs []*tensor.RawTensor, which int, v *tensor.RawTensor) []float64 {
	t.Helper()
	const h = 1e-6

	project := func(in []*tensor.RawTensor) float64 {
		out, _, err := op.Forward(in...)
		require.NoError(t, err)
		sum := 0.0
		for i, y := range out.AsFloat64() {
			sum += y * v.AsFloat64()[i]
		}
		return sum
	}

	base := inputs[which].AsFloat64()
	grad := make([]float64, len(base))
	for j := range base {
		perturbed := make([]*tensor.RawTensor, len(inputs))
		copy(perturbed, inputs)

		plus := inputs[which].Clone()
		plus.AsFloat64()[j] += h
		perturbed[which] = plus
		fPlus := project(perturbed)

		minus := inputs[which].Clone()
		minus.AsFloat64()[j] -= h
		perturbed[which] = minus
		fMinus := project(perturbed)

		grad[j] = (fPlus - fMinus) / (2 * h)
	}
	return grad
}

// checkGradients compares every differentiable input's analytic gradient
// with the finite-difference estimate.
func checkGradients(t *testing.T, op ops.Operator, inputs []*tensor.RawTensor, rng *rand.Rand) {
	t.Helper()
	out, ctx, err := op.Forward(inputs...)
	require.NoError(t, err)

	v := tensor.Rand(out.Shape(), rng)
	grads, err := op.Backward(ctx, v)
	require.NoError(t, err)
	require.Len(t, grads, len(inputs))

	for i, differentiable := range op.Differentiable() {
		if !differentiable {
			assert.Nil(t, grads[i], "%s: input %d must not receive a gradient", op.Name(), i)
			continue
		}
		require.NotNil(t, grads[i], "%s: input %d has no gradient", op.Name(), i)
		assert.Equal(t, inputs[i].Shape(), grads[i].Shape())

		want := numericalGradient(t, op, inputs, i, v)
		for j, got := range grads[i].AsFloat64() {
			assert.InDelta(t, want[j], got, 1e-5, "%s: input %d element %d", op.Name(), i, j)
		}
	}
}

// TestAddOp_Forward tests element-wise addition.
func TestAddOp_Forward(t *testing.T) {
	a := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float64{10, 20, 30, 40}, tensor.Shape{2, 2})

	out, _, err := ops.NewAddOp().Forward(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 44}, out.AsFloat64())

	// Inputs are untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.AsFloat64())
}

// TestAddOp_Commutative tests a + b == b + a.
func TestAddOp_Commutative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := tensor.Rand(tensor.Shape{4, 5}, rng)
	b := tensor.Rand(tensor.Shape{4, 5}, rng)

	ab, _, err := ops.NewAddOp().Forward(a, b)
	require.NoError(t, err)
	ba, _, err := ops.NewAddOp().Forward(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab.AsFloat64(), ba.AsFloat64())
}

// TestAddOp_BackwardIdentity tests that the upstream gradient flows unchanged to both inputs.
func TestAddOp_BackwardIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := tensor.Rand(tensor.Shape{3, 2}, rng)
	b := tensor.Rand(tensor.Shape{3, 2}, rng)
	op := ops.NewAddOp()

	_, ctx, err := op.Forward(a, b)
	require.NoError(t, err)

	upstream := tensor.Rand(tensor.Shape{3, 2}, rng)
	want := append([]float64(nil), upstream.AsFloat64()...)

	grads, err := op.Backward(ctx, upstream)
	require.NoError(t, err)
	require.Len(t, grads, 2)
	assert.Same(t, upstream, grads[0])
	assert.Same(t, upstream, grads[1])
	assert.Equal(t, want, grads[0].AsFloat64())
}

// TestAddOp_ShapeMismatch tests that Add never broadcasts.
func TestAddOp_ShapeMismatch(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{2, 3})
	b := tensor.Zeros(tensor.Shape{3})

	_, _, err := ops.NewAddOp().Forward(a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

// TestGELUOp_Forward tests known GELU values.
func TestGELUOp_Forward(t *testing.T) {
	x := fromSlice(t, []float64{0, 1, -1, 2}, tensor.Shape{4})
	out, _, err := ops.NewGELUOp().Forward(x)
	require.NoError(t, err)

	want := []float64{0, 0.8411919906082768, -0.15880800939172324, 1.954597694087775}
	assert.InDeltaSlice(t, want, out.AsFloat64(), 1e-12)
}

// TestGELUOp_Backward tests GELU gradient against finite differences.
func TestGELUOp_Backward(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := tensor.Randn(tensor.Shape{3, 4}, rng)
	checkGradients(t, ops.NewGELUOp(), []*tensor.RawTensor{x}, rng)
}

// TestLinearOp_Forward tests y = x @ W.T + b on a hand-computed case.
func TestLinearOp_Forward(t *testing.T) {
	x := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := fromSlice(t, []float64{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	b := fromSlice(t, []float64{0.5, -0.5, 0}, tensor.Shape{3})

	out, _, err := ops.NewLinearOp().Forward(x, w, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float64{1.5, 1.5, 3, 3.5, 3.5, 7}, out.AsFloat64())
}

// TestLinearOp_Backward tests the closed-form gradients and finite differences.
func TestLinearOp_Backward(t *testing.T) {
	x := fromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := fromSlice(t, []float64{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	b := fromSlice(t, []float64{0, 0, 0}, tensor.Shape{3})
	op := ops.NewLinearOp()

	_, ctx, err := op.Forward(x, w, b)
	require.NoError(t, err)

	g := fromSlice(t, []float64{1, 0, 1, 0, 1, 1}, tensor.Shape{2, 3})
	grads, err := op.Backward(ctx, g)
	require.NoError(t, err)

	// dx = g @ W
	assert.Equal(t, []float64{2, 1, 1, 2}, grads[0].AsFloat64())
	// dW = g.T @ x
	assert.Equal(t, []float64{1, 2, 3, 4, 4, 6}, grads[1].AsFloat64())
	// db = column sums of g
	assert.Equal(t, []float64{1, 1, 2}, grads[2].AsFloat64())

	rng := rand.New(rand.NewSource(4))
	checkGradients(t, op, []*tensor.RawTensor{
		tensor.Rand(tensor.Shape{4, 3}, rng),
		tensor.Rand(tensor.Shape{5, 3}, rng),
		tensor.Rand(tensor.Shape{5}, rng),
	}, rng)
}

// TestLinearOp_ShapeErrors tests weight and bias shape validation.
func TestLinearOp_ShapeErrors(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2, 3})
	op := ops.NewLinearOp()

	_, _, err := op.Forward(x, tensor.Zeros(tensor.Shape{4, 2}), tensor.Zeros(tensor.Shape{4}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	_, _, err = op.Forward(x, tensor.Zeros(tensor.Shape{4, 3}), tensor.Zeros(tensor.Shape{3}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	_, _, err = op.Forward(x, tensor.Zeros(tensor.Shape{4, 3}))
	assert.True(t, errors.Is(err, ops.ErrArity))
}

// TestLayerNormOp_Normalization tests per-row mean 0 and variance 1 with unit gain and zero bias.
func TestLayerNormOp_Normalization(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const rows, cols = 6, 16
	x := tensor.Rand(tensor.Shape{rows, cols}, rng)

	out, _, err := ops.NewLayerNormOp().Forward(x, tensor.Ones(tensor.Shape{cols}), tensor.Zeros(tensor.Shape{cols}))
	require.NoError(t, err)

	for r := 0; r < rows; r++ {
		row := out.Row(r)
		mean, variance := 0.0, 0.0
		for _, v := range row {
			mean += v
		}
		mean /= cols
		for _, v := range row {
			variance += (v - mean) * (v - mean)
		}
		variance /= cols

		assert.InDelta(t, 0, mean, 1e-9, "row %d mean", r)
		// eps = 1e-5 keeps the variance just below 1.
		assert.InDelta(t, 1, variance, 1e-3, "row %d variance", r)
	}
}

// TestLayerNormOp_IdenticalRows tests that identical rows normalize identically.
func TestLayerNormOp_IdenticalRows(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	row := tensor.Rand(tensor.Shape{8}, rng).AsFloat64()
	data := make([]float64, 0, 4*8)
	for i := 0; i < 4; i++ {
		data = append(data, row...)
	}
	x := fromSlice(t, data, tensor.Shape{4, 8})

	out, _, err := ops.NewLayerNormOp().Forward(x, tensor.Rand(tensor.Shape{8}, rng), tensor.Rand(tensor.Shape{8}, rng))
	require.NoError(t, err)
	for r := 1; r < 4; r++ {
		assert.Equal(t, out.Row(0), out.Row(r))
	}
}

// TestLayerNormOp_Backward tests all three gradients against finite differences.
func TestLayerNormOp_Backward(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	checkGradients(t, ops.NewLayerNormOp(), []*tensor.RawTensor{
		tensor.Rand(tensor.Shape{4, 6}, rng),
		tensor.Rand(tensor.Shape{6}, rng),
		tensor.Rand(tensor.Shape{6}, rng),
	}, rng)
}

// TestLayerNormOp_ShapeErrors tests gain/bias validation.
func TestLayerNormOp_ShapeErrors(t *testing.T) {
	_, _, err := ops.NewLayerNormOp().Forward(
		tensor.Zeros(tensor.Shape{2, 3}), tensor.Ones(tensor.Shape{4}), tensor.Zeros(tensor.Shape{3}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

// TestEmbeddingOp_Forward tests row gathering.
func TestEmbeddingOp_Forward(t *testing.T) {
	table := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})

	out, _, err := ops.NewEmbeddingOp().Forward(indices(t, 2, 0, 2), table)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float64{5, 6, 1, 2, 5, 6}, out.AsFloat64())
}

// TestEmbeddingOp_BackwardAccumulates tests that repeated indices sum their gradients.
func TestEmbeddingOp_BackwardAccumulates(t *testing.T) {
	table := tensor.Zeros(tensor.Shape{3, 2})
	op := ops.NewEmbeddingOp()

	_, ctx, err := op.Forward(indices(t, 0, 1, 0), table)
	require.NoError(t, err)

	g := fromSlice(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	grads, err := op.Backward(ctx, g)
	require.NoError(t, err)

	assert.Nil(t, grads[0])
	assert.Equal(t, tensor.Shape{3, 2}, grads[1].Shape())
	assert.Equal(t, []float64{6, 8, 3, 4, 0, 0}, grads[1].AsFloat64())
}

// TestEmbeddingOp_Backward tests the table gradient against finite differences.
func TestEmbeddingOp_Backward(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	checkGradients(t, ops.NewEmbeddingOp(), []*tensor.RawTensor{
		indices(t, 3, 1, 3, 0, 4),
		tensor.Rand(tensor.Shape{6, 3}, rng),
	}, rng)
}

// TestEmbeddingOp_Errors tests index range and dtype validation.
func TestEmbeddingOp_Errors(t *testing.T) {
	table := tensor.Zeros(tensor.Shape{3, 2})
	op := ops.NewEmbeddingOp()

	_, _, err := op.Forward(indices(t, 0, 3), table)
	assert.True(t, errors.Is(err, tensor.ErrIndexOutOfRange))

	_, _, err = op.Forward(indices(t, -1), table)
	assert.True(t, errors.Is(err, tensor.ErrIndexOutOfRange))

	_, _, err = op.Forward(tensor.Zeros(tensor.Shape{2}), table)
	assert.True(t, errors.Is(err, tensor.ErrDType))
}

// TestCrossEntropyOp_Forward tests the loss on a hand-computed case.
func TestCrossEntropyOp_Forward(t *testing.T) {
	logits := fromSlice(t, []float64{1, 2, 3, 3, 2, 1}, tensor.Shape{2, 3})
	targets := indices(t, 2, 0)

	for _, op := range []*ops.CrossEntropyOp{{ShiftMax: true}, {ShiftMax: false}} {
		out, _, err := op.Forward(logits, targets)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Shape().Rank())
		assert.InDelta(t, 0.4076059644443803, out.AsFloat64()[0], 1e-12, "ShiftMax=%v", op.ShiftMax)
	}
}

// TestCrossEntropyOp_DegenerateOneHot tests that a certain prediction has zero loss.
func TestCrossEntropyOp_DegenerateOneHot(t *testing.T) {
	logits := fromSlice(t, []float64{
		100, 0, 0, 0,
		0, 0, 100, 0,
	}, tensor.Shape{2, 4})

	out, _, err := ops.NewCrossEntropyOp().Forward(logits, indices(t, 0, 2))
	require.NoError(t, err)
	assert.InDelta(t, 0, out.AsFloat64()[0], 1e-12)
}

// TestCrossEntropyOp_LargeLogits tests that the shifted softmax survives large magnitudes
// where the direct form overflows.
func TestCrossEntropyOp_LargeLogits(t *testing.T) {
	logits := fromSlice(t, []float64{1000, 999, 998}, tensor.Shape{1, 3})
	targets := indices(t, 1)

	out, _, err := ops.NewCrossEntropyOp().Forward(logits, targets)
	require.NoError(t, err)
	assert.InDelta(t, 1.4076059644443803, out.AsFloat64()[0], 1e-9)

	direct, _, err := (&ops.CrossEntropyOp{}).Forward(logits, targets)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(direct.AsFloat64()[0]))
}

// TestCrossEntropyOp_Backward tests (softmax - onehot) * grad / T and finite differences.
func TestCrossEntropyOp_Backward(t *testing.T) {
	logits := fromSlice(t, []float64{1, 2, 3, 3, 2, 1}, tensor.Shape{2, 3})
	op := ops.NewCrossEntropyOp()

	_, ctx, err := op.Forward(logits, indices(t, 2, 0))
	require.NoError(t, err)

	grads, err := op.Backward(ctx, tensor.Scalar(2))
	require.NoError(t, err)
	require.Len(t, grads, 2)
	assert.Nil(t, grads[1])

	s := []float64{0.09003057317038046, 0.24472847105479767, 0.6652409557748219}
	want := []float64{
		s[0], s[1], s[2] - 1,
		s[2] - 1, s[1], s[0],
	}
	assert.InDeltaSlice(t, want, grads[0].AsFloat64(), 1e-12)

	rng := rand.New(rand.NewSource(9))
	checkGradients(t, op, []*tensor.RawTensor{tensor.Rand(tensor.Shape{5, 4}, rng), indices(t, 0, 3, 3, 1, 2)}, rng)
}

// TestCrossEntropyOp_ShapeErrors tests logits/targets contract violations.
func TestCrossEntropyOp_ShapeErrors(t *testing.T) {
	op := ops.NewCrossEntropyOp()
	logits := tensor.Zeros(tensor.Shape{3, 4})

	_, _, err := op.Forward(logits, indices(t, 0, 1))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	_, _, err = op.Forward(logits, indices(t, 0, 1, 4))
	assert.True(t, errors.Is(err, tensor.ErrIndexOutOfRange))

	_, _, err = op.Forward(tensor.Zeros(tensor.Shape{12}), indices(t, 0, 1, 2))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	_, ctx, err := op.Forward(logits, indices(t, 0, 1, 2))
	require.NoError(t, err)
	_, err = op.Backward(ctx, tensor.Zeros(tensor.Shape{2}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

// TestContext_ConsumedOnce tests that a context cannot drive two backward passes.
func TestContext_ConsumedOnce(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2})
	op := ops.NewGELUOp()

	_, ctx, err := op.Forward(x)
	require.NoError(t, err)

	_, err = op.Backward(ctx, tensor.Ones(tensor.Shape{2}))
	require.NoError(t, err)

	_, err = op.Backward(ctx, tensor.Ones(tensor.Shape{2}))
	assert.True(t, errors.Is(err, ops.ErrContextConsumed))
}

// TestContext_Mismatch tests that a context only feeds its own operator.
func TestContext_Mismatch(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2})
	_, ctx, err := ops.NewGELUOp().Forward(x)
	require.NoError(t, err)

	_, err = ops.NewAddOp().Backward(ctx, x)
	assert.True(t, errors.Is(err, ops.ErrContextMismatch))

	_, err = ops.NewAddOp().Backward(nil, x)
	assert.True(t, errors.Is(err, ops.ErrContextMismatch))

	var typedNil *ops.GELUContext
	require.NotPanics(t, func() { _, err = ops.NewGELUOp().Backward(typedNil, x) })
	assert.True(t, errors.Is(err, ops.ErrContextMismatch))
}

// TestOutputGradShape tests that backward rejects an upstream gradient of the wrong shape.
func TestOutputGradShape(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2, 2})
	op := ops.NewGELUOp()
	_, ctx, err := op.Forward(x)
	require.NoError(t, err)

	_, err = op.Backward(ctx, tensor.Zeros(tensor.Shape{4}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

// TestNode tests that a Node replays the operator's backward.
func TestNode(t *testing.T) {
	a := fromSlice(t, []float64{1, 2}, tensor.Shape{2})
	b := fromSlice(t, []float64{3, 4}, tensor.Shape{2})

	node, err := ops.Apply(ops.NewAddOp(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "add", node.Op().Name())
	assert.Equal(t, []*tensor.RawTensor{a, b}, node.Inputs())
	assert.Equal(t, []float64{4, 6}, node.Output().AsFloat64())

	grads, err := node.Backward(tensor.Ones(tensor.Shape{2}))
	require.NoError(t, err)
	assert.Len(t, grads, 2)

	_, err = ops.Apply(ops.NewAddOp(), a)
	assert.True(t, errors.Is(err, ops.ErrArity))
}
