package gradcheck

import (
	"math"

	"github.com/born-ml/handgrad/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReferenceFunc is an independent implementation of an operator's forward
// function. It sees the same positional inputs as the operator.
type ReferenceFunc func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// crossEntropyReference computes mean(logsumexp(x[t]) - x[t, y[t]]).
func crossEntropyReference(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	logits := inputs[0]
	targets, err := inputs[1].Indices()
	if err != nil {
		return nil, err
	}
	loss := 0.0
	for t, y := range targets {
		row := logits.Row(t)
		loss += floats.LogSumExp(row) - row[y]
	}
	return tensor.Scalar(loss / float64(len(targets))), nil
}

// layerNormReference normalizes each row with the population mean and variance.
func layerNormReference(epsilon float64) ReferenceFunc {
	return func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		x, gamma, beta := inputs[0], inputs[1].AsFloat64(), inputs[2].AsFloat64()
		rows := x.Shape()[0]
		out := make([]float64, 0, x.NumElements())
		for t := 0; t < rows; t++ {
			row := x.Row(t)
			mean, variance := stat.PopMeanVariance(row, nil)
			std := math.Sqrt(variance + epsilon)
			for c, v := range row {
				out = append(out, (v-mean)/std*gamma[c]+beta[c])
			}
		}
		return tensor.Adopt(out, x.Shape())
	}
}

// linearReference computes x @ W.T + b one output row at a time.
func linearReference(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	x, err := inputs[0].Matrix()
	if err != nil {
		return nil, err
	}
	w, err := inputs[1].Matrix()
	if err != nil {
		return nil, err
	}
	bias := mat.NewVecDense(inputs[2].NumElements(), inputs[2].AsFloat64())

	rows, _ := x.Dims()
	outFeatures, _ := w.Dims()
	out := mat.NewDense(rows, outFeatures, nil)
	var y mat.VecDense
	for t := 0; t < rows; t++ {
		y.MulVec(w, x.RowView(t))
		y.AddVec(&y, bias)
		out.SetRow(t, y.RawVector().Data)
	}
	return tensor.FromDense(out), nil
}

// geluReference uses the identity 0.5(1 + tanh(b)) = sigmoid(2b).
func geluReference(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	x := inputs[0]
	out := make([]float64, x.NumElements())
	for i, v := range x.AsFloat64() {
		b := math.Sqrt(2/math.Pi) * (v + 0.044715*math.Pow(v, 3))
		out[i] = v / (1 + math.Exp(-2*b))
	}
	return tensor.Adopt(out, x.Shape())
}

// addReference sums the two operands.
func addReference(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	out := make([]float64, inputs[0].NumElements())
	floats.AddTo(out, inputs[0].AsFloat64(), inputs[1].AsFloat64())
	return tensor.Adopt(out, inputs[0].Shape())
}

// embeddingReference gathers table rows through a gonum view.
func embeddingReference(inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	indices, err := inputs[0].Indices()
	if err != nil {
		return nil, err
	}
	table, err := inputs[1].Matrix()
	if err != nil {
		return nil, err
	}
	_, dim := table.Dims()
	out := mat.NewDense(len(indices), dim, nil)
	for i, idx := range indices {
		out.SetRow(i, mat.Row(nil, idx, table))
	}
	return tensor.FromDense(out), nil
}
