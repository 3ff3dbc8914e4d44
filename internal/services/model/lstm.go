package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Gate packing order inside the 4H rows of Wx, Wh and B.
// Matches the i, f, g, o convention: input, forget, cell, output.

// lstmCell holds the parameters of a single-direction LSTM layer.
// Weights are row-major: Wx is (4H x In), Wh is (4H x H).
type lstmCell struct {
	Wx []float64 `json:"wx"`
	Wh []float64 `json:"wh"`
	B  []float64 `json:"b"`

	In     int `json:"in"`
	Hidden int `json:"hidden"`
}

func newLSTMCell(in, hidden int, rng *rand.Rand) *lstmCell {
	c := &lstmCell{
		Wx:     make([]float64, 4*hidden*in),
		Wh:     make([]float64, 4*hidden*hidden),
		B:      make([]float64, 4*hidden),
		In:     in,
		Hidden: hidden,
	}
	bound := 1.0 / math.Sqrt(float64(hidden))
	uniformFill(c.Wx, bound, rng)
	uniformFill(c.Wh, bound, rng)
	uniformFill(c.B, bound, rng)
	return c
}

// cellTrace caches one timestep's activations for backpropagation.
type cellTrace struct {
	x     []float64
	hPrev []float64
	cPrev []float64
	i     []float64 // post-sigmoid
	f     []float64
	g     []float64 // post-tanh
	o     []float64
	c     []float64
	tanhC []float64
	h     []float64
}

// step advances the cell by one input. The returned trace owns its slices.
func (c *lstmCell) step(x, hPrev, cPrev []float64) *cellTrace {
	h := c.Hidden
	tr := &cellTrace{
		x: x, hPrev: hPrev, cPrev: cPrev,
		i: make([]float64, h), f: make([]float64, h),
		g: make([]float64, h), o: make([]float64, h),
		c: make([]float64, h), tanhC: make([]float64, h),
		h: make([]float64, h),
	}
	z := make([]float64, 4*h)
	copy(z, c.B)
	matVecAcc(z, c.Wx, x, 4*h, c.In)
	matVecAcc(z, c.Wh, hPrev, 4*h, h)
	for j := 0; j < h; j++ {
		tr.i[j] = sigmoid(z[j])
		tr.f[j] = sigmoid(z[h+j])
		tr.g[j] = math.Tanh(z[2*h+j])
		tr.o[j] = sigmoid(z[3*h+j])
		tr.c[j] = tr.f[j]*cPrev[j] + tr.i[j]*tr.g[j]
		tr.tanhC[j] = math.Tanh(tr.c[j])
		tr.h[j] = tr.o[j] * tr.tanhC[j]
	}
	return tr
}

// lstmGrads accumulates parameter gradients across timesteps and samples.
type lstmGrads struct {
	Wx []float64
	Wh []float64
	B  []float64
}

func newLSTMGrads(c *lstmCell) *lstmGrads {
	return &lstmGrads{
		Wx: make([]float64, len(c.Wx)),
		Wh: make([]float64, len(c.Wh)),
		B:  make([]float64, len(c.B)),
	}
}

func (g *lstmGrads) zero() {
	zeroFill(g.Wx)
	zeroFill(g.Wh)
	zeroFill(g.B)
}

// backward unrolls backpropagation through the full sequence of traces.
// dOut[t] is the loss gradient wrt the hidden output at step t; the
// returned dx[t] is the gradient wrt the input at step t.
func (c *lstmCell) backward(traces []*cellTrace, dOut [][]float64, grads *lstmGrads) (dx [][]float64) {
	h := c.Hidden
	dx = make([][]float64, len(traces))
	dhNext := make([]float64, h)
	dcNext := make([]float64, h)
	dz := make([]float64, 4*h)

	for t := len(traces) - 1; t >= 0; t-- {
		tr := traces[t]
		for j := 0; j < h; j++ {
			dh := dhNext[j]
			if dOut[t] != nil {
				dh += dOut[t][j]
			}
			do := dh * tr.tanhC[j]
			dc := dh*tr.o[j]*(1-tr.tanhC[j]*tr.tanhC[j]) + dcNext[j]

			di := dc * tr.g[j]
			df := dc * tr.cPrev[j]
			dg := dc * tr.i[j]
			dcNext[j] = dc * tr.f[j]

			dz[j] = di * tr.i[j] * (1 - tr.i[j])
			dz[h+j] = df * tr.f[j] * (1 - tr.f[j])
			dz[2*h+j] = dg * (1 - tr.g[j]*tr.g[j])
			dz[3*h+j] = do * tr.o[j] * (1 - tr.o[j])
		}

		outerAcc(grads.Wx, dz, tr.x)
		outerAcc(grads.Wh, dz, tr.hPrev)
		floats.Add(grads.B, dz)

		dx[t] = matTVec(c.Wx, dz, 4*h, c.In)
		dhNext = matTVec(c.Wh, dz, 4*h, h)
	}
	return dx
}

// runDirection feeds the sequence through the cell, reversed when asked,
// and returns traces indexed by the ORIGINAL timestep so callers can pair
// forward and backward outputs per step.
func (c *lstmCell) runDirection(xs [][]float64, reverse bool) []*cellTrace {
	n := len(xs)
	traces := make([]*cellTrace, n)
	hPrev := make([]float64, c.Hidden)
	cPrev := make([]float64, c.Hidden)
	for s := 0; s < n; s++ {
		t := s
		if reverse {
			t = n - 1 - s
		}
		tr := c.step(xs[t], hPrev, cPrev)
		traces[t] = tr
		hPrev = tr.h
		cPrev = tr.c
	}
	return traces
}

// backwardDirection mirrors runDirection: traces and dOut are indexed by
// original timestep, and the recurrence is unrolled in processing order.
func (c *lstmCell) backwardDirection(traces []*cellTrace, dOut [][]float64, reverse bool, grads *lstmGrads) [][]float64 {
	if !reverse {
		return c.backward(traces, dOut, grads)
	}
	n := len(traces)
	rt := make([]*cellTrace, n)
	rd := make([][]float64, n)
	for t := 0; t < n; t++ {
		rt[n-1-t] = traces[t]
		rd[n-1-t] = dOut[t]
	}
	rdx := c.backward(rt, rd, grads)
	dx := make([][]float64, n)
	for t := 0; t < n; t++ {
		dx[t] = rdx[n-1-t]
	}
	return dx
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func uniformFill(xs []float64, bound float64, rng *rand.Rand) {
	for i := range xs {
		xs[i] = (rng.Float64()*2 - 1) * bound
	}
}

func zeroFill(xs []float64) {
	for i := range xs {
		xs[i] = 0
	}
}

// matVecAcc computes dst += W*x for a row-major (rows x cols) W.
func matVecAcc(dst, w, x []float64, rows, cols int) {
	for r := 0; r < rows; r++ {
		dst[r] += floats.Dot(w[r*cols:(r+1)*cols], x)
	}
}

// matTVec computes Wᵀ*v for a row-major (rows x cols) W.
func matTVec(w, v []float64, rows, cols int) []float64 {
	out := make([]float64, cols)
	for r := 0; r < rows; r++ {
		floats.AddScaled(out, v[r], w[r*cols:(r+1)*cols])
	}
	return out
}

// outerAcc computes dst += v ⊗ x, with dst row-major (len(v) x len(x)).
func outerAcc(dst, v, x []float64) {
	cols := len(x)
	for r, vr := range v {
		if vr == 0 {
			continue
		}
		floats.AddScaled(dst[r*cols:(r+1)*cols], vr, x)
	}
}
