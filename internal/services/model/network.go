package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Config fixes the forecaster architecture. The defaults mirror the sizes
// the artifact format expects; changing them invalidates saved bundles.
type Config struct {
	InputSize  int     `json:"input_size"`
	HiddenSize int     `json:"hidden_size"`
	NumLayers  int     `json:"num_layers"`
	Dropout    float64 `json:"dropout"`
	HeadHidden int     `json:"head_hidden"`
	Outputs    int     `json:"outputs"`
}

// DefaultConfig returns the production architecture: two stacked
// bidirectional layers of 128 units and a two-horizon regression head.
func DefaultConfig(inputSize int) Config {
	return Config{
		InputSize:  inputSize,
		HiddenSize: 128,
		NumLayers:  2,
		Dropout:    0.3,
		HeadHidden: 64,
		Outputs:    2,
	}
}

// biLayer pairs the forward and backward cells of one bidirectional layer.
type biLayer struct {
	Fwd *lstmCell `json:"fwd"`
	Bwd *lstmCell `json:"bwd"`
}

// linear is a fully connected layer, W row-major (Out x In).
type linear struct {
	W   []float64 `json:"w"`
	B   []float64 `json:"b"`
	In  int       `json:"in"`
	Out int       `json:"out"`
}

func newLinear(in, out int, rng *rand.Rand) *linear {
	l := &linear{W: make([]float64, out*in), B: make([]float64, out), In: in, Out: out}
	bound := 1.0 / math.Sqrt(float64(in))
	uniformFill(l.W, bound, rng)
	uniformFill(l.B, bound, rng)
	return l
}

func (l *linear) forward(x []float64) []float64 {
	out := make([]float64, l.Out)
	copy(out, l.B)
	matVecAcc(out, l.W, x, l.Out, l.In)
	return out
}

// layerNorm normalizes a single activation vector. It replaces batch
// statistics so training does not depend on batch composition.
type layerNorm struct {
	Gamma []float64 `json:"gamma"`
	Beta  []float64 `json:"beta"`
	Eps   float64   `json:"eps"`
}

func newLayerNorm(n int) *layerNorm {
	ln := &layerNorm{Gamma: make([]float64, n), Beta: make([]float64, n), Eps: 1e-5}
	for i := range ln.Gamma {
		ln.Gamma[i] = 1
	}
	return ln
}

func (ln *layerNorm) forward(x []float64) (y, xhat []float64, invStd float64) {
	n := len(x)
	mean := floats.Sum(x) / float64(n)
	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	invStd = 1.0 / math.Sqrt(variance+ln.Eps)
	xhat = make([]float64, n)
	y = make([]float64, n)
	for i, v := range x {
		xhat[i] = (v - mean) * invStd
		y[i] = ln.Gamma[i]*xhat[i] + ln.Beta[i]
	}
	return y, xhat, invStd
}

// Network is the bidirectional LSTM forecaster: stacked recurrent layers
// followed by a normalized two-layer regression head that reads the last
// timestep.
type Network struct {
	Cfg    Config     `json:"config"`
	Layers []*biLayer `json:"layers"`
	FC1    *linear    `json:"fc1"`
	Norm   *layerNorm `json:"norm"`
	FC2    *linear    `json:"fc2"`
}

// NewNetwork initializes all parameters from the given source so training
// runs are reproducible.
func NewNetwork(cfg Config, rng *rand.Rand) *Network {
	n := &Network{Cfg: cfg}
	in := cfg.InputSize
	for l := 0; l < cfg.NumLayers; l++ {
		n.Layers = append(n.Layers, &biLayer{
			Fwd: newLSTMCell(in, cfg.HiddenSize, rng),
			Bwd: newLSTMCell(in, cfg.HiddenSize, rng),
		})
		in = 2 * cfg.HiddenSize
	}
	n.FC1 = newLinear(2*cfg.HiddenSize, cfg.HeadHidden, rng)
	n.Norm = newLayerNorm(cfg.HeadHidden)
	n.FC2 = newLinear(cfg.HeadHidden, cfg.Outputs, rng)
	return n
}

// trace caches a full forward pass for backpropagation.
type trace struct {
	layerIn  [][][]float64 // per layer: input sequence actually fed (post-dropout)
	fwd      [][]*cellTrace
	bwd      [][]*cellTrace
	masks    [][][]float64 // inter-layer dropout masks, nil in eval mode
	concat   []float64     // last-timestep [hFwd, hBwd] of the top layer
	z1       []float64     // FC1 output
	xhat     []float64
	invStd   float64
	relu     []float64
	headMask []float64
	dropped  []float64 // head activation after dropout
	out      []float64
}

// Predict runs inference with dropout disabled.
func (n *Network) Predict(xs [][]float64) []float64 {
	tr := n.forward(xs, false, nil)
	return tr.out
}

func (n *Network) forward(xs [][]float64, train bool, rng *rand.Rand) *trace {
	tr := &trace{}
	seq := xs
	for li, layer := range n.Layers {
		tr.layerIn = append(tr.layerIn, seq)
		fwd := layer.Fwd.runDirection(seq, false)
		bwd := layer.Bwd.runDirection(seq, true)
		tr.fwd = append(tr.fwd, fwd)
		tr.bwd = append(tr.bwd, bwd)

		out := make([][]float64, len(seq))
		for t := range seq {
			out[t] = concat(fwd[t].h, bwd[t].h)
		}
		// Dropout between recurrent layers only, as in stacked LSTMs.
		if li < len(n.Layers)-1 && train && n.Cfg.Dropout > 0 {
			masks := make([][]float64, len(out))
			for t := range out {
				masks[t] = dropoutMask(len(out[t]), n.Cfg.Dropout, rng)
				applyMask(out[t], masks[t])
			}
			tr.masks = append(tr.masks, masks)
		} else {
			tr.masks = append(tr.masks, nil)
		}
		seq = out
	}

	tr.concat = seq[len(seq)-1]
	tr.z1 = n.FC1.forward(tr.concat)
	var y []float64
	y, tr.xhat, tr.invStd = n.Norm.forward(tr.z1)
	tr.relu = make([]float64, len(y))
	for i, v := range y {
		if v > 0 {
			tr.relu[i] = v
		}
	}
	tr.dropped = tr.relu
	if train && n.Cfg.Dropout > 0 {
		tr.headMask = dropoutMask(len(tr.relu), n.Cfg.Dropout, rng)
		tr.dropped = append([]float64(nil), tr.relu...)
		applyMask(tr.dropped, tr.headMask)
	}
	tr.out = n.FC2.forward(tr.dropped)
	return tr
}

// netGrads mirrors the parameter layout of Network.
type netGrads struct {
	layers []struct{ fwd, bwd *lstmGrads }
	fc1W, fc1B []float64
	gamma, beta []float64
	fc2W, fc2B []float64
}

func newNetGrads(n *Network) *netGrads {
	g := &netGrads{
		fc1W:  make([]float64, len(n.FC1.W)),
		fc1B:  make([]float64, len(n.FC1.B)),
		gamma: make([]float64, len(n.Norm.Gamma)),
		beta:  make([]float64, len(n.Norm.Beta)),
		fc2W:  make([]float64, len(n.FC2.W)),
		fc2B:  make([]float64, len(n.FC2.B)),
	}
	for _, l := range n.Layers {
		g.layers = append(g.layers, struct{ fwd, bwd *lstmGrads }{
			fwd: newLSTMGrads(l.Fwd),
			bwd: newLSTMGrads(l.Bwd),
		})
	}
	return g
}

func (g *netGrads) zero() {
	for _, l := range g.layers {
		l.fwd.zero()
		l.bwd.zero()
	}
	zeroFill(g.fc1W)
	zeroFill(g.fc1B)
	zeroFill(g.gamma)
	zeroFill(g.beta)
	zeroFill(g.fc2W)
	zeroFill(g.fc2B)
}

// backward accumulates gradients for one sample given dOut, the loss
// gradient wrt the network output.
func (n *Network) backward(tr *trace, dOut []float64, g *netGrads) {
	// FC2
	outerAcc(g.fc2W, dOut, tr.dropped)
	floats.Add(g.fc2B, dOut)
	dDropped := matTVec(n.FC2.W, dOut, n.FC2.Out, n.FC2.In)

	if tr.headMask != nil {
		applyMask(dDropped, tr.headMask)
	}
	// ReLU
	for i := range dDropped {
		if tr.relu[i] == 0 {
			dDropped[i] = 0
		}
	}
	// LayerNorm
	m := len(dDropped)
	dxhat := make([]float64, m)
	var sumDxhat, sumDxhatXhat float64
	for i, dy := range dDropped {
		g.gamma[i] += dy * tr.xhat[i]
		g.beta[i] += dy
		dxhat[i] = dy * n.Norm.Gamma[i]
		sumDxhat += dxhat[i]
		sumDxhatXhat += dxhat[i] * tr.xhat[i]
	}
	dz1 := make([]float64, m)
	for i := range dz1 {
		dz1[i] = tr.invStd * (dxhat[i] - sumDxhat/float64(m) - tr.xhat[i]*sumDxhatXhat/float64(m))
	}
	// FC1
	outerAcc(g.fc1W, dz1, tr.concat)
	floats.Add(g.fc1B, dz1)
	dConcat := matTVec(n.FC1.W, dz1, n.FC1.Out, n.FC1.In)

	// Seed the top layer gradient at the last timestep only.
	h := n.Cfg.HiddenSize
	top := len(n.Layers) - 1
	seqLen := len(tr.fwd[top])
	dSeq := make([][]float64, seqLen)
	dSeq[seqLen-1] = dConcat

	for li := top; li >= 0; li-- {
		dFwd := make([][]float64, seqLen)
		dBwd := make([][]float64, seqLen)
		for t, d := range dSeq {
			if d == nil {
				continue
			}
			dFwd[t] = d[:h]
			dBwd[t] = d[h:]
		}
		dxF := n.Layers[li].Fwd.backwardDirection(tr.fwd[li], dFwd, false, g.layers[li].fwd)
		dxB := n.Layers[li].Bwd.backwardDirection(tr.bwd[li], dBwd, true, g.layers[li].bwd)

		if li == 0 {
			break
		}
		next := make([][]float64, seqLen)
		for t := 0; t < seqLen; t++ {
			d := dxF[t]
			floats.Add(d, dxB[t])
			if tr.masks[li-1] != nil {
				applyMask(d, tr.masks[li-1][t])
			}
			next[t] = d
		}
		dSeq = next
	}
}

// parameters and gradients return matching flat views for the optimizer.
func (n *Network) parameters(g *netGrads) (params, grads [][]float64) {
	for li, l := range n.Layers {
		params = append(params, l.Fwd.Wx, l.Fwd.Wh, l.Fwd.B, l.Bwd.Wx, l.Bwd.Wh, l.Bwd.B)
		lg := g.layers[li]
		grads = append(grads, lg.fwd.Wx, lg.fwd.Wh, lg.fwd.B, lg.bwd.Wx, lg.bwd.Wh, lg.bwd.B)
	}
	params = append(params, n.FC1.W, n.FC1.B, n.Norm.Gamma, n.Norm.Beta, n.FC2.W, n.FC2.B)
	grads = append(grads, g.fc1W, g.fc1B, g.gamma, g.beta, g.fc2W, g.fc2B)
	return params, grads
}

// clone deep-copies all parameters, used for best-checkpoint snapshots.
func (n *Network) clone() *Network {
	cp := &Network{Cfg: n.Cfg}
	for _, l := range n.Layers {
		cp.Layers = append(cp.Layers, &biLayer{Fwd: cloneCell(l.Fwd), Bwd: cloneCell(l.Bwd)})
	}
	cp.FC1 = &linear{W: append([]float64(nil), n.FC1.W...), B: append([]float64(nil), n.FC1.B...), In: n.FC1.In, Out: n.FC1.Out}
	cp.Norm = &layerNorm{Gamma: append([]float64(nil), n.Norm.Gamma...), Beta: append([]float64(nil), n.Norm.Beta...), Eps: n.Norm.Eps}
	cp.FC2 = &linear{W: append([]float64(nil), n.FC2.W...), B: append([]float64(nil), n.FC2.B...), In: n.FC2.In, Out: n.FC2.Out}
	return cp
}

func cloneCell(c *lstmCell) *lstmCell {
	return &lstmCell{
		Wx: append([]float64(nil), c.Wx...),
		Wh: append([]float64(nil), c.Wh...),
		B:  append([]float64(nil), c.B...),
		In: c.In, Hidden: c.Hidden,
	}
}

func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// dropoutMask builds an inverted-dropout mask: kept units scale by 1/(1-p)
// so evaluation needs no rescaling.
func dropoutMask(n int, p float64, rng *rand.Rand) []float64 {
	mask := make([]float64, n)
	keep := 1.0 / (1.0 - p)
	for i := range mask {
		if rng.Float64() >= p {
			mask[i] = keep
		}
	}
	return mask
}

func applyMask(xs, mask []float64) {
	for i := range xs {
		xs[i] *= mask[i]
	}
}
