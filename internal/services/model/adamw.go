package model

import "math"

// adamW implements decoupled weight decay: the decay term is applied to
// the parameter directly rather than folded into the gradient.
type adamW struct {
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64

	step int
	m    [][]float64
	v    [][]float64
}

func newAdamW(params [][]float64, lr, weightDecay float64) *adamW {
	o := &adamW{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8, weightDecay: weightDecay}
	for _, p := range params {
		o.m = append(o.m, make([]float64, len(p)))
		o.v = append(o.v, make([]float64, len(p)))
	}
	return o
}

func (o *adamW) update(params, grads [][]float64) {
	o.step++
	bc1 := 1 - math.Pow(o.beta1, float64(o.step))
	bc2 := 1 - math.Pow(o.beta2, float64(o.step))
	for i, p := range params {
		g := grads[i]
		m, v := o.m[i], o.v[i]
		for j := range p {
			m[j] = o.beta1*m[j] + (1-o.beta1)*g[j]
			v[j] = o.beta2*v[j] + (1-o.beta2)*g[j]*g[j]
			mhat := m[j] / bc1
			vhat := v[j] / bc2
			p[j] -= o.lr * (mhat/(math.Sqrt(vhat)+o.eps) + o.weightDecay*p[j])
		}
	}
}
