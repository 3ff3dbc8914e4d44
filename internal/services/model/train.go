package model

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"TuniCast/internal/services/sequence"
	"TuniCast/pkg/logger"
)

// TrainParams controls the optimization loop.
type TrainParams struct {
	Epochs            int
	BatchSize         int
	LearningRate      float64
	WeightDecay       float64
	ClipNorm          float64
	HuberDelta        float64
	PlateauPatience   int
	PlateauFactor     float64
	EarlyStopPatience int
	TrainFraction     float64
	Seed              int64

	// Arch overrides the network architecture; nil means DefaultConfig.
	Arch *Config
}

// DefaultTrainParams mirrors the production training recipe.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		Epochs:            50,
		BatchSize:         32,
		LearningRate:      1e-3,
		WeightDecay:       1e-4,
		ClipNorm:          1.0,
		HuberDelta:        1.0,
		PlateauPatience:   3,
		PlateauFactor:     0.5,
		EarlyStopPatience: 5,
		TrainFraction:     0.8,
		Seed:              42,
	}
}

// TrainResult carries the best network found and the loss trajectory.
type TrainResult struct {
	Net        *Network
	TrainLoss  []float64
	ValLoss    []float64
	BestVal    float64
	BestEpoch  int
	Epochs     int
	StoppedEarly bool
}

// Train fits a fresh network on the dataset's chronological split and
// returns the checkpoint with the lowest validation loss. Huber loss keeps
// occasional extreme-return sessions from dominating the fit.
func Train(ctx context.Context, ds *sequence.Dataset, p TrainParams, log *logger.Logger) (*TrainResult, error) {
	train, val := ds.SplitChronological(p.TrainFraction)

	cfg := DefaultConfig(len(ds.Columns))
	if p.Arch != nil {
		cfg = *p.Arch
	}
	rng := rand.New(rand.NewSource(p.Seed))
	net := NewNetwork(cfg, rng)
	grads := newNetGrads(net)
	params, gradViews := net.parameters(grads)
	opt := newAdamW(params, p.LearningRate, p.WeightDecay)

	res := &TrainResult{BestVal: math.Inf(1)}
	plateau := 0
	stale := 0

	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= p.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Shuffle batches each epoch; the train/val boundary stays fixed.
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for start := 0; start < len(order); start += p.BatchSize {
			end := start + p.BatchSize
			if end > len(order) {
				end = len(order)
			}
			grads.zero()
			var batchLoss float64
			for _, idx := range order[start:end] {
				s := train[idx]
				tr := net.forward(s.X, true, rng)
				loss, dOut := huber(tr.out, s.Y, p.HuberDelta)
				batchLoss += loss
				net.backward(tr, dOut, grads)
			}
			n := float64(end - start)
			for _, g := range gradViews {
				floats.Scale(1/n, g)
			}
			clipGradNorm(gradViews, p.ClipNorm)
			opt.update(params, gradViews)
			epochLoss += batchLoss
		}
		epochLoss /= float64(len(train))

		valLoss := evaluate(net, val, p.HuberDelta)
		res.TrainLoss = append(res.TrainLoss, epochLoss)
		res.ValLoss = append(res.ValLoss, valLoss)
		res.Epochs = epoch

		if log != nil {
			log.Info("epoch finished",
				logger.Int("epoch", epoch),
				logger.Float64("train_loss", epochLoss),
				logger.Float64("val_loss", valLoss),
				logger.Float64("lr", opt.lr))
		}

		if valLoss < res.BestVal {
			res.BestVal = valLoss
			res.BestEpoch = epoch
			res.Net = net.clone()
			plateau = 0
			stale = 0
			continue
		}
		plateau++
		stale++
		if plateau >= p.PlateauPatience {
			opt.lr *= p.PlateauFactor
			plateau = 0
			if log != nil {
				log.Info("reducing learning rate", logger.Float64("lr", opt.lr))
			}
		}
		if stale >= p.EarlyStopPatience {
			res.StoppedEarly = true
			if log != nil {
				log.Info("early stopping",
					logger.Int("epoch", epoch),
					logger.Int("best_epoch", res.BestEpoch))
			}
			break
		}
	}
	if res.Net == nil {
		res.Net = net
	}
	return res, nil
}

func evaluate(net *Network, samples []sequence.Sample, delta float64) float64 {
	if len(samples) == 0 {
		return math.Inf(1)
	}
	var total float64
	for _, s := range samples {
		out := net.Predict(s.X)
		loss, _ := huber(out, s.Y, delta)
		total += loss
	}
	return total / float64(len(samples))
}

// huber returns the mean Huber loss over the outputs and its gradient.
func huber(pred, target []float64, delta float64) (float64, []float64) {
	n := float64(len(pred))
	grad := make([]float64, len(pred))
	var loss float64
	for i, p := range pred {
		r := p - target[i]
		if math.Abs(r) <= delta {
			loss += 0.5 * r * r
			grad[i] = r / n
		} else {
			loss += delta * (math.Abs(r) - 0.5*delta)
			if r > 0 {
				grad[i] = delta / n
			} else {
				grad[i] = -delta / n
			}
		}
	}
	return loss / n, grad
}

// clipGradNorm rescales all gradients when their global L2 norm exceeds max.
func clipGradNorm(grads [][]float64, max float64) {
	if max <= 0 {
		return
	}
	var sq float64
	for _, g := range grads {
		d := floats.Norm(g, 2)
		sq += d * d
	}
	norm := math.Sqrt(sq)
	if norm <= max {
		return
	}
	scale := max / norm
	for _, g := range grads {
		floats.Scale(scale, g)
	}
}
