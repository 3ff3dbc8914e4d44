package sequence

import (
	"sort"

	"TuniCast/internal/domain/models"
)

const (
	// DefaultSeqLen is the number of trading sessions fed to the model
	// per sample.
	DefaultSeqLen = 60

	// MinRowsPerInstrument is the minimum number of feature rows an
	// instrument must have before it contributes training windows.
	MinRowsPerInstrument = 200
)

// DefaultHorizons are the forecast offsets, in sessions ahead of the
// window end. Each horizon target is the single-session log return
// observed at that offset, not a cumulative return.
var DefaultHorizons = []int{1, 5}

// Sample is one training example: a scaled window of feature vectors and
// the per-horizon log-return targets that follow it.
type Sample struct {
	Code    string
	X       [][]float64
	Y       []float64
	EndedAt int // index of the last window row within the instrument's series
}

// Dataset bundles the built samples with the scaler that produced them.
// The scaler must travel with any model trained on the samples.
type Dataset struct {
	Samples  []Sample
	Scaler   *RobustScaler
	SeqLen   int
	Horizons []int
	Columns  []string
}

// Build assembles scaled training windows from per-instrument feature
// rows. Instruments with fewer than MinRowsPerInstrument rows are skipped.
// A single scaler is fitted on the concatenation of all eligible
// instruments, and windows never straddle instrument boundaries.
func Build(rowsByCode map[string][]models.FeatureRow, seqLen int, horizons []int) (*Dataset, error) {
	if seqLen <= 0 {
		seqLen = DefaultSeqLen
	}
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	maxHorizon := horizons[0]
	for _, h := range horizons[1:] {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	codes := make([]string, 0, len(rowsByCode))
	for code, rows := range rowsByCode {
		if len(rows) >= MinRowsPerInstrument {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return nil, models.InsufficientHistory("no instrument has %d feature rows", MinRowsPerInstrument)
	}
	sort.Strings(codes)

	var all [][]float64
	for _, code := range codes {
		for _, row := range rowsByCode[code] {
			all = append(all, row.Vector())
		}
	}
	scaler, err := FitRobustScaler(all)
	if err != nil {
		return nil, models.ScalingFailure("fitting scaler", err)
	}

	ds := &Dataset{
		Scaler:   scaler,
		SeqLen:   seqLen,
		Horizons: append([]int(nil), horizons...),
		Columns:  append([]string(nil), models.FeatureColumns...),
	}
	for _, code := range codes {
		rows := rowsByCode[code]
		scaled := make([][]float64, len(rows))
		for i, row := range rows {
			scaled[i], err = scaler.Transform(row.Vector())
			if err != nil {
				return nil, models.ScalingFailure("scaling "+code, err)
			}
		}
		for i := 0; i+seqLen+maxHorizon <= len(rows); i++ {
			x := make([][]float64, seqLen)
			copy(x, scaled[i:i+seqLen])
			y := make([]float64, len(horizons))
			for j, h := range horizons {
				y[j] = rows[i+seqLen+h-1].LogReturn
			}
			ds.Samples = append(ds.Samples, Sample{
				Code:    code,
				X:       x,
				Y:       y,
				EndedAt: i + seqLen - 1,
			})
		}
	}
	return ds, nil
}

// SplitChronological partitions samples into train and validation sets by
// position, preserving order. Shuffling here would leak future sessions
// into training.
func (d *Dataset) SplitChronological(trainFrac float64) (train, val []Sample) {
	if trainFrac <= 0 || trainFrac >= 1 {
		trainFrac = 0.8
	}
	cut := int(float64(len(d.Samples)) * trainFrac)
	return d.Samples[:cut], d.Samples[cut:]
}
