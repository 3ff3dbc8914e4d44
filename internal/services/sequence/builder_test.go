package sequence

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TuniCast/internal/domain/models"
)

func syntheticRows(code string, n int, seed int64) []models.FeatureRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]models.FeatureRow, n)
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.FeatureRow{
			Code:         code,
			Session:      day.AddDate(0, 0, i),
			Close:        50 + rng.Float64()*10,
			LogReturn:    rng.NormFloat64() * 0.02,
			Volatility20: 0.01 + rng.Float64()*0.02,
			RSI:          rng.Float64() * 100,
			MACDHist:     rng.NormFloat64(),
			BBPos:        rng.Float64(),
			VolumeChange: rng.NormFloat64(),
		}
	}
	return rows
}

func TestFitRobustScalerConstantColumn(t *testing.T) {
	rows := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	s, err := FitRobustScaler(rows)
	require.NoError(t, err)
	require.Equal(t, 5.0, s.Center[1])
	// Zero IQR falls back to unit scale instead of dividing by zero.
	require.Equal(t, 1.0, s.Scale[1])

	out, err := s.Transform([]float64{2.5, 5})
	require.NoError(t, err)
	require.InDelta(t, 0.0, out[0], 1e-12)
	require.InDelta(t, 0.0, out[1], 1e-12)
}

func TestRobustScalerResistsOutliers(t *testing.T) {
	rows := make([][]float64, 101)
	for i := range rows {
		rows[i] = []float64{float64(i % 10)}
	}
	rows[100] = []float64{1e9}
	s, err := FitRobustScaler(rows)
	require.NoError(t, err)
	// One wild outlier must not blow up the scale.
	require.Less(t, s.Scale[0], 10.0)
}

func TestRobustScalerColumnMismatch(t *testing.T) {
	s, err := FitRobustScaler([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	_, err = s.Transform([]float64{1})
	require.Error(t, err)
}

func TestBuildSkipsShortInstruments(t *testing.T) {
	data := map[string][]models.FeatureRow{
		"LONG":  syntheticRows("LONG", 250, 1),
		"SHORT": syntheticRows("SHORT", 80, 2),
	}
	ds, err := Build(data, DefaultSeqLen, DefaultHorizons)
	require.NoError(t, err)
	for _, s := range ds.Samples {
		require.Equal(t, "LONG", s.Code)
	}
}

func TestBuildAllShortInstruments(t *testing.T) {
	data := map[string][]models.FeatureRow{
		"A": syntheticRows("A", 50, 1),
	}
	_, err := Build(data, DefaultSeqLen, DefaultHorizons)
	require.Error(t, err)
	require.Equal(t, models.ErrCodeInsufficientHistory, models.CodeOf(err))
}

func TestBuildWindowShapeAndTargets(t *testing.T) {
	rows := syntheticRows("TST", 250, 3)
	ds, err := Build(map[string][]models.FeatureRow{"TST": rows}, 60, []int{1, 5})
	require.NoError(t, err)
	require.NotEmpty(t, ds.Samples)

	// 250 rows, window 60, max horizon 5: windows start at 0..185.
	require.Len(t, ds.Samples, 250-60-5+1)

	first := ds.Samples[0]
	require.Len(t, first.X, 60)
	require.Len(t, first.X[0], len(models.FeatureColumns))
	require.Len(t, first.Y, 2)
	require.Equal(t, rows[60].LogReturn, first.Y[0])
	require.Equal(t, rows[64].LogReturn, first.Y[1])
	require.Equal(t, 59, first.EndedAt)
}

func TestBuildWindowsStayWithinInstrument(t *testing.T) {
	data := map[string][]models.FeatureRow{
		"AAA": syntheticRows("AAA", 210, 4),
		"BBB": syntheticRows("BBB", 210, 5),
	}
	ds, err := Build(data, 60, []int{1, 5})
	require.NoError(t, err)
	perCode := 210 - 60 - 5 + 1
	require.Len(t, ds.Samples, 2*perCode)
	counts := map[string]int{}
	for _, s := range ds.Samples {
		counts[s.Code]++
	}
	require.Equal(t, perCode, counts["AAA"])
	require.Equal(t, perCode, counts["BBB"])
}

func TestBuildScalesInputs(t *testing.T) {
	rows := syntheticRows("TST", 250, 6)
	ds, err := Build(map[string][]models.FeatureRow{"TST": rows}, 60, []int{1})
	require.NoError(t, err)
	// RSI lives in [0,100] raw; scaled values must be re-centered.
	var maxAbs float64
	for _, s := range ds.Samples {
		for _, step := range s.X {
			if v := math.Abs(step[2]); v > maxAbs {
				maxAbs = v
			}
		}
	}
	require.Less(t, maxAbs, 50.0)
}

func TestSplitChronological(t *testing.T) {
	rows := syntheticRows("TST", 250, 7)
	ds, err := Build(map[string][]models.FeatureRow{"TST": rows}, 60, []int{1, 5})
	require.NoError(t, err)
	train, val := ds.SplitChronological(0.8)
	require.Equal(t, len(ds.Samples), len(train)+len(val))
	require.Equal(t, int(float64(len(ds.Samples))*0.8), len(train))
	// Validation windows all end after every training window.
	require.Greater(t, val[0].EndedAt, train[len(train)-1].EndedAt)
}
