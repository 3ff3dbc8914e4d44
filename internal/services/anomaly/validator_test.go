package anomaly

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TuniCast/internal/domain/models"
)

func calmSeries(n int, seed int64) []models.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]models.Bar, n)
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	close := 20.0
	for i := range bars {
		close *= 1 + (rng.Float64()-0.5)*0.01 // drifts well under the shock threshold
		bars[i] = models.Bar{
			Code:    "TST",
			Session: day.AddDate(0, 0, i),
			Close:   close,
			Volume:  1000 + rng.Float64()*100,
		}
	}
	return bars
}

func TestValidatorRejectsShortHistory(t *testing.T) {
	v := NewValidator(NewDetector(), rand.New(rand.NewSource(1)))
	_, err := v.Run("TST", calmSeries(60, 1))
	require.Error(t, err)
	require.Equal(t, models.ErrCodeValidationData, models.CodeOf(err))
}

func TestValidatorScoresInjections(t *testing.T) {
	v := NewValidator(NewDetector(), rand.New(rand.NewSource(1)))
	report, err := v.Run("TST", calmSeries(200, 2))
	require.NoError(t, err)

	require.Equal(t, "TST", report.Symbol)
	require.Equal(t, 10, report.Injected) // 5% of 200
	require.Equal(t, 200-replayStart, report.TotalSamples)
	require.Equal(t, report.Injected, report.TruePositives+report.FalseNegatives)

	// Injections are an order of magnitude beyond both thresholds, so a
	// calm series should score well.
	require.GreaterOrEqual(t, report.Recall, 0.7)
	require.Greater(t, report.Precision, 0.3)
	require.Greater(t, report.F1, 0.4)
	require.LessOrEqual(t, report.Precision, 1.0)
	require.LessOrEqual(t, report.Recall, 1.0)
}

func TestValidatorScoresByInjectedKind(t *testing.T) {
	// Closes alternate 10% up and down so the price rule fires at every
	// replayed session, while flat volumes keep the volume rule silent.
	// Planted volume spikes must then show up as misses: an event of the
	// wrong kind does not count as a hit.
	bars := make([]models.Bar, 160)
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		close := 10.0
		if i%2 == 1 {
			close = 11.0
		}
		bars[i] = models.Bar{Code: "TST", Session: day.AddDate(0, 0, i), Close: close, Volume: 1000}
	}

	seed := int64(11)
	planned := NewValidator(NewDetector(), rand.New(rand.NewSource(seed))).inject(append([]models.Bar(nil), bars...))
	volumePlanted := 0
	for _, kind := range planned {
		if kind == models.AnomalyVolumeSpike {
			volumePlanted++
		}
	}
	require.Greater(t, volumePlanted, 0)

	report, err := NewValidator(NewDetector(), rand.New(rand.NewSource(seed))).Run("TST", bars)
	require.NoError(t, err)
	require.Equal(t, report.Injected, report.TruePositives+report.FalseNegatives)
	// Price injections always land, so every miss is a volume spike the
	// detector could not see behind a zero-variance window.
	require.Greater(t, report.FalseNegatives, 0)
	require.LessOrEqual(t, report.FalseNegatives, volumePlanted)
}

func TestValidatorInjectionFloor(t *testing.T) {
	v := NewValidator(NewDetector(), rand.New(rand.NewSource(3)))
	report, err := v.Run("TST", calmSeries(100, 3))
	require.NoError(t, err)
	// 5% of 100 is already the floor of 5.
	require.Equal(t, 5, report.Injected)
}

func TestValidatorTruncatesLongHistory(t *testing.T) {
	v := NewValidator(NewDetector(), rand.New(rand.NewSource(4)))
	report, err := v.Run("TST", calmSeries(500, 4))
	require.NoError(t, err)
	require.Equal(t, MaxValidationSessions-replayStart, report.TotalSamples)
	require.Equal(t, 10, report.Injected)
}

func TestValidatorDeterministicPerSeed(t *testing.T) {
	bars := calmSeries(200, 5)
	a, err := NewValidator(NewDetector(), rand.New(rand.NewSource(9))).Run("TST", bars)
	require.NoError(t, err)
	b, err := NewValidator(NewDetector(), rand.New(rand.NewSource(9))).Run("TST", bars)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// The harness must not mutate the caller's series.
	again := calmSeries(200, 5)
	require.Equal(t, again, bars)
}
