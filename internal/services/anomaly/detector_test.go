package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TuniCast/internal/domain/models"
)

func historyBars(volumes []float64, close float64) []models.Bar {
	bars := make([]models.Bar, len(volumes))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range volumes {
		bars[i] = models.Bar{
			Code:    "TST",
			Session: day.AddDate(0, 0, i),
			Close:   close,
			Volume:  v,
		}
	}
	return bars
}

func TestDetectVolumeSpike(t *testing.T) {
	d := NewDetector()
	// Trailing volumes around 1000 with some spread.
	volumes := []float64{900, 1000, 1100, 950, 1050, 1000, 980, 1020, 900, 1100}
	history := historyBars(volumes, 10)

	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 10000}, time.Now())
	require.Len(t, events, 1)
	ev := events[0]
	require.Equal(t, models.AnomalyVolumeSpike, ev.Type)
	require.Greater(t, ev.MetricValue, VolumeZThreshold)
	require.Equal(t, 1.0, ev.Confidence) // z/5 capped at 1

	// Normal volume stays quiet.
	events = d.Detect("TST", history, models.Observation{Close: 10, Volume: 1030}, time.Now())
	require.Empty(t, events)
}

func TestDetectVolumeNeedsHistory(t *testing.T) {
	d := NewDetector()
	history := historyBars([]float64{1000, 1000, 1000, 1000, 1000}, 10)
	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 1e6}, time.Now())
	require.Empty(t, events)
}

func TestDetectVolumeZeroVariance(t *testing.T) {
	d := NewDetector()
	history := historyBars([]float64{1000, 1000, 1000, 1000, 1000, 1000, 1000}, 10)
	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 1e6}, time.Now())
	require.Empty(t, events)
}

func TestDetectVolumeUsesPopulationStd(t *testing.T) {
	d := NewDetector()
	history := historyBars([]float64{1000, 1100, 900, 1050, 950, 1000}, 10)

	// Population std of this window is 64.55; the sample estimate would be
	// 70.71. A volume of 1200 sits between the two thresholds (z 3.10 vs
	// 2.83), so it must fire.
	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 1200}, time.Now())
	require.Len(t, events, 1)
	require.Equal(t, models.AnomalyVolumeSpike, events[0].Type)
	require.InDelta(t, 3.098, events[0].MetricValue, 1e-3)
}

func TestDetectVolumeIgnoresHaltedSession(t *testing.T) {
	d := NewDetector()
	volumes := []float64{900, 1000, 1100, 950, 1050, 1000, 980, 1020, 900, 1100}
	history := historyBars(volumes, 10)
	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 0}, time.Now())
	require.Empty(t, events)
}

func TestDetectPriceShock(t *testing.T) {
	d := NewDetector()
	history := historyBars([]float64{1000, 1010, 990, 1000, 1005, 995, 1000}, 10)

	events := d.Detect("TST", history, models.Observation{Close: 10.8, Volume: 1000}, time.Now())
	require.Len(t, events, 1)
	require.Equal(t, models.AnomalyPriceShock, events[0].Type)
	require.InDelta(t, 0.08, events[0].MetricValue, 1e-9)
	require.Equal(t, 1.0, events[0].Confidence)

	// Drops count too.
	events = d.Detect("TST", history, models.Observation{Close: 9.2, Volume: 1000}, time.Now())
	require.Len(t, events, 1)
	require.Equal(t, models.AnomalyPriceShock, events[0].Type)
	require.Less(t, events[0].MetricValue, 0.0)

	// A 4% move is ordinary.
	events = d.Detect("TST", history, models.Observation{Close: 10.4, Volume: 1000}, time.Now())
	require.Empty(t, events)
}

func TestDetectBothRulesFire(t *testing.T) {
	d := NewDetector()
	volumes := []float64{900, 1000, 1100, 950, 1050, 1000, 980, 1020, 900, 1100}
	history := historyBars(volumes, 10)

	events := d.Detect("TST", history, models.Observation{Close: 11.5, Volume: 10000}, time.Now())
	require.Len(t, events, 2)
}

func TestDetectVolumeWindowIsBounded(t *testing.T) {
	d := NewDetector()
	// Old enormous volumes outside the window must not dilute the z-score.
	volumes := make([]float64, 80)
	for i := range volumes {
		if i < 40 {
			volumes[i] = 1e6
		} else {
			volumes[i] = 1000 + float64(i%7)*20
		}
	}
	history := historyBars(volumes, 10)
	events := d.Detect("TST", history, models.Observation{Close: 10, Volume: 9000}, time.Now())
	require.Len(t, events, 1)
	require.Equal(t, models.AnomalyVolumeSpike, events[0].Type)
}
