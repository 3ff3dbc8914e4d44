package anomaly

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"TuniCast/internal/domain/models"
)

const (
	// VolumeWindow is how many trailing sessions feed the volume z-score.
	VolumeWindow = 30

	// MinVolumePoints is the minimum trailing history before the volume
	// rule can fire; below this the z-score is meaningless.
	MinVolumePoints = 5

	// VolumeZThreshold flags volumes more than this many standard
	// deviations above the trailing mean.
	VolumeZThreshold = 3.0

	// PriceShockThreshold flags single-session moves beyond this fraction
	// of the previous close.
	PriceShockThreshold = 0.05
)

// Detector applies the statistical anomaly rules to a single observation
// against its trailing history. It is stateless and safe for concurrent use.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect evaluates one observation for the given instrument. history is
// the chronological series of prior sessions; obs is the session under
// test. Both rules are checked independently, so one observation can raise
// two events.
func (d *Detector) Detect(code string, history []models.Bar, obs models.Observation, at time.Time) []models.AnomalyEvent {
	var events []models.AnomalyEvent

	if ev, ok := d.volumeSpike(code, history, obs, at); ok {
		events = append(events, ev)
	}
	if ev, ok := d.priceShock(code, history, obs, at); ok {
		events = append(events, ev)
	}
	return events
}

func (d *Detector) volumeSpike(code string, history []models.Bar, obs models.Observation, at time.Time) (models.AnomalyEvent, bool) {
	if len(history) <= MinVolumePoints || obs.Volume <= 0 {
		return models.AnomalyEvent{}, false
	}
	start := len(history) - VolumeWindow
	if start < 0 {
		start = 0
	}
	volumes := make([]float64, 0, VolumeWindow)
	for _, b := range history[start:] {
		volumes = append(volumes, b.Volume)
	}
	mean := stat.Mean(volumes, nil)
	std := stat.PopStdDev(volumes, nil)
	if std <= 0 || math.IsNaN(std) {
		return models.AnomalyEvent{}, false
	}
	z := (obs.Volume - mean) / std
	if z <= VolumeZThreshold {
		return models.AnomalyEvent{}, false
	}
	return models.AnomalyEvent{
		Code:        code,
		Type:        models.AnomalyVolumeSpike,
		Description: fmt.Sprintf("volume %.0f is %.2f standard deviations above the %d-session mean", obs.Volume, z, len(volumes)),
		MetricValue: z,
		Confidence:  math.Min(z/5.0, 1.0),
		DetectedAt:  at,
	}, true
}

func (d *Detector) priceShock(code string, history []models.Bar, obs models.Observation, at time.Time) (models.AnomalyEvent, bool) {
	if len(history) == 0 {
		return models.AnomalyEvent{}, false
	}
	prev := history[len(history)-1].Close
	if prev <= 0 {
		return models.AnomalyEvent{}, false
	}
	change := (obs.Close - prev) / prev
	if math.Abs(change) <= PriceShockThreshold {
		return models.AnomalyEvent{}, false
	}
	return models.AnomalyEvent{
		Code:        code,
		Type:        models.AnomalyPriceShock,
		Description: fmt.Sprintf("close moved %+.2f%% against the previous session", change*100),
		MetricValue: change,
		Confidence:  1.0,
		DetectedAt:  at,
	}, true
}
