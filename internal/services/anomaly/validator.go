package anomaly

import (
	"math/rand"
	"time"

	"TuniCast/internal/domain/models"
)

const (
	// MinValidationSessions is the smallest history the harness accepts.
	MinValidationSessions = 100

	// MaxValidationSessions caps the replayed history to the most recent
	// sessions so validation cost stays bounded.
	MaxValidationSessions = 200

	// replayStart is the first index replayed: every tested observation
	// has a full volume window behind it.
	replayStart = VolumeWindow + 1

	// injectionFraction of the series is perturbed, with a floor of
	// minInjections.
	injectionFraction = 0.05
	minInjections     = 5
)

// Validator measures detector quality by injecting synthetic anomalies
// into real history and replaying it session by session. The replay only
// ever shows the detector data up to the session under test, so the
// scores are free of look-ahead.
type Validator struct {
	detector *Detector
	rng      *rand.Rand
}

// NewValidator builds a harness around the given detector. The rand
// source controls which sessions are perturbed and how.
func NewValidator(d *Detector, rng *rand.Rand) *Validator {
	return &Validator{detector: d, rng: rng}
}

// Run injects anomalies into a copy of the series and scores the detector
// against the known injection set.
func (v *Validator) Run(code string, bars []models.Bar) (*models.ValidationReport, error) {
	if len(bars) < MinValidationSessions {
		return nil, models.ValidationDataInsufficient(
			"%s has %d sessions, need %d", code, len(bars), MinValidationSessions)
	}
	if len(bars) > MaxValidationSessions {
		bars = bars[len(bars)-MaxValidationSessions:]
	}

	data := make([]models.Bar, len(bars))
	copy(data, bars)
	injected := v.inject(data)

	report := &models.ValidationReport{
		Symbol:   code,
		Injected: len(injected),
	}
	for i := replayStart; i < len(data); i++ {
		report.TotalSamples++
		obs := models.Observation{Close: data[i].Close, Volume: data[i].Volume}
		events := v.detector.Detect(code, data[:i], obs, time.Now().UTC())
		if want, ok := injected[i]; ok {
			// A hit only counts when the detector raised the kind of
			// anomaly that was planted, not just any event.
			if hasType(events, want) {
				report.TruePositives++
			} else {
				report.FalseNegatives++
			}
		} else if len(events) > 0 {
			report.FalsePositives++
		}
	}

	report.Precision = safeRatio(report.TruePositives, report.TruePositives+report.FalsePositives)
	report.Recall = safeRatio(report.TruePositives, report.TruePositives+report.FalseNegatives)
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	return report, nil
}

// inject perturbs randomly chosen sessions in place and returns which kind
// of anomaly was planted at each perturbed index. Volume injections
// multiply padded volume tenfold; price injections move the close 10% off
// the previous session.
func (v *Validator) inject(data []models.Bar) map[int]models.AnomalyType {
	n := int(float64(len(data)) * injectionFraction)
	if n < minInjections {
		n = minInjections
	}
	injected := make(map[int]models.AnomalyType, n)
	for len(injected) < n {
		i := replayStart + v.rng.Intn(len(data)-replayStart)
		if _, taken := injected[i]; taken {
			continue
		}
		if v.rng.Float64() < 0.5 {
			data[i].Volume = (data[i].Volume + 1000) * 10
			injected[i] = models.AnomalyVolumeSpike
		} else {
			prev := data[i-1].Close
			if v.rng.Float64() < 0.5 {
				data[i].Close = prev * 1.10
			} else {
				data[i].Close = prev * 0.90
			}
			injected[i] = models.AnomalyPriceShock
		}
	}
	return injected
}

func hasType(events []models.AnomalyEvent, want models.AnomalyType) bool {
	for _, ev := range events {
		if ev.Type == want {
			return true
		}
	}
	return false
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
