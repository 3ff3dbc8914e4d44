package features

import (
	"sort"
	"time"

	"TuniCast/internal/domain/models"
	"TuniCast/pkg/util"
)

// Resample expands one instrument's recorded sessions into a gap-free
// business-day series spanning [first, last] observed date. Price columns
// forward-fill from the last known session; volume and traded value are
// zeroed on non-trading days. Days before the first real observation are
// dropped. Returns nil on empty input.
func Resample(bars []models.Bar) []models.Bar {
	if len(bars) == 0 {
		return nil
	}

	sorted := make([]models.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Session.Before(sorted[j].Session) })

	byDay := make(map[time.Time]models.Bar, len(sorted))
	for _, b := range sorted {
		byDay[util.DateOf(b.Session)] = b
	}

	first := util.DateOf(sorted[0].Session)
	last := util.DateOf(sorted[len(sorted)-1].Session)

	out := make([]models.Bar, 0, len(sorted))
	var prev *models.Bar
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !util.IsBusinessDay(d) {
			continue
		}
		if b, ok := byDay[d]; ok {
			b.Session = d
			out = append(out, b)
			prev = &out[len(out)-1]
			continue
		}
		if prev == nil {
			// before the first real observation, nothing to fill from
			continue
		}
		out = append(out, models.Bar{
			Code:    prev.Code,
			Session: d,
			Open:    prev.Open,
			High:    prev.High,
			Low:     prev.Low,
			Close:   prev.Close,
			Volume:  0,
			Value:   0,
		})
	}
	return out
}
