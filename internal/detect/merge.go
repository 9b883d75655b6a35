package detect

import (
	"sort"
	"time"

	"snowtracker/internal/types"
)

// Thresholds holds the noise-floor constants of the engine. The defaults are
// the values the detection heuristics were tuned with; deployments may adjust
// them through configuration.
type Thresholds struct {
	// QualifyingDayInches is the minimum per-day total for a day to qualify
	// on amount alone.
	QualifyingDayInches float64
	// DiscardBestInches and DiscardHighInches jointly filter trace events:
	// an event is dropped when best < DiscardBestInches AND
	// high < DiscardHighInches.
	DiscardBestInches float64
	DiscardHighInches float64
	// TrendNoiseInches is the minimum first-to-latest change that counts as
	// an increasing or decreasing trend.
	TrendNoiseInches float64
	// LookbackDays bounds the identity-matching window over stored events.
	LookbackDays int
}

// DefaultThresholds returns the standard engine thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		QualifyingDayInches: 0.5,
		DiscardBestInches:   0.5,
		DiscardHighInches:   1.0,
		TrendNoiseInches:    1.0,
		LookbackDays:        7,
	}
}

// DailySignal is the merged per-day snow signal for one calendar day of one
// forecast fetch.
type DailySignal struct {
	Date       time.Time
	Total      float64
	Low        float64
	High       float64
	HasIce     bool
	HasWind    bool
	Sources    []types.SignalSource
	Texts      []string
	HasTextLow bool
}

// MergeDaily combines gridpoint and narrative per-day signals into one sorted
// sequence of qualifying days. Dates before the as-of date are discarded:
// past days never produce events. A day qualifies when its best-estimate
// total reaches the qualifying threshold or the narrative provided an
// explicit low bound. The gridpoint total is preferred when present and
// positive; uncertainty bounds fall back to total*0.7 / total*1.3 when the
// narrative gave none.
func MergeDaily(
	grid map[time.Time]float64,
	text map[time.Time]*TextSignal,
	asOf time.Time,
	cfg Thresholds,
) []DailySignal {
	asOfDate := DateOf(asOf)

	dates := make(map[time.Time]struct{}, len(grid)+len(text))
	for d := range grid {
		dates[d] = struct{}{}
	}
	for d := range text {
		dates[d] = struct{}{}
	}

	var days []DailySignal
	for d := range dates {
		if d.Before(asOfDate) {
			continue
		}

		gpTotal := grid[d]
		tx := text[d]

		total := gpTotal
		if total <= 0 && tx != nil {
			total = tx.Total
		}

		hasTextLow := tx != nil && tx.Low > 0
		if total < cfg.QualifyingDayInches && !hasTextLow {
			continue
		}

		day := DailySignal{
			Date:       d,
			Total:      total,
			Low:        total * 0.7,
			High:       total * 1.3,
			HasTextLow: hasTextLow,
		}
		if tx != nil {
			if tx.Low > 0 {
				day.Low = tx.Low
			}
			if tx.High > 0 {
				day.High = tx.High
			}
			day.HasIce = tx.HasIce
			day.HasWind = tx.HasWind
			day.Texts = tx.Texts
		}

		if _, ok := grid[d]; ok {
			day.Sources = append(day.Sources, types.SourceGridpoint)
		}
		if tx != nil {
			day.Sources = append(day.Sources, types.SourceForecastText)
		}

		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
