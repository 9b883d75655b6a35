package detect

import (
	"time"

	"snowtracker/internal/types"
)

// TextSignal is the per-day outcome of narrative extraction: the amount range
// (zero-valued when the text carried no numbers or keywords resolved to
// nothing), winter-weather flags, and the raw period texts that contributed.
type TextSignal struct {
	Total   float64
	Low     float64
	High    float64
	HasIce  bool
	HasWind bool
	Texts   []string
}

// NarrativeSignals walks the forecast's narrative periods and produces one
// TextSignal per calendar date that mentions snow. The period date comes from
// the period's start timestamp when parseable, else from the period name
// relative to the as-of date; periods with neither are skipped. When several
// periods land on the same date (day and night halves), the larger amount
// wins.
func NarrativeSignals(periods []types.NarrativePeriod, asOfDate time.Time) map[time.Time]*TextSignal {
	signals := make(map[time.Time]*TextSignal)

	for _, period := range periods {
		if !MentionsSnow(period.DetailedForecast) {
			continue
		}

		var periodDate time.Time
		if ts, ok := ParseValidTime(period.StartTime); ok {
			periodDate = DateOf(ts)
		} else if d, ok := ResolvePeriodDate(period.Name, asOfDate); ok {
			periodDate = d
		} else {
			continue
		}

		sig := signals[periodDate]
		if sig == nil {
			sig = &TextSignal{}
			signals[periodDate] = sig
		}

		if low, high, ok := ExtractAmounts(period.DetailedForecast); ok {
			if low > sig.Low {
				sig.Low = low
			}
			if high > sig.High {
				sig.High = high
			}
			if mid := (low + high) / 2; mid > sig.Total {
				sig.Total = mid
			}
		}

		sig.Texts = append(sig.Texts, period.DetailedForecast)

		if MentionsIce(period.DetailedForecast) {
			sig.HasIce = true
		}
		if MentionsWind(period.DetailedForecast) {
			sig.HasWind = true
		}
	}

	return signals
}
