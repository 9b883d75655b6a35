package detect

import (
	"math"
	"time"

	"snowtracker/internal/types"
)

// maxKeyDetailsLen bounds the narrative excerpt carried on an event.
const maxKeyDetailsLen = 500

// maxEventGap is the largest date step that still extends a run. Qualifying
// days further apart belong to separate events.
const maxEventGap = 24 * time.Hour

// SegmentEvents groups the sorted qualifying days into contiguous runs and
// builds one candidate SnowEvent per run. Runs whose totals fall under the
// trace filter are dropped. Event identities are not assigned here; the
// resolver fills EventID afterwards.
func SegmentEvents(days []DailySignal, asOf time.Time, cfg Thresholds) []types.SnowEvent {
	if len(days) == 0 {
		return nil
	}

	var events []types.SnowEvent
	run := []DailySignal{days[0]}

	for _, day := range days[1:] {
		prev := run[len(run)-1]
		if day.Date.Sub(prev.Date) <= maxEventGap {
			run = append(run, day)
			continue
		}
		if ev, ok := buildEvent(run, asOf, cfg); ok {
			events = append(events, ev)
		}
		run = []DailySignal{day}
	}
	if ev, ok := buildEvent(run, asOf, cfg); ok {
		events = append(events, ev)
	}

	return events
}

// buildEvent sums a run of consecutive days into a SnowEvent. Returns
// ok=false when the run is below the trace filter.
func buildEvent(run []DailySignal, asOf time.Time, cfg Thresholds) (types.SnowEvent, bool) {
	if len(run) == 0 {
		return types.SnowEvent{}, false
	}

	var total, low, high float64
	var hasIce, hasWind bool
	var keyDetails string
	byDate := make([]types.DailyAmount, 0, len(run))
	sources := make(map[types.SignalSource]struct{})

	for _, day := range run {
		total += day.Total
		low += day.Low
		high += day.High
		hasIce = hasIce || day.HasIce
		hasWind = hasWind || day.HasWind
		byDate = append(byDate, types.DailyAmount{
			Date:   day.Date.Format(isoDate),
			Inches: round1(day.Total),
		})
		for _, s := range day.Sources {
			sources[s] = struct{}{}
		}
		for _, text := range day.Texts {
			if len(text) > len(keyDetails) {
				keyDetails = text
			}
		}
	}

	if total < cfg.DiscardBestInches && high < cfg.DiscardHighInches {
		return types.SnowEvent{}, false
	}

	startDate := run[0].Date
	endDate := run[len(run)-1].Date

	leadHours := int(startDate.Sub(asOf).Hours())
	if leadHours < 0 {
		leadHours = 0
	}

	if len(keyDetails) > maxKeyDetailsLen {
		keyDetails = keyDetails[:maxKeyDetailsLen]
	}

	return types.SnowEvent{
		StartDate:     startDate,
		EndDate:       endDate,
		SnowTotalLow:  round1(low),
		SnowTotalHigh: round1(high),
		SnowTotalBest: round1(total),
		SnowByDate:    byDate,
		HasIce:        hasIce,
		HasWind:       hasWind,
		LeadTimeHours: leadHours,
		Confidence:    ConfidenceForLeadTime(leadHours),
		Sources:       sortedSources(sources),
		KeyDetails:    keyDetails,
	}, true
}

// sortedSources flattens the source set in a stable order.
func sortedSources(set map[types.SignalSource]struct{}) []types.SignalSource {
	ordered := []types.SignalSource{types.SourceGridpoint, types.SourceForecastText}
	var out []types.SignalSource
	for _, s := range ordered {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
