// Package diff compares consecutive forecast fetches for a location and
// reports significant changes. It is deliberately first-period focused for
// temperature, precipitation probability, and text comparisons: the nearest
// period is what people act on, and deeper periods churn too much to alert
// on.
package diff

import (
	"fmt"

	"snowtracker/internal/detect"
	"snowtracker/internal/types"
)

// Significance thresholds. Changes below these never produce a report entry.
const (
	SnowChangeInches     = 2.0
	TempChangeDegreesF   = 5
	PrecipProbChangePts  = 30
	highSnowChangeInches = 4.0
	highTempChangeF      = 10
	textExcerptLen       = 100
)

// gridpointDiffWindow caps how much of the snowfall series feeds the total
// comparison: 24 six-hour intervals is roughly three days out.
const gridpointDiffWindow = 24

// Compare reports the significant differences between two forecast bundles
// for the same location, previous first. An empty result means nothing worth
// alerting on.
func Compare(previous, current types.ForecastBundle) []types.ForecastChange {
	var changes []types.ForecastChange

	if c := compareTemperature(previous, current); c != nil {
		changes = append(changes, *c)
	}
	if c := compareGridpointSnow(previous, current); c != nil {
		changes = append(changes, *c)
	}
	if c := comparePrecipProbability(previous, current); c != nil {
		changes = append(changes, *c)
	}
	changes = append(changes, compareText(previous, current)...)

	return changes
}

func firstPeriod(b types.ForecastBundle) *types.NarrativePeriod {
	if len(b.Periods) == 0 {
		return nil
	}
	return &b.Periods[0]
}

func compareTemperature(previous, current types.ForecastBundle) *types.ForecastChange {
	prev, curr := firstPeriod(previous), firstPeriod(current)
	if prev == nil || curr == nil || prev.Temperature == nil || curr.Temperature == nil {
		return nil
	}

	delta := *curr.Temperature - *prev.Temperature
	if abs(delta) < TempChangeDegreesF {
		return nil
	}

	direction := "warmer"
	if delta < 0 {
		direction = "colder"
	}
	severity := types.SeverityMedium
	if abs(delta) >= highTempChangeF {
		severity = types.SeverityHigh
	}

	return &types.ForecastChange{
		Type:     types.ChangeTemperature,
		Severity: severity,
		Summary:  fmt.Sprintf("Temperature forecast changed: %d°F → %d°F (%s)", *prev.Temperature, *curr.Temperature, direction),
		Previous: fmt.Sprintf("%d", *prev.Temperature),
		Current:  fmt.Sprintf("%d", *curr.Temperature),
		Delta:    float64(delta),
	}
}

// gridpointTotal sums the near-term snowfall series in inches.
func gridpointTotal(series []types.GridpointValue) float64 {
	if len(series) > gridpointDiffWindow {
		series = series[:gridpointDiffWindow]
	}
	var total float64
	for _, day := range detect.GridpointTotals(series) {
		total += day
	}
	return total
}

func compareGridpointSnow(previous, current types.ForecastBundle) *types.ForecastChange {
	prevTotal := gridpointTotal(previous.Gridpoint)
	currTotal := gridpointTotal(current.Gridpoint)

	delta := currTotal - prevTotal
	if absF(delta) < SnowChangeInches {
		return nil
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}
	severity := types.SeverityMedium
	if absF(delta) >= highSnowChangeInches {
		severity = types.SeverityHigh
	}

	return &types.ForecastChange{
		Type:     types.ChangeSnowTotal,
		Severity: severity,
		Summary:  fmt.Sprintf("Snow forecast %s: %.1f\" → %.1f\"", direction, prevTotal, currTotal),
		Previous: fmt.Sprintf("%.1f", prevTotal),
		Current:  fmt.Sprintf("%.1f", currTotal),
		Delta:    delta,
	}
}

func comparePrecipProbability(previous, current types.ForecastBundle) *types.ForecastChange {
	prev, curr := firstPeriod(previous), firstPeriod(current)
	if prev == nil || curr == nil || prev.PrecipProbability == nil || curr.PrecipProbability == nil {
		return nil
	}

	delta := *curr.PrecipProbability - *prev.PrecipProbability
	if abs(delta) < PrecipProbChangePts {
		return nil
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}

	return &types.ForecastChange{
		Type:     types.ChangePrecipProbability,
		Severity: types.SeverityMedium,
		Summary:  fmt.Sprintf("Precipitation chance %s: %d%% → %d%%", direction, *prev.PrecipProbability, *curr.PrecipProbability),
		Previous: fmt.Sprintf("%d", *prev.PrecipProbability),
		Current:  fmt.Sprintf("%d", *curr.PrecipProbability),
		Delta:    float64(delta),
	}
}

func compareText(previous, current types.ForecastBundle) []types.ForecastChange {
	prev, curr := firstPeriod(previous), firstPeriod(current)
	if prev == nil || curr == nil {
		return nil
	}

	var changes []types.ForecastChange
	prevText, currText := prev.DetailedForecast, curr.DetailedForecast

	prevWinter := detect.HasWinterKeywords(prevText)
	currWinter := detect.HasWinterKeywords(currText)

	switch {
	case currWinter && !prevWinter:
		changes = append(changes, types.ForecastChange{
			Type:     types.ChangeWinterWxAdded,
			Severity: types.SeverityHigh,
			Summary:  "Winter weather now mentioned in forecast",
			Previous: excerpt(prevText),
			Current:  excerpt(currText),
		})
	case prevWinter && !currWinter:
		changes = append(changes, types.ForecastChange{
			Type:     types.ChangeWinterWxRemoved,
			Severity: types.SeverityMedium,
			Summary:  "Winter weather no longer mentioned in forecast",
			Previous: excerpt(prevText),
			Current:  excerpt(currText),
		})
	}

	prevAmount, prevOK := detect.MidpointAmount(prevText)
	currAmount, currOK := detect.MidpointAmount(currText)
	if prevOK && currOK {
		delta := currAmount - prevAmount
		if absF(delta) >= SnowChangeInches {
			direction := "increased"
			if delta < 0 {
				direction = "decreased"
			}
			severity := types.SeverityMedium
			if absF(delta) >= highSnowChangeInches {
				severity = types.SeverityHigh
			}
			changes = append(changes, types.ForecastChange{
				Type:     types.ChangeSnowText,
				Severity: severity,
				Summary:  fmt.Sprintf("Forecast text snow amounts %s: %.1f\" → %.1f\"", direction, prevAmount, currAmount),
				Previous: fmt.Sprintf("%.1f", prevAmount),
				Current:  fmt.Sprintf("%.1f", currAmount),
				Delta:    delta,
			})
		}
	}

	return changes
}

func excerpt(text string) string {
	if len(text) > textExcerptLen {
		return text[:textExcerptLen]
	}
	return text
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
