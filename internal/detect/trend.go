package detect

import "snowtracker/internal/types"

// AnalyzeTrend computes how an event's amount estimate has moved across its
// snapshot history. Snapshots must be ordered by detection time ascending.
// Fewer than two snapshots yields a TrendInsufficientData report, not an
// error. Changes within the noise floor in either direction classify as
// steady.
func AnalyzeTrend(history []types.EventSnapshot, noiseFloor float64) types.TrendReport {
	series := make([]types.TrendPoint, 0, len(history))
	for _, snap := range history {
		series = append(series, types.TrendPoint{
			DetectedAt: snap.DetectedAt,
			SnowBest:   snap.SnowBest,
			Confidence: snap.Confidence,
		})
	}

	if len(history) < 2 {
		report := types.TrendReport{
			Direction:  types.TrendInsufficientData,
			Detections: len(history),
			Series:     series,
		}
		if len(history) == 1 {
			report.FirstAmount = history[0].SnowBest
			report.LatestAmount = history[0].SnowBest
		}
		return report
	}

	first := history[0].SnowBest
	latest := history[len(history)-1].SnowBest
	change := latest - first

	direction := types.TrendSteady
	switch {
	case change > noiseFloor:
		direction = types.TrendIncreasing
	case change < -noiseFloor:
		direction = types.TrendDecreasing
	}

	return types.TrendReport{
		Direction:    direction,
		Change:       change,
		FirstAmount:  first,
		LatestAmount: latest,
		Detections:   len(history),
		Series:       series,
	}
}
