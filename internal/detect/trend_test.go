package detect

import (
	"testing"
	"time"

	"snowtracker/internal/types"
)

func snapshots(bests ...float64) []types.EventSnapshot {
	base := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	out := make([]types.EventSnapshot, 0, len(bests))
	for i, b := range bests {
		out = append(out, types.EventSnapshot{
			EventID:    "storm-aaa",
			DetectedAt: base.Add(time.Duration(i) * 6 * time.Hour),
			SnowBest:   b,
			Confidence: types.ConfidenceModerate,
		})
	}
	return out
}

func TestAnalyzeTrendDirections(t *testing.T) {
	tests := []struct {
		name       string
		bests      []float64
		want       types.TrendDirection
		wantChange float64
	}{
		{"increase above noise floor", []float64{4.0, 5.1}, types.TrendIncreasing, 1.1},
		{"decrease below noise floor", []float64{6.0, 4.5}, types.TrendDecreasing, -1.5},
		{"small change is steady", []float64{4.0, 4.9}, types.TrendSteady, 0.9},
		{"exactly one inch is steady", []float64{4.0, 5.0}, types.TrendSteady, 1.0},
		{"first to latest not max", []float64{4.0, 9.0, 6.0}, types.TrendIncreasing, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := AnalyzeTrend(snapshots(tt.bests...), 1.0)
			if report.Direction != tt.want {
				t.Errorf("direction = %s, want %s", report.Direction, tt.want)
			}
			if diff := report.Change - tt.wantChange; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("change = %v, want %v", report.Change, tt.wantChange)
			}
			if report.Detections != len(tt.bests) {
				t.Errorf("detections = %d, want %d", report.Detections, len(tt.bests))
			}
			if len(report.Series) != len(tt.bests) {
				t.Errorf("series length = %d, want %d", len(report.Series), len(tt.bests))
			}
		})
	}
}

func TestAnalyzeTrendInsufficientData(t *testing.T) {
	if got := AnalyzeTrend(nil, 1.0); got.Direction != types.TrendInsufficientData {
		t.Errorf("empty history direction = %s, want insufficient_data", got.Direction)
	}

	one := AnalyzeTrend(snapshots(6.0), 1.0)
	if one.Direction != types.TrendInsufficientData {
		t.Errorf("single snapshot direction = %s, want insufficient_data", one.Direction)
	}
	if one.FirstAmount != 6.0 || one.LatestAmount != 6.0 {
		t.Errorf("single snapshot amounts = (%v, %v), want (6, 6)", one.FirstAmount, one.LatestAmount)
	}
}
