package detect

import (
	"math"
	"testing"
	"time"

	"snowtracker/internal/types"
)

func mm(v float64) *float64 { return &v }

func TestGridpointTotals(t *testing.T) {
	series := []types.GridpointValue{
		{ValidTime: "2026-01-15T06:00:00+00:00/PT6H", ValueMM: mm(25.4)},
		{ValidTime: "2026-01-15T12:00:00+00:00/PT6H", ValueMM: mm(50.8)},
		{ValidTime: "2026-01-16T00:00:00+00:00/PT6H", ValueMM: mm(12.7)},
		{ValidTime: "2026-01-16T06:00:00+00:00/PT6H", ValueMM: nil},
		{ValidTime: "2026-01-16T12:00:00+00:00/PT6H", ValueMM: mm(0)},
		{ValidTime: "2026-01-17T00:00:00+00:00/PT6H", ValueMM: mm(-2)},
		{ValidTime: "bogus", ValueMM: mm(100)},
	}

	totals := GridpointTotals(series)

	jan15 := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	jan17 := time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC)

	if got := totals[jan15]; math.Abs(got-3.0) > 1e-9 {
		t.Errorf("jan 15 total = %v, want 3.0", got)
	}
	if got := totals[jan16]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("jan 16 total = %v, want 0.5", got)
	}
	if _, ok := totals[jan17]; ok {
		t.Error("negative values must be skipped, jan 17 should be absent")
	}
	if len(totals) != 2 {
		t.Errorf("got %d dates, want 2", len(totals))
	}
}

func TestGridpointTotalsEmpty(t *testing.T) {
	if got := GridpointTotals(nil); len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}
