package detect

import (
	"math"
	"testing"
	"time"

	"snowtracker/internal/types"
)

func day(d time.Time, total float64) DailySignal {
	return DailySignal{Date: d, Total: total, Low: total * 0.7, High: total * 1.3}
}

func TestSegmentEventsGapLaw(t *testing.T) {
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	cfg := DefaultThresholds()

	tests := []struct {
		name       string
		dates      []int // day-of-month in Jan 2026
		wantEvents int
	}{
		{"single day", []int{15}, 1},
		{"consecutive days merge", []int{15, 16}, 1},
		{"one day gap still merges", []int{15, 17}, 1},
		{"two day gap splits", []int{15, 18}, 2},
		{"long run", []int{14, 15, 16, 17}, 1},
		{"run then gap then run", []int{14, 15, 19, 20}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var days []DailySignal
			for _, d := range tt.dates {
				days = append(days, day(date(2026, 1, d), 3.0))
			}
			events := SegmentEvents(days, asOf, cfg)
			if len(events) != tt.wantEvents {
				t.Errorf("got %d events, want %d", len(events), tt.wantEvents)
			}
		})
	}
}

func TestSegmentEventsGapBoundary(t *testing.T) {
	// Jan 15 + Jan 17 is a 2-day step with one dry day between: still one
	// event. Jan 15 + Jan 18 exceeds the gap and splits.
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	cfg := DefaultThresholds()

	one := SegmentEvents([]DailySignal{day(date(2026, 1, 15), 2), day(date(2026, 1, 16), 2)}, asOf, cfg)
	if len(one) != 1 {
		t.Fatalf("adjacent days: got %d events, want 1", len(one))
	}
	if !one[0].StartDate.Equal(date(2026, 1, 15)) || !one[0].EndDate.Equal(date(2026, 1, 16)) {
		t.Errorf("event range = %v..%v", one[0].StartDate, one[0].EndDate)
	}

	two := SegmentEvents([]DailySignal{day(date(2026, 1, 15), 2), day(date(2026, 1, 18), 2)}, asOf, cfg)
	if len(two) != 2 {
		t.Fatalf("gapped days: got %d events, want 2", len(two))
	}
}

func TestSegmentEventsSums(t *testing.T) {
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	days := []DailySignal{
		day(date(2026, 1, 15), 2.0),
		day(date(2026, 1, 16), 3.0),
	}

	events := SegmentEvents(days, asOf, DefaultThresholds())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.SnowTotalBest != 5.0 {
		t.Errorf("best = %v, want 5.0", ev.SnowTotalBest)
	}
	// Per-day fallback bounds are applied per day then summed:
	// day1 low 1.4 + day2 low 2.1 = 3.5.
	if math.Abs(ev.SnowTotalLow-3.5) > 1e-9 {
		t.Errorf("low = %v, want 3.5", ev.SnowTotalLow)
	}
	if math.Abs(ev.SnowTotalHigh-6.5) > 1e-9 {
		t.Errorf("high = %v, want 6.5", ev.SnowTotalHigh)
	}
	if len(ev.SnowByDate) != 2 {
		t.Fatalf("snow_by_date has %d entries, want 2", len(ev.SnowByDate))
	}
	if ev.SnowByDate[0].Date != "2026-01-15" || ev.SnowByDate[1].Date != "2026-01-16" {
		t.Errorf("snow_by_date out of order: %v", ev.SnowByDate)
	}
}

func TestSegmentEventsNoiseFilter(t *testing.T) {
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	cfg := DefaultThresholds()

	// best < 0.5 and high < 1.0: discarded.
	tiny := []DailySignal{{Date: date(2026, 1, 15), Total: 0.2, Low: 0.1, High: 0.4, HasTextLow: true}}
	if events := SegmentEvents(tiny, asOf, cfg); len(events) != 0 {
		t.Errorf("trace event not discarded: %+v", events)
	}

	// best < 0.5 but high >= 1.0: survives as a minimal single-day event.
	marginal := []DailySignal{{Date: date(2026, 1, 15), Total: 0.3, Low: 0.2, High: 1.5, HasTextLow: true}}
	events := SegmentEvents(marginal, asOf, cfg)
	if len(events) != 1 {
		t.Fatalf("marginal event should survive, got %d events", len(events))
	}
	if !events[0].StartDate.Equal(events[0].EndDate) {
		t.Error("expected single-day event")
	}
}

func TestSegmentEventsFlagsAndSources(t *testing.T) {
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	days := []DailySignal{
		{
			Date: date(2026, 1, 15), Total: 2, Low: 1.4, High: 2.6,
			HasIce:  true,
			Sources: []types.SignalSource{types.SourceForecastText},
			Texts:   []string{"Snow and sleet, accumulating 2 inches."},
		},
		{
			Date: date(2026, 1, 16), Total: 3, Low: 2.1, High: 3.9,
			HasWind: true,
			Sources: []types.SignalSource{types.SourceGridpoint, types.SourceForecastText},
			Texts:   []string{"Blowing snow with additional accumulation of 3 inches expected."},
		},
	}

	events := SegmentEvents(days, asOf, DefaultThresholds())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if !ev.HasIce || !ev.HasWind {
		t.Errorf("flags = ice:%v wind:%v, want both true", ev.HasIce, ev.HasWind)
	}
	if len(ev.Sources) != 2 {
		t.Errorf("sources = %v, want union of both", ev.Sources)
	}
	if ev.KeyDetails != "Blowing snow with additional accumulation of 3 inches expected." {
		t.Errorf("key details = %q, want the longest period text", ev.KeyDetails)
	}
}

func TestSegmentEventsLeadTime(t *testing.T) {
	// As-of Jan 13 00:00, event starting Jan 15 midnight: 48 hours out.
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	days := []DailySignal{day(date(2026, 1, 15), 4.0)}

	events := SegmentEvents(days, asOf, DefaultThresholds())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].LeadTimeHours != 48 {
		t.Errorf("lead time = %d, want 48", events[0].LeadTimeHours)
	}
	if events[0].Confidence != types.ConfidenceHigh {
		t.Errorf("confidence = %s, want High", events[0].Confidence)
	}

	// An event already underway clamps to zero.
	sameDay := SegmentEvents([]DailySignal{day(date(2026, 1, 13), 4.0)}, asOf.Add(6*time.Hour), DefaultThresholds())
	if len(sameDay) != 1 || sameDay[0].LeadTimeHours != 0 {
		t.Errorf("in-progress event lead time = %+v, want 0", sameDay)
	}
}
