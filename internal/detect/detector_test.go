package detect

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"snowtracker/internal/types"
)

// mockSnapshotStore is an in-memory SnapshotStore.
type mockSnapshotStore struct {
	rows        []types.EventSnapshot
	recentErr   error
	appendErr   error
	historyErr  error
	recentCalls int
	appendCalls int
}

func (m *mockSnapshotStore) RecentIdentities(_ context.Context, locationID int64, since time.Time) ([]types.StoredEventRange, error) {
	m.recentCalls++
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	seen := make(map[string]struct{})
	var out []types.StoredEventRange
	// Most recent detection first, matching the store's result order.
	for i := len(m.rows) - 1; i >= 0; i-- {
		row := m.rows[i]
		if row.LocationID != locationID || row.DetectedAt.Before(since) {
			continue
		}
		if _, dup := seen[row.EventID]; dup {
			continue
		}
		seen[row.EventID] = struct{}{}
		out = append(out, types.StoredEventRange{
			EventID:   row.EventID,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
		})
	}
	return out, nil
}

func (m *mockSnapshotStore) AppendSnapshot(_ context.Context, locationID int64, event types.SnowEvent, asOf time.Time) error {
	m.appendCalls++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, types.EventSnapshot{
		ID:            int64(len(m.rows) + 1),
		LocationID:    locationID,
		EventID:       event.EventID,
		DetectedAt:    asOf,
		StartDate:     event.StartDate,
		EndDate:       event.EndDate,
		SnowLow:       event.SnowTotalLow,
		SnowBest:      event.SnowTotalBest,
		SnowHigh:      event.SnowTotalHigh,
		Confidence:    event.Confidence,
		LeadTimeHours: event.LeadTimeHours,
	})
	return nil
}

func (m *mockSnapshotStore) History(_ context.Context, locationID int64, eventID string, since time.Time) ([]types.EventSnapshot, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	var out []types.EventSnapshot
	for _, row := range m.rows {
		if row.LocationID == locationID && row.EventID == eventID && !row.DetectedAt.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}

func newTestDetector(store SnapshotStore) *Detector {
	return NewDetector(DetectorConfig{Store: store})
}

func TestDetectSingleDayStorm(t *testing.T) {
	store := &mockSnapshotStore{}
	d := newTestDetector(store)
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	bundle := types.ForecastBundle{
		Periods: []types.NarrativePeriod{
			{
				Name:             "Thursday",
				StartTime:        "2026-01-15T06:00:00-05:00",
				DetailedForecast: "Snow likely, 3 to 5 inches possible.",
			},
		},
	}

	events, err := d.Detect(context.Background(), 1, bundle, asOf)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if !ev.StartDate.Equal(date(2026, 1, 15)) || !ev.EndDate.Equal(date(2026, 1, 15)) {
		t.Errorf("range = %v..%v, want Jan 15 only", ev.StartDate, ev.EndDate)
	}
	if ev.SnowTotalLow != 3 || ev.SnowTotalHigh != 5 || ev.SnowTotalBest != 4 {
		t.Errorf("amounts = (%v, %v, %v), want (3, 5, 4)", ev.SnowTotalLow, ev.SnowTotalHigh, ev.SnowTotalBest)
	}
	if ev.LeadTimeHours != 48 {
		t.Errorf("lead time = %d, want 48", ev.LeadTimeHours)
	}
	if ev.Confidence != types.ConfidenceHigh {
		t.Errorf("confidence = %s, want High", ev.Confidence)
	}
	if ev.EventID == "" {
		t.Error("event ID not assigned")
	}
	if store.appendCalls != 1 {
		t.Errorf("append calls = %d, want 1", store.appendCalls)
	}
}

func TestDetectMultiDayGridpointMerge(t *testing.T) {
	store := &mockSnapshotStore{}
	d := newTestDetector(store)
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	bundle := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-15T06:00:00+00:00/PT6H", ValueMM: mm(2.0 * mmPerInch)},
			{ValidTime: "2026-01-16T06:00:00+00:00/PT6H", ValueMM: mm(3.0 * mmPerInch)},
		},
	}

	events, err := d.Detect(context.Background(), 1, bundle, asOf)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if !ev.StartDate.Equal(date(2026, 1, 15)) || !ev.EndDate.Equal(date(2026, 1, 16)) {
		t.Errorf("range = %v..%v, want Jan 15-16", ev.StartDate, ev.EndDate)
	}
	if ev.SnowTotalBest != 5.0 {
		t.Errorf("best = %v, want 5.0", ev.SnowTotalBest)
	}
	if math.Abs(ev.SnowTotalLow-3.5) > 1e-9 {
		t.Errorf("low = %v, want 3.5 (per-day 0.7 fallback, summed)", ev.SnowTotalLow)
	}
	if math.Abs(ev.SnowTotalHigh-6.5) > 1e-9 {
		t.Errorf("high = %v, want 6.5", ev.SnowTotalHigh)
	}
}

func TestDetectTracksStormAcrossFetches(t *testing.T) {
	store := &mockSnapshotStore{}
	d := newTestDetector(store)
	ctx := context.Background()

	// Fetch 1, as-of Jan 13: single-day storm on Jan 17, best 6".
	fetch1 := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-17T06:00:00+00:00/PT6H", ValueMM: mm(6.0 * mmPerInch)},
		},
	}
	events1, err := d.Detect(ctx, 1, fetch1, time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch 1: %v", err)
	}
	if len(events1) != 1 {
		t.Fatalf("fetch 1: got %d events, want 1", len(events1))
	}

	// Fetch 2, as-of Jan 14: storm now spans Jan 16-17, best 8".
	fetch2 := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-16T06:00:00+00:00/PT6H", ValueMM: mm(3.0 * mmPerInch)},
			{ValidTime: "2026-01-17T06:00:00+00:00/PT6H", ValueMM: mm(5.0 * mmPerInch)},
		},
	}
	asOf2 := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	events2, err := d.Detect(ctx, 1, fetch2, asOf2)
	if err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if len(events2) != 1 {
		t.Fatalf("fetch 2: got %d events, want 1", len(events2))
	}

	if events2[0].EventID != events1[0].EventID {
		t.Fatalf("drifted storm minted a new identity: %s vs %s", events2[0].EventID, events1[0].EventID)
	}

	report, err := d.Trend(ctx, 1, events2[0].EventID, asOf2)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if report.Direction != types.TrendIncreasing {
		t.Errorf("direction = %s, want increasing", report.Direction)
	}
	if math.Abs(report.Change-2.0) > 1e-9 {
		t.Errorf("change = %v, want +2.0", report.Change)
	}
	if report.Detections != 2 {
		t.Errorf("detections = %d, want 2", report.Detections)
	}
}

func TestDetectSeparateStormsStaySeparate(t *testing.T) {
	store := &mockSnapshotStore{}
	d := newTestDetector(store)
	ctx := context.Background()
	asOf := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	fetch1 := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-10T06:00:00+00:00", ValueMM: mm(3.0 * mmPerInch)},
		},
	}
	events1, err := d.Detect(ctx, 1, fetch1, asOf)
	if err != nil || len(events1) != 1 {
		t.Fatalf("fetch 1: events=%v err=%v", events1, err)
	}

	// A later, disjoint storm must mint its own identity.
	fetch2 := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-20T06:00:00+00:00", ValueMM: mm(4.0 * mmPerInch)},
		},
	}
	events2, err := d.Detect(ctx, 1, fetch2, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	if err != nil || len(events2) != 1 {
		t.Fatalf("fetch 2: events=%v err=%v", events2, err)
	}

	if events2[0].EventID == events1[0].EventID {
		t.Error("disjoint storms must not share an identity")
	}
}

func TestDetectNoSnowIsNotAnError(t *testing.T) {
	store := &mockSnapshotStore{}
	d := newTestDetector(store)

	bundle := types.ForecastBundle{
		Periods: []types.NarrativePeriod{
			{Name: "Tonight", DetailedForecast: "Clear, with a low around 20."},
		},
	}

	events, err := d.Detect(context.Background(), 1, bundle, time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
	if store.recentCalls != 0 || store.appendCalls != 0 {
		t.Error("store must not be touched when nothing was detected")
	}
}

func TestDetectAbortsWhenStoreUnavailable(t *testing.T) {
	store := &mockSnapshotStore{recentErr: errors.New("connection refused")}
	d := newTestDetector(store)

	bundle := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-15T06:00:00+00:00", ValueMM: mm(3.0 * mmPerInch)},
		},
	}

	_, err := d.Detect(context.Background(), 1, bundle, time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error when identity lookup fails")
	}
	if store.appendCalls != 0 {
		t.Error("no snapshot may be appended after a failed identity lookup")
	}
}

func TestDetectAbortsOnAppendFailure(t *testing.T) {
	store := &mockSnapshotStore{appendErr: errors.New("disk full")}
	d := newTestDetector(store)

	bundle := types.ForecastBundle{
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-15T06:00:00+00:00", ValueMM: mm(3.0 * mmPerInch)},
		},
	}

	if _, err := d.Detect(context.Background(), 1, bundle, time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected append failure to abort the pass")
	}
}
