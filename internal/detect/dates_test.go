package detect

import (
	"testing"
	"time"
)

func TestParseValidTime(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantDate string
		wantOK   bool
	}{
		{"bare datetime", "2026-01-25T06:00:00", "2026-01-25", true},
		{"negative offset", "2026-01-25T06:00:00-05:00", "2026-01-25", true},
		{"positive offset", "2026-01-25T06:00:00+00:00", "2026-01-25", true},
		{"offset with duration", "2026-01-25T06:00:00+00:00/PT6H", "2026-01-25", true},
		{"bare with duration", "2026-01-25T18:00:00/PT6H", "2026-01-25", true},
		{"late evening keeps local date", "2026-01-25T23:00:00-05:00", "2026-01-25", true},
		{"empty", "", "", false},
		{"garbage", "not-a-time", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseValidTime(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseValidTime(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got := DateOf(ts).Format(isoDate); got != tt.wantDate {
				t.Errorf("ParseValidTime(%q) date = %s, want %s", tt.raw, got, tt.wantDate)
			}
		})
	}
}

func TestResolvePeriodDate(t *testing.T) {
	// 2026-01-13 is a Tuesday.
	asOf := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		period   string
		wantDate string
		wantOK   bool
	}{
		{"tonight", "Tonight", "2026-01-13", true},
		{"today", "Today", "2026-01-13", true},
		{"this afternoon", "This Afternoon", "2026-01-13", true},
		{"upcoming weekday", "Thursday", "2026-01-15", true},
		{"weekday night", "Saturday Night", "2026-01-17", true},
		{"same weekday rolls a week", "Tuesday", "2026-01-20", true},
		{"yesterday's weekday rolls forward", "Monday", "2026-01-19", true},
		{"unrecognized", "Martin Luther King Jr Day", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := ResolvePeriodDate(tt.period, asOf)
			if ok != tt.wantOK {
				t.Fatalf("ResolvePeriodDate(%q) ok = %v, want %v", tt.period, ok, tt.wantOK)
			}
			if ok && d.Format(isoDate) != tt.wantDate {
				t.Errorf("ResolvePeriodDate(%q) = %s, want %s", tt.period, d.Format(isoDate), tt.wantDate)
			}
		})
	}
}
