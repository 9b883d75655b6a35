package types

import "time"

// Location represents a tracked place, keyed by ZIP code and resolved once
// against the NWS points endpoint at creation time.
type Location struct {
	ID             int64     `json:"id" db:"id"`
	ZipCode        string    `json:"zip_code" db:"zip_code"`
	Lat            float64   `json:"lat" db:"lat"`
	Lon            float64   `json:"lon" db:"lon"`
	City           string    `json:"city,omitempty" db:"city"`
	State          string    `json:"state,omitempty" db:"state"`
	ForecastOffice string    `json:"forecast_office" db:"forecast_office"`
	GridX          int       `json:"grid_x" db:"grid_x"`
	GridY          int       `json:"grid_y" db:"grid_y"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NarrativePeriod is one named period of the textual forecast
// (e.g. "Saturday Night") as consumed by the detection engine.
// StartTime is kept in its raw wire form; the engine normalizes it.
type NarrativePeriod struct {
	Name              string `json:"name"`
	StartTime         string `json:"start_time,omitempty"`
	DetailedForecast  string `json:"detailed_forecast"`
	ShortForecast     string `json:"short_forecast,omitempty"`
	Temperature       *int   `json:"temperature,omitempty"`
	PrecipProbability *int   `json:"precip_probability,omitempty"`
}

// GridpointValue is one entry of the structured snowfall time series.
// ValueMM is nil when the upstream reports no value for the interval.
type GridpointValue struct {
	ValidTime string   `json:"valid_time"`
	ValueMM   *float64 `json:"value_mm"`
}

// ForecastBundle is a deserialized forecast fetch: the narrative periods plus
// the structured snowfall series. It is the sole input shape of a detection
// pass; the engine never performs network calls itself.
type ForecastBundle struct {
	Periods   []NarrativePeriod `json:"periods"`
	Gridpoint []GridpointValue  `json:"gridpoint"`
}

// DailyAmount pairs an ISO date with a best-estimate snow total. Kept as an
// ordered slice rather than a map so the date order of an event's breakdown
// survives serialization.
type DailyAmount struct {
	Date   string  `json:"date"`
	Inches float64 `json:"inches"`
}

// SnowEvent is one contiguous snowy stretch detected in a single forecast
// fetch. A fresh value is produced on every detection pass; continuity across
// passes is carried entirely by EventID.
type SnowEvent struct {
	EventID   string    `json:"event_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	SnowTotalLow  float64 `json:"snow_total_low"`
	SnowTotalHigh float64 `json:"snow_total_high"`
	SnowTotalBest float64 `json:"snow_total_best"`

	SnowByDate []DailyAmount `json:"snow_by_date"`

	HasIce  bool `json:"has_ice"`
	HasWind bool `json:"has_wind"`

	LeadTimeHours int        `json:"lead_time_hours"`
	Confidence    Confidence `json:"confidence"`

	Sources    []SignalSource `json:"sources"`
	KeyDetails string         `json:"key_details,omitempty"`
}

// EventSnapshot is one persisted row of an event's state as estimated during
// one detection pass. Rows are append-only; the trend analyzer reads them back
// ordered by DetectedAt.
type EventSnapshot struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	EventID    string    `json:"event_id" db:"event_id"`
	DetectedAt time.Time `json:"detected_at" db:"detected_at"`

	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	SnowLow  float64 `json:"snow_low" db:"snow_low"`
	SnowBest float64 `json:"snow_best" db:"snow_best"`
	SnowHigh float64 `json:"snow_high" db:"snow_high"`

	SnowByDate []DailyAmount `json:"snow_by_date" db:"snow_by_date"`

	Confidence    Confidence `json:"confidence" db:"confidence"`
	LeadTimeHours int        `json:"lead_time_hours" db:"lead_time_hours"`

	HasIce  bool `json:"has_ice" db:"has_ice"`
	HasWind bool `json:"has_wind" db:"has_wind"`

	Sources    []SignalSource `json:"sources" db:"sources"`
	KeyDetails string         `json:"key_details,omitempty" db:"key_details"`
}

// StoredEventRange is the lightweight identity record the resolver matches
// candidates against: one row per distinct event identity seen recently.
type StoredEventRange struct {
	EventID   string    `json:"event_id" db:"event_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
}

// TrendPoint is one sample in an event's amount time series.
type TrendPoint struct {
	DetectedAt time.Time  `json:"detected_at"`
	SnowBest   float64    `json:"snow_best"`
	Confidence Confidence `json:"confidence"`
}

// TrendReport describes how an event's forecast amount has evolved across
// detection passes. Direction is TrendInsufficientData when fewer than two
// snapshots exist; that is a valid result, not an error.
type TrendReport struct {
	Direction    TrendDirection `json:"direction"`
	Change       float64        `json:"change"`
	FirstAmount  float64        `json:"first_amount"`
	LatestAmount float64        `json:"latest_amount"`
	Detections   int            `json:"detections"`
	Series       []TrendPoint   `json:"series,omitempty"`
}

// ForecastRecord is one stored forecast fetch for a location.
type ForecastRecord struct {
	ID         int64          `json:"id" db:"id"`
	LocationID int64          `json:"location_id" db:"location_id"`
	FetchedAt  time.Time      `json:"fetched_at" db:"fetched_at"`
	Bundle     ForecastBundle `json:"bundle" db:"-"`
}

// Discussion is one stored Area Forecast Discussion issuance.
type Discussion struct {
	ID         int64      `json:"id" db:"id"`
	LocationID int64      `json:"location_id" db:"location_id"`
	FetchedAt  time.Time  `json:"fetched_at" db:"fetched_at"`
	IssuedAt   *time.Time `json:"issued_at,omitempty" db:"issued_at"`
	Text       string     `json:"text" db:"discussion_text"`
}

// ForecastChange describes one significant difference between two consecutive
// forecast fetches for a location.
type ForecastChange struct {
	Type     ChangeType     `json:"type"`
	Severity ChangeSeverity `json:"severity"`
	Summary  string         `json:"summary"`
	Previous string         `json:"previous_value,omitempty"`
	Current  string         `json:"current_value,omitempty"`
	Delta    float64        `json:"delta,omitempty"`
}

// AlertRecord is one row of the sent-notification history.
type AlertRecord struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	EventType  EventType `json:"event_type" db:"event_type"`
	Summary    string    `json:"summary" db:"summary"`
	Details    string    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
