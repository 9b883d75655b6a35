package types

// Confidence expresses how reliable an event's amount estimate is, derived
// purely from forecast lead time.
type Confidence string

const (
	ConfidenceVeryHigh Confidence = "Very High" // lead time <= 36h
	ConfidenceHigh     Confidence = "High"      // 37-60h
	ConfidenceModerate Confidence = "Moderate"  // 61-96h
	ConfidenceLow      Confidence = "Low"       // 97-144h
	ConfidenceVeryLow  Confidence = "Very Low"  // > 144h
)

// TrendDirection classifies how an event's forecast amount has moved since
// first detection.
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendSteady           TrendDirection = "steady"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// SignalSource tags which extraction path contributed to a daily signal.
type SignalSource string

const (
	SourceGridpoint    SignalSource = "gridpoint"
	SourceForecastText SignalSource = "forecast_text"
)

// ChangeType identifies the kind of forecast-to-forecast change detected.
type ChangeType string

const (
	ChangeTemperature       ChangeType = "temperature"
	ChangeSnowTotal         ChangeType = "snow_total"
	ChangePrecipProbability ChangeType = "precip_probability"
	ChangeWinterWxAdded     ChangeType = "winter_weather_added"
	ChangeWinterWxRemoved   ChangeType = "winter_weather_removed"
	ChangeSnowText          ChangeType = "snow_text"
)

// ChangeSeverity ranks a detected change for notification formatting.
type ChangeSeverity string

const (
	SeverityMedium ChangeSeverity = "medium"
	SeverityHigh   ChangeSeverity = "high"
)

// EventType identifies the kind of notification event.
type EventType string

const (
	EventNewSnowEvent    EventType = "new_snow_event"
	EventTrendChanged    EventType = "event_trend_changed"
	EventForecastChanged EventType = "forecast_changed"
)
