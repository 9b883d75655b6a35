package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// GenericFormatter serializes the notification as a stable JSON envelope for
// receivers that do not match any known platform.
type GenericFormatter struct{}

// Platform returns the platform identifier.
func (f *GenericFormatter) Platform() Platform {
	return PlatformGeneric
}

// GenericPayload is the standard webhook envelope for generic endpoints.
type GenericPayload struct {
	EventType  string   `json:"event_type"`
	Location   string   `json:"location"`
	ZipCode    string   `json:"zip_code"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Details    []string `json:"details,omitempty"`
	Severity   string   `json:"severity,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// Format transforms a Notification into generic JSON.
func (f *GenericFormatter) Format(n *Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("generic formatter: notification is nil")
	}

	payload := GenericPayload{
		EventType:  string(n.EventType),
		Location:   n.LocationName,
		ZipCode:    n.ZipCode,
		Title:      n.Title,
		Summary:    n.Summary,
		Details:    n.Lines,
		Severity:   string(n.Severity),
		OccurredAt: n.OccurredAt.UTC().Format(time.RFC3339),
	}

	return json.Marshal(payload)
}

// ValidateResponse for generic webhooks simply checks the HTTP status code.
func (f *GenericFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return fmt.Errorf("generic webhook: unexpected status %d: %s", statusCode, truncateBody(body))
}
