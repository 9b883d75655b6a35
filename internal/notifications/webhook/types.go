// Package webhook implements outbound alert delivery over HTTP POST. It
// formats notifications with platform-specific JSON schemas (generic and
// Slack Block Kit) and signs payloads with HMAC-SHA256 so receivers can
// verify origin.
package webhook

import (
	"time"

	"snowtracker/internal/types"
)

// Platform identifies a webhook destination payload schema.
type Platform string

const (
	// PlatformGeneric is the default JSON envelope for arbitrary receivers.
	PlatformGeneric Platform = "generic"

	// PlatformSlack formats payloads as Slack Block Kit messages.
	PlatformSlack Platform = "slack"
)

// Notification is the channel-independent alert shape. Formatters turn it
// into platform-specific JSON.
type Notification struct {
	EventType    types.EventType
	LocationName string
	ZipCode      string
	Title        string
	Summary      string
	Lines        []string
	Severity     types.ChangeSeverity
	OccurredAt   time.Time
}

// Formatter transforms a Notification into platform-specific JSON.
type Formatter interface {
	Format(n *Notification) ([]byte, error)

	// Platform returns the schema identifier for logging.
	Platform() Platform

	// ValidateResponse interprets the HTTP response to catch soft failures
	// (e.g. Slack returning 200 with an error body).
	ValidateResponse(statusCode int, body []byte) error
}

// --- Slack payload types (Block Kit) ---

// SlackPayload is the top-level structure for Slack Block Kit messages.
type SlackPayload struct {
	Text   string       `json:"text"` // fallback text for push notifications
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a single block in a Slack Block Kit message.
type SlackBlock struct {
	Type     string       `json:"type"` // "header", "section", "context"
	Text     *SlackText   `json:"text,omitempty"`
	Elements []*SlackText `json:"elements,omitempty"`
}

// SlackText is a text composition object for Slack Block Kit.
type SlackText struct {
	Type string `json:"type"` // "plain_text", "mrkdwn"
	Text string `json:"text"`
}
