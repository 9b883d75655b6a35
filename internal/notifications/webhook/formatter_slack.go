package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxSlackDetailLines caps the detail sections in a Slack message. Excess
// lines are summarized in a context footer.
const maxSlackDetailLines = 5

// SlackFormatter formats notifications as Slack Block Kit JSON.
type SlackFormatter struct{}

// Platform returns the platform identifier.
func (f *SlackFormatter) Platform() Platform {
	return PlatformSlack
}

// Format transforms a Notification into Slack Block Kit JSON.
func (f *SlackFormatter) Format(n *Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("slack formatter: notification is nil")
	}

	payload := SlackPayload{
		Text: n.Title,
		Blocks: []SlackBlock{
			{
				Type: "header",
				Text: &SlackText{Type: "plain_text", Text: n.Title},
			},
			{
				Type: "section",
				Text: &SlackText{Type: "mrkdwn", Text: n.Summary},
			},
		},
	}

	lines := n.Lines
	total := len(lines)
	if total > maxSlackDetailLines {
		lines = lines[:maxSlackDetailLines]
	}
	for _, line := range lines {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: line},
		})
	}
	if total > maxSlackDetailLines {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type: "context",
			Elements: []*SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("...and %d more changes.", total-maxSlackDetailLines)},
			},
		})
	}

	payload.Blocks = append(payload.Blocks, SlackBlock{
		Type: "context",
		Elements: []*SlackText{
			{Type: "mrkdwn", Text: fmt.Sprintf("*Event*: %s | %s %s | SnowTracker", string(n.EventType), n.LocationName, n.ZipCode)},
		},
	})

	return json.Marshal(payload)
}

// ValidateResponse checks for Slack's soft-failure pattern where the API
// returns HTTP 200 but the body carries an error.
func (f *SlackFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", statusCode)
	}

	bodyStr := strings.TrimSpace(string(body))

	// Slack incoming webhooks return "ok" as plain text on success.
	if bodyStr == "" || bodyStr == "ok" {
		return nil
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err == nil {
		if ok, exists := resp["ok"]; exists {
			if b, isBool := ok.(bool); isBool && !b {
				return fmt.Errorf("slack: soft failure: %s", truncateBody(body))
			}
		}
		return nil
	}

	// Plain-text bodies other than "ok" are error strings like
	// "invalid_payload".
	return fmt.Errorf("slack: soft failure: %s", bodyStr)
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
