package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"snowtracker/internal/types"
)

// maxResponseBodyRead limits how much of a response body is read for soft
// failure detection and error messages.
const maxResponseBodyRead = 4096

// ChannelConfig holds the configuration for creating a Channel.
type ChannelConfig struct {
	URL           string
	Format        Platform
	SigningSecret types.SecretString
	UserAgent     string
	Timeout       time.Duration
	Logger        *slog.Logger
	HTTPClient    *http.Client // override for testing
}

// Channel delivers notifications to a single webhook URL.
type Channel struct {
	url       string
	formatter Formatter
	signer    *Signer
	client    *http.Client
	userAgent string
	logger    *slog.Logger
	nowFn     func() time.Time // for testability; defaults to time.Now
}

// NewChannel creates a webhook delivery channel. A ChannelConfig with an
// empty URL is valid: Deliver becomes a no-op, which is how deployments
// without a webhook destination run.
func NewChannel(cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	var formatter Formatter
	switch cfg.Format {
	case PlatformSlack:
		formatter = &SlackFormatter{}
	default:
		formatter = &GenericFormatter{}
	}

	return &Channel{
		url:       cfg.URL,
		formatter: formatter,
		signer:    NewSigner(cfg.SigningSecret),
		client:    client,
		userAgent: cfg.UserAgent,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// Enabled reports whether the channel has a destination configured.
func (c *Channel) Enabled() bool {
	return c.url != ""
}

// Deliver formats, signs, and POSTs one notification. Delivery failures are
// returned to the caller; the fetch runner logs and continues rather than
// failing the pass.
func (c *Channel) Deliver(ctx context.Context, n *Notification) error {
	if !c.Enabled() {
		return nil
	}

	payload, err := c.formatter.Format(n)
	if err != nil {
		return fmt.Errorf("formatting webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if sig := c.signer.Sign(payload, c.nowFn()); sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	if err := c.formatter.ValidateResponse(resp.StatusCode, body); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "webhook delivered",
		"platform", string(c.formatter.Platform()),
		"event_type", string(n.EventType),
		"zip_code", n.ZipCode,
	)
	return nil
}

// locationName renders "City, ST" with a ZIP fallback.
func locationName(loc types.Location) string {
	if loc.City != "" && loc.State != "" {
		return loc.City + ", " + loc.State
	}
	return loc.ZipCode
}

// NewEventNotification builds the alert for a newly identified snow event.
func NewEventNotification(loc types.Location, event types.SnowEvent, detectedAt time.Time) *Notification {
	summary := fmt.Sprintf("%.1f\" expected %s – %s (range %.1f–%.1f\", confidence %s)",
		event.SnowTotalBest,
		event.StartDate.Format("Jan 2"),
		event.EndDate.Format("Jan 2"),
		event.SnowTotalLow,
		event.SnowTotalHigh,
		event.Confidence,
	)

	var lines []string
	for _, d := range event.SnowByDate {
		lines = append(lines, fmt.Sprintf("%s: %.1f\"", d.Date, d.Inches))
	}
	if event.HasIce {
		lines = append(lines, "Ice possible")
	}
	if event.HasWind {
		lines = append(lines, "Wind or blowing snow possible")
	}

	return &Notification{
		EventType:    types.EventNewSnowEvent,
		LocationName: locationName(loc),
		ZipCode:      loc.ZipCode,
		Title:        fmt.Sprintf("Snow Event: %s", locationName(loc)),
		Summary:      summary,
		Lines:        lines,
		Severity:     types.SeverityHigh,
		OccurredAt:   detectedAt,
	}
}

// NewTrendNotification builds the alert for an event whose forecast amount
// moved past the trend noise floor.
func NewTrendNotification(loc types.Location, event types.SnowEvent, report types.TrendReport, detectedAt time.Time) *Notification {
	return &Notification{
		EventType:    types.EventTrendChanged,
		LocationName: locationName(loc),
		ZipCode:      loc.ZipCode,
		Title:        fmt.Sprintf("Snow Trend %s: %s", report.Direction, locationName(loc)),
		Summary: fmt.Sprintf("Forecast for %s – %s %s from %.1f\" to %.1f\" (%+.1f\") across %d checks",
			event.StartDate.Format("Jan 2"), event.EndDate.Format("Jan 2"),
			report.Direction, report.FirstAmount, report.LatestAmount, report.Change, report.Detections),
		Severity:   types.SeverityMedium,
		OccurredAt: detectedAt,
	}
}

// NewChangesNotification builds the alert for significant forecast-to-
// forecast changes. Severity is the highest severity among the changes.
func NewChangesNotification(loc types.Location, changes []types.ForecastChange, detectedAt time.Time) *Notification {
	severity := types.SeverityMedium
	var lines []string
	for _, ch := range changes {
		marker := "•"
		if ch.Severity == types.SeverityHigh {
			marker = "‼"
			severity = types.SeverityHigh
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, ch.Summary))
	}

	return &Notification{
		EventType:    types.EventForecastChanged,
		LocationName: locationName(loc),
		ZipCode:      loc.ZipCode,
		Title:        fmt.Sprintf("Forecast Changed: %s", locationName(loc)),
		Summary:      fmt.Sprintf("%d significant change(s) since the previous forecast", len(changes)),
		Lines:        lines,
		Severity:     severity,
		OccurredAt:   detectedAt,
	}
}
