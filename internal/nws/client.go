// Package nws is the National Weather Service API client. It exposes the
// handful of api.weather.gov endpoints the tracker consumes — point
// resolution, narrative forecasts, raw gridpoint snowfall series, and Area
// Forecast Discussions — and normalizes their payloads into domain types.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"snowtracker/internal/external"
	"snowtracker/internal/types"
)

// defaultBaseURL is the production NWS API host. Overridable in tests via
// ClientConfig.BaseURL.
const defaultBaseURL = "https://api.weather.gov"

// ClientConfig holds the configuration for creating a Client.
type ClientConfig struct {
	BaseURL   string // defaults to defaultBaseURL
	UserAgent string // NWS asks for an identifying User-Agent with contact info
	Timeout   time.Duration
	Logger    *slog.Logger
	Base      *external.BaseClient // override for testing; built from the above when nil
}

// Client calls the NWS API through the shared resilience layer.
type Client struct {
	base    *external.BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an NWS API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	base := cfg.Base
	if base == nil {
		base = external.NewBaseClient(
			&http.Client{Timeout: timeout},
			"nws",
			external.DefaultRetryPolicy(),
			cfg.UserAgent,
			types.ErrCodeUpstreamNWS,
		)
	}

	return &Client{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// PointInfo is the NWS grid assignment for a coordinate.
type PointInfo struct {
	Office string
	GridX  int
	GridY  int
}

// DiscussionProduct is one Area Forecast Discussion issuance.
type DiscussionProduct struct {
	Text     string
	IssuedAt *time.Time
}

// --- wire payloads ---

type pointsResponse struct {
	Properties struct {
		GridID string `json:"gridId"`
		GridX  int    `json:"gridX"`
		GridY  int    `json:"gridY"`
	} `json:"properties"`
}

type wirePeriod struct {
	Name             string `json:"name"`
	StartTime        string `json:"startTime"`
	DetailedForecast string `json:"detailedForecast"`
	ShortForecast    string `json:"shortForecast"`
	Temperature      *int   `json:"temperature"`
	PrecipProb       struct {
		Value *int `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

type forecastResponse struct {
	Properties struct {
		Periods []wirePeriod `json:"periods"`
	} `json:"properties"`
}

type gridpointResponse struct {
	Properties struct {
		SnowfallAmount struct {
			Uom    string `json:"uom"`
			Values []struct {
				ValidTime string   `json:"validTime"`
				Value     *float64 `json:"value"`
			} `json:"values"`
		} `json:"snowfallAmount"`
	} `json:"properties"`
}

type productListResponse struct {
	Graph []struct {
		ID           string `json:"id"`
		IssuanceTime string `json:"issuanceTime"`
	} `json:"@graph"`
}

type productResponse struct {
	ProductText string `json:"productText"`
}

// getJSON performs a GET against the NWS API and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build NWS request", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.NewAppError(types.ErrCodeNotFoundForecast,
			fmt.Sprintf("NWS has no data for %s", path), nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewAppError(types.ErrCodeUpstreamNWS,
			fmt.Sprintf("NWS returned %d for %s: %s", resp.StatusCode, path, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamNWS, "failed to decode NWS response", err)
	}
	return nil
}

// ResolvePoint maps a coordinate to its forecast office and grid cell via the
// /points endpoint. The assignment is stable for a location and is resolved
// once at location creation time.
func (c *Client) ResolvePoint(ctx context.Context, lat, lon float64) (PointInfo, error) {
	var payload pointsResponse
	path := fmt.Sprintf("/points/%.4f,%.4f", lat, lon)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return PointInfo{}, err
	}

	p := payload.Properties
	if p.GridID == "" {
		return PointInfo{}, types.NewAppError(types.ErrCodeUpstreamNWS,
			"NWS returned incomplete grid point data", nil)
	}
	return PointInfo{Office: p.GridID, GridX: p.GridX, GridY: p.GridY}, nil
}

// Forecast returns the narrative forecast periods for a grid cell.
func (c *Client) Forecast(ctx context.Context, office string, gridX, gridY int) ([]types.NarrativePeriod, error) {
	var payload forecastResponse
	path := fmt.Sprintf("/gridpoints/%s/%d,%d/forecast", office, gridX, gridY)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return convertPeriods(payload.Properties.Periods), nil
}

// HourlyForecast returns the hourly narrative periods for a grid cell. The
// hourly product carries short forecasts and precipitation probabilities at
// finer grain than the twice-daily narrative.
func (c *Client) HourlyForecast(ctx context.Context, office string, gridX, gridY int) ([]types.NarrativePeriod, error) {
	var payload forecastResponse
	path := fmt.Sprintf("/gridpoints/%s/%d,%d/forecast/hourly", office, gridX, gridY)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return convertPeriods(payload.Properties.Periods), nil
}

func convertPeriods(wire []wirePeriod) []types.NarrativePeriod {
	out := make([]types.NarrativePeriod, 0, len(wire))
	for _, p := range wire {
		out = append(out, types.NarrativePeriod{
			Name:              p.Name,
			StartTime:         p.StartTime,
			DetailedForecast:  p.DetailedForecast,
			ShortForecast:     p.ShortForecast,
			Temperature:       p.Temperature,
			PrecipProbability: p.PrecipProb.Value,
		})
	}
	return out
}

// GridpointSnowfall returns the raw snowfall amount time series for a grid
// cell. Values are millimeters per interval; nil values mean the upstream
// reported none for that interval.
func (c *Client) GridpointSnowfall(ctx context.Context, office string, gridX, gridY int) ([]types.GridpointValue, error) {
	var payload gridpointResponse
	path := fmt.Sprintf("/gridpoints/%s/%d,%d", office, gridX, gridY)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}

	values := payload.Properties.SnowfallAmount.Values
	out := make([]types.GridpointValue, 0, len(values))
	for _, v := range values {
		out = append(out, types.GridpointValue{ValidTime: v.ValidTime, ValueMM: v.Value})
	}
	return out, nil
}

// FetchBundle fetches the narrative forecast and the gridpoint snowfall
// series for a location and assembles the detection engine's input. A missing
// gridpoint series is tolerated — text-only detection still works — but a
// missing narrative forecast is an error.
func (c *Client) FetchBundle(ctx context.Context, loc types.Location) (types.ForecastBundle, error) {
	periods, err := c.Forecast(ctx, loc.ForecastOffice, loc.GridX, loc.GridY)
	if err != nil {
		return types.ForecastBundle{}, err
	}

	grid, err := c.GridpointSnowfall(ctx, loc.ForecastOffice, loc.GridX, loc.GridY)
	if err != nil {
		c.logger.WarnContext(ctx, "gridpoint snowfall unavailable, using narrative only",
			"zip_code", loc.ZipCode,
			"office", loc.ForecastOffice,
			"error", err,
		)
		grid = nil
	}

	return types.ForecastBundle{Periods: periods, Gridpoint: grid}, nil
}

// Discussion returns the most recent Area Forecast Discussion for an office.
// The listing endpoint yields product IDs; the product text requires a second
// fetch.
func (c *Client) Discussion(ctx context.Context, office string) (*DiscussionProduct, error) {
	var listing productListResponse
	if err := c.getJSON(ctx, "/products/types/AFD/locations/"+office, &listing); err != nil {
		return nil, err
	}
	if len(listing.Graph) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundForecast,
			fmt.Sprintf("no forecast discussion available for office %s", office), nil)
	}

	latest := listing.Graph[0]
	var product productResponse
	if err := c.getJSON(ctx, "/products/"+latest.ID, &product); err != nil {
		return nil, err
	}

	out := &DiscussionProduct{Text: product.ProductText}
	if t, err := time.Parse(time.RFC3339, latest.IssuanceTime); err == nil {
		utc := t.UTC()
		out.IssuedAt = &utc
	}
	return out, nil
}
