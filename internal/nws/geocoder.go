package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"snowtracker/internal/external"
	"snowtracker/internal/types"
)

// defaultGeocoderURL is the Zippopotam.us API host: free US ZIP lookups, no
// API key.
const defaultGeocoderURL = "https://api.zippopotam.us"

// GeocoderConfig holds the configuration for creating a Geocoder.
type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	Base    *external.BaseClient // override for testing
}

// Geocoder resolves US ZIP codes to coordinates and place names.
type Geocoder struct {
	base    *external.BaseClient
	baseURL string
	logger  *slog.Logger
}

// GeocodeResult is a resolved ZIP code.
type GeocodeResult struct {
	Lat   float64
	Lon   float64
	City  string
	State string
}

// NewGeocoder creates a ZIP code geocoding client.
func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeocoderURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	base := cfg.Base
	if base == nil {
		base = external.NewBaseClient(
			&http.Client{Timeout: timeout},
			"geocoder",
			external.DefaultRetryPolicy(),
			"",
			types.ErrCodeUpstreamGeocoder,
		)
	}

	return &Geocoder{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

type zippopotamResponse struct {
	Places []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		PlaceName string `json:"place name"`
		StateAbbr string `json:"state abbreviation"`
	} `json:"places"`
}

// Lookup resolves a five-digit US ZIP code. An unknown ZIP maps to a
// validation error, not an upstream failure: the service answers 404 for
// well-formed codes it has never heard of.
func (g *Geocoder) Lookup(ctx context.Context, zipCode string) (GeocodeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/us/"+zipCode, nil)
	if err != nil {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build geocoder request", err)
	}

	resp, err := g.base.Do(req)
	if err != nil {
		return GeocodeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeValidationInvalidZip,
			fmt.Sprintf("unknown zip code %q", zipCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeUpstreamGeocoder,
			fmt.Sprintf("geocoder returned %d for zip %q", resp.StatusCode, zipCode), nil)
	}

	var payload zippopotamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeUpstreamGeocoder, "failed to decode geocoder response", err)
	}
	if len(payload.Places) == 0 {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeValidationInvalidZip,
			fmt.Sprintf("no places found for zip code %q", zipCode), nil)
	}

	place := payload.Places[0]
	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeUpstreamGeocoder, "geocoder returned unparseable latitude", err)
	}
	lon, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return GeocodeResult{}, types.NewAppError(types.ErrCodeUpstreamGeocoder, "geocoder returned unparseable longitude", err)
	}

	return GeocodeResult{
		Lat:   lat,
		Lon:   lon,
		City:  place.PlaceName,
		State: place.StateAbbr,
	}, nil
}
