package nws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snowtracker/internal/external"
	"snowtracker/internal/types"
)

const zippopotamPayload = `{
  "post code": "80443",
  "country": "United States",
  "places": [
    {
      "place name": "Frisco",
      "longitude": "-106.0968",
      "state": "Colorado",
      "state abbreviation": "CO",
      "latitude": "39.5783"
    }
  ]
}`

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := external.NewBaseClient(
		srv.Client(),
		"geocoder-test",
		external.RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		"",
		types.ErrCodeUpstreamGeocoder,
		external.WithSleepFunc(func(time.Duration) {}),
	)
	return NewGeocoder(GeocoderConfig{BaseURL: srv.URL, Base: base})
}

func TestGeocoderLookup(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/us/80443" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, zippopotamPayload)
	})

	res, err := g.Lookup(context.Background(), "80443")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Lat != 39.5783 || res.Lon != -106.0968 {
		t.Errorf("coords = (%v, %v)", res.Lat, res.Lon)
	}
	if res.City != "Frisco" || res.State != "CO" {
		t.Errorf("place = %s, %s", res.City, res.State)
	}
}

func TestGeocoderUnknownZip(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := g.Lookup(context.Background(), "00000")
	if err == nil {
		t.Fatal("expected error for unknown zip")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeValidationInvalidZip {
		t.Errorf("error = %v, want validation_invalid_zip_code", err)
	}
}

func TestGeocoderEmptyPlaces(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"places": []}`)
	})

	_, err := g.Lookup(context.Background(), "99999")
	if err == nil {
		t.Fatal("expected error for empty places")
	}
}
