package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"snowtracker/internal/types"
)

// maxAlertLimit caps the alert history page size.
const maxAlertLimit = 200

// ForecastRepo provides read access to stored forecasts and discussions.
type ForecastRepo interface {
	Latest(ctx context.Context, locationID int64) (*types.ForecastRecord, error)
	LatestDiscussion(ctx context.Context, locationID int64) (*types.Discussion, error)
}

// AlertRepo provides read access to the alert history.
type AlertRepo interface {
	ListByLocation(ctx context.Context, locationID int64, limit int) ([]types.AlertRecord, error)
}

// ForecastHandler serves raw forecast data, discussions, and alert history.
type ForecastHandler struct {
	locations LocationRepo
	forecasts ForecastRepo
	alerts    AlertRepo
	logger    *slog.Logger
}

// NewForecastHandler creates a ForecastHandler.
func NewForecastHandler(locations LocationRepo, forecasts ForecastRepo, alerts AlertRepo, l *slog.Logger) *ForecastHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ForecastHandler{
		locations: locations,
		forecasts: forecasts,
		alerts:    alerts,
		logger:    l,
	}
}

// RegisterRoutes mounts forecast routes on the provided chi.Router.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Route("/locations/{id}", func(r chi.Router) {
		r.Get("/forecast", h.Latest)
		r.Get("/discussion", h.Discussion)
		r.Get("/alerts", h.Alerts)
	})
}

// Latest handles GET /v1/locations/{id}/forecast: the most recent stored
// forecast fetch.
func (h *ForecastHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	if _, err := h.locations.GetByID(r.Context(), id); err != nil {
		Error(w, r, err)
		return
	}

	record, err := h.forecasts.Latest(r.Context(), id)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: record})
}

// Discussion handles GET /v1/locations/{id}/discussion: the most recent Area
// Forecast Discussion stored for the location's office.
func (h *ForecastHandler) Discussion(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	if _, err := h.locations.GetByID(r.Context(), id); err != nil {
		Error(w, r, err)
		return
	}

	discussion, err := h.forecasts.LatestDiscussion(r.Context(), id)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: discussion})
}

// Alerts handles GET /v1/locations/{id}/alerts with an optional limit query
// parameter.
func (h *ForecastHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	if _, err := h.locations.GetByID(r.Context(), id); err != nil {
		Error(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxAlertLimit {
			Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidWindow,
				"limit must be an integer between 1 and 200",
				err,
			))
			return
		}
	}

	alerts, err := h.alerts.ListByLocation(r.Context(), id, limit)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: alerts})
}
