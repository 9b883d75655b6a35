package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"snowtracker/internal/types"
)

// defaultEventLookbackDays bounds event listings and trend windows to the
// same horizon the identity resolver uses.
const defaultEventLookbackDays = 7

// EventRepo provides read access to stored event snapshots.
type EventRepo interface {
	LatestPerEvent(ctx context.Context, locationID int64, since time.Time) ([]types.EventSnapshot, error)
	History(ctx context.Context, locationID int64, eventID string, since time.Time) ([]types.EventSnapshot, error)
}

// TrendProvider computes an event's longitudinal trend.
type TrendProvider interface {
	Trend(ctx context.Context, locationID int64, eventID string, asOf time.Time) (types.TrendReport, error)
}

// EventHandler serves detected snow events, their snapshot history, and their
// trends.
type EventHandler struct {
	locations    LocationRepo
	events       EventRepo
	trends       TrendProvider
	lookbackDays int
	logger       *slog.Logger
	nowFn        func() time.Time
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(locations LocationRepo, events EventRepo, trends TrendProvider, l *slog.Logger) *EventHandler {
	if l == nil {
		l = slog.Default()
	}
	return &EventHandler{
		locations:    locations,
		events:       events,
		trends:       trends,
		lookbackDays: defaultEventLookbackDays,
		logger:       l,
		nowFn:        time.Now,
	}
}

// RegisterRoutes mounts event routes on the provided chi.Router.
func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Route("/locations/{id}/events", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/history", h.History)
			r.Get("/trend", h.Trend)
		})
	})
}

// List handles GET /v1/locations/{id}/events: the most recent snapshot of
// every event identity seen within the lookback window.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	if _, err := h.locations.GetByID(r.Context(), id); err != nil {
		Error(w, r, err)
		return
	}

	asOf, err := h.asOf(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	since := asOf.AddDate(0, 0, -h.lookbackDays)
	snapshots, err := h.events.LatestPerEvent(r.Context(), id, since)
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: snapshots})
}

// History handles GET /v1/locations/{id}/events/{eventID}/history: all
// snapshots of one identity, oldest first.
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	asOf, err := h.asOf(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	since := asOf.AddDate(0, 0, -h.lookbackDays)
	history, err := h.events.History(r.Context(), id, eventID, since)
	if err != nil {
		Error(w, r, err)
		return
	}
	if len(history) == 0 {
		Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundEvent,
			"no snapshots found for event",
			nil,
		))
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: history})
}

// Trend handles GET /v1/locations/{id}/events/{eventID}/trend.
func (h *EventHandler) Trend(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")

	asOf, err := h.asOf(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	report, err := h.trends.Trend(r.Context(), id, eventID, asOf)
	if err != nil {
		Error(w, r, err)
		return
	}
	if report.Detections == 0 {
		Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundEvent,
			"no snapshots found for event",
			nil,
		))
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: report})
}

// asOf reads the optional as_of query parameter (RFC 3339). Absent, the
// current time is used.
func (h *EventHandler) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.nowFn().UTC(), nil
	}

	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, types.NewAppError(
			types.ErrCodeValidationInvalidWindow,
			"as_of must be an RFC 3339 timestamp",
			err,
		)
	}
	return asOf.UTC(), nil
}
