package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"snowtracker/internal/nws"
	"snowtracker/internal/scheduler"
	"snowtracker/internal/types"
)

// Local error codes specific to the HTTP layer.
const (
	errCodeValidationInvalidID     types.ErrorCode = "validation_invalid_id"
	errCodeConflictFetchInProgress types.ErrorCode = "conflict_fetch_in_progress"
)

// LocationRepo defines the data access contract for location operations.
type LocationRepo interface {
	Create(ctx context.Context, loc *types.Location) error
	GetByID(ctx context.Context, id int64) (*types.Location, error)
	List(ctx context.Context) ([]types.Location, error)
	Delete(ctx context.Context, id int64) error
}

// ZipGeocoder resolves a ZIP code to coordinates.
type ZipGeocoder interface {
	Lookup(ctx context.Context, zipCode string) (nws.GeocodeResult, error)
}

// PointResolver resolves coordinates to an NWS forecast gridpoint.
type PointResolver interface {
	ResolvePoint(ctx context.Context, lat, lon float64) (nws.PointInfo, error)
}

// PassRunner triggers an immediate fetch-and-detect pass for one location.
type PassRunner interface {
	RunLocation(ctx context.Context, loc types.Location) (scheduler.LocationResult, error)
}

// CreateLocationRequest is the request body for POST /v1/locations.
type CreateLocationRequest struct {
	ZipCode string `json:"zip_code" validate:"required,len=5,numeric"`
}

// LocationHandler manages tracked locations.
type LocationHandler struct {
	repo      LocationRepo
	geocoder  ZipGeocoder
	points    PointResolver
	runner    PassRunner
	validator *Validator
	logger    *slog.Logger
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(
	repo LocationRepo,
	geocoder ZipGeocoder,
	points PointResolver,
	runner PassRunner,
	v *Validator,
	l *slog.Logger,
) *LocationHandler {
	if l == nil {
		l = slog.Default()
	}
	return &LocationHandler{
		repo:      repo,
		geocoder:  geocoder,
		points:    points,
		runner:    runner,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts location routes on the provided chi.Router.
func (h *LocationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/locations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/refresh", h.Refresh)
		})
	})
}

// Create handles POST /v1/locations. The ZIP code is geocoded and resolved
// against the NWS points endpoint once, at creation; every later fetch reuses
// the stored gridpoint.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		Error(w, r, err)
		return
	}

	geo, err := h.geocoder.Lookup(r.Context(), req.ZipCode)
	if err != nil {
		Error(w, r, err)
		return
	}

	point, err := h.points.ResolvePoint(r.Context(), geo.Lat, geo.Lon)
	if err != nil {
		Error(w, r, err)
		return
	}

	loc := &types.Location{
		ZipCode:        req.ZipCode,
		Lat:            geo.Lat,
		Lon:            geo.Lon,
		City:           geo.City,
		State:          geo.State,
		ForecastOffice: point.Office,
		GridX:          point.GridX,
		GridY:          point.GridY,
	}
	if err := h.repo.Create(r.Context(), loc); err != nil {
		Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "location created",
		"location_id", loc.ID,
		"zip_code", loc.ZipCode,
		"office", loc.ForecastOffice,
	)

	JSON(w, r, http.StatusCreated, APIResponse{Data: loc})
}

// List handles GET /v1/locations.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repo.List(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: locations})
}

// Get handles GET /v1/locations/{id}.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	loc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: loc})
}

// Delete handles DELETE /v1/locations/{id}.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /v1/locations/{id}/refresh: an immediate out-of-cycle
// fetch-and-detect pass.
func (h *LocationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		Error(w, r, err)
		return
	}

	loc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		Error(w, r, err)
		return
	}

	result, err := h.runner.RunLocation(r.Context(), *loc)
	if errors.Is(err, scheduler.ErrPassInProgress) {
		Error(w, r, types.NewAppError(
			errCodeConflictFetchInProgress,
			"a fetch is already running for this location",
			err,
		))
		return
	}
	if err != nil {
		Error(w, r, err)
		return
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: result})
}

// locationID parses the {id} URL parameter.
func locationID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewAppError(
			errCodeValidationInvalidID,
			"location id must be a positive integer",
			err,
		)
	}
	return id, nil
}
