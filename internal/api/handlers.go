// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/hybrid"
	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/models"
	"github.com/rosterops/shiftcast/internal/precompute"
	"github.com/rosterops/shiftcast/internal/validation"
)

// Handlers binds the HTTP endpoints to the prediction core.
type Handlers struct {
	controller *hybrid.Controller
	store      *feature.Store
	scheduler  *precompute.Scheduler
	startedAt  time.Time
}

// NewHandlers creates the handler set over the shared components.
func NewHandlers(controller *hybrid.Controller, store *feature.Store, scheduler *precompute.Scheduler) *Handlers {
	return &Handlers{
		controller: controller,
		store:      store,
		scheduler:  scheduler,
		startedAt:  time.Now(),
	}
}

// rosterRequest is the shared payload shape for predictions, precompute
// runs, and explicit invalidation.
type rosterRequest struct {
	Staff      []models.StaffMember `json:"staff" validate:"required,min=1,dive"`
	StartDate  string               `json:"start_date" validate:"required,datekey"`
	EndDate    string               `json:"end_date" validate:"required,datekey"`
	Historical models.Schedule      `json:"historical"`

	// ConfidenceThreshold optionally overrides the configured ML
	// acceptance gate for this request. Ignored by precompute.
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// parse validates the payload and converts it to domain types. The
// second return is false when an error response was already written.
func (req *rosterRequest) parse(w http.ResponseWriter) (models.DateRange, bool) {
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return models.DateRange{}, false
	}

	dates := models.DateRange{
		Start: models.DateKey(req.StartDate),
		End:   models.DateKey(req.EndDate),
	}
	if dates.Len() == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"end_date must not be before start_date", nil)
		return models.DateRange{}, false
	}
	return dates, true
}

// HandlePredict serves POST /api/v1/predictions.
func (h *Handlers) HandlePredict(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req rosterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"invalid request body: "+err.Error(), nil)
		return
	}
	dates, ok := req.parse(w)
	if !ok {
		return
	}

	// Cached is a metadata hint: true when every pair was already in the
	// store before this request ran.
	cached := h.allCached(req.Staff, dates)

	result, err := h.controller.Predict(r.Context(), hybrid.Request{
		Staff:               req.Staff,
		Dates:               dates,
		Historical:          req.Historical,
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("prediction failed")

		switch {
		case errors.Is(err, feature.ErrDisposed):
			respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
				"feature store is disposed", nil)
		case isSchedulingFailure(err):
			// Both prediction paths failed; the result carries the
			// diagnostic fallback reason.
			respondJSON(w, http.StatusBadGateway, models.APIResponse{
				Status: "error",
				Data:   result,
				Metadata: models.Metadata{
					Timestamp:   time.Now().UTC(),
					QueryTimeMS: time.Since(started).Milliseconds(),
				},
				Error: &models.APIError{
					Code:    "PREDICTION_FAILED",
					Message: err.Error(),
				},
			})
		default:
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		}
		return
	}

	respondData(w, http.StatusOK, result, started, cached)
}

func isSchedulingFailure(err error) bool {
	var sf *hybrid.SchedulingFailure
	return errors.As(err, &sf)
}

// allCached reports whether every (staff, date) pair already has a
// cached feature vector.
func (h *Handlers) allCached(staff []models.StaffMember, dates models.DateRange) bool {
	for _, member := range staff {
		for _, day := range dates.Days() {
			if !h.store.Contains(member.ID, day) {
				return false
			}
		}
	}
	return true
}

// HandleCacheStats serves GET /api/v1/cache/stats.
func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	snap, err := h.store.Stats()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
			"feature store is disposed", nil)
		return
	}
	respondData(w, http.StatusOK, snap, started, false)
}

// HandleCacheHealth serves GET /api/v1/cache/health.
func (h *Handlers) HandleCacheHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	health, err := h.store.Health()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
			"feature store is disposed", nil)
		return
	}
	respondData(w, http.StatusOK, health, started, false)
}

// invalidateResponse reports the outcome of an explicit fingerprint check.
type invalidateResponse struct {
	Invalidated bool `json:"invalidated"`
	Size        int  `json:"size"`
}

// HandleCacheInvalidate serves POST /api/v1/cache/invalidate. The body
// carries the current roster and schedule; the cache is cleared only
// when their fingerprint differs from the cached one.
func (h *Handlers) HandleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req struct {
		Staff    []models.StaffMember `json:"staff" validate:"required,min=1,dive"`
		Schedule models.Schedule      `json:"schedule"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"invalid request body: "+err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	invalidated, err := h.store.InvalidateOnConfigChange(req.Staff, req.Schedule)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
			"feature store is disposed", nil)
		return
	}
	respondData(w, http.StatusOK, invalidateResponse{
		Invalidated: invalidated,
		Size:        h.store.Size(),
	}, started, false)
}

// HandleCacheClear serves POST /api/v1/cache/clear.
func (h *Handlers) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := h.store.Clear(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
			"feature store is disposed", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"cleared": true,
		"size":    h.store.Size(),
	}, started, false)
}

// precomputeStartResponse reports what a start request did.
type precomputeStartResponse struct {
	Started  bool `json:"started"`
	Enqueued int  `json:"enqueued"`
}

// HandlePrecomputeStart serves POST /api/v1/precompute/start. The run
// drains in the background; progress is visible via the status endpoint.
func (h *Handlers) HandlePrecomputeStart(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req rosterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"invalid request body: "+err.Error(), nil)
		return
	}
	dates, ok := req.parse(w)
	if !ok {
		return
	}

	// The run outlives the request; detach from the request context so
	// client disconnects do not cancel the drain.
	enqueued, startedRun := h.scheduler.Start(context.WithoutCancel(r.Context()), req.Staff, dates, req.Historical)
	status := http.StatusAccepted
	if !startedRun {
		status = http.StatusConflict
	}
	respondData(w, status, precomputeStartResponse{
		Started:  startedRun,
		Enqueued: enqueued,
	}, started, false)
}

// HandlePrecomputeStop serves POST /api/v1/precompute/stop.
func (h *Handlers) HandlePrecomputeStop(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	h.scheduler.Stop()
	respondData(w, http.StatusOK, h.scheduler.Status(), started, false)
}

// HandlePrecomputeStatus serves GET /api/v1/precompute/status.
func (h *Handlers) HandlePrecomputeStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondData(w, http.StatusOK, h.scheduler.Status(), started, false)
}

// HandleHealth serves GET /api/v1/health: a combined view of liveness,
// cache tier, and precompute state for dashboards.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	body := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"precompute":     h.scheduler.Status(),
	}
	if health, err := h.store.Health(); err != nil {
		body["status"] = "degraded"
		body["cache"] = map[string]interface{}{"error": "feature store is disposed"}
	} else {
		body["cache"] = health
	}
	respondData(w, http.StatusOK, body, started, false)
}

// HandleHealthLive serves GET /api/v1/health/live. Always 200 while the
// process can serve requests.
func (h *Handlers) HandleHealthLive(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondData(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}, started, false)
}

// HandleHealthReady serves GET /api/v1/health/ready. Readiness follows
// the feature store: disposed means 503, otherwise the cache health tier
// is reported with 200.
func (h *Handlers) HandleHealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	health, err := h.store.Health()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_DISPOSED",
			"feature store is disposed", nil)
		return
	}
	respondData(w, http.StatusOK, health, started, false)
}
