// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the chi routing tree.
type Router struct {
	handlers   *Handlers
	middleware *Middleware
}

// NewRouter creates the router over the handler set.
func NewRouter(handlers *Handlers, mw *Middleware) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	return &Router{handlers: handlers, middleware: mw}
}

// Setup builds the full routing tree:
//
//	POST   /api/v1/predictions          run a prediction
//	GET    /api/v1/cache/stats          cache counters and hit rate
//	GET    /api/v1/cache/health         qualitative cache tier
//	POST   /api/v1/cache/invalidate     fingerprint check against a roster
//	POST   /api/v1/cache/clear          wholesale clear
//	POST   /api/v1/precompute/start     start a background fill run
//	POST   /api/v1/precompute/stop      cancel the active run
//	GET    /api/v1/precompute/status    run state and counters
//	GET    /api/v1/health               combined service health view
//	GET    /api/v1/health/live          liveness probe
//	GET    /api/v1/health/ready         readiness probe (follows the store)
//	GET    /metrics                     Prometheus exposition
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(router.middleware.CORS()) // global so OPTIONS preflight works
	r.Use(SecurityHeaders())
	r.Use(Instrument())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitCustom(RateLimitHealth))
		r.Get("/", router.handlers.HandleHealth)
		r.Get("/live", router.handlers.HandleHealthLive)
		r.Get("/ready", router.handlers.HandleHealthReady)
	})

	r.Route("/api/v1/predictions", func(r chi.Router) {
		r.Use(router.middleware.RateLimitCustom(RateLimitPredictions))
		r.Post("/", router.handlers.HandlePredict)
	})

	r.Route("/api/v1/cache", func(r chi.Router) {
		r.With(router.middleware.RateLimitCustom(RateLimitReads)).
			Get("/stats", router.handlers.HandleCacheStats)
		r.With(router.middleware.RateLimitCustom(RateLimitReads)).
			Get("/health", router.handlers.HandleCacheHealth)

		r.With(router.middleware.RateLimitCustom(RateLimitAdmin)).
			Post("/invalidate", router.handlers.HandleCacheInvalidate)
		r.With(router.middleware.RateLimitCustom(RateLimitAdmin)).
			Post("/clear", router.handlers.HandleCacheClear)
	})

	r.Route("/api/v1/precompute", func(r chi.Router) {
		r.With(router.middleware.RateLimitCustom(RateLimitAdmin)).
			Post("/start", router.handlers.HandlePrecomputeStart)
		r.With(router.middleware.RateLimitCustom(RateLimitAdmin)).
			Post("/stop", router.handlers.HandlePrecomputeStop)
		r.With(router.middleware.RateLimitCustom(RateLimitReads)).
			Get("/status", router.handlers.HandlePrecomputeStatus)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND",
			"unknown endpoint: "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			r.Method+" is not supported on "+r.URL.Path, nil)
	})

	return r
}
