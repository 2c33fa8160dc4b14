// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package feature owns the (staff, date) feature-vector cache: lookup,
// validation, statistics, fingerprint-based invalidation, and disposal.
//
// The store is in-memory only and lives for the process session. There is
// no TTL; the single invalidation mechanism is the config fingerprint
// check, which clears the cache wholesale whenever the roster or schedule
// snapshot changes. Bulk invalidation is chosen over per-entry dependency
// tracking because roster edits are rare relative to read volume and
// serving stale features after any roster change is never acceptable.
package feature

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/metrics"
	"github.com/rosterops/shiftcast/internal/models"
)

// entry is one cached feature vector. Owned exclusively by the store;
// vectors are copied on read and write so callers never alias internal
// state.
type entry struct {
	vector      models.FeatureVector
	createdAt   time.Time
	fingerprint string
}

// Store is the thread-safe (staff, date) feature cache.
//
// All operations are O(1) map accesses with no I/O; Get and Set are safe
// under concurrent access from foreground prediction requests and the
// background precomputation run. Writes are atomic per key, last write
// wins.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]entry
	fingerprint string
	disposed    bool

	sessionID string
	stats     stats
	logger    zerolog.Logger
}

// HealthStatus is a qualitative tier derived from population and hit rate.
type HealthStatus string

// Health tiers, ordered from cold to hot.
const (
	HealthInitializing HealthStatus = "initializing" // no entries yet
	HealthWarming      HealthStatus = "warming"      // populated, hit rate < 50%
	HealthGood         HealthStatus = "good"         // hit rate 50-80%
	HealthExcellent    HealthStatus = "excellent"    // hit rate >= 80%
)

// Health reports the store's readiness for predictions.
type Health struct {
	Status              HealthStatus `json:"status"`
	ReadyForPredictions bool         `json:"ready_for_predictions"`
	Size                int          `json:"size"`
	HitRate             float64      `json:"hit_rate"`
	SessionID           string       `json:"session_id"`
}

// NewStore creates an empty feature store with a process-unique session ID.
// The session ID distinguishes cache generations in telemetry; two store
// instances never share one.
func NewStore() *Store {
	sessionID := uuid.NewString()
	return &Store{
		entries:   make(map[string]entry),
		sessionID: sessionID,
		logger:    logging.WithComponent("feature-store").With().Str("session_id", sessionID).Logger(),
	}
}

// key builds the canonical cache key. Dates already canonical pass through
// unchanged; anything parseable is normalized first so "date-like" inputs
// from callers always land on the same key.
func key(staffID models.StaffID, date models.DateKey) string {
	if normalized, err := models.ParseDateKey(string(date)); err == nil {
		date = normalized
	}
	return string(staffID) + "|" + string(date)
}

// SessionID returns the store's process-unique session identifier.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Get retrieves the cached vector for (staffID, date). The bool reports a
// cache hit; a hit increments the hit counter, a miss the miss counter.
// Returns ErrDisposed after Dispose.
func (s *Store) Get(staffID models.StaffID, date models.DateKey) (models.FeatureVector, bool, error) {
	s.mu.RLock()
	if s.disposed {
		s.mu.RUnlock()
		return nil, false, ErrDisposed
	}
	e, ok := s.entries[key(staffID, date)]
	s.mu.RUnlock()

	if !ok {
		s.stats.recordMiss()
		metrics.FeatureCacheMisses.Inc()
		return nil, false, nil
	}

	s.stats.recordHit()
	metrics.FeatureCacheHits.Inc()
	return e.vector.Clone(), true, nil
}

// Contains reports whether (staffID, date) is cached without touching the
// hit/miss counters. The precomputation scheduler uses this when building
// its work queue.
func (s *Store) Contains(staffID models.StaffID, date models.DateKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return false
	}
	_, ok := s.entries[key(staffID, date)]
	return ok
}

// Set validates and stores a vector for (staffID, date), overwriting any
// previous entry. Returns false and leaves the store untouched when the
// vector contains NaN or infinite entries or is empty. Returns ErrDisposed
// after Dispose.
func (s *Store) Set(staffID models.StaffID, date models.DateKey, vector models.FeatureVector) (bool, error) {
	if err := vector.Validate(); err != nil {
		s.logger.Debug().
			Str("staff_id", string(staffID)).
			Str("date", string(date)).
			Err(err).
			Msg("rejected feature vector")
		return false, nil
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrDisposed
	}
	s.entries[key(staffID, date)] = entry{
		vector:      vector.Clone(),
		createdAt:   time.Now(),
		fingerprint: s.fingerprint,
	}
	size := len(s.entries)
	s.mu.Unlock()

	s.stats.recordGeneration()
	metrics.FeatureCacheEntries.Set(float64(size))
	return true, nil
}

// InvalidateOnConfigChange computes a fresh fingerprint over the roster and
// schedule snapshot. When it differs from the stored one (or none is stored
// yet), all entries are cleared, the invalidation counter is incremented,
// the new fingerprint is stored, and true is returned. An unchanged
// fingerprint leaves the cache untouched and returns false.
//
// This is the only invalidation mechanism; there is no TTL expiry. Callers
// serialize configuration-change checks.
func (s *Store) InvalidateOnConfigChange(staff []models.StaffMember, schedule models.Schedule) (bool, error) {
	fp := Fingerprint(staff, schedule)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrDisposed
	}
	if s.fingerprint == fp {
		s.mu.Unlock()
		return false, nil
	}

	evicted := len(s.entries)
	s.entries = make(map[string]entry)
	s.fingerprint = fp
	s.mu.Unlock()

	s.stats.recordInvalidation(evicted)
	metrics.FeatureCacheInvalidations.Inc()
	metrics.FeatureCacheEntries.Set(0)

	s.logger.Info().
		Int("evicted", evicted).
		Str("fingerprint", fp[:12]).
		Msg("cache invalidated on config change")
	return true, nil
}

// Clear empties all entries and resets fingerprint tracking, so the next
// InvalidateOnConfigChange call reports a change. The invalidation counter
// is incremented; hit/miss counters keep accumulating.
func (s *Store) Clear() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	evicted := len(s.entries)
	s.entries = make(map[string]entry)
	s.fingerprint = ""
	s.mu.Unlock()

	s.stats.recordInvalidation(evicted)
	metrics.FeatureCacheInvalidations.Inc()
	metrics.FeatureCacheEntries.Set(0)

	s.logger.Info().Int("evicted", evicted).Msg("cache cleared")
	return nil
}

// Size returns the current entry count.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns a snapshot of the cache counters and derived hit rate.
func (s *Store) Stats() (StatsSnapshot, error) {
	s.mu.RLock()
	if s.disposed {
		s.mu.RUnlock()
		return StatsSnapshot{}, ErrDisposed
	}
	size := len(s.entries)
	s.mu.RUnlock()

	return s.stats.snapshot(size, s.sessionID), nil
}

// Health derives the qualitative cache tier. ReadyForPredictions is true
// once at least one entry exists and at least one generation cycle has
// completed successfully.
func (s *Store) Health() (Health, error) {
	snap, err := s.Stats()
	if err != nil {
		return Health{}, err
	}

	status := HealthInitializing
	switch {
	case snap.Size == 0:
		status = HealthInitializing
	case snap.HitRate >= 80:
		status = HealthExcellent
	case snap.HitRate >= 50:
		status = HealthGood
	default:
		status = HealthWarming
	}

	return Health{
		Status:              status,
		ReadyForPredictions: snap.Size > 0 && s.stats.generationCount() > 0,
		Size:                snap.Size,
		HitRate:             snap.HitRate,
		SessionID:           s.sessionID,
	}, nil
}

// Dispose releases all internal state. Every subsequent operation other
// than Dispose itself returns ErrDisposed. Dispose is idempotent.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.entries = nil
	s.fingerprint = ""
	s.logger.Info().Msg("feature store disposed")
}
