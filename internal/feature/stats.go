// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package feature

import (
	"fmt"
	"sync"
	"time"
)

// stats tracks cache performance counters. Counters accumulate
// monotonically and reset only on explicit Clear or process restart.
type stats struct {
	mu            sync.Mutex
	hits          int64
	misses        int64
	invalidations int64
	evictions     int64
	generations   int64
	lastClearedAt time.Time
}

// StatsSnapshot is a point-in-time copy of the cache counters with the
// derived hit rate. Safe to read without locks.
type StatsSnapshot struct {
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Invalidations int64     `json:"invalidations"`
	Evictions     int64     `json:"evictions"`
	Size          int       `json:"size"`
	HitRate       float64   `json:"hit_rate"`
	HitRateText   string    `json:"hit_rate_text"`
	SessionID     string    `json:"session_id"`
	LastClearedAt time.Time `json:"last_cleared_at"`
}

// snapshot copies the counters under lock and derives the hit rate,
// formatted as a percentage with one decimal ("50.0%").
func (s *stats) snapshot(size int, sessionID string) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := 0.0
	if total := s.hits + s.misses; total > 0 {
		rate = float64(s.hits) / float64(total) * 100.0
	}

	return StatsSnapshot{
		Hits:          s.hits,
		Misses:        s.misses,
		Invalidations: s.invalidations,
		Evictions:     s.evictions,
		Size:          size,
		HitRate:       rate,
		HitRateText:   fmt.Sprintf("%.1f%%", rate),
		SessionID:     sessionID,
		LastClearedAt: s.lastClearedAt,
	}
}

func (s *stats) recordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *stats) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *stats) recordGeneration() {
	s.mu.Lock()
	s.generations++
	s.mu.Unlock()
}

// recordInvalidation counts one wholesale invalidation that evicted n entries.
func (s *stats) recordInvalidation(n int) {
	s.mu.Lock()
	s.invalidations++
	s.evictions += int64(n)
	s.lastClearedAt = time.Now()
	s.mu.Unlock()
}

func (s *stats) generationCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations
}
