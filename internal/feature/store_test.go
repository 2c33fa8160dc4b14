// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package feature

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rosterops/shiftcast/internal/models"
)

func testRoster() []models.StaffMember {
	return []models.StaffMember{
		{ID: "s1", Name: "Aki", Role: "cook", ContractHours: 40},
		{ID: "s2", Name: "Ben", Role: "server", ContractHours: 32},
	}
}

func TestStoreSetGetRoundTrip(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	v := models.FeatureVector{0.1, 0.2, 0.3}
	ok, err := s.Set("s1", "2024-01-15", v)
	if err != nil || !ok {
		t.Fatalf("Set = (%v, %v), want (true, nil)", ok, err)
	}

	start := time.Now()
	got, hit, err := s.Get("s1", "2024-01-15")
	elapsed := time.Since(start)

	if err != nil || !hit {
		t.Fatalf("Get = (hit=%v, err=%v), want hit", hit, err)
	}
	if len(got) != 3 || got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.3 {
		t.Errorf("Get returned %v, want %v", got, v)
	}
	if elapsed > 10*time.Millisecond {
		t.Errorf("Get took %v, want under 10ms", elapsed)
	}

	// Reads must be copies, never aliases of store state.
	got[0] = 99
	again, _, _ := s.Get("s1", "2024-01-15")
	if again[0] != 0.1 {
		t.Error("mutating a returned vector must not affect the store")
	}
}

func TestStoreGetMiss(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	_, hit, err := s.Get("s1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("expected miss on empty store")
	}
}

func TestStoreRejectsInvalidVectors(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	tests := []struct {
		name   string
		vector models.FeatureVector
	}{
		{"nan", models.FeatureVector{0.1, math.NaN()}},
		{"positive inf", models.FeatureVector{math.Inf(1)}},
		{"negative inf", models.FeatureVector{math.Inf(-1), 0.2}},
		{"empty", models.FeatureVector{}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.Set("s1", "2024-01-15", tt.vector)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Error("expected rejection")
			}
		})
	}

	if s.Size() != 0 {
		t.Errorf("rejected vectors must not change cache size, got %d", s.Size())
	}
}

func TestStoreOverwrite(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	s.Set("s1", "2024-01-15", models.FeatureVector{1})
	s.Set("s1", "2024-01-15", models.FeatureVector{2})

	if s.Size() != 1 {
		t.Errorf("overwrite must not grow the cache, size = %d", s.Size())
	}
	got, _, _ := s.Get("s1", "2024-01-15")
	if got[0] != 2 {
		t.Errorf("expected last write to win, got %v", got)
	}
}

func TestStoreDateKeyNormalization(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	s.Set("s1", "2024-01-15", models.FeatureVector{1})
	if !s.Contains("s1", models.NewDateKey(time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC))) {
		t.Error("expected same-day keys to collide regardless of construction")
	}
}

func TestInvalidateOnConfigChangeIdempotent(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	roster := testRoster()
	schedule := models.Schedule{}

	changed, err := s.InvalidateOnConfigChange(roster, schedule)
	if err != nil || !changed {
		t.Fatalf("first call = (%v, %v), want (true, nil)", changed, err)
	}

	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})
	sizeAfterFirst := s.Size()

	changed, err = s.InvalidateOnConfigChange(roster, schedule)
	if err != nil || changed {
		t.Fatalf("second call with unchanged config = (%v, %v), want (false, nil)", changed, err)
	}
	if s.Size() != sizeAfterFirst {
		t.Errorf("unchanged config must leave the cache untouched, size %d -> %d", sizeAfterFirst, s.Size())
	}
}

func TestInvalidateOnRosterChange(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	roster := testRoster()
	s.InvalidateOnConfigChange(roster, models.Schedule{})
	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})

	// Attribute change must flip the fingerprint.
	roster[0].ContractHours = 20
	changed, _ := s.InvalidateOnConfigChange(roster, models.Schedule{})
	if !changed {
		t.Fatal("expected attribute change to invalidate")
	}
	if s.Size() != 0 {
		t.Errorf("invalidation must clear all entries, size = %d", s.Size())
	}

	// Staff removal must flip it again.
	changed, _ = s.InvalidateOnConfigChange(roster[:1], models.Schedule{})
	if !changed {
		t.Error("expected staff removal to invalidate")
	}
}

func TestInvalidateOnScheduleChange(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	roster := testRoster()
	s.InvalidateOnConfigChange(roster, models.Schedule{})

	mutated := models.Schedule{Entries: []models.ScheduleEntry{
		{StaffID: "s1", Date: "2024-01-15", Shift: models.ShiftMorning},
	}}
	changed, _ := s.InvalidateOnConfigChange(roster, mutated)
	if !changed {
		t.Error("expected shift-data mutation to invalidate")
	}
}

func TestFingerprintOrderIndependence(t *testing.T) {
	roster := testRoster()
	reversed := []models.StaffMember{roster[1], roster[0]}

	a := models.Schedule{Entries: []models.ScheduleEntry{
		{StaffID: "s1", Date: "2024-01-15", Shift: models.ShiftMorning},
		{StaffID: "s2", Date: "2024-01-15", Shift: models.ShiftEvening},
	}}
	b := models.Schedule{Entries: []models.ScheduleEntry{a.Entries[1], a.Entries[0]}}

	if Fingerprint(roster, a) != Fingerprint(reversed, b) {
		t.Error("fingerprint must not depend on insertion order")
	}
	if Fingerprint(roster, a) == Fingerprint(roster, models.Schedule{}) {
		t.Error("distinct schedules must produce distinct fingerprints")
	}
}

func TestStatsHitRateArithmetic(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	s.Get("s1", "2024-01-15") // miss
	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})
	s.Get("s1", "2024-01-15") // hit

	snap, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Hits != 1 || snap.Misses != 1 {
		t.Fatalf("expected 1 hit / 1 miss, got %d / %d", snap.Hits, snap.Misses)
	}
	if snap.HitRateText != "50.0%" {
		t.Errorf("expected hit rate \"50.0%%\", got %q", snap.HitRateText)
	}
	if snap.Size != 1 {
		t.Errorf("expected size 1, got %d", snap.Size)
	}
}

func TestStatsCountInvalidations(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})
	s.InvalidateOnConfigChange(testRoster(), models.Schedule{})
	s.Clear()

	snap, _ := s.Stats()
	if snap.Invalidations != 2 {
		t.Errorf("expected 2 invalidations, got %d", snap.Invalidations)
	}
	if snap.Evictions != 1 {
		t.Errorf("expected 1 eviction from the populated invalidation, got %d", snap.Evictions)
	}
}

func TestClearResetsFingerprintTracking(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	roster := testRoster()
	s.InvalidateOnConfigChange(roster, models.Schedule{})
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	// Same config must count as changed again after Clear.
	changed, _ := s.InvalidateOnConfigChange(roster, models.Schedule{})
	if !changed {
		t.Error("expected invalidation check to report change after Clear")
	}
}

func TestHealthTiers(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	h, err := s.Health()
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != HealthInitializing || h.ReadyForPredictions {
		t.Errorf("empty store: got %+v", h)
	}

	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})
	for i := 0; i < 9; i++ {
		s.Get("s1", "2024-01-15") // hits
	}

	h, _ = s.Health()
	if h.Status != HealthExcellent {
		t.Errorf("expected excellent at 100%% hit rate, got %s", h.Status)
	}
	if !h.ReadyForPredictions {
		t.Error("expected ready after a successful generation cycle")
	}
}

func TestDisposeFailsFast(t *testing.T) {
	s := NewStore()
	s.Set("s1", "2024-01-15", models.FeatureVector{0.1})
	s.Dispose()
	s.Dispose() // idempotent

	if _, _, err := s.Get("s1", "2024-01-15"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Get after Dispose: err = %v, want ErrDisposed", err)
	}
	if _, err := s.Set("s1", "2024-01-16", models.FeatureVector{0.1}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Set after Dispose: err = %v, want ErrDisposed", err)
	}
	if _, err := s.InvalidateOnConfigChange(testRoster(), models.Schedule{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("InvalidateOnConfigChange after Dispose: err = %v, want ErrDisposed", err)
	}
	if err := s.Clear(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Clear after Dispose: err = %v, want ErrDisposed", err)
	}
	if _, err := s.Stats(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Stats after Dispose: err = %v, want ErrDisposed", err)
	}
	if _, err := s.Health(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Health after Dispose: err = %v, want ErrDisposed", err)
	}
}

func TestSessionIDUnique(t *testing.T) {
	a, b := NewStore(), NewStore()
	defer a.Dispose()
	defer b.Dispose()

	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Error("session IDs must be non-empty and unique per instance")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	defer s.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			date := models.DateKey("2024-01-15")
			for j := 0; j < 200; j++ {
				staff := models.StaffID([]string{"s1", "s2", "s3"}[j%3])
				if n%2 == 0 {
					s.Set(staff, date, models.FeatureVector{float64(j)})
				} else {
					s.Get(staff, date)
				}
			}
		}(i)
	}
	wg.Wait()

	snap, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Hits+snap.Misses != 4*200 {
		t.Errorf("expected %d reads counted, got %d", 4*200, snap.Hits+snap.Misses)
	}
}

func TestEndToEndScenario(t *testing.T) {
	// Roster of 2, one day, empty snapshot.
	s := NewStore()
	defer s.Dispose()

	changed, err := s.InvalidateOnConfigChange(testRoster(), models.Schedule{})
	if err != nil || !changed {
		t.Fatalf("first invalidation check = (%v, %v), want (true, nil)", changed, err)
	}

	ok, err := s.Set("s1", "2024-01-15", models.FeatureVector{0.1, 0.2, 0.3})
	if err != nil || !ok {
		t.Fatalf("Set = (%v, %v), want (true, nil)", ok, err)
	}

	start := time.Now()
	v, hit, err := s.Get("s1", "2024-01-15")
	if err != nil || !hit {
		t.Fatalf("Get = (hit=%v, err=%v), want hit", hit, err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Get took %v, want under 10ms", elapsed)
	}
	if v[0] != 0.1 || v[1] != 0.2 || v[2] != 0.3 {
		t.Errorf("Get returned %v", v)
	}
}
