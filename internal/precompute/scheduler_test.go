// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package precompute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/models"
)

// stubProducer returns a fixed vector and optionally fails on selected
// dates or blocks until released.
type stubProducer struct {
	failDates map[models.DateKey]bool
	block     chan struct{}
	calls     int
}

func (p *stubProducer) Generate(ctx context.Context, staff models.StaffMember, date models.DateKey, gc feature.GenerationContext) (models.FeatureVector, error) {
	p.calls++
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.failDates[date] {
		return nil, errors.New("generation failed")
	}
	return models.FeatureVector{1, 2, 3}, nil
}

func testRoster(n int) []models.StaffMember {
	staff := make([]models.StaffMember, 0, n)
	ids := []models.StaffID{"alice", "bob", "carol", "dave"}
	for i := 0; i < n; i++ {
		staff = append(staff, models.StaffMember{ID: ids[i], Name: string(ids[i]), Role: "server", ContractHours: 40})
	}
	return staff
}

func testRange(days int) models.DateRange {
	start := models.DateKey("2024-03-04")
	end := start.Time().AddDate(0, 0, days-1)
	return models.DateRange{Start: start, End: models.NewDateKey(end)}
}

func newTestScheduler(producer feature.Producer) (*Scheduler, *feature.Store) {
	store := feature.NewStore()
	cfg := Config{RatePerSecond: 100000, Burst: 10}
	return NewScheduler(cfg, store, producer), store
}

func waitDrained(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Wait():
	case <-time.After(5 * time.Second):
		t.Fatal("precompute run did not finish in time")
	}
}

func TestStartSkipsCachedEntries(t *testing.T) {
	producer := &stubProducer{}
	s, store := newTestScheduler(producer)

	staff := testRoster(3)
	dates := testRange(4)

	// Pre-seed two of the twelve pairs.
	days := dates.Days()
	for _, pair := range []struct {
		id   models.StaffID
		date models.DateKey
	}{{staff[0].ID, days[0]}, {staff[1].ID, days[2]}} {
		if ok, err := store.Set(pair.id, pair.date, models.FeatureVector{9}); !ok || err != nil {
			t.Fatalf("seeding store: ok=%v err=%v", ok, err)
		}
	}

	enqueued, started := s.Start(context.Background(), staff, dates, models.Schedule{})
	if !started {
		t.Fatal("expected run to start")
	}
	if want := 3*4 - 2; enqueued != want {
		t.Errorf("enqueued = %d, want %d", enqueued, want)
	}
	waitDrained(t, s)

	if got := store.Size(); got != 12 {
		t.Errorf("store size after drain = %d, want 12", got)
	}
	status := s.Status()
	if status.State != StateIdle {
		t.Errorf("state after drain = %q, want %q", status.State, StateIdle)
	}
	if status.Processed != 10 {
		t.Errorf("processed = %d, want 10", status.Processed)
	}
	if status.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", status.Skipped)
	}
}

func TestStartIsNoOpWhileRunning(t *testing.T) {
	producer := &stubProducer{block: make(chan struct{})}
	s, _ := newTestScheduler(producer)

	staff := testRoster(2)
	dates := testRange(3)

	if _, started := s.Start(context.Background(), staff, dates, models.Schedule{}); !started {
		t.Fatal("first start should run")
	}
	if enqueued, started := s.Start(context.Background(), staff, dates, models.Schedule{}); started || enqueued != 0 {
		t.Errorf("second start = (%d, %v), want (0, false)", enqueued, started)
	}

	close(producer.block)
	waitDrained(t, s)
}

func TestStopCancelsQueue(t *testing.T) {
	producer := &stubProducer{block: make(chan struct{})}
	s, store := newTestScheduler(producer)

	staff := testRoster(4)
	dates := testRange(7)

	if _, started := s.Start(context.Background(), staff, dates, models.Schedule{}); !started {
		t.Fatal("expected run to start")
	}
	s.Stop()
	waitDrained(t, s)

	if got := store.Size(); got == 4*7 {
		t.Error("cancelled run should not fill the whole cross product")
	}
	if status := s.Status(); status.State != StateIdle {
		t.Errorf("state after stop = %q, want %q", status.State, StateIdle)
	}

	// Idempotent, including when idle.
	s.Stop()
	s.Stop()
}

func TestPerItemFailuresAreSkipped(t *testing.T) {
	dates := testRange(3)
	days := dates.Days()
	producer := &stubProducer{failDates: map[models.DateKey]bool{days[1]: true}}
	s, store := newTestScheduler(producer)

	staff := testRoster(2)
	if _, started := s.Start(context.Background(), staff, dates, models.Schedule{}); !started {
		t.Fatal("expected run to start")
	}
	waitDrained(t, s)

	if got := store.Size(); got != 4 {
		t.Errorf("store size = %d, want 4 (two failing dates skipped)", got)
	}
	status := s.Status()
	if status.Failed != 2 {
		t.Errorf("failed = %d, want 2", status.Failed)
	}
	if status.Processed != 4 {
		t.Errorf("processed = %d, want 4", status.Processed)
	}
}

func TestStartWithEmptyInput(t *testing.T) {
	s, _ := newTestScheduler(&stubProducer{})

	if enqueued, started := s.Start(context.Background(), nil, testRange(3), models.Schedule{}); started || enqueued != 0 {
		t.Errorf("empty staff: got (%d, %v), want (0, false)", enqueued, started)
	}
}

func TestStartWithFullyCachedRange(t *testing.T) {
	producer := &stubProducer{}
	s, store := newTestScheduler(producer)

	staff := testRoster(1)
	dates := testRange(2)
	for _, day := range dates.Days() {
		if _, err := store.Set(staff[0].ID, day, models.FeatureVector{1}); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}

	enqueued, started := s.Start(context.Background(), staff, dates, models.Schedule{})
	if !started || enqueued != 0 {
		t.Errorf("fully cached: got (%d, %v), want (0, true)", enqueued, started)
	}
	if producer.calls != 0 {
		t.Errorf("producer called %d times for fully cached range", producer.calls)
	}
}

func TestWaitOnIdleScheduler(t *testing.T) {
	s, _ := newTestScheduler(&stubProducer{})
	select {
	case <-s.Wait():
	default:
		t.Error("Wait on idle scheduler should be closed immediately")
	}
}
