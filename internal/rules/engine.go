// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package rules

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/models"
)

// Engine is the deterministic rule-based scheduler. It builds schedules
// with a staggered duty-cycle construction whose parameters are derived
// directly from the rule limits, then verifies its own output with the
// validator before returning. A returned schedule therefore always scores
// 100% compliance.
type Engine struct {
	cfg       Config
	validator *Validator
	logger    zerolog.Logger
}

// NewEngine creates a rule engine sharing the validator's rule limits.
func NewEngine(cfg Config) *Engine {
	v := NewValidator(cfg)
	return &Engine{
		cfg:       v.cfg,
		validator: v,
		logger:    logging.WithComponent("rule-engine"),
	}
}

// Validator returns the engine's validator, so callers score candidate
// schedules against the exact limits the fallback construction uses.
func (e *Engine) Validator() *Validator {
	return e.validator
}

// GenerateOptimalSchedule builds a compliant schedule covering every
// (staff, date) pair in the range. It is shorthand for GenerateWithHints
// with no shift preferences.
func (e *Engine) GenerateOptimalSchedule(ctx context.Context, staff []models.StaffMember, dates models.DateRange) (models.Schedule, error) {
	return e.GenerateWithHints(ctx, staff, dates, nil)
}

// GenerateWithHints builds a compliant schedule, preferring the hinted
// shift type per staff member when one is given. Hints come from the ML
// candidate when the controller falls back in hybrid mode; they influence
// which shift a staff member works, never whether rule limits hold.
//
// The construction: each staff member repeats a 7-day duty cycle of W
// working days followed by rest, where W is bounded by every rule limit,
// and cycles are staggered across the roster so each day keeps coverage.
// The output is verified before returning; staffing configurations the
// construction cannot satisfy (for example a single-person roster that
// must rest but also cover every day) fail with an error rather than
// returning a non-compliant schedule.
func (e *Engine) GenerateWithHints(ctx context.Context, staff []models.StaffMember, dates models.DateRange, hints map[models.StaffID]models.ShiftType) (models.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return models.Schedule{}, err
	}
	if len(staff) == 0 {
		return models.Schedule{}, fmt.Errorf("empty staff roster")
	}
	days := dates.Days()
	if len(days) == 0 {
		return models.Schedule{}, fmt.Errorf("empty or inverted date range %s..%s", dates.Start, dates.End)
	}

	sorted := models.SortStaff(staff)
	schedule := models.Schedule{Entries: make([]models.ScheduleEntry, 0, len(sorted)*len(days))}

	for i, member := range sorted {
		shift := e.shiftFor(i, member, hints)
		working := e.workingDays(shift)
		// Stagger rest days across the roster so coverage survives.
		offset := (i * 3) % restWindowDays

		for d, day := range days {
			assigned := shift
			if (d+offset)%restWindowDays >= working {
				assigned = models.ShiftOff
			}
			schedule.Entries = append(schedule.Entries, models.ScheduleEntry{
				StaffID: member.ID,
				Date:    day,
				Shift:   assigned,
			})
		}
	}

	report := e.validator.Validate(schedule, staff)
	if !report.Compliant() {
		e.logger.Warn().
			Float64("overall", report.Overall).
			Int("staff", len(staff)).
			Int("days", len(days)).
			Msg("rule construction could not satisfy catalog")
		return models.Schedule{}, fmt.Errorf("no compliant schedule exists for %d staff over %d days", len(staff), len(days))
	}

	return schedule, nil
}

// shiftFor picks the working shift for a staff member: the hint when it
// names a real working shift, otherwise a morning/evening rotation by
// roster position.
func (e *Engine) shiftFor(index int, member models.StaffMember, hints map[models.StaffID]models.ShiftType) models.ShiftType {
	if hint, ok := hints[member.ID]; ok && hint.Valid() && hint != models.ShiftOff {
		return hint
	}
	if index%2 == 0 {
		return models.ShiftMorning
	}
	return models.ShiftEvening
}

// workingDays derives the per-cycle working-day count W from the rule
// limits: the consecutive-day cap, the rest-day requirement, and the
// weekly-hour cap for the shift's length.
func (e *Engine) workingDays(shift models.ShiftType) int {
	w := e.cfg.MaxConsecutiveDays
	if byRest := restWindowDays - e.cfg.MinRestDays; byRest < w {
		w = byRest
	}
	if hours := shift.Hours(); hours > 0 {
		if byHours := int(e.cfg.MaxWeeklyHours / hours); byHours < w {
			w = byHours
		}
	}
	if w < 1 {
		w = 1
	}
	return w
}
