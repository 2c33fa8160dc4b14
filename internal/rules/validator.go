// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package rules implements the business-rule validator and the
// deterministic rule-based scheduler. The validator scores any schedule
// against the labor-law catalog; the engine constructs schedules that
// satisfy the same catalog, which is what makes rule-engine output a safe
// fallback for the hybrid controller.
package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/rosterops/shiftcast/internal/models"
)

// Rule identifiers reported in compliance breakdowns.
const (
	RuleMaxConsecutiveDays = "max_consecutive_days"
	RuleMinRestDays        = "min_rest_days"
	RuleMinStaffPerDay     = "min_staff_per_day"
	RuleMaxWeeklyHours     = "max_weekly_hours"
)

// restWindowDays is the sliding window over which rest-day and weekly-hour
// rules are evaluated.
const restWindowDays = 7

// Config holds the rule catalog limits.
type Config struct {
	// MaxConsecutiveDays is the longest permitted run of working days.
	MaxConsecutiveDays int `koanf:"max_consecutive_days" validate:"gte=1,lte=7"`

	// MinRestDays is the minimum number of off days in any 7-day window.
	MinRestDays int `koanf:"min_rest_days" validate:"gte=0,lte=3"`

	// MinStaffPerDay is the minimum number of working staff on each
	// scheduled day.
	MinStaffPerDay int `koanf:"min_staff_per_day" validate:"gte=1"`

	// MaxWeeklyHours caps the working hours in any 7-day window.
	MaxWeeklyHours float64 `koanf:"max_weekly_hours" validate:"gt=0,lte=80"`
}

// DefaultConfig returns the reference rule limits.
func DefaultConfig() Config {
	return Config{
		MaxConsecutiveDays: 6,
		MinRestDays:        1,
		MinStaffPerDay:     1,
		MaxWeeklyHours:     40,
	}
}

// Validator scores schedules against the rule catalog.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator with the given limits. Zero-valued
// fields fall back to the defaults.
func NewValidator(cfg Config) *Validator {
	def := DefaultConfig()
	if cfg.MaxConsecutiveDays == 0 {
		cfg.MaxConsecutiveDays = def.MaxConsecutiveDays
	}
	if cfg.MinStaffPerDay == 0 {
		cfg.MinStaffPerDay = def.MinStaffPerDay
	}
	if cfg.MaxWeeklyHours == 0 {
		cfg.MaxWeeklyHours = def.MaxWeeklyHours
	}
	return &Validator{cfg: cfg}
}

// Validate scores the schedule. Overall is 100 iff no rule reports a
// violation; otherwise it is the mean of the per-rule scores, each scaled
// by the fraction of checked units that passed.
func (v *Validator) Validate(schedule models.Schedule, staff []models.StaffMember) models.ComplianceReport {
	perRule := []models.RuleCompliance{
		v.checkConsecutiveDays(schedule),
		v.checkRestDays(schedule),
		v.checkStaffCoverage(schedule),
		v.checkWeeklyHours(schedule),
	}

	total := 0.0
	for _, r := range perRule {
		total += r.Score
	}

	return models.ComplianceReport{
		Overall: total / float64(len(perRule)),
		PerRule: perRule,
	}
}

// checkConsecutiveDays flags staff whose longest run of consecutive
// working dates exceeds the limit.
func (v *Validator) checkConsecutiveDays(schedule models.Schedule) models.RuleCompliance {
	var violations []string
	byStaff := schedule.ByStaff()

	checked := 0
	for staffID, entries := range byStaff {
		checked++
		run, longest := 0, 0
		var prev models.DateKey
		for _, e := range entries {
			if prev != "" && e.Date.Time().Sub(prev.Time()) == 24*time.Hour {
				run++
			} else {
				run = 1
			}
			if run > longest {
				longest = run
			}
			prev = e.Date
		}
		if longest > v.cfg.MaxConsecutiveDays {
			violations = append(violations, fmt.Sprintf("staff %s works %d consecutive days (max %d)", staffID, longest, v.cfg.MaxConsecutiveDays))
		}
	}

	return scored(RuleMaxConsecutiveDays, checked, violations)
}

// checkRestDays flags staff with fewer than MinRestDays off days in any
// 7-day calendar window of the schedule span.
func (v *Validator) checkRestDays(schedule models.Schedule) models.RuleCompliance {
	var violations []string
	byStaff := schedule.ByStaff()
	maxWorking := restWindowDays - v.cfg.MinRestDays

	checked := 0
	for staffID, entries := range byStaff {
		checked++
		if worst := maxWorkingInWindow(entries, restWindowDays); worst > maxWorking {
			violations = append(violations, fmt.Sprintf("staff %s works %d days in a %d-day window (max %d)", staffID, worst, restWindowDays, maxWorking))
		}
	}

	return scored(RuleMinRestDays, checked, violations)
}

// checkStaffCoverage flags scheduled days with too few working staff.
// Only days the schedule actually covers (any entry, including off) are
// checked; an empty schedule trivially passes.
func (v *Validator) checkStaffCoverage(schedule models.Schedule) models.RuleCompliance {
	var violations []string

	coveredDays := make(map[models.DateKey]bool)
	for _, e := range schedule.Entries {
		coveredDays[e.Date] = true
	}
	working := schedule.ByDate()

	for day := range coveredDays {
		if len(working[day]) < v.cfg.MinStaffPerDay {
			violations = append(violations, fmt.Sprintf("%s has %d working staff (min %d)", day, len(working[day]), v.cfg.MinStaffPerDay))
		}
	}

	return scored(RuleMinStaffPerDay, len(coveredDays), violations)
}

// checkWeeklyHours flags staff exceeding MaxWeeklyHours in any 7-day
// calendar window.
func (v *Validator) checkWeeklyHours(schedule models.Schedule) models.RuleCompliance {
	var violations []string
	byStaff := schedule.ByStaff()

	checked := 0
	for staffID, entries := range byStaff {
		checked++
		if worst := maxHoursInWindow(entries, restWindowDays); worst > v.cfg.MaxWeeklyHours {
			violations = append(violations, fmt.Sprintf("staff %s works %.0f hours in a %d-day window (max %.0f)", staffID, worst, restWindowDays, v.cfg.MaxWeeklyHours))
		}
	}

	return scored(RuleMaxWeeklyHours, checked, violations)
}

// scored builds the per-rule compliance slice: 100 when nothing was
// violated, scaled down by the violating fraction otherwise.
func scored(rule string, checked int, violations []string) models.RuleCompliance {
	score := 100.0
	if len(violations) > 0 && checked > 0 {
		score = math.Max(0, 100*(1-float64(len(violations))/float64(checked)))
		if score == 100 {
			score = 99 // a violation can never round back up to full compliance
		}
	}
	return models.RuleCompliance{Rule: rule, Score: score, Violations: violations}
}

// maxWorkingInWindow returns the highest number of working days that fall
// in any window of the given calendar length.
func maxWorkingInWindow(entries []models.ScheduleEntry, window int) int {
	worst := 0
	for i := range entries {
		start := entries[i].Date.Time()
		count := 0
		for j := i; j < len(entries); j++ {
			if int(entries[j].Date.Time().Sub(start).Hours()/24) < window {
				count++
			}
		}
		if count > worst {
			worst = count
		}
	}
	return worst
}

// maxHoursInWindow returns the highest shift-hour total in any window of
// the given calendar length.
func maxHoursInWindow(entries []models.ScheduleEntry, window int) float64 {
	worst := 0.0
	for i := range entries {
		start := entries[i].Date.Time()
		hours := 0.0
		for j := i; j < len(entries); j++ {
			if int(entries[j].Date.Time().Sub(start).Hours()/24) < window {
				hours += entries[j].Shift.Hours()
			}
		}
		if hours > worst {
			worst = hours
		}
	}
	return worst
}
