// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/rosterops/shiftcast/internal/models"
)

func testStaff() []models.StaffMember {
	return []models.StaffMember{
		{ID: "s1", Name: "Aki", Role: "cook", ContractHours: 40},
		{ID: "s2", Name: "Ben", Role: "server", ContractHours: 40},
		{ID: "s3", Name: "Cam", Role: "host", ContractHours: 32},
	}
}

// consecutiveSchedule builds n working days in a row for one staff member.
func consecutiveSchedule(staffID models.StaffID, start models.DateKey, n int, shift models.ShiftType) models.Schedule {
	var s models.Schedule
	t := start.Time()
	for i := 0; i < n; i++ {
		s.Entries = append(s.Entries, models.ScheduleEntry{
			StaffID: staffID,
			Date:    models.NewDateKey(t.AddDate(0, 0, i)),
			Shift:   shift,
		})
	}
	return s
}

func TestValidatorEmptyScheduleIsCompliant(t *testing.T) {
	v := NewValidator(DefaultConfig())
	report := v.Validate(models.Schedule{}, testStaff())
	if !report.Compliant() {
		t.Errorf("empty schedule must be trivially compliant, got %v", report.Overall)
	}
	if len(report.PerRule) != 4 {
		t.Errorf("expected 4 catalog rules in breakdown, got %d", len(report.PerRule))
	}
}

func TestValidatorConsecutiveDays(t *testing.T) {
	v := NewValidator(Config{MaxConsecutiveDays: 3, MinRestDays: 0, MinStaffPerDay: 1, MaxWeeklyHours: 80})

	ok := consecutiveSchedule("s1", "2024-01-15", 3, models.ShiftMorning)
	if report := v.Validate(ok, testStaff()); !report.Compliant() {
		t.Errorf("3-day run within limit must pass, got %+v", report)
	}

	bad := consecutiveSchedule("s1", "2024-01-15", 4, models.ShiftMorning)
	report := v.Validate(bad, testStaff())
	if report.Compliant() {
		t.Fatal("4-day run over a 3-day limit must fail")
	}
	found := false
	for _, r := range report.PerRule {
		if r.Rule == RuleMaxConsecutiveDays && len(r.Violations) == 1 {
			found = true
			if !strings.Contains(r.Violations[0], "s1") {
				t.Errorf("violation should name the staff member: %q", r.Violations[0])
			}
		}
	}
	if !found {
		t.Errorf("expected a max_consecutive_days violation, got %+v", report.PerRule)
	}
}

func TestValidatorRestDays(t *testing.T) {
	v := NewValidator(Config{MaxConsecutiveDays: 7, MinRestDays: 1, MinStaffPerDay: 1, MaxWeeklyHours: 80})

	// 7 straight working days leaves no rest day in the window.
	bad := consecutiveSchedule("s1", "2024-01-15", 7, models.ShiftMorning)
	if report := v.Validate(bad, testStaff()); report.Compliant() {
		t.Error("7 working days in a 7-day window must violate min_rest_days")
	}

	// 6 working days leaves one rest day.
	ok := consecutiveSchedule("s1", "2024-01-15", 6, models.ShiftMorning)
	if report := v.Validate(ok, testStaff()); !report.Compliant() {
		t.Errorf("6 working days must pass with MinRestDays=1, got %+v", report)
	}
}

func TestValidatorStaffCoverage(t *testing.T) {
	v := NewValidator(Config{MaxConsecutiveDays: 6, MinRestDays: 1, MinStaffPerDay: 2, MaxWeeklyHours: 80})

	s := models.Schedule{Entries: []models.ScheduleEntry{
		{StaffID: "s1", Date: "2024-01-15", Shift: models.ShiftMorning},
		{StaffID: "s2", Date: "2024-01-15", Shift: models.ShiftEvening},
		{StaffID: "s1", Date: "2024-01-16", Shift: models.ShiftMorning},
		{StaffID: "s2", Date: "2024-01-16", Shift: models.ShiftOff},
	}}

	report := v.Validate(s, testStaff())
	if report.Compliant() {
		t.Fatal("a covered day below MinStaffPerDay must fail")
	}
	for _, r := range report.PerRule {
		if r.Rule == RuleMinStaffPerDay {
			if len(r.Violations) != 1 || !strings.Contains(r.Violations[0], "2024-01-16") {
				t.Errorf("expected one coverage violation naming 2024-01-16, got %v", r.Violations)
			}
		}
	}
}

func TestValidatorWeeklyHours(t *testing.T) {
	v := NewValidator(Config{MaxConsecutiveDays: 7, MinRestDays: 0, MinStaffPerDay: 1, MaxWeeklyHours: 40})

	// Five 8-hour shifts hit the cap exactly.
	ok := consecutiveSchedule("s1", "2024-01-15", 5, models.ShiftMorning)
	if report := v.Validate(ok, testStaff()); !report.Compliant() {
		t.Errorf("40 hours must pass a 40-hour cap, got %+v", report)
	}

	// Five 10-hour night shifts exceed it.
	bad := consecutiveSchedule("s1", "2024-01-15", 5, models.ShiftNight)
	if report := v.Validate(bad, testStaff()); report.Compliant() {
		t.Error("50 hours must fail a 40-hour cap")
	}
}

func TestValidatorOverallNeverFullOnViolation(t *testing.T) {
	v := NewValidator(DefaultConfig())
	bad := consecutiveSchedule("s1", "2024-01-15", 10, models.ShiftMorning)
	report := v.Validate(bad, testStaff())
	if report.Overall >= 100 {
		t.Errorf("violating schedule must never score 100, got %v", report.Overall)
	}
}

func TestEngineOutputIsCompliantByConstruction(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg)

	schedule, err := e.GenerateOptimalSchedule(context.Background(), testStaff(), models.DateRange{Start: "2024-01-15", End: "2024-01-28"})
	if err != nil {
		t.Fatal(err)
	}

	report := NewValidator(cfg).Validate(schedule, testStaff())
	if !report.Compliant() {
		t.Errorf("rule engine output must score 100, got %v: %+v", report.Overall, report.PerRule)
	}

	// Every (staff, date) pair is covered exactly once.
	if len(schedule.Entries) != 3*14 {
		t.Errorf("expected %d entries, got %d", 3*14, len(schedule.Entries))
	}
}

func TestEngineHonorsHints(t *testing.T) {
	e := NewEngine(DefaultConfig())
	hints := map[models.StaffID]models.ShiftType{"s1": models.ShiftNight}

	schedule, err := e.GenerateWithHints(context.Background(), testStaff(), models.DateRange{Start: "2024-01-15", End: "2024-01-21"}, hints)
	if err != nil {
		t.Fatal(err)
	}

	for _, entry := range schedule.Entries {
		if entry.StaffID == "s1" && entry.Shift != models.ShiftOff && entry.Shift != models.ShiftNight {
			t.Errorf("expected s1 working shifts to follow the night hint, got %s on %s", entry.Shift, entry.Date)
		}
	}

	// Hinted output still has to pass the catalog.
	if report := e.Validator().Validate(schedule, testStaff()); !report.Compliant() {
		t.Errorf("hinted schedule must stay compliant, got %v", report.Overall)
	}
}

func TestEngineIgnoresOffHint(t *testing.T) {
	e := NewEngine(DefaultConfig())
	hints := map[models.StaffID]models.ShiftType{"s1": models.ShiftOff}

	schedule, err := e.GenerateWithHints(context.Background(), testStaff(), models.DateRange{Start: "2024-01-15", End: "2024-01-21"}, hints)
	if err != nil {
		t.Fatal(err)
	}

	working := 0
	for _, entry := range schedule.Entries {
		if entry.StaffID == "s1" && entry.Shift != models.ShiftOff {
			working++
		}
	}
	if working == 0 {
		t.Error("an off hint must not remove a staff member from the rotation")
	}
}

func TestEngineRejectsBadInput(t *testing.T) {
	e := NewEngine(DefaultConfig())

	if _, err := e.GenerateOptimalSchedule(context.Background(), nil, models.DateRange{Start: "2024-01-15", End: "2024-01-16"}); err == nil {
		t.Error("expected error for empty roster")
	}
	if _, err := e.GenerateOptimalSchedule(context.Background(), testStaff(), models.DateRange{Start: "2024-01-16", End: "2024-01-15"}); err == nil {
		t.Error("expected error for inverted range")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.GenerateOptimalSchedule(ctx, testStaff(), models.DateRange{Start: "2024-01-15", End: "2024-01-16"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestEngineInfeasibleConfiguration(t *testing.T) {
	// A single staff member cannot both rest and cover every day.
	e := NewEngine(DefaultConfig())
	_, err := e.GenerateOptimalSchedule(context.Background(), testStaff()[:1], models.DateRange{Start: "2024-01-15", End: "2024-01-28"})
	if err == nil {
		t.Error("expected infeasible configuration to fail rather than return a non-compliant schedule")
	}
}
