// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package models defines the domain types shared across the Shiftcast
// pipeline: roster entities, schedules, feature vectors, prediction
// results, and the API response envelope.
package models

import (
	"fmt"
	"sort"
	"time"
)

// StaffID is an opaque staff identifier, unique within a roster.
type StaffID string

// StaffMember describes one member of the roster. The attribute fields
// participate in the cache config fingerprint: changing any of them
// invalidates all cached feature vectors.
type StaffMember struct {
	ID            StaffID  `json:"id" validate:"required"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	ContractHours float64  `json:"contract_hours" validate:"gte=0,lte=80"`
	Skills        []string `json:"skills,omitempty"`
}

// ShiftType identifies a shift slot within a working day.
type ShiftType string

// Shift types recognized by the scheduler and validator.
const (
	ShiftMorning ShiftType = "morning"
	ShiftEvening ShiftType = "evening"
	ShiftNight   ShiftType = "night"
	ShiftOff     ShiftType = "off"
)

// Hours returns the nominal working hours for the shift type.
func (s ShiftType) Hours() float64 {
	switch s {
	case ShiftMorning, ShiftEvening:
		return 8
	case ShiftNight:
		return 10
	default:
		return 0
	}
}

// Valid reports whether the shift type is one of the recognized values.
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftMorning, ShiftEvening, ShiftNight, ShiftOff:
		return true
	default:
		return false
	}
}

// DateKey is a calendar date normalized to the canonical YYYY-MM-DD form.
// Two dates are the same cache key iff their canonical strings match;
// time-of-day and timezone are discarded.
type DateKey string

const dateKeyLayout = "2006-01-02"

// NewDateKey normalizes a time.Time to its canonical date key.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// ParseDateKey validates and canonicalizes a date string.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDateKey(t), nil
}

// Time returns the midnight UTC instant for the date key.
// The zero time is returned for a malformed key.
func (d DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Weekday returns the weekday of the date key.
func (d DateKey) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start DateKey `json:"start" validate:"required"`
	End   DateKey `json:"end" validate:"required"`
}

// Days expands the range into its ordered sequence of date keys.
// An inverted or malformed range yields nil.
func (r DateRange) Days() []DateKey {
	start, end := r.Start.Time(), r.End.Time()
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}

	var days []DateKey
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		days = append(days, NewDateKey(t))
	}
	return days
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	return len(r.Days())
}

// ScheduleEntry is one (staff, date) shift assignment.
type ScheduleEntry struct {
	StaffID StaffID   `json:"staff_id" validate:"required"`
	Date    DateKey   `json:"date" validate:"required"`
	Shift   ShiftType `json:"shift" validate:"required"`
}

// Schedule is a set of shift assignments over a date range.
type Schedule struct {
	Entries []ScheduleEntry `json:"entries"`
}

// SortedEntries returns the entries in canonical (date, staff, shift) order.
// The fingerprint and validators depend on this ordering being stable
// regardless of how the schedule was assembled.
func (s Schedule) SortedEntries() []ScheduleEntry {
	entries := make([]ScheduleEntry, len(s.Entries))
	copy(entries, s.Entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if entries[i].StaffID != entries[j].StaffID {
			return entries[i].StaffID < entries[j].StaffID
		}
		return entries[i].Shift < entries[j].Shift
	})
	return entries
}

// ByStaff groups the working entries (shift != off) per staff member,
// each group ordered by date.
func (s Schedule) ByStaff() map[StaffID][]ScheduleEntry {
	grouped := make(map[StaffID][]ScheduleEntry)
	for _, e := range s.SortedEntries() {
		if e.Shift == ShiftOff {
			continue
		}
		grouped[e.StaffID] = append(grouped[e.StaffID], e)
	}
	return grouped
}

// ByDate groups the working entries per date.
func (s Schedule) ByDate() map[DateKey][]ScheduleEntry {
	grouped := make(map[DateKey][]ScheduleEntry)
	for _, e := range s.Entries {
		if e.Shift == ShiftOff {
			continue
		}
		grouped[e.Date] = append(grouped[e.Date], e)
	}
	return grouped
}

// SortStaff returns a copy of the roster sorted by staff ID. Fingerprinting
// and feature generation both require order-independent handling of the
// roster input.
func SortStaff(staff []StaffMember) []StaffMember {
	sorted := make([]StaffMember, len(staff))
	copy(sorted, staff)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
