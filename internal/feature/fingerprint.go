// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package feature

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/rosterops/shiftcast/internal/models"
)

// fingerprintPayload is the canonical serialization input for the config
// fingerprint. Staff are sorted by ID and schedule entries by
// (date, staff, shift) so the digest is independent of insertion order
// and object identity.
type fingerprintPayload struct {
	Staff    []staffFingerprint     `json:"staff"`
	Schedule []models.ScheduleEntry `json:"schedule"`
}

type staffFingerprint struct {
	ID            models.StaffID `json:"id"`
	Name          string         `json:"name"`
	Role          string         `json:"role"`
	ContractHours float64        `json:"contract_hours"`
	Skills        []string       `json:"skills,omitempty"`
}

// Fingerprint computes a structural digest over the roster and schedule
// snapshot. Equal fingerprints imply cache validity: any staff addition,
// removal, or attribute change, and any shift-data mutation, changes the
// digest.
func Fingerprint(staff []models.StaffMember, schedule models.Schedule) string {
	payload := fingerprintPayload{
		Staff:    make([]staffFingerprint, 0, len(staff)),
		Schedule: schedule.SortedEntries(),
	}

	for _, m := range models.SortStaff(staff) {
		skills := make([]string, len(m.Skills))
		copy(skills, m.Skills)
		sort.Strings(skills)
		payload.Staff = append(payload.Staff, staffFingerprint{
			ID:            m.ID,
			Name:          m.Name,
			Role:          m.Role,
			ContractHours: m.ContractHours,
			Skills:        skills,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal of plain structs cannot fail; guard against future
		// field changes by degrading to a non-cacheable fingerprint.
		return fmt.Sprintf("unmarshalable:%d:%d", len(staff), len(schedule.Entries))
	}

	digest := sha256.Sum256(data)
	return fmt.Sprintf("%x", digest)
}
