// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package feature

import (
	"context"

	"github.com/rosterops/shiftcast/internal/models"
)

// GenerationContext carries the shared inputs a producer needs beyond the
// (staff, date) key itself. Producers must not mutate any of its fields.
type GenerationContext struct {
	// DateIndex is the zero-based position of the date within the
	// requested range.
	DateIndex int

	// Period is the date range the prediction covers.
	Period models.DateRange

	// Historical is the schedule snapshot used to derive trailing
	// workload features.
	Historical models.Schedule

	// Staff is the full roster, used for relative features such as
	// roster share.
	Staff []models.StaffMember
}

// Producer generates a feature vector for one (staff, date) pair.
//
// Implementations may be slow (tens of milliseconds) and may fail; failures
// are reported as *GenerationError values. Repeated calls with identical
// inputs must yield identical vectors.
type Producer interface {
	Generate(ctx context.Context, staff models.StaffMember, date models.DateKey, gc GenerationContext) (models.FeatureVector, error)
}
