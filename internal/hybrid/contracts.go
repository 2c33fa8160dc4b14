// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package hybrid implements the decision core: it assembles features
// cache-first, obtains the model and rule-based proposals, applies the
// confidence-gated fallback policy, and guarantees that no schedule leaves
// the controller below 100% business compliance.
package hybrid

import (
	"context"

	"github.com/rosterops/shiftcast/internal/models"
)

// FeatureBatch is the assembled per-(staff, date) feature input for one
// prediction. The confidence gate only runs once the batch is complete for
// every requested pair; there are no partial-batch decisions.
type FeatureBatch map[models.StaffID]map[models.DateKey]models.FeatureVector

// Vector returns the batch entry for (staffID, date) and whether it exists.
func (b FeatureBatch) Vector(staffID models.StaffID, date models.DateKey) (models.FeatureVector, bool) {
	row, ok := b[staffID]
	if !ok {
		return nil, false
	}
	v, ok := row[date]
	return v, ok
}

// put inserts a vector, allocating the staff row on first use.
func (b FeatureBatch) put(staffID models.StaffID, date models.DateKey, v models.FeatureVector) {
	row, ok := b[staffID]
	if !ok {
		row = make(map[models.DateKey]models.FeatureVector)
		b[staffID] = row
	}
	row[date] = v
}

// PredictorOutput is what the ML collaborator returns: a candidate
// schedule with a self-reported confidence scalar in [0, 1].
type PredictorOutput struct {
	Success          bool
	Schedule         models.Schedule
	Confidence       float64
	ProcessingTimeMS int64
	MLUsed           bool
}

// Predictor is the trained-model collaborator. A non-finite confidence or
// a returned error is treated by the controller as a confidence-gate
// failure, never propagated to the caller.
type Predictor interface {
	Predict(ctx context.Context, features FeatureBatch, staff []models.StaffMember, dates models.DateRange) (PredictorOutput, error)
}

// RuleEngine is the deterministic scheduler collaborator. Its output is
// guaranteed compliant when the error is nil; an error here is fatal to
// the request.
type RuleEngine interface {
	GenerateOptimalSchedule(ctx context.Context, staff []models.StaffMember, dates models.DateRange) (models.Schedule, error)
	GenerateWithHints(ctx context.Context, staff []models.StaffMember, dates models.DateRange, hints map[models.StaffID]models.ShiftType) (models.Schedule, error)
}

// Validator scores a candidate schedule against the business-rule catalog.
// Every chosen candidate passes through it regardless of origin.
type Validator interface {
	Validate(schedule models.Schedule, staff []models.StaffMember) models.ComplianceReport
}
