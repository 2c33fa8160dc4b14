// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package hybrid

import "github.com/rosterops/shiftcast/internal/models"

// Result constructors enforce the tagged-variant shape of
// models.PredictionResult: only an ML result carries the model confidence,
// only fallback results carry a reason, and every successful variant
// carries a fully compliant report.

func newMLResult(schedule models.Schedule, confidence float64, compliance models.ComplianceReport, elapsedMS int64) models.PredictionResult {
	return models.PredictionResult{
		Success:          true,
		Schedule:         schedule,
		Confidence:       confidence,
		Method:           models.MethodML,
		ProcessingTimeMS: elapsedMS,
		Compliance:       compliance,
	}
}

func newRuleResult(schedule models.Schedule, compliance models.ComplianceReport, reason string, elapsedMS int64) models.PredictionResult {
	return models.PredictionResult{
		Success:          true,
		Schedule:         schedule,
		Method:           models.MethodRule,
		ProcessingTimeMS: elapsedMS,
		Compliance:       compliance,
		FallbackReason:   reason,
	}
}

func newHybridResult(schedule models.Schedule, compliance models.ComplianceReport, reason string, elapsedMS int64) models.PredictionResult {
	return models.PredictionResult{
		Success:          true,
		Schedule:         schedule,
		Method:           models.MethodHybrid,
		ProcessingTimeMS: elapsedMS,
		Compliance:       compliance,
		FallbackReason:   reason,
	}
}

func newFailureResult(err error, elapsedMS int64) models.PredictionResult {
	return models.PredictionResult{
		Success:          false,
		Method:           models.MethodRule,
		ProcessingTimeMS: elapsedMS,
		Error:            err.Error(),
	}
}
