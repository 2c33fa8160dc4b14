// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package models

// PredictionMethod tags which decision path produced a schedule.
type PredictionMethod string

// Decision paths of the hybrid controller.
const (
	// MethodML means the model's proposal passed the confidence gate and
	// full compliance validation unchanged.
	MethodML PredictionMethod = "ml"

	// MethodRule means the rule engine produced the schedule with no
	// model input (model failed, low confidence, or non-compliant).
	MethodRule PredictionMethod = "rule"

	// MethodHybrid means the rule engine produced the schedule but model
	// output informed its parameters (shift preference hints).
	MethodHybrid PredictionMethod = "hybrid"
)

// RuleCompliance is the per-rule slice of a compliance report.
type RuleCompliance struct {
	Rule       string   `json:"rule"`
	Score      float64  `json:"score"`
	Violations []string `json:"violations,omitempty"`
}

// ComplianceReport scores a schedule against the business-rule catalog.
// Overall is a 0-100 percentage; 100 means full compliance and is the
// only score a returned schedule may carry.
type ComplianceReport struct {
	Overall float64          `json:"overall"`
	PerRule []RuleCompliance `json:"per_rule,omitempty"`
}

// Compliant reports whether the schedule satisfies every rule.
func (r ComplianceReport) Compliant() bool {
	return r.Overall >= 100
}

// PredictionResult is the immutable outcome of one prediction request.
// Exactly one is produced per request; Method identifies the variant and
// constrains which fields are meaningful (Confidence is zero for pure
// rule results).
type PredictionResult struct {
	Success          bool             `json:"success"`
	Schedule         Schedule         `json:"schedule"`
	Confidence       float64          `json:"confidence,omitempty"`
	Method           PredictionMethod `json:"method"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
	Compliance       ComplianceReport `json:"business_compliance"`
	FallbackReason   string           `json:"fallback_reason,omitempty"`
	Error            string           `json:"error,omitempty"`
}
