// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package hybrid

import "fmt"

// SchedulingFailure is the terminal error of a prediction request: the
// rule engine itself failed, so no compliant schedule can be produced.
// Everything upstream of the rule engine (producer faults, predictor
// faults, compliance shortfalls) is absorbed into a fallback decision and
// never reaches the caller as an error.
type SchedulingFailure struct {
	Reason string
	Err    error
}

func (e *SchedulingFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduling failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scheduling failed (%s)", e.Reason)
}

func (e *SchedulingFailure) Unwrap() error {
	return e.Err
}
