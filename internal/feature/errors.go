// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package feature

import (
	"errors"
	"fmt"

	"github.com/rosterops/shiftcast/internal/models"
)

// ErrDisposed is returned by every store operation after Dispose. A disposed
// store must fail loudly, never silently no-op.
var ErrDisposed = errors.New("feature store is disposed")

// GenerationError wraps a producer failure with the (staff, date) key it
// occurred on. Batch operations treat it as a miss for that key and continue.
type GenerationError struct {
	StaffID models.StaffID
	Date    models.DateKey
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("feature generation failed for staff %q on %s: %v", e.StaffID, e.Date, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
