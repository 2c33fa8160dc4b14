// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package models

import (
	"fmt"
	"math"
)

// FeatureVector is a fixed-length ordered sequence of finite real numbers
// consumed by the predictive model. A vector failing finiteness checks is
// never admitted to the feature store.
type FeatureVector []float64

// Validate rejects empty vectors and vectors containing NaN or infinite
// entries. Length is not enforced here; producer and consumer share the
// configured length constant.
func (v FeatureVector) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("feature vector is empty")
	}
	for i, x := range v {
		if math.IsNaN(x) {
			return fmt.Errorf("feature vector element %d is NaN", i)
		}
		if math.IsInf(x, 0) {
			return fmt.Errorf("feature vector element %d is infinite", i)
		}
	}
	return nil
}

// Clone returns an independent copy of the vector. The feature store hands
// out copies on read so callers can never alias its internal state.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	c := make(FeatureVector, len(v))
	copy(c, v)
	return c
}
