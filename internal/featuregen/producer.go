// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package featuregen provides the default deterministic feature producer.
//
// The producer derives a fixed-length vector for a (staff, date) pair from
// the calendar position, the staff member's contract attributes, and the
// trailing workload visible in the historical schedule snapshot. It stands
// in for whatever feature pipeline feeds the trained model in production;
// the store and controller only depend on the feature.Producer contract.
package featuregen

import (
	"context"
	"fmt"

	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/models"
)

// maxContractHours bounds the contract-hours normalization.
const maxContractHours = 80.0

// roleWeights maps roster roles onto a scalar feature. Unknown roles get
// a neutral weight.
var roleWeights = map[string]float64{
	"manager": 1.0,
	"cook":    0.8,
	"server":  0.6,
	"host":    0.4,
}

// Producer generates feature vectors of a fixed configured length.
type Producer struct {
	length int
}

// New creates a producer emitting vectors of the given length. Lengths
// below the 10 base features are rejected by the config layer; the
// producer itself pads or truncates defensively.
func New(length int) *Producer {
	return &Producer{length: length}
}

// Generate implements feature.Producer. Identical inputs always yield
// identical vectors, and no input is mutated.
func (p *Producer) Generate(ctx context.Context, staff models.StaffMember, date models.DateKey, gc feature.GenerationContext) (models.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, &feature.GenerationError{StaffID: staff.ID, Date: date, Err: err}
	}
	if staff.ID == "" {
		return nil, &feature.GenerationError{StaffID: staff.ID, Date: date, Err: fmt.Errorf("empty staff id")}
	}
	day := date.Time()
	if day.IsZero() {
		return nil, &feature.GenerationError{StaffID: staff.ID, Date: date, Err: fmt.Errorf("malformed date %q", date)}
	}

	// Base layout: [0..6] day-of-week one-hot, [7] contract hours,
	// [8] trailing worked-shift share, [9] role weight.
	v := make(models.FeatureVector, 10)
	v[int(day.Weekday())] = 1
	v[7] = clamp01(staff.ContractHours / maxContractHours)
	v[8] = trailingWorkShare(staff.ID, gc.Historical)
	v[9] = roleWeight(staff.Role)

	// Extra slots carry the range position so vectors stay fixed-length
	// for any configured size.
	if p.length > len(v) {
		extra := make(models.FeatureVector, p.length-len(v))
		if span := gc.Period.Len(); span > 1 {
			extra[0] = float64(gc.DateIndex) / float64(span-1)
		}
		v = append(v, extra...)
	} else if p.length > 0 && p.length < len(v) {
		v = v[:p.length]
	}

	return v, nil
}

// trailingWorkShare is the fraction of historical working entries that
// belong to the given staff member.
func trailingWorkShare(id models.StaffID, historical models.Schedule) float64 {
	total, own := 0, 0
	for _, e := range historical.Entries {
		if e.Shift == models.ShiftOff {
			continue
		}
		total++
		if e.StaffID == id {
			own++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(own) / float64(total)
}

func roleWeight(role string) float64 {
	if w, ok := roleWeights[role]; ok {
		return w
	}
	return 0.5
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
