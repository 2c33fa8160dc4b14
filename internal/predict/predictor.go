// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package predict provides the default model collaborator for the hybrid
// controller: a deterministic linear scorer over cached feature vectors.
// It stands in for the trained model, which is out of scope here; only
// the hybrid.Predictor contract matters to the rest of the pipeline.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rosterops/shiftcast/internal/hybrid"
	"github.com/rosterops/shiftcast/internal/models"
)

// candidate shifts the scorer chooses between, including resting.
var candidates = []models.ShiftType{
	models.ShiftMorning,
	models.ShiftEvening,
	models.ShiftNight,
	models.ShiftOff,
}

// weights is the fixed scoring matrix, one row per candidate shift over
// the 10 base feature slots (day-of-week one-hot, contract hours,
// trailing share, role weight). Rows are hand-tuned for plausible
// behavior, not learned.
var weights = map[models.ShiftType][]float64{
	models.ShiftMorning: {0.2, 0.8, 0.8, 0.8, 0.8, 0.8, 0.2, 0.6, 0.4, 0.5},
	models.ShiftEvening: {0.9, 0.4, 0.4, 0.4, 0.5, 0.9, 0.9, 0.4, 0.3, 0.4},
	models.ShiftNight:   {0.5, 0.1, 0.1, 0.1, 0.2, 0.6, 0.5, 0.2, 0.1, 0.3},
	models.ShiftOff:     {0.4, 0.3, 0.3, 0.3, 0.3, 0.3, 0.4, 0.1, 0.9, 0.2},
}

// Model is the default predictor. Safe for concurrent use; it holds no
// mutable state.
type Model struct{}

// NewModel creates the deterministic scoring model.
func NewModel() *Model {
	return &Model{}
}

// Predict implements hybrid.Predictor. For each (staff, date) pair it
// scores every candidate shift against the feature vector and picks the
// best; the output confidence is the mean softmax probability of the
// chosen shifts, clamped to [0, 1].
func (m *Model) Predict(ctx context.Context, features hybrid.FeatureBatch, staff []models.StaffMember, dates models.DateRange) (hybrid.PredictorOutput, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return hybrid.PredictorOutput{}, err
	}
	days := dates.Days()
	if len(staff) == 0 || len(days) == 0 {
		return hybrid.PredictorOutput{}, fmt.Errorf("empty prediction input")
	}

	schedule := models.Schedule{Entries: make([]models.ScheduleEntry, 0, len(staff)*len(days))}
	confidenceSum := 0.0
	pairs := 0

	for _, member := range models.SortStaff(staff) {
		for _, day := range days {
			vector, ok := features.Vector(member.ID, day)
			if !ok {
				return hybrid.PredictorOutput{}, fmt.Errorf("feature batch is missing (%s, %s)", member.ID, day)
			}

			shift, prob := bestShift(vector)
			schedule.Entries = append(schedule.Entries, models.ScheduleEntry{
				StaffID: member.ID,
				Date:    day,
				Shift:   shift,
			})
			confidenceSum += prob
			pairs++
		}
	}

	confidence := clamp01(confidenceSum / float64(pairs))
	return hybrid.PredictorOutput{
		Success:          true,
		Schedule:         schedule,
		Confidence:       confidence,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		MLUsed:           true,
	}, nil
}

// bestShift scores the candidates and returns the winner with its softmax
// probability.
func bestShift(vector models.FeatureVector) (models.ShiftType, float64) {
	scores := make([]float64, len(candidates))
	for i, shift := range candidates {
		scores[i] = dot(vector, weights[shift])
	}

	// Softmax with max-subtraction for numeric stability.
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	sum := 0.0
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}

	bestIdx := 0
	for i := range probs {
		probs[i] /= sum
		if probs[i] > probs[bestIdx] {
			bestIdx = i
		}
	}
	return candidates[bestIdx], probs[bestIdx]
}

// dot multiplies the vector against a weight row over their common length.
func dot(v models.FeatureVector, w []float64) float64 {
	n := len(v)
	if len(w) < n {
		n = len(w)
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += v[i] * w[i]
	}
	return total
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
