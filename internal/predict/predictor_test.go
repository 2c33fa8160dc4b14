// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package predict

import (
	"context"
	"reflect"
	"testing"

	"github.com/rosterops/shiftcast/internal/hybrid"
	"github.com/rosterops/shiftcast/internal/models"
)

func fullBatch(staff []models.StaffMember, dates models.DateRange) hybrid.FeatureBatch {
	batch := make(hybrid.FeatureBatch)
	for si, member := range staff {
		row := make(map[models.DateKey]models.FeatureVector)
		for di, day := range dates.Days() {
			v := make(models.FeatureVector, 10)
			v[int(day.Weekday())] = 1
			v[7] = 0.5
			v[8] = float64(si) * 0.3
			v[9] = float64(di) * 0.1
			row[day] = v
		}
		batch[member.ID] = row
	}
	return batch
}

func TestPredictCoversEveryPair(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1"}, {ID: "s2"}}
	dates := models.DateRange{Start: "2024-01-15", End: "2024-01-17"}

	out, err := NewModel().Predict(context.Background(), fullBatch(staff, dates), staff, dates)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || !out.MLUsed {
		t.Errorf("expected successful ML output, got %+v", out)
	}
	if len(out.Schedule.Entries) != 6 {
		t.Errorf("expected 6 entries, got %d", len(out.Schedule.Entries))
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("confidence out of range: %v", out.Confidence)
	}
	for _, e := range out.Schedule.Entries {
		if !e.Shift.Valid() {
			t.Errorf("invalid shift %q for %s on %s", e.Shift, e.StaffID, e.Date)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1"}, {ID: "s2"}}
	dates := models.DateRange{Start: "2024-01-15", End: "2024-01-21"}
	batch := fullBatch(staff, dates)

	a, err := NewModel().Predict(context.Background(), batch, staff, dates)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewModel().Predict(context.Background(), batch, staff, dates)
	if err != nil {
		t.Fatal(err)
	}

	if a.Confidence != b.Confidence || !reflect.DeepEqual(a.Schedule, b.Schedule) {
		t.Error("identical batches must yield identical predictions")
	}
}

func TestPredictMissingFeature(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1"}, {ID: "s2"}}
	dates := models.DateRange{Start: "2024-01-15", End: "2024-01-16"}
	batch := fullBatch(staff, dates)
	delete(batch["s2"], "2024-01-16")

	if _, err := NewModel().Predict(context.Background(), batch, staff, dates); err == nil {
		t.Error("expected error for incomplete batch")
	}
}

func TestPredictEmptyInput(t *testing.T) {
	m := NewModel()
	dates := models.DateRange{Start: "2024-01-15", End: "2024-01-16"}

	if _, err := m.Predict(context.Background(), hybrid.FeatureBatch{}, nil, dates); err == nil {
		t.Error("expected error for empty roster")
	}
	if _, err := m.Predict(context.Background(), hybrid.FeatureBatch{}, []models.StaffMember{{ID: "s1"}}, models.DateRange{Start: "2024-01-16", End: "2024-01-15"}); err == nil {
		t.Error("expected error for inverted range")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Predict(ctx, hybrid.FeatureBatch{}, []models.StaffMember{{ID: "s1"}}, dates); err == nil {
		t.Error("expected error for cancelled context")
	}
}
