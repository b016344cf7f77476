package ml

import (
	"math"
	"testing"
)

func TestRandomForestAveragesTrees(t *testing.T) {
	model := &RandomForest{
		Trees: []Tree{
			stump([]float64{1, 0}, []float64{0, 1}),
			stump([]float64{1, 1}, []float64{0, 1}),
		},
		ClassValues: []float64{0, 1},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := &Table{Columns: []string{"x"}, Rows: [][]float64{{0}, {1}}}
	proba, err := model.PredictProba(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[0][0]-0.75) > 1e-9 || math.Abs(proba[1][1]-1) > 1e-9 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
	labels, err := model.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestGradientBoostingBinary(t *testing.T) {
	model := &GradientBoosting{
		Init:         []float64{0},
		LearningRate: 0.5,
		Stages: [][]Tree{
			{stump([]float64{-2}, []float64{2})},
			{stump([]float64{-2}, []float64{2})},
		},
		ClassValues: []float64{0, 1},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba(&Table{Columns: []string{"x"}, Rows: [][]float64{{1}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(proba[0][1]-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, proba[0][1])
	}
}

func TestGradientBoostingMulticlass(t *testing.T) {
	model := &GradientBoosting{
		Init:         []float64{0, 0, 0},
		LearningRate: 1,
		Stages: [][]Tree{{
			stump([]float64{3}, []float64{0}),
			stump([]float64{0}, []float64{0}),
			stump([]float64{0}, []float64{3}),
		}},
		ClassValues: []float64{0, 1, 2},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := model.Predict(&Table{Columns: []string{"x"}, Rows: [][]float64{{0}, {1}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 2 {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestGradientBoostingValidateStageWidth(t *testing.T) {
	model := &GradientBoosting{
		Init:         []float64{0},
		LearningRate: 0.1,
		Stages:       [][]Tree{{stump([]float64{1}, []float64{1}), stump([]float64{1}, []float64{1})}},
		ClassValues:  []float64{0, 1},
	}
	if err := model.validate(); err == nil {
		t.Fatal("expected error for binary stage with two trees")
	}
}
