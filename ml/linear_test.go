package ml

import (
	"math"
	"testing"
)

func TestLogisticRegressionBinary(t *testing.T) {
	model := &LogisticRegression{
		Coef:         [][]float64{{1, -1}},
		Intercept:    []float64{0},
		ClassValues:  []float64{0, 1},
		FeatureNames: []string{"a", "b"},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// columns arrive in a different order than the model declares
	table := &Table{Columns: []string{"b", "a"}, Rows: [][]float64{{0, 2}, {2, 0}, {1, 1}}}
	labels, err := model.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 1 || labels[1] != 0 {
		t.Fatalf("unexpected labels: %v", labels)
	}
	proba, err := model.PredictProba(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[2][1]-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 at the decision boundary, got %v", proba[2][1])
	}
	for _, row := range proba {
		if math.Abs(row[0]+row[1]-1) > 1e-9 {
			t.Fatalf("probabilities do not sum to one: %v", row)
		}
	}
}

func TestLogisticRegressionMultinomial(t *testing.T) {
	model := &LogisticRegression{
		Coef:        [][]float64{{1}, {0}, {-1}},
		Intercept:   []float64{0, 0, 0},
		ClassValues: []float64{0, 1, 2},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := model.Predict(&Table{Columns: []string{"x"}, Rows: [][]float64{{3}, {-3}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 2 {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestLogisticRegressionMissingFeature(t *testing.T) {
	model := &LogisticRegression{
		Coef:         [][]float64{{1, 1}},
		Intercept:    []float64{0},
		ClassValues:  []float64{0, 1},
		FeatureNames: []string{"a", "b"},
	}
	_, err := model.Predict(&Table{Columns: []string{"a"}, Rows: [][]float64{{1}}})
	missing, ok := err.(*MissingColumnsError)
	if !ok {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(missing.Columns) != 1 || missing.Columns[0] != "b" {
		t.Fatalf("unexpected missing columns: %v", missing.Columns)
	}
}

func TestLogisticRegressionValidate(t *testing.T) {
	model := &LogisticRegression{
		Coef:        [][]float64{{1}, {1}},
		Intercept:   []float64{0, 0},
		ClassValues: []float64{0, 1},
	}
	if err := model.validate(); err == nil {
		t.Fatal("expected error for binary model with two coefficient rows")
	}
}

func TestLinearRegressionPredict(t *testing.T) {
	model := &LinearRegression{Coef: []float64{2, 0.5}, Intercept: 1}
	out, err := model.Predict(&Table{Columns: []string{"a", "b"}, Rows: [][]float64{{1, 4}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != 5 {
		t.Fatalf("expected 5, got %v", out[0])
	}
	if _, err := model.Predict(&Table{Columns: []string{"a"}, Rows: [][]float64{{1}}}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}
