package ml

import (
	"math"
	"reflect"
	"testing"
)

func TestStandardScalerSelectsColumns(t *testing.T) {
	scaler := &StandardScaler{Mean: []float64{10, 0}, Scale: []float64{2, 0}, ColumnNames: []string{"a", "b"}}
	out, err := scaler.Transform(&Table{Columns: []string{"b", "x", "a"}, Rows: [][]float64{{3, 99, 14}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out.Columns, []string{"a", "b"}) {
		t.Fatalf("unexpected columns: %v", out.Columns)
	}
	// a zero scale leaves the centered value untouched
	if !reflect.DeepEqual(out.Rows[0], []float64{2, 3}) {
		t.Fatalf("unexpected row: %v", out.Rows[0])
	}
}

func TestPipelinePredict(t *testing.T) {
	p := &Pipeline{
		Steps: []Step{{Name: "prep", Transformer: &StandardScaler{
			Mean: []float64{100}, Scale: []float64{10}, ColumnNames: []string{"systolic"},
		}}},
		Estimator: &LogisticRegression{
			Coef:        [][]float64{{2}},
			Intercept:   []float64{0},
			ClassValues: []float64{0, 1},
		},
	}
	table := &Table{Columns: []string{"age", "systolic"}, Rows: [][]float64{{40, 80}, {40, 120}}}

	labels, err := p.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(labels, []float64{0, 1}) {
		t.Fatalf("unexpected labels: %v", labels)
	}
	proba, err := p.PredictProba(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[1][1]-sigmoid(4)) > 1e-9 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
	if !reflect.DeepEqual(p.Features(), []string{"systolic"}) {
		t.Fatalf("unexpected features: %v", p.Features())
	}
}

func TestPipelineFeaturesFallBackToEstimator(t *testing.T) {
	p := &Pipeline{
		Steps:     []Step{{Name: "scale", Transformer: &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}}},
		Estimator: &LinearRegression{Coef: []float64{1}, FeatureNames: []string{"ldl"}},
	}
	if !reflect.DeepEqual(p.Features(), []string{"ldl"}) {
		t.Fatalf("unexpected features: %v", p.Features())
	}
	if p.HasProbability() {
		t.Fatal("a regression pipeline has no probabilities")
	}
	if _, err := p.PredictProba(&Table{Columns: []string{"ldl"}, Rows: [][]float64{{1}}}); err == nil {
		t.Fatal("expected an error")
	}
}
