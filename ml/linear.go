package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary or multinomial logistic model.
// Binary models carry a single coefficient row scoring the second class.
type LogisticRegression struct {
	Coef         [][]float64 `json:"coef"`
	Intercept    []float64   `json:"intercept"`
	ClassValues  []float64   `json:"classes"`
	FeatureNames []string    `json:"feature_names,omitempty"`
}

func (m *LogisticRegression) validate() error {
	if len(m.ClassValues) < 2 {
		return errors.New("logistic regression needs at least two classes")
	}
	want := len(m.ClassValues)
	if want == 2 {
		want = 1
	}
	if len(m.Coef) != want {
		return fmt.Errorf("expected %d coefficient rows, got %d", want, len(m.Coef))
	}
	if len(m.Intercept) != len(m.Coef) {
		return fmt.Errorf("expected %d intercepts, got %d", len(m.Coef), len(m.Intercept))
	}
	for _, row := range m.Coef {
		if len(row) != len(m.Coef[0]) {
			return errors.New("coefficient rows differ in width")
		}
	}
	if len(m.FeatureNames) > 0 && len(m.FeatureNames) != len(m.Coef[0]) {
		return fmt.Errorf("%d feature names for %d coefficients", len(m.FeatureNames), len(m.Coef[0]))
	}
	return nil
}

func (m *LogisticRegression) Predict(t *Table) ([]float64, error) {
	proba, err := m.PredictProba(t)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, m.ClassValues), nil
}

func (m *LogisticRegression) PredictProba(t *Table) ([][]float64, error) {
	rows, err := design(t, m.FeatureNames, len(m.Coef[0]))
	if err != nil {
		return nil, err
	}
	proba := make([][]float64, len(rows))
	for i, row := range rows {
		scores := make([]float64, len(m.Coef))
		for k, coef := range m.Coef {
			scores[k] = dot(coef, row) + m.Intercept[k]
		}
		if len(m.ClassValues) == 2 {
			p := sigmoid(scores[0])
			proba[i] = []float64{1 - p, p}
		} else {
			proba[i] = softmax(scores)
		}
	}
	return proba, nil
}

func (m *LogisticRegression) Classes() []float64 { return m.ClassValues }

func (m *LogisticRegression) Features() []string { return m.FeatureNames }

// LinearRegression is a fitted ordinary least squares model. It has no probabilities.
type LinearRegression struct {
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

func (m *LinearRegression) validate() error {
	if len(m.Coef) == 0 {
		return errors.New("linear regression has no coefficients")
	}
	if len(m.FeatureNames) > 0 && len(m.FeatureNames) != len(m.Coef) {
		return fmt.Errorf("%d feature names for %d coefficients", len(m.FeatureNames), len(m.Coef))
	}
	return nil
}

func (m *LinearRegression) Predict(t *Table) ([]float64, error) {
	rows, err := design(t, m.FeatureNames, len(m.Coef))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = dot(m.Coef, row) + m.Intercept
	}
	return out, nil
}

func (m *LinearRegression) Features() []string { return m.FeatureNames }

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(scores []float64) []float64 {
	peak := scores[argmax(scores)]
	out := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
