package ml

import (
	"errors"
	"fmt"
)

// Transformer rewrites a table before it reaches an estimator.
type Transformer interface {
	Transform(t *Table) (*Table, error)
}

// StandardScaler subtracts Mean and divides by Scale per column. When
// ColumnNames is set, those columns are selected first and become the output columns.
type StandardScaler struct {
	Mean        []float64 `json:"mean"`
	Scale       []float64 `json:"scale"`
	ColumnNames []string  `json:"columns,omitempty"`
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
	}
	if len(s.ColumnNames) > 0 && len(s.ColumnNames) != len(s.Mean) {
		return fmt.Errorf("scaler has %d columns and %d means", len(s.ColumnNames), len(s.Mean))
	}
	return nil
}

func (s *StandardScaler) Transform(t *Table) (*Table, error) {
	rows, err := design(t, s.ColumnNames, len(s.Mean))
	if err != nil {
		return nil, err
	}
	columns := s.ColumnNames
	if len(columns) == 0 {
		columns = t.Columns
	}
	out := &Table{Columns: columns, Rows: make([][]float64, len(rows))}
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scale := s.Scale[j]
			if scale == 0 {
				scale = 1
			}
			scaled[j] = (v - s.Mean[j]) / scale
		}
		out.Rows[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) Features() []string { return s.ColumnNames }

// Step is one named stage of a pipeline.
type Step struct {
	Name        string
	Transformer Transformer
}

// Pipeline applies its transformer steps in order, then the final estimator.
type Pipeline struct {
	Steps     []Step
	Estimator Predictor
}

func (p *Pipeline) transform(t *Table) (*Table, error) {
	var err error
	for _, step := range p.Steps {
		if t, err = step.Transformer.Transform(t); err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
	}
	return t, nil
}

func (p *Pipeline) Predict(t *Table) ([]float64, error) {
	t, err := p.transform(t)
	if err != nil {
		return nil, err
	}
	return p.Estimator.Predict(t)
}

func (p *Pipeline) PredictProba(t *Table) ([][]float64, error) {
	proba, ok := Probabilistic(p.Estimator)
	if !ok {
		return nil, errors.New("pipeline estimator has no class probabilities")
	}
	t, err := p.transform(t)
	if err != nil {
		return nil, err
	}
	return proba.PredictProba(t)
}

func (p *Pipeline) HasProbability() bool {
	_, ok := Probabilistic(p.Estimator)
	return ok
}

func (p *Pipeline) Classes() []float64 {
	if proba, ok := Probabilistic(p.Estimator); ok {
		return proba.Classes()
	}
	return nil
}

// Features prefers the columns of the step named "prep", then the first step, then the estimator.
func (p *Pipeline) Features() []string {
	for _, step := range p.Steps {
		if step.Name != "prep" {
			continue
		}
		if namer, ok := step.Transformer.(FeatureNamer); ok && len(namer.Features()) > 0 {
			return namer.Features()
		}
	}
	if len(p.Steps) > 0 {
		if namer, ok := p.Steps[0].Transformer.(FeatureNamer); ok && len(namer.Features()) > 0 {
			return namer.Features()
		}
	}
	return Features(p.Estimator)
}
