package ml

import (
	"fmt"
	"strings"
)

// Table is a rectangular numeric input: one row per record, one column per feature.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, column := range t.Columns {
		if column == name {
			return i
		}
	}
	return -1
}

// Missing returns the names the table has no column for, in the order given.
func (t *Table) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if t.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Select returns the rows with columns reordered to names. Extra columns are dropped.
func (t *Table) Select(names []string) ([][]float64, error) {
	if missing := t.Missing(names); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	positions := make([]int, len(names))
	for i, name := range names {
		positions[i] = t.Index(name)
	}
	rows := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		selected := make([]float64, len(positions))
		for j, pos := range positions {
			selected[j] = row[pos]
		}
		rows[i] = selected
	}
	return rows, nil
}

// MissingColumnsError reports features a predictor needs but the table lacks.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing feature columns: " + strings.Join(e.Columns, ", ")
}

// Predictor produces one label per table row.
type Predictor interface {
	Predict(t *Table) ([]float64, error)
}

// ProbabilityPredictor is the optional capability of returning per-class probabilities.
// Probabilities are ordered like Classes.
type ProbabilityPredictor interface {
	Predictor
	PredictProba(t *Table) ([][]float64, error)
	Classes() []float64
}

// FeatureNamer is implemented by predictors that declare the columns they consume.
type FeatureNamer interface {
	Features() []string
}

// probabilityFlag lets wrappers report whether the probability methods they carry work.
type probabilityFlag interface {
	HasProbability() bool
}

// Probabilistic reports whether p supports PredictProba and returns it as such.
func Probabilistic(p Predictor) (ProbabilityPredictor, bool) {
	pp, ok := p.(ProbabilityPredictor)
	if !ok {
		return nil, false
	}
	if flag, ok := p.(probabilityFlag); ok && !flag.HasProbability() {
		return nil, false
	}
	return pp, true
}

// Features returns the columns p declares, or nil when it consumes the table as is.
func Features(p Predictor) []string {
	if namer, ok := p.(FeatureNamer); ok {
		return namer.Features()
	}
	return nil
}

// design aligns t to the predictor's feature names, or checks its width when unnamed.
func design(t *Table, names []string, width int) ([][]float64, error) {
	if len(names) > 0 {
		return t.Select(names)
	}
	if width > 0 && len(t.Columns) != width {
		return nil, fmt.Errorf("expected %d features, got %d", width, len(t.Columns))
	}
	return t.Rows, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func labelsFromProba(proba [][]float64, classes []float64) []float64 {
	labels := make([]float64, len(proba))
	for i, row := range proba {
		labels[i] = classes[argmax(row)]
	}
	return labels
}
