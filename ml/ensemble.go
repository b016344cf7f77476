package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the leaf class distributions of its trees.
type RandomForest struct {
	Trees        []Tree    `json:"trees"`
	ClassValues  []float64 `json:"classes"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

func (rf *RandomForest) validate() error {
	if len(rf.Trees) == 0 {
		return errors.New("random forest has no trees")
	}
	if len(rf.ClassValues) < 2 {
		return errors.New("random forest needs at least two classes")
	}
	for i := range rf.Trees {
		if err := rf.Trees[i].validate(len(rf.ClassValues)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (rf *RandomForest) Predict(t *Table) ([]float64, error) {
	proba, err := rf.PredictProba(t)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, rf.ClassValues), nil
}

func (rf *RandomForest) PredictProba(t *Table) ([][]float64, error) {
	rows, err := design(t, rf.FeatureNames, 0)
	if err != nil {
		return nil, err
	}
	proba := make([][]float64, len(rows))
	for i, row := range rows {
		mean := make([]float64, len(rf.ClassValues))
		for j := range rf.Trees {
			dist, err := rf.Trees[j].distribution(row)
			if err != nil {
				return nil, err
			}
			for k, p := range dist {
				mean[k] += p
			}
		}
		for k := range mean {
			mean[k] /= float64(len(rf.Trees))
		}
		proba[i] = mean
	}
	return proba, nil
}

func (rf *RandomForest) Classes() []float64 { return rf.ClassValues }

func (rf *RandomForest) Features() []string { return rf.FeatureNames }

// GradientBoosting sums staged regression trees onto an initial score.
// Binary models have one tree per stage scoring the log-odds of the second
// class; multiclass models have one tree per class per stage.
type GradientBoosting struct {
	Init         []float64 `json:"init"`
	LearningRate float64   `json:"learning_rate"`
	Stages       [][]Tree  `json:"stages"`
	ClassValues  []float64 `json:"classes"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

func (gb *GradientBoosting) outputs() int {
	if len(gb.ClassValues) == 2 {
		return 1
	}
	return len(gb.ClassValues)
}

func (gb *GradientBoosting) validate() error {
	if len(gb.ClassValues) < 2 {
		return errors.New("gradient boosting needs at least two classes")
	}
	if len(gb.Stages) == 0 {
		return errors.New("gradient boosting has no stages")
	}
	if gb.LearningRate <= 0 {
		return errors.New("learning rate must be positive")
	}
	k := gb.outputs()
	if len(gb.Init) != k {
		return fmt.Errorf("expected %d initial scores, got %d", k, len(gb.Init))
	}
	for i, stage := range gb.Stages {
		if len(stage) != k {
			return fmt.Errorf("stage %d has %d trees, want %d", i, len(stage), k)
		}
		for j := range stage {
			if err := stage[j].validate(1); err != nil {
				return fmt.Errorf("stage %d tree %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func (gb *GradientBoosting) Predict(t *Table) ([]float64, error) {
	proba, err := gb.PredictProba(t)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, gb.ClassValues), nil
}

func (gb *GradientBoosting) PredictProba(t *Table) ([][]float64, error) {
	rows, err := design(t, gb.FeatureNames, 0)
	if err != nil {
		return nil, err
	}
	proba := make([][]float64, len(rows))
	for i, row := range rows {
		scores := append([]float64(nil), gb.Init...)
		for _, stage := range gb.Stages {
			for k := range stage {
				node, err := stage[k].leaf(row)
				if err != nil {
					return nil, err
				}
				scores[k] += gb.LearningRate * node.Value[0]
			}
		}
		if len(gb.ClassValues) == 2 {
			p := sigmoid(scores[0])
			proba[i] = []float64{1 - p, p}
		} else {
			proba[i] = softmax(scores)
		}
	}
	return proba, nil
}

func (gb *GradientBoosting) Classes() []float64 { return gb.ClassValues }

func (gb *GradientBoosting) Features() []string { return gb.FeatureNames }
