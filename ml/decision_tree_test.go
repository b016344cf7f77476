package ml

import (
	"math"
	"testing"
)

// stump splits on feature 0 at 0.5.
func stump(left, right []float64) Tree {
	return Tree{Nodes: []TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: left, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: right, IsLeaf: true},
	}}
}

func TestDecisionTreePredict(t *testing.T) {
	model := &DecisionTree{
		Tree:        stump([]float64{8, 2}, []float64{1, 3}),
		ClassValues: []float64{0, 1},
	}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := &Table{Columns: []string{"x"}, Rows: [][]float64{{0.15}, {0.9}}}
	labels, err := model.Predict(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("unexpected labels: %v", labels)
	}
	proba, err := model.PredictProba(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[0][0]-0.8) > 1e-9 || math.Abs(proba[1][1]-0.75) > 1e-9 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
}

func TestDecisionTreeRegression(t *testing.T) {
	model := &DecisionTree{Tree: stump([]float64{5.5}, []float64{7})}
	if err := model.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := Probabilistic(model); ok {
		t.Fatal("regression tree should not report probabilities")
	}
	out, err := model.Predict(&Table{Columns: []string{"x"}, Rows: [][]float64{{1}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != 7 {
		t.Fatalf("expected 7, got %v", out[0])
	}
}

func TestTreeValidateRejectsBackwardChildren(t *testing.T) {
	tree := Tree{Nodes: []TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 1},
		{IsLeaf: true, Value: []float64{1}},
	}}
	if err := tree.validate(1); err == nil {
		t.Fatal("expected error for self-referencing node")
	}
}

func TestTreeFeatureIndexOutOfRange(t *testing.T) {
	tree := Tree{Nodes: []TreeNode{
		{FeatureIdx: 3, Threshold: 1, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: []float64{1}},
		{IsLeaf: true, Value: []float64{2}},
	}}
	if _, err := tree.leaf([]float64{0.1}); err == nil {
		t.Fatal("expected error for feature index out of range")
	}
}
