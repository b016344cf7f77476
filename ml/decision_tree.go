package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one entry of a flattened binary tree. Rows with
// row[FeatureIdx] <= Threshold go left. Leaves carry Value: a class
// distribution for classification trees, a single output for regression trees.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	Value      []float64 `json:"value,omitempty"`
	IsLeaf     bool      `json:"is_leaf"`
}

// Tree is a flattened tree rooted at node 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (tr *Tree) validate(width int) error {
	if len(tr.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range tr.Nodes {
		if node.IsLeaf {
			if len(node.Value) != width {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(node.Value), width)
			}
			continue
		}
		if node.LeftChild <= i || node.LeftChild >= len(tr.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(tr.Nodes) {
			return fmt.Errorf("node %d has out of range children", i)
		}
	}
	return nil
}

// leaf walks the tree for one row. Children always point forward, so the walk terminates.
func (tr *Tree) leaf(features []float64) (TreeNode, error) {
	idx := 0
	for {
		node := tr.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(tr.Nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}

// distribution returns the leaf's class weights normalized to sum to one.
func (tr *Tree) distribution(features []float64) ([]float64, error) {
	node, err := tr.leaf(features)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range node.Value {
		total += v
	}
	out := make([]float64, len(node.Value))
	for i, v := range node.Value {
		if total > 0 {
			out[i] = v / total
		} else {
			out[i] = 1 / float64(len(node.Value))
		}
	}
	return out, nil
}

// DecisionTree is a single fitted tree. With classes it classifies,
// without them it regresses on the leaf's first value.
type DecisionTree struct {
	Tree
	ClassValues  []float64 `json:"classes,omitempty"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

func (dt *DecisionTree) validate() error {
	width := len(dt.ClassValues)
	if width == 0 {
		width = 1
	}
	return dt.Tree.validate(width)
}

func (dt *DecisionTree) Predict(t *Table) ([]float64, error) {
	if len(dt.ClassValues) > 0 {
		proba, err := dt.PredictProba(t)
		if err != nil {
			return nil, err
		}
		return labelsFromProba(proba, dt.ClassValues), nil
	}
	rows, err := design(t, dt.FeatureNames, 0)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		node, err := dt.leaf(row)
		if err != nil {
			return nil, err
		}
		out[i] = node.Value[0]
	}
	return out, nil
}

func (dt *DecisionTree) PredictProba(t *Table) ([][]float64, error) {
	if !dt.HasProbability() {
		return nil, errors.New("regression tree has no class probabilities")
	}
	rows, err := design(t, dt.FeatureNames, 0)
	if err != nil {
		return nil, err
	}
	proba := make([][]float64, len(rows))
	for i, row := range rows {
		if proba[i], err = dt.distribution(row); err != nil {
			return nil, err
		}
	}
	return proba, nil
}

func (dt *DecisionTree) HasProbability() bool { return len(dt.ClassValues) > 0 }

func (dt *DecisionTree) Classes() []float64 { return dt.ClassValues }

func (dt *DecisionTree) Features() []string { return dt.FeatureNames }
