package classify

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"healthrisk/ml"
)

const logisticDoc = `{
  "kind": "logistic_regression",
  "coef": [[0.05, 0.1, 0.02]],
  "intercept": [-9],
  "classes": [0, 1],
  "feature_names": ["age", "bmi", "systolic"]
}`

const boostingDoc = `{
  "kind": "gradient_boosting",
  "init": [0],
  "learning_rate": 0.5,
  "classes": [0, 1],
  "feature_names": ["age"],
  "stages": [[{"nodes": [
    {"feature_idx": 0, "threshold": 50, "left_child": 1, "right_child": 2},
    {"is_leaf": true, "value": [-2]},
    {"is_leaf": true, "value": [2]}
  ]}]]
}`

const forestDoc = `{
  "kind": "random_forest",
  "classes": [0, 1],
  "feature_names": ["systolic"],
  "trees": [{"nodes": [
    {"feature_idx": 0, "threshold": 140, "left_child": 1, "right_child": 2},
    {"is_leaf": true, "value": [9, 1]},
    {"is_leaf": true, "value": [2, 8]}
  ]}]
}`

var sampleBody = []byte(`{"age": 45, "bmi": 27.3, "systolic": 130}`)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeArtifact(t *testing.T, dir string, key ModelKey, doc string) {
	t.Helper()
	writeFile(t, dir, ArtifactName(key), doc)
}

// writeAllArtifacts writes a valid artifact for every catalog pair.
func writeAllArtifacts(t *testing.T, dir string, catalog *Catalog) {
	t.Helper()
	docs := map[ModelType]string{
		GradientBoosting:   boostingDoc,
		LogisticRegression: logisticDoc,
		RandomForest:       forestDoc,
	}
	for _, name := range catalog.Classifiers() {
		for _, model := range catalog.Models(name) {
			writeArtifact(t, dir, ModelKey{Classifier: name, Model: model}, docs[model])
		}
	}
}

func newTestDispatcher(t *testing.T, dir string) (*Cache, *Dispatcher) {
	t.Helper()
	catalog := DefaultCatalog()
	cache, err := NewCache(catalog, NewStore(dir, zap.NewNop()), zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cache, NewDispatcher(catalog, cache, zap.NewNop(), nil)
}

func sampleTable(t *testing.T) *ml.Table {
	t.Helper()
	records, err := ParseRecords(sampleBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table, err := Normalize(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return table
}
