package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTarget(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"best_meta_LDL.json": `{"best_model_path": "ldl.json", "scaler_path": "scaler.json",
			"feature_columns": ["age", "bmi"], "target": "LDL"}`,
		"ldl.json":    `{"kind": "linear_regression", "coef": [1, 2], "intercept": 0}`,
		"scaler.json": `{"kind": "standard_scaler", "mean": [40, 20], "scale": [10, 5]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "best_meta_LDL.json")
}

func TestRunPrintsPrediction(t *testing.T) {
	meta := writeTarget(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{meta, `{"bmi": 30, "age": 50, "extra": 1}`}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d: %s %s", code, stdout.String(), stderr.String())
	}
	var out map[string]float64
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid output %q: %v", stdout.String(), err)
	}
	// (50-40)/10 + 2*(30-20)/5
	if out["LDL"] != 5 {
		t.Errorf("unexpected output %v", out)
	}
}

func TestRunReportsErrors(t *testing.T) {
	meta := writeTarget(t)
	tests := map[string][]string{
		"usage":           {meta},
		"missing feature": {meta, `{"age": 50}`},
		"missing meta":    {filepath.Join(t.TempDir(), "best_meta_x.json"), `{"age": 1, "bmi": 2}`},
		"batch":           {meta, `[{"age": 1, "bmi": 2}, {"age": 1, "bmi": 2}]`},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(args, &stdout, &stderr); code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if !strings.HasPrefix(stdout.String(), `{"error":`) {
				t.Errorf("unexpected output %q", stdout.String())
			}
		})
	}
}
