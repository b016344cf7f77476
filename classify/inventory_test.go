package classify

import (
	"context"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestIsArtifact(t *testing.T) {
	tests := map[string]bool{
		"classifier_BP_Class__GradientBoosting.json": true,
		"classifier_BP_Class__GradientBoosting.pkl":  false,
		"classifier_BP_Class.json":                   false,
		"classifier___GradientBoosting.json":         false,
		"best_meta_HbA1c.json":                       false,
	}
	for name, want := range tests {
		if got := IsArtifact(name); got != want {
			t.Errorf("IsArtifact(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInventoryScan(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, bpBoosting, boostingDoc)
	writeFile(t, dir, "notes.txt", "hello")

	files, err := NewInventory(dir, zap.NewNop()).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(files, []string{ArtifactName(bpBoosting)}) {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestInventoryWatch(t *testing.T) {
	dir := t.TempDir()
	inventory := NewInventory(dir, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := inventory.Watch(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeArtifact(t, dir, bpBoosting, boostingDoc)
	deadline := time.Now().Add(3 * time.Second)
	for inventory.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("inventory did not observe the new artifact")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
