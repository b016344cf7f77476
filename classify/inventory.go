package classify

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Inventory tracks which model artifacts are present in the model directory.
// It only observes the disk; cached models are never replaced.
type Inventory struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	files map[string]struct{}
}

// NewInventory tracks nothing until Scan or Watch is called.
func NewInventory(dir string, logger *zap.Logger) *Inventory {
	return &Inventory{dir: dir, logger: logger, files: make(map[string]struct{})}
}

// IsArtifact reports whether name follows the classifier_<Classifier>__<ModelType> convention.
func IsArtifact(name string) bool {
	if !strings.HasPrefix(name, "classifier_") || !strings.HasSuffix(name, ArtifactExt) {
		return false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(name, "classifier_"), ArtifactExt)
	classifier, model, ok := strings.Cut(middle, "__")
	return ok && classifier != "" && model != ""
}

// Scan replaces the tracked set with the artifacts currently in the directory.
func (i *Inventory) Scan() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.IsDir() && IsArtifact(entry.Name()) {
			files[entry.Name()] = struct{}{}
		}
	}
	i.mu.Lock()
	i.files = files
	i.mu.Unlock()
	return i.Files(), nil
}

// Files returns the tracked artifact names, sorted.
func (i *Inventory) Files() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.files))
	for name := range i.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count is the number of tracked artifacts.
func (i *Inventory) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.files)
}

// Watch keeps the inventory current until ctx is done. It returns once the
// watcher is installed.
func (i *Inventory) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(i.dir); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				i.apply(event)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				i.logger.Warn("model directory watch error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (i *Inventory) apply(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !IsArtifact(name) {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(i.files, name)
		i.logger.Info("model artifact removed", zap.String("file", name))
	case event.Has(fsnotify.Create):
		i.files[name] = struct{}{}
		i.logger.Info("model artifact added", zap.String("file", name))
	case event.Has(fsnotify.Write):
		if _, ok := i.files[name]; !ok {
			i.files[name] = struct{}{}
		}
		i.logger.Debug("model artifact written", zap.String("file", name))
	}
}
