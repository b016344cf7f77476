package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"healthrisk/ml"
)

// ArtifactExt is the extension of serialized predictor files.
const ArtifactExt = ".json"

// containerKeys are tried in this order; the first one present wins.
var containerKeys = []string{"model", "pipeline", "classifier", "estimator"}

// LoadedModel is a decoded predictor and its declared capabilities. It is read-only once built.
type LoadedModel struct {
	Key       ModelKey
	Predictor ml.Predictor
	// Proba is nil when the predictor has no probability capability.
	Proba    ml.ProbabilityPredictor
	Features []string
	// Source is "direct" or the container key the predictor was taken from.
	Source string
}

func (m *LoadedModel) HasProbability() bool { return m.Proba != nil }

func newLoadedModel(key ModelKey, predictor ml.Predictor, source string) *LoadedModel {
	m := &LoadedModel{
		Key:       key,
		Predictor: predictor,
		Features:  ml.Features(predictor),
		Source:    source,
	}
	if proba, ok := ml.Probabilistic(predictor); ok {
		m.Proba = proba
	}
	return m
}

// Store reads model artifacts from a directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir is the artifact directory.
func (s *Store) Dir() string { return s.dir }

// ArtifactName is the file name of a model's artifact.
func ArtifactName(key ModelKey) string {
	return fmt.Sprintf("classifier_%s__%s%s", key.Classifier, key.Model, ArtifactExt)
}

// Path is where the artifact for key lives.
func (s *Store) Path(key ModelKey) string {
	return filepath.Join(s.dir, ArtifactName(key))
}

// Load reads and decodes the artifact for key.
func (s *Store) Load(key ModelKey) (*LoadedModel, error) {
	path := s.Path(key)
	predictor, source, err := ReadArtifact(path)
	if err != nil {
		s.logger.Warn("model load failed", zap.Stringer("key", key), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	model := newLoadedModel(key, predictor, source)
	s.logger.Info("model loaded",
		zap.Stringer("key", key),
		zap.String("source", source),
		zap.Bool("has_predict_proba", model.HasProbability()),
	)
	return model, nil
}

// ReadArtifact reads one serialized predictor file and unwraps it.
func ReadArtifact(path string) (ml.Predictor, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	predictor, source, err := Unwrap(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return predictor, source, nil
}

// Unwrap decodes a document that is either a predictor (it has a kind
// field) or a container holding a predictor under one of the container keys.
func Unwrap(data []byte) (ml.Predictor, string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return nil, "", fmt.Errorf("%w: document is not a JSON object", ErrModelFormat)
	}
	if _, ok := doc["kind"]; ok {
		predictor, err := ml.Decode(data)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrModelFormat, err)
		}
		return predictor, "direct", nil
	}
	for _, key := range containerKeys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		predictor, err := ml.Decode(raw)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q key: %v", ErrModelFormat, key, err)
		}
		return predictor, key, nil
	}
	found := make([]string, 0, len(doc))
	for key := range doc {
		found = append(found, key)
	}
	sort.Strings(found)
	return nil, "", fmt.Errorf("%w: container holds none of the keys model, pipeline, classifier, estimator. Found: [%s]",
		ErrModelFormat, join(found))
}
