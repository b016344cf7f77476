package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"healthrisk/ml"
)

var targetPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Meta describes the best model trained for a regression or classification target.
type Meta struct {
	BestModelPath  string   `json:"best_model_path"`
	ScalerPath     string   `json:"scaler_path"`
	FeatureColumns []string `json:"feature_columns"`
	Target         string   `json:"target"`
}

// MetaPath is the metadata file of target inside dir.
func MetaPath(dir, target string) (string, error) {
	if !targetPattern.MatchString(target) {
		return "", invalidInput("Invalid target name %q", target)
	}
	return filepath.Join(dir, "best_meta_"+target+".json"), nil
}

// LoadMeta reads a metadata file. Relative model and scaler paths are
// resolved against the metadata file's directory.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no metadata at %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelFormat, path, err)
	}
	if len(meta.FeatureColumns) == 0 {
		return nil, fmt.Errorf("%w: %s: metadata missing feature_columns", ErrModelFormat, path)
	}
	if meta.Target == "" {
		return nil, fmt.Errorf("%w: %s: metadata missing target", ErrModelFormat, path)
	}
	if meta.BestModelPath == "" {
		return nil, fmt.Errorf("%w: %s: metadata missing best_model_path", ErrModelNotFound, path)
	}
	base := filepath.Dir(path)
	meta.BestModelPath = resolve(base, meta.BestModelPath)
	if meta.ScalerPath != "" {
		meta.ScalerPath = resolve(base, meta.ScalerPath)
	}
	return &meta, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

type targetModel struct {
	predictor ml.Predictor
	// scaler is nil when the metadata names none or its file is absent.
	scaler ml.Transformer
}

// TargetPredictor serves single-record predictions described by metadata
// files. Unlike the model cache it is bounded and evicts.
type TargetPredictor struct {
	models *lru.Cache[string, *targetModel]
	group  singleflight.Group
	logger *zap.Logger
}

// NewTargetPredictor keeps up to size models. A non-positive size means 16.
func NewTargetPredictor(size int, logger *zap.Logger) (*TargetPredictor, error) {
	if size <= 0 {
		size = 16
	}
	models, err := lru.New[string, *targetModel](size)
	if err != nil {
		return nil, err
	}
	return &TargetPredictor{models: models, logger: logger}, nil
}

// Predict builds one row in the metadata's column order, scales it when a
// scaler is present and returns the first prediction keyed by target.
func (p *TargetPredictor) Predict(metaPath string, record Record) (map[string]float64, error) {
	meta, err := LoadMeta(metaPath)
	if err != nil {
		return nil, err
	}
	model, err := p.load(meta)
	if err != nil {
		return nil, err
	}

	table, err := Normalize([]Record{record.Only(meta.FeatureColumns)})
	if err != nil && !errors.Is(err, ErrNoInput) {
		return nil, err
	}
	if table == nil {
		table = &ml.Table{}
	}
	if err := Require(table, meta.FeatureColumns); err != nil {
		return nil, err
	}
	rows, err := table.Select(meta.FeatureColumns)
	if err != nil {
		return nil, err
	}
	table = &ml.Table{Columns: meta.FeatureColumns, Rows: rows}

	var out []float64
	err = guard(func() error {
		if model.scaler != nil {
			if table, err = model.scaler.Transform(table); err != nil {
				return err
			}
		}
		out, err = model.predictor.Predict(table)
		return err
	})
	if err == nil && len(out) == 0 {
		err = errors.New("predictor returned no output")
	}
	if err != nil {
		return nil, &PredictionError{Model: meta.Target, Err: err}
	}
	return map[string]float64{meta.Target: out[0]}, nil
}

func (p *TargetPredictor) load(meta *Meta) (*targetModel, error) {
	key := meta.BestModelPath + "|" + meta.ScalerPath
	if m, ok := p.models.Get(key); ok {
		return m, nil
	}
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		predictor, source, err := ReadArtifact(meta.BestModelPath)
		if err != nil {
			return nil, err
		}
		m := &targetModel{predictor: predictor}
		if meta.ScalerPath != "" {
			if m.scaler, err = readScaler(meta.ScalerPath); err != nil {
				return nil, err
			}
		}
		// A scaler that is named but absent may still appear, so only
		// complete models are kept.
		if meta.ScalerPath == "" || m.scaler != nil {
			p.models.Add(key, m)
		}
		p.logger.Info("target model loaded",
			zap.String("target", meta.Target),
			zap.String("path", meta.BestModelPath),
			zap.String("source", source),
			zap.Bool("scaled", m.scaler != nil),
		)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*targetModel), nil
}

// readScaler returns nil, nil when the scaler file is absent.
func readScaler(path string) (ml.Transformer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	scaler, err := ml.DecodeTransformer(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelFormat, path, err)
	}
	return scaler, nil
}
