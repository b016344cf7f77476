package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned for documents whose kind names no predictor.
var ErrUnknownKind = errors.New("unknown predictor kind")

type validator interface {
	validate() error
}

var estimators = map[string]func() Predictor{
	"logistic_regression": func() Predictor { return &LogisticRegression{} },
	"linear_regression":   func() Predictor { return &LinearRegression{} },
	"decision_tree":       func() Predictor { return &DecisionTree{} },
	"random_forest":       func() Predictor { return &RandomForest{} },
	"gradient_boosting":   func() Predictor { return &GradientBoosting{} },
}

var transformers = map[string]func() Transformer{
	"standard_scaler": func() Transformer { return &StandardScaler{} },
}

type header struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Decode builds a predictor from its JSON document, dispatching on the kind field.
func Decode(data []byte) (Predictor, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	if h.Kind == "pipeline" {
		return decodePipeline(data)
	}
	factory, ok := estimators[h.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Kind)
	}
	model := factory()
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Kind, err)
	}
	if v, ok := model.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", h.Kind, err)
		}
	}
	return model, nil
}

// DecodeTransformer builds a transformer from its JSON document.
func DecodeTransformer(data []byte) (Transformer, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	factory, ok := transformers[h.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Kind)
	}
	t := factory()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Kind, err)
	}
	if v, ok := t.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", h.Kind, err)
		}
	}
	return t, nil
}

func decodePipeline(data []byte) (Predictor, error) {
	var doc struct {
		Steps []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, errors.New("invalid pipeline: no steps")
	}
	p := &Pipeline{}
	last := len(doc.Steps) - 1
	for i, raw := range doc.Steps {
		var h header
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i, err)
		}
		if i == last {
			estimator, err := Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("pipeline step %s: %w", h.Name, err)
			}
			p.Estimator = estimator
			break
		}
		t, err := DecodeTransformer(raw)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %s: %w", h.Name, err)
		}
		p.Steps = append(p.Steps, Step{Name: h.Name, Transformer: t})
	}
	return p, nil
}
