package classify

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"healthrisk/ml"
	"healthrisk/monitoring"
)

// BinaryClassLabels names the classes of two-class results, negative first.
var BinaryClassLabels = []string{"Negative", "Positive"}

// Result is the outcome of one prediction call.
type Result struct {
	Key    ModelKey
	Labels []float64
	// Probabilities is nil when the model has none to offer.
	Probabilities [][]float64
	ClassLabels   []string
}

// Slot is one isolated entry of a batch dispatch: either Result or Err is set.
type Slot struct {
	Key    ModelKey
	Result *Result
	Err    error
}

// Dispatcher runs cached models against feature tables.
type Dispatcher struct {
	catalog *Catalog
	cache   *Cache
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

func NewDispatcher(catalog *Catalog, cache *Cache, logger *zap.Logger, metrics *monitoring.Metrics) *Dispatcher {
	return &Dispatcher{catalog: catalog, cache: cache, logger: logger, metrics: metrics}
}

// Predict runs model on table. Probabilities are attached when the model
// declares them and computing them succeeds; their failure is not an error.
func (d *Dispatcher) Predict(model *LoadedModel, table *ml.Table) (*Result, error) {
	if err := Require(table, model.Features); err != nil {
		return nil, err
	}
	start := time.Now()
	labels, err := d.labels(model, table)
	d.metrics.ObservePrediction(string(model.Key.Classifier), string(model.Key.Model), time.Since(start), err)
	if err != nil {
		d.logger.Error("prediction failed", zap.Stringer("key", model.Key), zap.Error(err))
		return nil, err
	}

	result := &Result{Key: model.Key, Labels: labels}
	if proba, ok := d.probabilities(model, table); ok {
		result.Probabilities = proba
		if len(model.Proba.Classes()) == 2 {
			result.ClassLabels = BinaryClassLabels
		}
	}
	return result, nil
}

func (d *Dispatcher) labels(model *LoadedModel, table *ml.Table) ([]float64, error) {
	var labels []float64
	err := guard(func() (err error) {
		labels, err = model.Predictor.Predict(table)
		return err
	})
	if err == nil && len(labels) != table.Len() {
		err = fmt.Errorf("predictor returned %d labels for %d rows", len(labels), table.Len())
	}
	if err != nil {
		return nil, &PredictionError{Model: model.Key.String(), Err: err}
	}
	return labels, nil
}

func (d *Dispatcher) probabilities(model *LoadedModel, table *ml.Table) ([][]float64, bool) {
	if !model.HasProbability() {
		return nil, false
	}
	var proba [][]float64
	err := guard(func() (err error) {
		proba, err = model.Proba.PredictProba(table)
		return err
	})
	if err != nil {
		d.logger.Warn("could not get probabilities", zap.Stringer("key", model.Key), zap.Error(err))
		return nil, false
	}
	return proba, true
}

// PredictKey loads the model for key through the cache and runs it.
func (d *Dispatcher) PredictKey(key ModelKey, table *ml.Table) (*Result, error) {
	model, err := d.cache.GetOrLoad(key.Classifier, key.Model)
	if err != nil {
		return nil, err
	}
	return d.Predict(model, table)
}

// PredictAll runs every classifier's default model, in catalog order.
// A non-nil inputErr is the reason table could not be built: each model is
// still loaded so a missing artifact is reported first, then the slot
// carries inputErr instead of a prediction.
func (d *Dispatcher) PredictAll(table *ml.Table, inputErr error) []Slot {
	classifiers := d.catalog.Classifiers()
	slots := make([]Slot, 0, len(classifiers))
	for _, name := range classifiers {
		model, _ := d.catalog.Default(name)
		slots = append(slots, d.slot(ModelKey{Classifier: name, Model: model}, table, inputErr))
	}
	return slots
}

// CompareModels runs every model type of one classifier.
func (d *Dispatcher) CompareModels(classifier ClassifierName, table *ml.Table) []Slot {
	models := d.catalog.Models(classifier)
	slots := make([]Slot, 0, len(models))
	for _, model := range models {
		slots = append(slots, d.slot(ModelKey{Classifier: classifier, Model: model}, table, nil))
	}
	return slots
}

func (d *Dispatcher) slot(key ModelKey, table *ml.Table, inputErr error) Slot {
	model, err := d.cache.GetOrLoad(key.Classifier, key.Model)
	if err == nil {
		err = inputErr
	}
	var result *Result
	if err == nil {
		result, err = d.Predict(model, table)
	}
	if err != nil {
		d.logger.Warn("batch entry failed", zap.Stringer("key", key), zap.Error(err))
		return Slot{Key: key, Err: err}
	}
	return Slot{Key: key, Result: result}
}

// guard converts a predictor panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()
	return fn()
}
