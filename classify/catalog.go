// Package classify loads, caches and dispatches the health-risk classifiers.
package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ClassifierName names a predicted health-risk category.
type ClassifierName string

// ModelType names the algorithm family a classifier's model was trained with.
type ModelType string

const (
	BPClass           ClassifierName = "BP_Class"
	DiabetesClass     ClassifierName = "Diabetes_Class"
	DyslipidemiaClass ClassifierName = "Dyslipidemia_Class"

	GradientBoosting   ModelType = "GradientBoosting"
	LogisticRegression ModelType = "LogisticRegression"
	RandomForest       ModelType = "RandomForest"
)

// ModelKey identifies one trained model.
type ModelKey struct {
	Classifier ClassifierName
	Model      ModelType
}

func (k ModelKey) String() string {
	return string(k.Classifier) + "__" + string(k.Model)
}

// Entry declares one classifier, its model types and its default model type.
type Entry struct {
	Name    ClassifierName
	Models  []ModelType
	Default ModelType
}

// Catalog is the fixed set of classifiers served by the process. It is never modified after construction.
type Catalog struct {
	entries []Entry
	index   map[ClassifierName]int
}

// NewCatalog validates entries and keeps them in the given order.
func NewCatalog(entries ...Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog needs at least one classifier")
	}
	c := &Catalog{index: make(map[ClassifierName]int, len(entries))}
	for _, entry := range entries {
		if _, dup := c.index[entry.Name]; dup {
			return nil, fmt.Errorf("classifier %s declared twice", entry.Name)
		}
		if !containsModel(entry.Models, entry.Default) {
			return nil, fmt.Errorf("default model %s is not a model of %s", entry.Default, entry.Name)
		}
		entry.Models = append([]ModelType(nil), entry.Models...)
		c.index[entry.Name] = len(c.entries)
		c.entries = append(c.entries, entry)
	}
	return c, nil
}

// DefaultCatalog returns the blood pressure, diabetes and dyslipidemia classifiers.
func DefaultCatalog() *Catalog {
	models := []ModelType{GradientBoosting, LogisticRegression, RandomForest}
	c, err := NewCatalog(
		Entry{Name: BPClass, Models: models, Default: GradientBoosting},
		Entry{Name: DiabetesClass, Models: models, Default: GradientBoosting},
		Entry{Name: DyslipidemiaClass, Models: models, Default: GradientBoosting},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Classifiers lists classifier names in catalog order.
func (c *Catalog) Classifiers() []ClassifierName {
	names := make([]ClassifierName, len(c.entries))
	for i, entry := range c.entries {
		names[i] = entry.Name
	}
	return names
}

// Models returns a copy of the model types of name, or nil for an unknown name.
func (c *Catalog) Models(name ClassifierName) []ModelType {
	i, ok := c.index[name]
	if !ok {
		return nil
	}
	return append([]ModelType(nil), c.entries[i].Models...)
}

// Default is the model type used when a request names none.
func (c *Catalog) Default(name ClassifierName) (ModelType, bool) {
	i, ok := c.index[name]
	if !ok {
		return "", false
	}
	return c.entries[i].Default, true
}

// Size is the number of (classifier, model type) pairs.
func (c *Catalog) Size() int {
	n := 0
	for _, entry := range c.entries {
		n += len(entry.Models)
	}
	return n
}

// Contains reports whether key is a catalog pair.
func (c *Catalog) Contains(key ModelKey) bool {
	i, ok := c.index[key.Classifier]
	return ok && containsModel(c.entries[i].Models, key.Model)
}

// Classifier validates a classifier name from a request.
func (c *Catalog) Classifier(name string) (ClassifierName, error) {
	if _, ok := c.index[ClassifierName(name)]; !ok {
		return "", invalidInput("Invalid classifier. Must be one of: %s", join(c.Classifiers()))
	}
	return ClassifierName(name), nil
}

// Resolve validates a classifier and model type from a request. An empty
// model type selects the classifier's default.
func (c *Catalog) Resolve(classifier, model string) (ModelKey, error) {
	name, err := c.Classifier(classifier)
	if err != nil {
		return ModelKey{}, err
	}
	entry := c.entries[c.index[name]]
	if model == "" {
		return ModelKey{Classifier: name, Model: entry.Default}, nil
	}
	if !containsModel(entry.Models, ModelType(model)) {
		return ModelKey{}, invalidInput("Invalid model type. Must be one of: %s", join(entry.Models))
	}
	return ModelKey{Classifier: name, Model: ModelType(model)}, nil
}

func containsModel(models []ModelType, model ModelType) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
