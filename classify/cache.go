package classify

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"healthrisk/monitoring"
)

// Loader produces a model for a key. *Store is the production Loader.
type Loader interface {
	Load(key ModelKey) (*LoadedModel, error)
}

// Cache holds every model loaded so far. Its capacity equals the catalog
// size and only catalog keys are admitted, so nothing is ever evicted.
type Cache struct {
	catalog *Catalog
	loader  Loader
	entries *lru.Cache[ModelKey, *LoadedModel]
	group   singleflight.Group
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewCache sizes the cache to the catalog so no loaded model is evicted.
func NewCache(catalog *Catalog, loader Loader, logger *zap.Logger, metrics *monitoring.Metrics) (*Cache, error) {
	entries, err := lru.New[ModelKey, *LoadedModel](catalog.Size())
	if err != nil {
		return nil, err
	}
	return &Cache{
		catalog: catalog,
		loader:  loader,
		entries: entries,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// GetOrLoad returns the cached model for the pair, loading it on first use.
// Concurrent misses on one key share a single load; failures are not cached.
func (c *Cache) GetOrLoad(classifier ClassifierName, model ModelType) (*LoadedModel, error) {
	key := ModelKey{Classifier: classifier, Model: model}
	if !c.catalog.Contains(key) {
		return nil, invalidInput("unknown model %s", key)
	}
	if m, ok := c.entries.Get(key); ok {
		return m, nil
	}
	v, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		if m, ok := c.entries.Get(key); ok {
			return m, nil
		}
		m, err := c.loader.Load(key)
		c.metrics.ObserveLoad(string(key.Classifier), string(key.Model), err)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, m)
		c.metrics.SetCacheEntries(c.entries.Len())
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight model load", zap.Stringer("key", key))
	}
	return v.(*LoadedModel), nil
}

// Len is the number of models loaded.
func (c *Cache) Len() int {
	return c.entries.Len()
}
