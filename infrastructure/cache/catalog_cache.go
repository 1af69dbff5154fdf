package cache

import (
	"context"
	"sync"

	"miragepos/models"
)

// CatalogCache is a read-through copy of the product list. Any refresh hint
// or local mutation drops it; the next read reloads from the store.
type CatalogCache struct {
	mu       sync.RWMutex
	products []models.Product
	loaded   bool
	// bumped on every invalidation so a load racing one is not stored
	generation uint64
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{}
}

// Products returns the cached list, calling load on a miss.
func (c *CatalogCache) Products(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	c.mu.RLock()
	if c.loaded {
		out := append([]models.Product(nil), c.products...)
		c.mu.RUnlock()
		return out, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	products, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.products = products
		c.loaded = true
	}
	c.mu.Unlock()
	return append([]models.Product(nil), products...), nil
}

func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.loaded = false
	c.generation++
}

// Follow invalidates the cache for every hint until hints closes.
func (c *CatalogCache) Follow(hints <-chan string) {
	for range hints {
		c.Invalidate()
	}
}
