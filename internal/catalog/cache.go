package catalog

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Fetcher loads the catalog of one annotation type (taxonomy).
type Fetcher interface {
	FetchCatalog(ctx context.Context, typeID string) (*Catalog, error)
}

type FetcherFunc func(ctx context.Context, typeID string) (*Catalog, error)

func (f FetcherFunc) FetchCatalog(ctx context.Context, typeID string) (*Catalog, error) {
	return f(ctx, typeID)
}

const DefaultCacheSize = 16

// Cache memoises catalogs per taxonomy. Failed fetches are not cached.
type Cache struct {
	fetch Fetcher
	lru   *lru.Cache[string, *Catalog]
}

func NewCache(f Fetcher, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Catalog](size)
	if err != nil {
		return nil, fmt.Errorf("create catalog cache: %w", err)
	}
	return &Cache{fetch: f, lru: c}, nil
}

func (c *Cache) Get(ctx context.Context, typeID string) (*Catalog, error) {
	typeID = strings.TrimSpace(typeID)
	if cached, ok := c.lru.Get(typeID); ok {
		return cached, nil
	}
	cat, err := c.fetch.FetchCatalog(ctx, typeID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(typeID, cat)
	return cat, nil
}

// Put seeds the cache, e.g. with a structural catalog built locally.
func (c *Cache) Put(typeID string, cat *Catalog) {
	c.lru.Add(strings.TrimSpace(typeID), cat)
}

func (c *Cache) Invalidate(typeID string) {
	c.lru.Remove(strings.TrimSpace(typeID))
}

func (c *Cache) Len() int { return c.lru.Len() }
