// Package cache holds the persisted snapshot caches between consumers and
// the remote spreadsheet gateway.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"wydatki/internal/core"
	"wydatki/internal/sheets"
	"wydatki/internal/store"
)

// CategoryKey is the persisted key of the taxonomy snapshot. The version
// suffix keeps entries written by older payload shapes from being decoded.
const CategoryKey = "categories:v2"

// DefaultCategoryTTL is the wall-clock age after which the taxonomy
// snapshot is treated as absent.
const DefaultCategoryTTL = 24 * time.Hour

// CategoryCache serves the taxonomy from the persistent store and refreshes
// it from the gateway on expiry or explicit invalidation. Snapshots are
// replaced wholesale, never merged.
type CategoryCache struct {
	store   store.Store
	fetcher sheets.TaxonomyFetcher
	ttl     time.Duration
	group   singleflight.Group
}

func NewCategoryCache(s store.Store, f sheets.TaxonomyFetcher, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryCache{store: s, fetcher: f, ttl: ttl}
}

// Get returns the valid persisted taxonomy, fetching from the gateway when
// it is absent or stale. Concurrent calls share a single fetch.
func (c *CategoryCache) Get(ctx context.Context) (core.Taxonomy, error) {
	if tax, ok := c.readValid(true); ok {
		return tax, nil
	}

	v, err, _ := c.group.Do(CategoryKey, func() (any, error) {
		// A concurrent call may have refreshed the entry already.
		if tax, ok := c.readValid(true); ok {
			return tax, nil
		}

		tax, err := c.fetcher.FetchTaxonomy(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch taxonomy: %w", err)
		}
		if err := tax.Validate(); err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(tax); err == nil {
			c.store.Write(CategoryKey, payload)
		}
		return tax, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(core.Taxonomy), nil
}

// CachedSnapshot is a synchronous, cache-only read used to pre-populate UI
// before the network round trip completes.
func (c *CategoryCache) CachedSnapshot() (core.Taxonomy, bool) {
	return c.readValid(false)
}

// Invalidate removes the persisted taxonomy unconditionally.
func (c *CategoryCache) Invalidate() {
	c.store.Remove(CategoryKey)
}

// readValid returns the persisted taxonomy when it is fresh and well
// formed. With purge set, stale or malformed entries are removed.
func (c *CategoryCache) readValid(purge bool) (core.Taxonomy, bool) {
	e, ok := c.store.Read(CategoryKey)
	if !ok {
		return nil, false
	}
	if time.Since(e.Timestamp) > c.ttl {
		if purge {
			c.store.Remove(CategoryKey)
		}
		return nil, false
	}
	var tax core.Taxonomy
	if err := json.Unmarshal(e.Payload, &tax); err != nil || tax.Validate() != nil {
		if purge {
			c.store.Remove(CategoryKey)
		}
		return nil, false
	}
	return tax, true
}
