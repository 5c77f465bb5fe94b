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

// DayAmountsPrefix groups every persisted day snapshot under one key space
// so the single-slot policy can evict siblings with a prefix scan.
const DayAmountsPrefix = "day-amounts:"

// DefaultDayAmountsTTL is the freshness window of a day snapshot.
const DefaultDayAmountsTTL = 6 * time.Hour

// dayEnvelope is the persisted payload shape for one day snapshot.
type dayEnvelope struct {
	Month string          `json:"month"`
	Day   int             `json:"day"`
	Data  core.DayAmounts `json:"data"`
}

// DayAmountsCache serves per-(month, day) category amounts. It retains at
// most one persisted snapshot across all keys: writing a new day's snapshot
// evicts every other one, keeping the persisted footprint bounded.
type DayAmountsCache struct {
	store   store.Store
	fetcher sheets.DayAmountsFetcher
	ttl     time.Duration
	group   singleflight.Group
}

func NewDayAmountsCache(s store.Store, f sheets.DayAmountsFetcher, ttl time.Duration) *DayAmountsCache {
	if ttl <= 0 {
		ttl = DefaultDayAmountsTTL
	}
	return &DayAmountsCache{store: s, fetcher: f, ttl: ttl}
}

func dayKey(month string, day int) string {
	return fmt.Sprintf("%s%s:%d", DayAmountsPrefix, month, day)
}

// Get returns the snapshot for (month, day), fetching from the gateway when
// the cached entry is absent, stale, or forceRefresh is set. Concurrent
// calls for the same key share a single fetch.
func (c *DayAmountsCache) Get(ctx context.Context, month string, day int, forceRefresh bool) (core.DayAmounts, error) {
	key := dayKey(month, day)
	if !forceRefresh {
		if snap, ok := c.readValid(key, true); ok {
			return snap, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if !forceRefresh {
			if snap, ok := c.readValid(key, true); ok {
				return snap, nil
			}
		}

		snap, err := c.fetcher.FetchDayAmounts(ctx, month, day)
		if err != nil {
			return nil, fmt.Errorf("fetch day amounts %s/%d: %w", month, day, err)
		}
		if snap == nil {
			snap = core.DayAmounts{}
		}
		c.SetSnapshot(month, day, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(core.DayAmounts).Clone(), nil
}

// CachedSnapshot is a synchronous cache-only read with no freshness side
// effects: stale entries are reported absent but left in place.
func (c *DayAmountsCache) CachedSnapshot(month string, day int) (core.DayAmounts, bool) {
	return c.readValid(dayKey(month, day), false)
}

// SetSnapshot overwrites the snapshot for (month, day) and evicts every
// other persisted day snapshot. Used for fetched data, optimistic applies
// and rollback restoration alike.
func (c *DayAmountsCache) SetSnapshot(month string, day int, snap core.DayAmounts) {
	key := dayKey(month, day)
	for _, other := range c.store.KeysWithPrefix(DayAmountsPrefix) {
		if other != key {
			c.store.Remove(other)
		}
	}
	payload, err := json.Marshal(dayEnvelope{Month: month, Day: day, Data: snap})
	if err != nil {
		return
	}
	c.store.Write(key, payload)
}

// RemoveSnapshot deletes the snapshot for (month, day). Used when rollback
// must restore an absent prior state.
func (c *DayAmountsCache) RemoveSnapshot(month string, day int) {
	c.store.Remove(dayKey(month, day))
}

// InvalidateAll removes every persisted day snapshot. Safe to call on an
// already empty store.
func (c *DayAmountsCache) InvalidateAll() {
	for _, key := range c.store.KeysWithPrefix(DayAmountsPrefix) {
		c.store.Remove(key)
	}
}

// IncrementAmount adds delta to a category's cached amount, clearing any
// stored formula (a numeric increment supersedes it). Incrementing without
// a valid base snapshot is not meaningful and is silently skipped rather
// than fabricating one.
func (c *DayAmountsCache) IncrementAmount(month string, day int, category string, delta float64) {
	snap, ok := c.readValid(dayKey(month, day), true)
	if !ok {
		return
	}
	entry := snap[category]
	snap[category] = core.DayAmountEntry{Amount: core.Round2(entry.Amount + delta)}
	c.SetSnapshot(month, day, snap)
}

func (c *DayAmountsCache) readValid(key string, purge bool) (core.DayAmounts, bool) {
	e, ok := c.store.Read(key)
	if !ok {
		return nil, false
	}
	if time.Since(e.Timestamp) > c.ttl {
		if purge {
			c.store.Remove(key)
		}
		return nil, false
	}
	var env dayEnvelope
	if err := json.Unmarshal(e.Payload, &env); err != nil || env.Data == nil {
		if purge {
			c.store.Remove(key)
		}
		return nil, false
	}
	return env.Data, true
}
