package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"wydatki/internal/core"
	"wydatki/internal/store"
)

type fakeDayFetcher struct {
	calls int
	snap  core.DayAmounts
	err   error
}

func (f *fakeDayFetcher) FetchDayAmounts(_ context.Context, _ string, _ int) (core.DayAmounts, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap.Clone(), nil
}

func TestDayAmountsSequentialGetsFetchOnce(t *testing.T) {
	fetcher := &fakeDayFetcher{snap: core.DayAmounts{"Jedzenie": {Amount: 12.5}}}
	c := NewDayAmountsCache(store.NewMemory(), fetcher, DefaultDayAmountsTTL)

	first, err := c.Get(context.Background(), "Marzec", 14, false)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := c.Get(context.Background(), "Marzec", 14, false)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}

	if fetcher.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", fetcher.calls)
	}
	if first["Jedzenie"].Amount != 12.5 || second["Jedzenie"].Amount != 12.5 {
		t.Fatalf("unexpected snapshots: %+v %+v", first, second)
	}
}

func TestDayAmountsForceRefresh(t *testing.T) {
	fetcher := &fakeDayFetcher{snap: core.DayAmounts{"Jedzenie": {Amount: 12.5}}}
	c := NewDayAmountsCache(store.NewMemory(), fetcher, DefaultDayAmountsTTL)

	if _, err := c.Get(context.Background(), "Marzec", 14, false); err != nil {
		t.Fatalf("seed get: %v", err)
	}

	fetcher.snap = core.DayAmounts{"Jedzenie": {Amount: 99}}
	got, err := c.Get(context.Background(), "Marzec", 14, true)
	if err != nil {
		t.Fatalf("forced get: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("force refresh must hit the gateway, calls=%d", fetcher.calls)
	}
	if got["Jedzenie"].Amount != 99 {
		t.Fatalf("forced refresh should replace the snapshot: %+v", got)
	}
}

func TestDayAmountsSingleSlotEviction(t *testing.T) {
	s := store.NewMemory()
	fetcher := &fakeDayFetcher{snap: core.DayAmounts{"Jedzenie": {Amount: 1}}}
	c := NewDayAmountsCache(s, fetcher, DefaultDayAmountsTTL)

	if _, err := c.Get(context.Background(), "Marzec", 14, false); err != nil {
		t.Fatalf("get A: %v", err)
	}
	if _, ok := c.CachedSnapshot("Marzec", 14); !ok {
		t.Fatal("A should be cached after fetch")
	}

	c.SetSnapshot("Kwiecień", 2, core.DayAmounts{"Dom": {Amount: 3}})

	if _, ok := c.CachedSnapshot("Marzec", 14); ok {
		t.Fatal("writing B must evict A (single persisted slot)")
	}
	if keys := s.KeysWithPrefix(DayAmountsPrefix); len(keys) != 1 {
		t.Fatalf("exactly one day-amounts key may exist, got %v", keys)
	}
	if snap, ok := c.CachedSnapshot("Kwiecień", 2); !ok || snap["Dom"].Amount != 3 {
		t.Fatalf("latest write should be readable: %+v ok=%v", snap, ok)
	}
}

func TestDayAmountsStaleEntryRefetched(t *testing.T) {
	s := store.NewMemory()
	fetcher := &fakeDayFetcher{snap: core.DayAmounts{"Jedzenie": {Amount: 1}}}
	c := NewDayAmountsCache(s, fetcher, DefaultDayAmountsTTL)

	if _, err := c.Get(context.Background(), "Marzec", 14, false); err != nil {
		t.Fatalf("seed get: %v", err)
	}
	s.Backdate("day-amounts:Marzec:14", time.Now().Add(-7*time.Hour))

	if _, err := c.Get(context.Background(), "Marzec", 14, false); err != nil {
		t.Fatalf("stale get: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("stale entry should refetch, calls=%d", fetcher.calls)
	}
}

func TestDayAmountsFetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("network down")
	c := NewDayAmountsCache(store.NewMemory(), &fakeDayFetcher{err: wantErr}, DefaultDayAmountsTTL)
	if _, err := c.Get(context.Background(), "Marzec", 14, false); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestIncrementAmount(t *testing.T) {
	c := NewDayAmountsCache(store.NewMemory(), &fakeDayFetcher{}, DefaultDayAmountsTTL)
	c.SetSnapshot("Marzec", 14, core.DayAmounts{
		"Jedzenie": {Amount: 10.1, Formula: "=5+5.1"},
	})

	c.IncrementAmount("Marzec", 14, "Jedzenie", 2.15)

	snap, ok := c.CachedSnapshot("Marzec", 14)
	if !ok {
		t.Fatal("snapshot should still exist")
	}
	entry := snap["Jedzenie"]
	if entry.Amount != 12.25 {
		t.Fatalf("expected 12.25, got %v", entry.Amount)
	}
	if entry.Formula != "" {
		t.Fatalf("numeric increment must clear the formula, got %q", entry.Formula)
	}
}

func TestIncrementAmountNewCategory(t *testing.T) {
	c := NewDayAmountsCache(store.NewMemory(), &fakeDayFetcher{}, DefaultDayAmountsTTL)
	c.SetSnapshot("Marzec", 14, core.DayAmounts{"Dom": {Amount: 1}})

	c.IncrementAmount("Marzec", 14, "Jedzenie", 20)

	snap, _ := c.CachedSnapshot("Marzec", 14)
	if snap["Jedzenie"].Amount != 20 {
		t.Fatalf("missing category starts from zero, got %v", snap["Jedzenie"].Amount)
	}
}

func TestIncrementAmountWithoutBaseSnapshotIsNoop(t *testing.T) {
	s := store.NewMemory()
	c := NewDayAmountsCache(s, &fakeDayFetcher{}, DefaultDayAmountsTTL)

	c.IncrementAmount("Marzec", 14, "Jedzenie", 20)

	if keys := s.KeysWithPrefix(DayAmountsPrefix); len(keys) != 0 {
		t.Fatalf("increment must not fabricate a snapshot, got %v", keys)
	}
}

func TestRemoveSnapshot(t *testing.T) {
	c := NewDayAmountsCache(store.NewMemory(), &fakeDayFetcher{}, DefaultDayAmountsTTL)
	c.SetSnapshot("Marzec", 14, core.DayAmounts{"Dom": {Amount: 1}})

	c.RemoveSnapshot("Marzec", 14)

	if _, ok := c.CachedSnapshot("Marzec", 14); ok {
		t.Fatal("snapshot should be gone after remove")
	}
}

func TestInvalidateAllIsIdempotent(t *testing.T) {
	s := store.NewMemory()
	c := NewDayAmountsCache(s, &fakeDayFetcher{}, DefaultDayAmountsTTL)
	c.SetSnapshot("Marzec", 14, core.DayAmounts{"Dom": {Amount: 1}})
	s.Write("categories:v2", []byte(`[{"name":"Dom"}]`))

	c.InvalidateAll()
	c.InvalidateAll()

	if keys := s.KeysWithPrefix(DayAmountsPrefix); len(keys) != 0 {
		t.Fatalf("day-amounts keys should be gone, got %v", keys)
	}
	if _, ok := s.Read("categories:v2"); !ok {
		t.Fatal("invalidating day amounts must not touch the taxonomy entry")
	}
}

func TestCachedSnapshotHasNoSideEffects(t *testing.T) {
	s := store.NewMemory()
	c := NewDayAmountsCache(s, &fakeDayFetcher{}, DefaultDayAmountsTTL)
	c.SetSnapshot("Marzec", 14, core.DayAmounts{"Dom": {Amount: 1}})
	s.Backdate("day-amounts:Marzec:14", time.Now().Add(-7*time.Hour))

	if _, ok := c.CachedSnapshot("Marzec", 14); ok {
		t.Fatal("stale snapshot should read as absent")
	}
	if _, ok := s.Read("day-amounts:Marzec:14"); !ok {
		t.Fatal("cache-only read must not purge the stale entry")
	}
}
