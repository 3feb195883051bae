package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	pkgredis "github.com/gearbookhq/gearbook-backend/pkg/redis"
)

type memoryStore struct {
	values map[string]string
	sets   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.sets++
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) SnapshotKey(kind, id string) string {
	return strings.Join([]string{"gb", "snapshot", kind, id}, ":")
}

type countingProvider struct {
	total Count
	calls int
}

func (p *countingProvider) PooledTotal(ctx context.Context, modelID uuid.UUID) (Count, error) {
	p.calls++
	return p.total, nil
}

func (p *countingProvider) ExternallyCheckedOut(ctx context.Context, target booking.Target) (Count, error) {
	return KnownCount(0), nil
}

func (p *countingProvider) AssetState(ctx context.Context, assetID uuid.UUID) (*AssetState, error) {
	return &AssetState{AssetID: assetID}, nil
}

func TestCachedProviderReadThrough(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{total: KnownCount(4)}
	store := newMemoryStore()
	cached := NewCachedProvider(inner, store, time.Minute, nil)
	ctx := context.Background()
	modelID := uuid.New()

	for i := 0; i < 3; i++ {
		count, err := cached.PooledTotal(ctx, modelID)
		if err != nil {
			t.Fatalf("pooled total: %v", err)
		}
		if !count.Known || count.Value != 4 {
			t.Fatalf("unexpected count %+v", count)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.calls)
	}
	if store.sets != 1 {
		t.Fatalf("expected one cache write, got %d", store.sets)
	}
}

func TestCachedProviderNeverCachesUnknown(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{total: UnknownCount()}
	store := newMemoryStore()
	cached := NewCachedProvider(inner, store, time.Minute, nil)
	ctx := context.Background()
	modelID := uuid.New()

	for i := 0; i < 2; i++ {
		count, err := cached.PooledTotal(ctx, modelID)
		if err != nil {
			t.Fatalf("pooled total: %v", err)
		}
		if count.Known {
			t.Fatalf("unexpected known count %+v", count)
		}
	}

	if inner.calls != 2 {
		t.Fatalf("unknown totals must not be cached, got %d upstream calls", inner.calls)
	}
	if store.sets != 0 {
		t.Fatalf("unknown totals must not be written, got %d writes", store.sets)
	}
}
