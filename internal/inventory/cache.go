package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
	pkgredis "github.com/gearbookhq/gearbook-backend/pkg/redis"
)

const defaultSnapshotTTL = 30 * time.Second

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(kind, id string) string
}

// CachedProvider wraps a Provider with a short-TTL redis cache for pooled
// totals. Stale reads are acceptable on the preview path because the commit
// path recomputes capacity inside the transaction. Asset state and
// checked-out counts are never cached.
type CachedProvider struct {
	inner Provider
	store snapshotStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedProvider builds the read-through cache decorator.
func NewCachedProvider(inner Provider, store snapshotStore, ttl time.Duration, logg *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &CachedProvider{inner: inner, store: store, ttl: ttl, logg: logg}
}

func (p *CachedProvider) PooledTotal(ctx context.Context, modelID uuid.UUID) (Count, error) {
	if p.store == nil {
		return p.inner.PooledTotal(ctx, modelID)
	}

	key := p.store.SnapshotKey("model_total", modelID.String())
	if cached, err := p.store.Get(ctx, key); err == nil {
		if value, perr := strconv.Atoi(cached); perr == nil {
			return KnownCount(value), nil
		}
	} else if !errors.Is(err, pkgredis.Nil) && p.logg != nil {
		p.logg.Warn(ctx, "snapshot cache read failed: "+err.Error())
	}

	count, err := p.inner.PooledTotal(ctx, modelID)
	if err != nil {
		return count, err
	}

	// unknown totals are never cached
	if count.Known {
		if err := p.store.Set(ctx, key, strconv.Itoa(count.Value), p.ttl); err != nil && p.logg != nil {
			p.logg.Warn(ctx, "snapshot cache write failed: "+err.Error())
		}
	}
	return count, nil
}

func (p *CachedProvider) ExternallyCheckedOut(ctx context.Context, target booking.Target) (Count, error) {
	return p.inner.ExternallyCheckedOut(ctx, target)
}

func (p *CachedProvider) AssetState(ctx context.Context, assetID uuid.UUID) (*AssetState, error) {
	return p.inner.AssetState(ctx, assetID)
}
