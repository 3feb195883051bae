package basket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	pkgredis "github.com/gearbookhq/gearbook-backend/pkg/redis"
)

type memoryStore struct {
	values map[string]string
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
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) BasketKey(sessionID string) string {
	return "gb:basket:" + sessionID
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddMergesQuantities(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	modelID := uuid.New()

	if _, err := svc.Add(ctx, "sess-1", Item{ModelID: modelID, Quantity: 1, DisplayName: "Kayak"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	basket, err := svc.Add(ctx, "sess-1", Item{ModelID: modelID, Quantity: 2})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(basket.Items) != 1 || basket.Items[0].Quantity != 3 {
		t.Fatalf("unexpected basket %+v", basket)
	}
	if basket.Items[0].DisplayName != "Kayak" {
		t.Fatalf("display name lost: %+v", basket.Items[0])
	}
}

func TestBasketsAreSessionScoped(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "sess-a", Item{ModelID: uuid.New(), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	other, err := svc.Get(ctx, "sess-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(other.Items) != 0 {
		t.Fatalf("sessions must not share baskets: %+v", other)
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	keep := uuid.New()
	drop := uuid.New()

	if _, err := svc.Add(ctx, "sess-1", Item{ModelID: keep, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, "sess-1", Item{ModelID: drop, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	basket, err := svc.Remove(ctx, "sess-1", drop)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(basket.Items) != 1 || basket.Items[0].ModelID != keep {
		t.Fatalf("unexpected basket %+v", basket)
	}

	if _, err := svc.Remove(ctx, "sess-1", drop); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.Clear(ctx, "sess-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	basket, err = svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(basket.Items) != 0 {
		t.Fatalf("basket must be empty after clear: %+v", basket)
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "", Item{ModelID: uuid.New(), Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Add(ctx, "sess-1", Item{ModelID: uuid.Nil, Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Add(ctx, "sess-1", Item{ModelID: uuid.New(), Quantity: 0}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
