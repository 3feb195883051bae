package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	pkgredis "github.com/gearbookhq/gearbook-backend/pkg/redis"
)

const defaultTTL = time.Hour

// Item is one pending line in a requester's selection.
type Item struct {
	ModelID     uuid.UUID `json:"modelId"`
	Quantity    int       `json:"quantity"`
	DisplayName string    `json:"displayName"`
}

// Basket is the session-scoped pending selection. It holds no capacity;
// capacity is only claimed when the basket is submitted.
type Basket struct {
	SessionID string    `json:"sessionId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	BasketKey(sessionID string) string
}

// Service manages per-session baskets in redis with a sliding TTL.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Basket, error)
	Add(ctx context.Context, sessionID string, item Item) (*Basket, error)
	Remove(ctx context.Context, sessionID string, modelID uuid.UUID) (*Basket, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store sessionStore
	ttl   time.Duration
}

// NewService builds the basket session service.
func NewService(store sessionStore, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &service{store: store, ttl: ttl}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Basket, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

func (s *service) Add(ctx context.Context, sessionID string, item Item) (*Basket, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	if item.ModelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id is required")
	}
	if item.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range basket.Items {
		if basket.Items[i].ModelID == item.ModelID {
			basket.Items[i].Quantity += item.Quantity
			if item.DisplayName != "" {
				basket.Items[i].DisplayName = item.DisplayName
			}
			found = true
			break
		}
	}
	if !found {
		basket.Items = append(basket.Items, item)
	}

	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

func (s *service) Remove(ctx context.Context, sessionID string, modelID uuid.UUID) (*Basket, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}

	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := basket.Items[:0]
	removed := false
	for _, item := range basket.Items {
		if item.ModelID == modelID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "model not in basket")
	}
	basket.Items = kept

	if len(basket.Items) == 0 {
		if err := s.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		return &Basket{SessionID: sessionID, Items: []Item{}}, nil
	}

	if err := s.save(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	return s.store.Del(ctx, s.store.BasketKey(sessionID))
}

func (s *service) load(ctx context.Context, sessionID string) (*Basket, error) {
	raw, err := s.store.Get(ctx, s.store.BasketKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return &Basket{SessionID: sessionID, Items: []Item{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read basket")
	}

	var basket Basket
	if err := json.Unmarshal([]byte(raw), &basket); err != nil {
		// corrupt state is treated as empty rather than wedging the session
		return &Basket{SessionID: sessionID, Items: []Item{}}, nil
	}
	basket.SessionID = sessionID
	return &basket, nil
}

func (s *service) save(ctx context.Context, basket *Basket) error {
	basket.UpdatedAt = time.Now()
	encoded, err := json.Marshal(basket)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode basket")
	}
	if err := s.store.Set(ctx, s.store.BasketKey(basket.SessionID), string(encoded), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write basket")
	}
	return nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
