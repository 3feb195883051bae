package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
)

// Count carries a unit count that may be unknown. An unreachable inventory
// service must never be read as zero units or as unlimited units.
type Count struct {
	Value int
	Known bool
}

// KnownCount builds a count the provider vouches for.
func KnownCount(value int) Count {
	return Count{Value: value, Known: true}
}

// UnknownCount marks the count as not trustworthy.
func UnknownCount() Count {
	return Count{}
}

// AssetState mirrors the subset of external asset fields the engine reads.
type AssetState struct {
	AssetID    uuid.UUID
	Status     string
	Location   string
	CheckedOut bool
	AssignedTo string
}

// Provider reads capacity facts from the external asset-inventory service.
type Provider interface {
	// PooledTotal returns the total unit count for a model pool.
	PooledTotal(ctx context.Context, modelID uuid.UUID) (Count, error)
	// ExternallyCheckedOut returns units checked out through the external
	// system rather than through a reservation here.
	ExternallyCheckedOut(ctx context.Context, target booking.Target) (Count, error)
	// AssetState fetches the current external state of a single asset.
	AssetState(ctx context.Context, assetID uuid.UUID) (*AssetState, error)
}

// CheckoutRequest pushes a physical handover to the external system.
type CheckoutRequest struct {
	AssetID        uuid.UUID
	ExternalUserID string
	Note           string
	ExpectedReturn time.Time
}

// CheckinRequest pushes a physical return to the external system.
type CheckinRequest struct {
	AssetID     uuid.UUID
	Note        string
	Maintenance bool
}

// Sink writes asset state changes back to the external inventory service.
// Implementations are expected to be idempotent for repeated intents.
type Sink interface {
	SetAssetStatus(ctx context.Context, assetID uuid.UUID, status string) error
	SetAssetLocation(ctx context.Context, assetID uuid.UUID, location string) error
	CheckoutToUser(ctx context.Context, req CheckoutRequest) error
	Checkin(ctx context.Context, req CheckinRequest) error
}

// Pinger exposes the readiness surface of the inventory adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}
