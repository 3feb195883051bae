package availability

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/internal/inventory"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
	"github.com/gearbookhq/gearbook-backend/pkg/metrics"
)

// Snapshot is a point-in-time capacity view for one target and window.
// Unknown capacity is distinct from zero free units: FreeUnits is only
// meaningful when Known is true.
type Snapshot struct {
	TotalUnits           inventory.Count
	CommittedUnits       int
	ExternallyCheckedOut int
	FreeUnits            int
	Known                bool
	Blackout             bool
	Reason               enums.UnavailableReason
}

// CanAccommodate reports whether the snapshot has room for qty more units.
func (s *Snapshot) CanAccommodate(qty int) bool {
	return s.Known && !s.Blackout && s.FreeUnits >= qty
}

type blackoutChecker interface {
	AnyOverlapping(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (bool, error)
}

// Service computes capacity snapshots. Read-only; the commit path re-runs it
// inside the commit transaction.
type Service interface {
	Capacity(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (*Snapshot, error)
	SnapshotOrErr(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (*Snapshot, error)
}

type service struct {
	repo      *Repository
	provider  inventory.Provider
	blackouts blackoutChecker
	logg      *logger.Logger
	metrics   *metrics.ReservationMetrics
}

// NewService builds the availability engine.
func NewService(repo *Repository, provider inventory.Provider, blackouts blackoutChecker, logg *logger.Logger, m *metrics.ReservationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if provider == nil {
		return nil, fmt.Errorf("inventory provider required")
	}
	if blackouts == nil {
		return nil, fmt.Errorf("blackout checker required")
	}
	return &service{repo: repo, provider: provider, blackouts: blackouts, logg: logg, metrics: m}, nil
}

// Capacity computes the snapshot for one target and window. Blackouts win
// over everything else; an unreachable inventory read degrades to an unknown
// snapshot rather than an error so previews can render it distinctly.
func (s *service) Capacity(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (*Snapshot, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	blackedOut, err := s.blackouts.AnyOverlapping(ctx, tx, target, window)
	if err != nil {
		return nil, err
	}
	if blackedOut {
		return &Snapshot{
			Known:    true,
			Blackout: true,
			Reason:   enums.UnavailableReasonBlackout,
		}, nil
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	committed, err := repo.CommittedUnits(ctx, target, window)
	if err != nil {
		return nil, err
	}

	total, external := s.readExternal(ctx, target)

	snapshot := &Snapshot{
		TotalUnits:     total,
		CommittedUnits: committed,
	}

	if !total.Known || !external.Known {
		snapshot.Reason = enums.UnavailableReasonCapacityUnknown
		if s.metrics != nil {
			s.metrics.IncCapacityUnknown()
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "capacity unknown for target "+target.LockKey())
		}
		return snapshot, nil
	}

	snapshot.Known = true
	snapshot.ExternallyCheckedOut = external.Value
	free := total.Value - committed - external.Value
	if free < 0 {
		free = 0
	}
	snapshot.FreeUnits = free
	if free == 0 {
		snapshot.Reason = enums.UnavailableReasonNoCapacity
	}
	return snapshot, nil
}

// SnapshotOrErr is the commit-path variant: an unknown snapshot becomes a
// retryable coded error instead of a renderable state.
func (s *service) SnapshotOrErr(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (*Snapshot, error) {
	snapshot, err := s.Capacity(ctx, tx, target, window)
	if err != nil {
		return nil, err
	}
	if !snapshot.Known {
		return nil, pkgerrors.New(pkgerrors.CodeCapacityUnknown, "inventory totals unavailable")
	}
	return snapshot, nil
}

// readExternal resolves the total pool and externally-checked-out counts.
// Provider failures are folded into unknown counts here so both read paths
// share one degradation rule.
func (s *service) readExternal(ctx context.Context, target booking.Target) (inventory.Count, inventory.Count) {
	var total inventory.Count
	if target.Type == enums.TargetTypeAsset {
		// one discrete unit, existence vouched by the reservation row itself
		total = inventory.KnownCount(1)
	} else {
		pooled, err := s.provider.PooledTotal(ctx, target.ModelID)
		if err != nil {
			return inventory.UnknownCount(), inventory.UnknownCount()
		}
		total = pooled
	}

	external, err := s.provider.ExternallyCheckedOut(ctx, target)
	if err != nil {
		return total, inventory.UnknownCount()
	}
	return total, external
}
