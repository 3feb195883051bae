package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/history"
	"github.com/gearbookhq/gearbook-backend/internal/inventory"
	"github.com/gearbookhq/gearbook-backend/internal/reservations"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
	"github.com/gearbookhq/gearbook-backend/pkg/metrics"
	"github.com/gearbookhq/gearbook-backend/pkg/outbox"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the physical lifecycle transitions.
type Service interface {
	Checkout(ctx context.Context, actor types.Actor, id uuid.UUID, note string) (*models.Reservation, error)
	Checkin(ctx context.Context, actor types.Actor, id uuid.UUID, note string, maintenance bool) (*models.Reservation, error)
	Cancel(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Reservation, error)
}

type service struct {
	repo      *reservations.Repository
	tx        txRunner
	histories *history.Repository
	events    eventEmitter
	sink      inventory.Sink
	logg      *logger.Logger
	metrics   *metrics.ReservationMetrics
	now       func() time.Time
}

// NewService builds the lifecycle state machine.
func NewService(
	repo *reservations.Repository,
	tx txRunner,
	histories *history.Repository,
	events eventEmitter,
	sink inventory.Sink,
	logg *logger.Logger,
	m *metrics.ReservationMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if histories == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if sink == nil {
		return nil, fmt.Errorf("inventory sink required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		histories: histories,
		events:    events,
		sink:      sink,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Checkout hands the gear over. The external inventory push runs inside the
// transaction before the local write: if the external system cannot record
// the handover, nothing changes locally.
func (s *service) Checkout(ctx context.Context, actor types.Actor, id uuid.UUID, note string) (*models.Reservation, error) {
	if !actor.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout requires staff role")
	}

	return s.transition(ctx, actor, id, func(tx *gorm.DB, res *models.Reservation) (enums.HistoryAction, enums.OutboxEventType, error) {
		if !res.ApprovalStatus.AllowsCheckout() {
			return "", "", pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not approved for checkout")
		}
		if res.Status != enums.LifecycleStatusPending {
			return "", "", pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not awaiting checkout")
		}

		if res.AssetID != nil {
			err := s.sink.CheckoutToUser(ctx, inventory.CheckoutRequest{
				AssetID:        *res.AssetID,
				ExternalUserID: res.ExternalUserID,
				Note:           note,
				ExpectedReturn: res.EndAt,
			})
			if err != nil {
				return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory checkout push failed")
			}
		}

		res.Status = enums.LifecycleStatusConfirmed
		return enums.HistoryActionCheckedOut, enums.EventReservationCheckedOut, nil
	}, note)
}

// Checkin records the return. A maintenance flag parks the reservation in
// maintenance_required instead of completed; both release capacity.
func (s *service) Checkin(ctx context.Context, actor types.Actor, id uuid.UUID, note string, maintenance bool) (*models.Reservation, error) {
	if !actor.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkin requires staff role")
	}

	return s.transition(ctx, actor, id, func(tx *gorm.DB, res *models.Reservation) (enums.HistoryAction, enums.OutboxEventType, error) {
		if res.Status != enums.LifecycleStatusConfirmed {
			return "", "", pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not checked out")
		}

		if res.AssetID != nil {
			err := s.sink.Checkin(ctx, inventory.CheckinRequest{
				AssetID:     *res.AssetID,
				Note:        note,
				Maintenance: maintenance,
			})
			if err != nil {
				return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory checkin push failed")
			}
		}

		if maintenance {
			res.Status = enums.LifecycleStatusMaintenanceRequired
			return enums.HistoryActionMaintenanceFlagged, enums.EventReservationMaintenance, nil
		}
		res.Status = enums.LifecycleStatusCompleted
		return enums.HistoryActionCheckedIn, enums.EventReservationCheckedIn, nil
	}, note)
}

// Cancel releases a future booking. Owners may cancel their own; staff any.
// Once the window has started, cancel is refused.
func (s *service) Cancel(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Reservation, error) {
	return s.transition(ctx, actor, id, func(tx *gorm.DB, res *models.Reservation) (enums.HistoryAction, enums.OutboxEventType, error) {
		if !actor.CanModerate() && !actor.Owns(res.ExternalUserID) {
			return "", "", pkgerrors.New(pkgerrors.CodeForbidden, "not your reservation")
		}
		if res.Status != enums.LifecycleStatusPending && res.Status != enums.LifecycleStatusConfirmed {
			return "", "", pkgerrors.New(pkgerrors.CodeStateConflict, "reservation cannot be cancelled")
		}
		if !res.StartAt.After(s.now()) {
			return "", "", pkgerrors.New(pkgerrors.CodeStateConflict, "window has already started")
		}

		res.Status = enums.LifecycleStatusCancelled
		return enums.HistoryActionCancelled, enums.EventReservationCancelled, nil
	}, "")
}

type transitionFn func(tx *gorm.DB, res *models.Reservation) (enums.HistoryAction, enums.OutboxEventType, error)

func (s *service) transition(ctx context.Context, actor types.Actor, id uuid.UUID, fn transitionFn, notes string) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}

	var res *models.Reservation
	var action enums.HistoryAction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return err
		}

		historyAction, eventType, err := fn(tx, loaded)
		if err != nil {
			return err
		}
		action = historyAction

		if err := repo.UpdateStates(ctx, loaded); err != nil {
			return err
		}
		if err := s.histories.WithTx(tx).Record(ctx, id, historyAction, actor.AuditLabel(), notes); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateReservation,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Email: actor.Email, Role: actor.Role.String()},
			Data:          loaded,
			Version:       1,
		}); err != nil {
			return err
		}
		res = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(action))
	}
	if s.logg != nil {
		logCtx := s.logg.WithReservationID(ctx, id.String())
		s.logg.Info(logCtx, "reservation "+string(action))
	}
	return res, nil
}
