package approvals

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

// Service runs the manual approval decisions.
type Service interface {
	Approve(ctx context.Context, actor types.Actor, id uuid.UUID, notes string) (*models.Reservation, error)
	Reject(ctx context.Context, actor types.Actor, id uuid.UUID, notes string) (*models.Reservation, error)
}

type service struct {
	repo      *reservations.Repository
	tx        txRunner
	histories *history.Repository
	events    eventEmitter
	sink      inventory.Sink
	logg      *logger.Logger
	metrics   *metrics.ReservationMetrics
}

// NewService builds the approval state machine.
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
	}, nil
}

// Approve moves a pending decision to approved. The reservation stays in
// lifecycle pending, ready for checkout. Terminal decisions are never
// overwritten.
func (s *service) Approve(ctx context.Context, actor types.Actor, id uuid.UUID, notes string) (*models.Reservation, error) {
	res, err := s.decide(ctx, actor, id, notes, true)
	if err != nil {
		return nil, err
	}

	// best-effort status push; the approval is already committed
	if res.AssetID != nil {
		if err := s.sink.SetAssetStatus(ctx, *res.AssetID, "reserved"); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "post-approval inventory push failed: "+err.Error())
		}
	}
	return res, nil
}

// Reject moves a pending decision to rejected and cancels the reservation,
// releasing its capacity immediately.
func (s *service) Reject(ctx context.Context, actor types.Actor, id uuid.UUID, notes string) (*models.Reservation, error) {
	return s.decide(ctx, actor, id, notes, false)
}

func (s *service) decide(ctx context.Context, actor types.Actor, id uuid.UUID, notes string, approve bool) (*models.Reservation, error) {
	if !actor.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "approval decisions require staff role")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}

	var res *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return err
		}
		if loaded.ApprovalStatus.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation already processed")
		}

		now := time.Now()
		label := actor.AuditLabel()
		action := enums.HistoryActionApproved
		eventType := enums.EventReservationApproved
		if approve {
			loaded.ApprovalStatus = enums.ApprovalStatusApproved
			loaded.ApprovedBy = &label
			loaded.ApprovedAt = &now
		} else {
			loaded.ApprovalStatus = enums.ApprovalStatusRejected
			loaded.Status = enums.LifecycleStatusCancelled
			action = enums.HistoryActionRejected
			eventType = enums.EventReservationRejected
		}

		if err := repo.UpdateStates(ctx, loaded); err != nil {
			return err
		}
		if err := s.histories.WithTx(tx).Record(ctx, id, action, label, notes); err != nil {
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
		if approve {
			s.metrics.ObserveTransition("approved")
		} else {
			s.metrics.ObserveTransition("rejected")
		}
	}
	if s.logg != nil {
		logCtx := s.logg.WithReservationID(ctx, id.String())
		if approve {
			s.logg.Info(logCtx, "reservation approved")
		} else {
			s.logg.Info(logCtx, "reservation rejected")
		}
	}
	return res, nil
}
