package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/availability"
	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/internal/history"
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

type entryPolicy interface {
	EntryState(actor types.Actor) enums.ApprovalStatus
}

// Service owns reservation submission, deletion, and reads.
type Service interface {
	SubmitSingleAsset(ctx context.Context, actor types.Actor, input SubmitSingleAssetInput) (*models.Reservation, error)
	SubmitBasket(ctx context.Context, actor types.Actor, input SubmitBasketInput) (*models.Reservation, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
	GetForActor(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Reservation, error)
	ListForRequester(ctx context.Context, actor types.Actor) ([]models.Reservation, error)
	ListAll(ctx context.Context, actor types.Actor, status *enums.LifecycleStatus) ([]models.Reservation, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	capacity  availability.Service
	policy    entryPolicy
	histories *history.Repository
	events    eventEmitter
	locker    Locker
	logg      *logger.Logger
	metrics   *metrics.ReservationMetrics
}

// NewService builds the reservation transaction manager.
func NewService(
	repo *Repository,
	tx txRunner,
	capacity availability.Service,
	policy entryPolicy,
	histories *history.Repository,
	events eventEmitter,
	locker Locker,
	logg *logger.Logger,
	m *metrics.ReservationMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if capacity == nil {
		return nil, fmt.Errorf("availability service required")
	}
	if policy == nil {
		return nil, fmt.Errorf("approval policy required")
	}
	if histories == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		capacity:  capacity,
		policy:    policy,
		histories: histories,
		events:    events,
		locker:    locker,
		logg:      logg,
		metrics:   m,
	}, nil
}

// SubmitSingleAsset books one discrete asset. The target lock is held across
// the whole commit transaction; capacity is checked before the insert and
// re-verified after it so a racing writer on another instance still aborts.
func (s *service) SubmitSingleAsset(ctx context.Context, actor types.Actor, input SubmitSingleAssetInput) (*models.Reservation, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity required")
	}
	window, err := booking.NewWindow(input.StartAt, input.EndAt)
	if err != nil {
		return nil, err
	}
	target := booking.AssetTarget(input.AssetID)
	if err := target.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, []string{target.LockKey()})
	if err != nil {
		return nil, err
	}
	defer release()

	res := s.newReservation(actor, window)
	res.TargetType = enums.TargetTypeAsset
	res.AssetID = &input.AssetID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		snapshot, err := s.capacity.SnapshotOrErr(ctx, tx, target, window)
		if err != nil {
			return err
		}
		if err := checkRoom(snapshot, 1); err != nil {
			return err
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, res); err != nil {
			return err
		}
		if err := s.reverify(ctx, tx, target, window); err != nil {
			return err
		}
		return s.recordSubmission(ctx, tx, actor, res)
	})
	if err != nil {
		s.observeSubmission(err)
		return nil, err
	}

	s.observeSubmission(nil)
	s.logSubmission(ctx, actor, res)
	return res, nil
}

// SubmitBasket books one or more pooled models atomically. Per-model locks
// are acquired in sorted order; any item that cannot be accommodated fails
// the whole basket.
func (s *service) SubmitBasket(ctx context.Context, actor types.Actor, input SubmitBasketInput) (*models.Reservation, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity required")
	}
	window, err := booking.NewWindow(input.StartAt, input.EndAt)
	if err != nil {
		return nil, err
	}
	items, err := normalizeItems(input.Items)
	if err != nil {
		return nil, err
	}

	lockKeys := make([]string, 0, len(items))
	for _, item := range items {
		lockKeys = append(lockKeys, booking.ModelTarget(item.ModelID).LockKey())
	}
	release, err := s.locker.Acquire(ctx, lockKeys)
	if err != nil {
		return nil, err
	}
	defer release()

	res := s.newReservation(actor, window)
	res.TargetType = enums.TargetTypeModel
	for _, item := range items {
		res.Items = append(res.Items, models.ReservationItem{
			ID:            uuid.New(),
			ReservationID: res.ID,
			ModelID:       item.ModelID,
			Quantity:      item.Quantity,
			DisplayName:   item.DisplayName,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkBasketRoom(ctx, tx, items, window); err != nil {
			return err
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, res); err != nil {
			return err
		}
		for _, item := range items {
			if err := s.reverify(ctx, tx, booking.ModelTarget(item.ModelID), window); err != nil {
				return err
			}
		}
		return s.recordSubmission(ctx, tx, actor, res)
	})
	if err != nil {
		s.observeSubmission(err)
		return nil, err
	}

	s.observeSubmission(nil)
	s.logSubmission(ctx, actor, res)
	return res, nil
}

// Delete hard-deletes a reservation. Owners may delete their own rows; staff
// may delete any. A prior cancel does not block deletion.
func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		res, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return err
		}
		if !actor.CanModerate() && !actor.Owns(res.ExternalUserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not your reservation")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.histories.WithTx(tx).Record(ctx, id, enums.HistoryActionDeleted, actor.AuditLabel(), ""); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationDeleted,
			AggregateType: enums.AggregateReservation,
			AggregateID:   id,
			Actor:         actorRef(actor),
			Data:          res,
			Version:       1,
		})
	})
}

func (s *service) GetForActor(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, err
	}
	if !actor.CanModerate() && !actor.Owns(res.ExternalUserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your reservation")
	}
	return res, nil
}

func (s *service) ListForRequester(ctx context.Context, actor types.Actor) ([]models.Reservation, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity required")
	}
	return s.repo.ListForRequester(ctx, actor.UserID)
}

func (s *service) ListAll(ctx context.Context, actor types.Actor, status *enums.LifecycleStatus) ([]models.Reservation, error) {
	if !actor.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing all reservations requires staff role")
	}
	return s.repo.ListAll(ctx, status)
}

func (s *service) newReservation(actor types.Actor, window booking.Window) *models.Reservation {
	res := &models.Reservation{
		ID:             uuid.New(),
		RequesterName:  actor.Name,
		RequesterEmail: actor.Email,
		ExternalUserID: actor.UserID,
		StartAt:        window.StartAt,
		EndAt:          window.EndAt,
		Status:         enums.LifecycleStatusPending,
		ApprovalStatus: s.policy.EntryState(actor),
	}
	if res.ApprovalStatus == enums.ApprovalStatusAutoApproved {
		now := time.Now()
		label := "auto-approval policy"
		res.ApprovedBy = &label
		res.ApprovedAt = &now
	}
	return res
}

// checkBasketRoom verifies every item fits, aggregating all violations so
// the caller sees the full set of failing lines, not just the first.
func (s *service) checkBasketRoom(ctx context.Context, tx *gorm.DB, items []BasketItemInput, window booking.Window) error {
	var merged error
	conflicts := make([]ItemConflict, 0)

	for _, item := range items {
		target := booking.ModelTarget(item.ModelID)
		snapshot, err := s.capacity.SnapshotOrErr(ctx, tx, target, window)
		if err != nil {
			return err
		}
		if err := checkRoom(snapshot, item.Quantity); err != nil {
			merged = multierr.Append(merged, err)
			conflicts = append(conflicts, ItemConflict{
				ModelID:   item.ModelID,
				Requested: item.Quantity,
				Free:      snapshot.FreeUnits,
				Reason:    snapshot.Reason.String(),
			})
		}
	}

	if merged == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, merged, "basket cannot be accommodated").WithDetails(conflicts)
}

// reverify re-reads committed sums including the rows this transaction just
// inserted. A racing commit that slipped past the pre-check trips this and
// rolls back everything.
func (s *service) reverify(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) error {
	snapshot, err := s.capacity.SnapshotOrErr(ctx, tx, target, window)
	if err != nil {
		return err
	}
	if snapshot.CommittedUnits+snapshot.ExternallyCheckedOut > snapshot.TotalUnits.Value {
		if s.metrics != nil {
			s.metrics.IncConflict()
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "capacity taken by a concurrent booking")
	}
	return nil
}

func (s *service) recordSubmission(ctx context.Context, tx *gorm.DB, actor types.Actor, res *models.Reservation) error {
	histories := s.histories.WithTx(tx)
	if err := histories.Record(ctx, res.ID, enums.HistoryActionSubmitted, actor.AuditLabel(), ""); err != nil {
		return err
	}
	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationSubmitted,
		AggregateType: enums.AggregateReservation,
		AggregateID:   res.ID,
		Actor:         actorRef(actor),
		Data:          res,
		Version:       1,
	}); err != nil {
		return err
	}

	if res.ApprovalStatus != enums.ApprovalStatusAutoApproved {
		return nil
	}
	if err := histories.Record(ctx, res.ID, enums.HistoryActionAutoApproved, "auto-approval policy", ""); err != nil {
		return err
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationAutoApproved,
		AggregateType: enums.AggregateReservation,
		AggregateID:   res.ID,
		Actor:         actorRef(actor),
		Data:          res,
		Version:       1,
	})
}

func (s *service) observeSubmission(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.ObserveSubmission("accepted")
	case pkgerrors.HasCode(err, pkgerrors.CodeConflict):
		s.metrics.ObserveSubmission("conflict")
	case pkgerrors.HasCode(err, pkgerrors.CodeCapacityUnknown):
		s.metrics.ObserveSubmission("capacity_unknown")
	default:
		s.metrics.ObserveSubmission("rejected")
	}
}

func (s *service) logSubmission(ctx context.Context, actor types.Actor, res *models.Reservation) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithReservationID(ctx, res.ID.String())
	ctx = s.logg.WithUserID(ctx, actor.UserID)
	s.logg.Info(ctx, "reservation submitted")
}

func checkRoom(snapshot *availability.Snapshot, qty int) error {
	if snapshot.Blackout {
		return pkgerrors.New(pkgerrors.CodeConflict, "window falls inside a blackout")
	}
	if !snapshot.CanAccommodate(qty) {
		return pkgerrors.New(pkgerrors.CodeConflict, "not enough free units for the window")
	}
	return nil
}

func normalizeItems(items []BasketItemInput) ([]BasketItemInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket must contain at least one item")
	}

	merged := make([]BasketItemInput, 0, len(items))
	index := map[uuid.UUID]int{}
	for _, item := range items {
		if item.ModelID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id is required")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if at, ok := index[item.ModelID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ModelID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	if actor.IsZero() {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Email: actor.Email, Role: actor.Role.String()}
}
