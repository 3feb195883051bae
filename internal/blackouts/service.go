package blackouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/outbox"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes admin blackout management and the overlap check used by
// availability and submission.
type Service interface {
	Create(ctx context.Context, actor types.Actor, input CreateInput) (*models.BlackoutSlot, error)
	Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error
	List(ctx context.Context, actor types.Actor) ([]models.BlackoutSlot, error)
	AnyOverlapping(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (bool, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	events eventEmitter
}

// NewService builds a blackout service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blackout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tx: tx, events: events}, nil
}

// CreateInput holds the payload for a new blackout slot.
type CreateInput struct {
	StartAt time.Time
	EndAt   time.Time
	Scope   enums.BlackoutScope
	AssetID *uuid.UUID
	Reason  string
}

func (s *service) Create(ctx context.Context, actor types.Actor, input CreateInput) (*models.BlackoutSlot, error) {
	if !actor.CanAdministerBlackouts() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "blackout management requires admin role")
	}
	if _, err := booking.NewWindow(input.StartAt, input.EndAt); err != nil {
		return nil, err
	}
	if !input.Scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown blackout scope")
	}
	switch input.Scope {
	case enums.BlackoutScopeAsset:
		if input.AssetID == nil || *input.AssetID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required for asset-scoped blackouts")
		}
	case enums.BlackoutScopeGlobal:
		if input.AssetID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "global blackouts must not name an asset")
		}
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	slot := &models.BlackoutSlot{
		ID:        uuid.New(),
		StartAt:   input.StartAt,
		EndAt:     input.EndAt,
		Scope:     input.Scope,
		AssetID:   input.AssetID,
		Reason:    strings.TrimSpace(input.Reason),
		CreatedBy: actor.AuditLabel(),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, slot); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBlackoutCreated,
			AggregateType: enums.AggregateBlackoutSlot,
			AggregateID:   slot.ID,
			Actor:         actorRef(actor),
			Data:          slot,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if !actor.CanAdministerBlackouts() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "blackout management requires admin role")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "blackout id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		slot, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "blackout slot not found")
			}
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBlackoutDeleted,
			AggregateType: enums.AggregateBlackoutSlot,
			AggregateID:   slot.ID,
			Actor:         actorRef(actor),
			Data:          slot,
			Version:       1,
		})
	})
}

func (s *service) List(ctx context.Context, actor types.Actor) ([]models.BlackoutSlot, error) {
	if !actor.CanAdministerBlackouts() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "blackout management requires admin role")
	}
	return s.repo.List(ctx)
}

// AnyOverlapping runs the overlap check, optionally inside a caller-owned
// transaction so the commit path sees a consistent view.
func (s *service) AnyOverlapping(ctx context.Context, tx *gorm.DB, target booking.Target, window booking.Window) (bool, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	return repo.AnyOverlapping(ctx, target, window)
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	if actor.IsZero() {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Email: actor.Email, Role: actor.Role.String()}
}
