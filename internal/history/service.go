package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

// Service exposes the staff-facing audit trail read.
type Service interface {
	ListForReservation(ctx context.Context, actor types.Actor, reservationID uuid.UUID) ([]models.HistoryEntry, error)
}

type service struct {
	repo *Repository
}

// NewService builds a history read service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForReservation(ctx context.Context, actor types.Actor, reservationID uuid.UUID) ([]models.HistoryEntry, error) {
	if !actor.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "history requires staff role")
	}
	if reservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	return s.repo.ListForReservation(ctx, reservationID)
}
