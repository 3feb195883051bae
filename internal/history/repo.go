package history

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Repository writes and reads the append-only audit trail.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a history repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Record appends one audit entry.
func (r *Repository) Record(ctx context.Context, reservationID uuid.UUID, action enums.HistoryAction, actor string, notes string) error {
	entry := models.HistoryEntry{
		ID:            uuid.New(),
		ReservationID: reservationID,
		Action:        action,
		Actor:         actor,
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		entry.Notes = &trimmed
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ListForReservation returns the trail oldest-first.
func (r *Repository) ListForReservation(ctx context.Context, reservationID uuid.UUID) ([]models.HistoryEntry, error) {
	var rows []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
