package blackouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Repository exposes blackout slot persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a blackout repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new blackout slot.
func (r *Repository) Create(ctx context.Context, slot *models.BlackoutSlot) (*models.BlackoutSlot, error) {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

// FindByID loads one blackout slot.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BlackoutSlot, error) {
	var slot models.BlackoutSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// Delete removes a blackout slot.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.BlackoutSlot{}, "id = ?", id).Error
}

// List returns all slots ordered by window start.
func (r *Repository) List(ctx context.Context) ([]models.BlackoutSlot, error) {
	var rows []models.BlackoutSlot
	err := r.db.WithContext(ctx).
		Order("start_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// AnyOverlapping reports whether any applicable slot overlaps the window.
// Global slots apply to every target; asset-scoped slots only apply to the
// matching single-asset target. Pooled models are only affected by global
// slots.
func (r *Repository) AnyOverlapping(ctx context.Context, target booking.Target, window booking.Window) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BlackoutSlot{}).
		Where("start_at < ? AND ? < end_at", window.EndAt, window.StartAt)

	if target.Type == enums.TargetTypeAsset {
		query = query.Where("scope = ? OR (scope = ? AND asset_id = ?)",
			enums.BlackoutScopeGlobal, enums.BlackoutScopeAsset, target.AssetID)
	} else {
		query = query.Where("scope = ?", enums.BlackoutScopeGlobal)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
