package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Repository exposes reservation persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reservation repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the reservation and any items it owns.
func (r *Repository) Create(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// FindByID loads one reservation with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByIDForUpdate loads one reservation under a row lock. Must run inside
// a transaction; it serializes approval and lifecycle transitions. SQLite
// has no row locks and serializes writers itself, so the clause is skipped
// there.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var res models.Reservation
	err := query.First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("reservation_id = ?", id).Find(&res.Items).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// ListForRequester returns the requester's reservations newest-first.
func (r *Repository) ListForRequester(ctx context.Context, externalUserID string) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListAll returns every reservation, optionally filtered by status.
func (r *Repository) ListAll(ctx context.Context, status *enums.LifecycleStatus) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Reservation
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateStates persists status fields after a transition.
func (r *Repository) UpdateStates(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", res.ID).
		Updates(map[string]any{
			"status":          res.Status,
			"approval_status": res.ApprovalStatus,
			"approved_by":     res.ApprovedBy,
			"approved_at":     res.ApprovedAt,
		}).Error
}

// Delete hard-deletes the reservation; items cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.ReservationItem{}, "reservation_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id).Error
}
