package availability

import (
	"context"

	"gorm.io/gorm"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Repository computes committed unit sums from reservation rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an availability repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CommittedUnits sums the units held by reservations in a capacity-holding
// status whose window overlaps the given one. Single-asset reservations hold
// one implicit unit each; pooled reservations hold the sum of their item
// quantities for the model.
func (r *Repository) CommittedUnits(ctx context.Context, target booking.Target, window booking.Window) (int, error) {
	if target.Type == enums.TargetTypeAsset {
		var count int64
		err := r.db.WithContext(ctx).
			Model(&models.Reservation{}).
			Where("asset_id = ?", target.AssetID).
			Where("status IN ?", statusStrings(enums.ActiveLifecycleStatuses)).
			Where("start_at < ? AND ? < end_at", window.EndAt, window.StartAt).
			Count(&count).Error
		if err != nil {
			return 0, err
		}
		return int(count), nil
	}

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ReservationItem{}).
		Select("COALESCE(SUM(reservation_items.quantity), 0)").
		Joins("JOIN reservations ON reservations.id = reservation_items.reservation_id").
		Where("reservation_items.model_id = ?", target.ModelID).
		Where("reservations.status IN ?", statusStrings(enums.ActiveLifecycleStatuses)).
		Where("reservations.start_at < ? AND ? < reservations.end_at", window.EndAt, window.StartAt).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func statusStrings(statuses []enums.LifecycleStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
