package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// BlackoutSlot is an admin-declared window during which booking is refused,
// either globally or for one asset. Slots are immutable once created.
type BlackoutSlot struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StartAt   time.Time           `gorm:"column:start_at;not null;index"`
	EndAt     time.Time           `gorm:"column:end_at;not null;index"`
	Scope     enums.BlackoutScope `gorm:"column:scope;type:text;not null"`
	AssetID   *uuid.UUID          `gorm:"column:asset_id;type:uuid;index"`
	Reason    string              `gorm:"column:reason;not null"`
	CreatedBy string              `gorm:"column:created_by;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
