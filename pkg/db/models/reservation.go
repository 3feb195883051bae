package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Reservation claims exclusive use of a target over a half-open [StartAt,
// EndAt) window. A single-asset reservation carries one implicit unit and
// sets AssetID; a basket reservation owns one or more Items instead.
type Reservation struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	RequesterName  string                `gorm:"column:requester_name;not null"`
	RequesterEmail string                `gorm:"column:requester_email;not null"`
	ExternalUserID string                `gorm:"column:external_user_id;not null;index"`
	TargetType     enums.TargetType      `gorm:"column:target_type;type:text;not null"`
	AssetID        *uuid.UUID            `gorm:"column:asset_id;type:uuid;index"`
	StartAt        time.Time             `gorm:"column:start_at;not null;index"`
	EndAt          time.Time             `gorm:"column:end_at;not null;index"`
	Status         enums.LifecycleStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ApprovalStatus enums.ApprovalStatus  `gorm:"column:approval_status;type:text;not null;default:'pending_approval'"`
	ApprovedBy     *string               `gorm:"column:approved_by"`
	ApprovedAt     *time.Time            `gorm:"column:approved_at"`
	Items          []ReservationItem     `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// ReservationItem books a quantity of one pooled model under a basket
// reservation. Quantity is fixed at creation; changes mean delete+recreate.
type ReservationItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID `gorm:"column:reservation_id;type:uuid;not null;index"`
	ModelID       uuid.UUID `gorm:"column:model_id;type:uuid;not null;index"`
	Quantity      int       `gorm:"column:quantity;not null"`
	DisplayName   string    `gorm:"column:display_name"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
