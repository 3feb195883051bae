package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// HistoryEntry is one immutable audit record per approval or lifecycle
// transition. Rows are append-only; nothing updates or deletes them.
type HistoryEntry struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID           `gorm:"column:reservation_id;type:uuid;not null;index"`
	Action        enums.HistoryAction `gorm:"column:action;type:text;not null"`
	Actor         string              `gorm:"column:actor;not null"`
	Notes         *string             `gorm:"column:notes"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy audit table name.
func (HistoryEntry) TableName() string {
	return "approval_history"
}
