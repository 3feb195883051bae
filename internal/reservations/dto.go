package reservations

import (
	"time"

	"github.com/google/uuid"
)

// SubmitSingleAssetInput books one discrete asset for a window.
type SubmitSingleAssetInput struct {
	AssetID uuid.UUID
	StartAt time.Time
	EndAt   time.Time
}

// BasketItemInput books a quantity of one pooled model.
type BasketItemInput struct {
	ModelID     uuid.UUID
	Quantity    int
	DisplayName string
}

// SubmitBasketInput books one or more pooled models over a shared window.
type SubmitBasketInput struct {
	Items   []BasketItemInput
	StartAt time.Time
	EndAt   time.Time
}

// ItemConflict describes one target that could not be accommodated. Returned
// as error details so basket callers can render per-line failures.
type ItemConflict struct {
	ModelID   uuid.UUID `json:"modelId"`
	Requested int       `json:"requested"`
	Free      int       `json:"free"`
	Reason    string    `json:"reason"`
}
