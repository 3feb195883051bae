package booking

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

// Target identifies what a reservation claims capacity against: either a
// single discrete asset or a pooled model with interchangeable units.
type Target struct {
	Type    enums.TargetType
	AssetID uuid.UUID
	ModelID uuid.UUID
}

// AssetTarget builds a target for one discrete asset.
func AssetTarget(assetID uuid.UUID) Target {
	return Target{Type: enums.TargetTypeAsset, AssetID: assetID}
}

// ModelTarget builds a target for a pooled model.
func ModelTarget(modelID uuid.UUID) Target {
	return Target{Type: enums.TargetTypeModel, ModelID: modelID}
}

func (t Target) Validate() error {
	switch t.Type {
	case enums.TargetTypeAsset:
		if t.AssetID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required for asset targets")
		}
	case enums.TargetTypeModel:
		if t.ModelID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "model id is required for model targets")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown target type")
	}
	return nil
}

// ID returns the identifier the target claims capacity against.
func (t Target) ID() uuid.UUID {
	if t.Type == enums.TargetTypeAsset {
		return t.AssetID
	}
	return t.ModelID
}

// LockKey returns the stable key used to serialize submissions that
// compete for the same capacity.
func (t Target) LockKey() string {
	return fmt.Sprintf("%s:%s", t.Type, t.ID())
}
