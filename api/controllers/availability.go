package controllers

import (
	"net/http"

	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/api/validators"
	"github.com/gearbookhq/gearbook-backend/internal/availability"
	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

// AvailabilityGet previews capacity for one target and window. Unknown
// capacity renders with free_units omitted so clients cannot mistake it
// for zero.
func AvailabilityGet(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		target, err := targetFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		startAt, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		endAt, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window, err := booking.NewWindow(startAt, endAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Capacity(r.Context(), nil, target, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSnapshotResponse(target, snapshot))
	}
}

func targetFromQuery(r *http.Request) (booking.Target, error) {
	rawType := r.URL.Query().Get("target_type")
	targetType, err := enums.ParseTargetType(rawType)
	if err != nil {
		return booking.Target{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type").WithDetails(map[string]any{"field": "target_type"})
	}

	switch targetType {
	case enums.TargetTypeAsset:
		assetID, err := validators.ParseQueryUUID(r, "asset_id")
		if err != nil {
			return booking.Target{}, err
		}
		return booking.AssetTarget(assetID), nil
	default:
		modelID, err := validators.ParseQueryUUID(r, "model_id")
		if err != nil {
			return booking.Target{}, err
		}
		return booking.ModelTarget(modelID), nil
	}
}

type snapshotResponse struct {
	TargetType           string `json:"target_type"`
	TargetID             string `json:"target_id"`
	Known                bool   `json:"known"`
	Blackout             bool   `json:"blackout"`
	TotalUnits           *int   `json:"total_units,omitempty"`
	CommittedUnits       int    `json:"committed_units"`
	ExternallyCheckedOut *int   `json:"externally_checked_out,omitempty"`
	FreeUnits            *int   `json:"free_units,omitempty"`
	Reason               string `json:"reason,omitempty"`
}

func newSnapshotResponse(target booking.Target, snapshot *availability.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		TargetType:     target.Type.String(),
		TargetID:       target.ID().String(),
		Known:          snapshot.Known,
		Blackout:       snapshot.Blackout,
		CommittedUnits: snapshot.CommittedUnits,
		Reason:         snapshot.Reason.String(),
	}
	if snapshot.Known && !snapshot.Blackout {
		total := snapshot.TotalUnits.Value
		external := snapshot.ExternallyCheckedOut
		free := snapshot.FreeUnits
		resp.TotalUnits = &total
		resp.ExternallyCheckedOut = &external
		resp.FreeUnits = &free
	}
	return resp
}
