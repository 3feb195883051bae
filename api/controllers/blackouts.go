package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/api/middleware"
	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/api/validators"
	blackoutsvc "github.com/gearbookhq/gearbook-backend/internal/blackouts"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

// BlackoutCreate declares a new blocked window. Admin only.
func BlackoutCreate(svc blackoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createBlackoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope, err := enums.ParseBlackoutScope(payload.Scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope").WithDetails(map[string]any{"field": "scope"}))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		slot, err := svc.Create(r.Context(), actor, blackoutsvc.CreateInput{
			StartAt: payload.StartAt,
			EndAt:   payload.EndAt,
			Scope:   scope,
			AssetID: payload.AssetID,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBlackoutResponse(slot))
	}
}

// BlackoutList returns every declared blackout slot. Admin only.
func BlackoutList(svc blackoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		slots, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]blackoutResponse, 0, len(slots))
		for i := range slots {
			out = append(out, newBlackoutResponse(&slots[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// BlackoutDelete removes a blackout slot. Admin only.
func BlackoutDelete(svc blackoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "blackoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid blackout id"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createBlackoutRequest struct {
	StartAt time.Time  `json:"start_at" validate:"required"`
	EndAt   time.Time  `json:"end_at" validate:"required"`
	Scope   string     `json:"scope" validate:"required"`
	AssetID *uuid.UUID `json:"asset_id"`
	Reason  string     `json:"reason" validate:"required"`
}

type blackoutResponse struct {
	ID        uuid.UUID  `json:"id"`
	StartAt   time.Time  `json:"start_at"`
	EndAt     time.Time  `json:"end_at"`
	Scope     string     `json:"scope"`
	AssetID   *uuid.UUID `json:"asset_id,omitempty"`
	Reason    string     `json:"reason"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func newBlackoutResponse(slot *models.BlackoutSlot) blackoutResponse {
	return blackoutResponse{
		ID:        slot.ID,
		StartAt:   slot.StartAt,
		EndAt:     slot.EndAt,
		Scope:     string(slot.Scope),
		AssetID:   slot.AssetID,
		Reason:    slot.Reason,
		CreatedBy: slot.CreatedBy,
		CreatedAt: slot.CreatedAt,
	}
}
