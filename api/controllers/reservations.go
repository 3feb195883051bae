package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/api/middleware"
	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/api/validators"
	basketsvc "github.com/gearbookhq/gearbook-backend/internal/basket"
	resvc "github.com/gearbookhq/gearbook-backend/internal/reservations"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

// ReservationSubmitAsset books one discrete asset for a window.
func ReservationSubmitAsset(svc resvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload submitAssetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		record, err := svc.SubmitSingleAsset(r.Context(), actor, resvc.SubmitSingleAssetInput{
			AssetID: payload.AssetID,
			StartAt: payload.StartAt,
			EndAt:   payload.EndAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReservationResponse(record))
	}
}

// ReservationSubmitBasket books pooled models atomically. When the body has
// no items and the request names a basket session, the pending selection is
// drained instead and cleared once the submission commits.
func ReservationSubmitBasket(svc resvc.Service, baskets basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload submitBasketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := r.Header.Get(sessionIDHeader)
		items := payload.Items
		fromSession := false
		if len(items) == 0 && sessionID != "" && baskets != nil {
			basket, err := baskets.Get(r.Context(), sessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for _, line := range basket.Items {
				items = append(items, basketItemPayload{
					ModelID:     line.ModelID,
					Quantity:    line.Quantity,
					DisplayName: line.DisplayName,
				})
			}
			fromSession = true
		}

		input := resvc.SubmitBasketInput{
			StartAt: payload.StartAt,
			EndAt:   payload.EndAt,
		}
		for _, item := range items {
			input.Items = append(input.Items, resvc.BasketItemInput{
				ModelID:     item.ModelID,
				Quantity:    item.Quantity,
				DisplayName: item.DisplayName,
			})
		}

		actor := middleware.ActorFromContext(r.Context())
		record, err := svc.SubmitBasket(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if fromSession {
			if err := baskets.Clear(r.Context(), sessionID); err != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "session_id", sessionID), "basket clear after submit failed")
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReservationResponse(record))
	}
}

// ReservationGet returns one reservation visible to the caller.
func ReservationGet(svc resvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		record, err := svc.GetForActor(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReservationResponse(record))
	}
}

// ReservationListMine lists the caller's own reservations.
func ReservationListMine(svc resvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		records, err := svc.ListForRequester(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReservationListResponse(records))
	}
}

// ReservationListAll lists every reservation, optionally filtered by
// lifecycle status. Staff only.
func ReservationListAll(svc resvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.LifecycleStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseLifecycleStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}

		actor := middleware.ActorFromContext(r.Context())
		records, err := svc.ListAll(r.Context(), actor, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReservationListResponse(records))
	}
}

// ReservationDelete hard-deletes a reservation.
func ReservationDelete(svc resvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

func reservationIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "reservationId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation id")
	}
	return id, nil
}

type submitAssetRequest struct {
	AssetID uuid.UUID `json:"asset_id" validate:"required"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
}

type submitBasketRequest struct {
	Items   []basketItemPayload `json:"items" validate:"omitempty,dive"`
	StartAt time.Time           `json:"start_at" validate:"required"`
	EndAt   time.Time           `json:"end_at" validate:"required"`
}

type basketItemPayload struct {
	ModelID     uuid.UUID `json:"model_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
	DisplayName string    `json:"display_name"`
}

type reservationResponse struct {
	ID             uuid.UUID                 `json:"id"`
	RequesterName  string                    `json:"requester_name"`
	RequesterEmail string                    `json:"requester_email"`
	ExternalUserID string                    `json:"external_user_id"`
	TargetType     string                    `json:"target_type"`
	AssetID        *uuid.UUID                `json:"asset_id,omitempty"`
	StartAt        time.Time                 `json:"start_at"`
	EndAt          time.Time                 `json:"end_at"`
	Status         string                    `json:"status"`
	ApprovalStatus string                    `json:"approval_status"`
	ApprovedBy     *string                   `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time                `json:"approved_at,omitempty"`
	Items          []reservationItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

type reservationItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ModelID     uuid.UUID `json:"model_id"`
	Quantity    int       `json:"quantity"`
	DisplayName string    `json:"display_name,omitempty"`
}

func newReservationResponse(record *models.Reservation) reservationResponse {
	items := make([]reservationItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, reservationItemResponse{
			ID:          item.ID,
			ModelID:     item.ModelID,
			Quantity:    item.Quantity,
			DisplayName: item.DisplayName,
		})
	}

	return reservationResponse{
		ID:             record.ID,
		RequesterName:  record.RequesterName,
		RequesterEmail: record.RequesterEmail,
		ExternalUserID: record.ExternalUserID,
		TargetType:     string(record.TargetType),
		AssetID:        record.AssetID,
		StartAt:        record.StartAt,
		EndAt:          record.EndAt,
		Status:         string(record.Status),
		ApprovalStatus: string(record.ApprovalStatus),
		ApprovedBy:     record.ApprovedBy,
		ApprovedAt:     record.ApprovedAt,
		Items:          items,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func newReservationListResponse(records []models.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(records))
	for i := range records {
		out = append(out, newReservationResponse(&records[i]))
	}
	return out
}
