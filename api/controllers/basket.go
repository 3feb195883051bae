package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/api/validators"
	basketsvc "github.com/gearbookhq/gearbook-backend/internal/basket"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// BasketGet returns the caller's pending selection.
func BasketGet(svc basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basket, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, basket)
	}
}

// BasketAdd merges one line into the pending selection.
func BasketAdd(svc basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addBasketItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basket, err := svc.Add(r.Context(), sessionID, basketsvc.Item{
			ModelID:     payload.ModelID,
			Quantity:    payload.Quantity,
			DisplayName: payload.DisplayName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, basket)
	}
}

// BasketRemoveItem drops one model line from the pending selection.
func BasketRemoveItem(svc basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		modelID, err := uuid.Parse(chi.URLParam(r, "modelId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid model id"))
			return
		}

		basket, err := svc.Remove(r.Context(), sessionID, modelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, basket)
	}
}

// BasketClear empties the pending selection.
func BasketClear(svc basketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func sessionFromHeader(r *http.Request) (string, error) {
	sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id header is required").WithDetails(map[string]any{"header": sessionIDHeader})
	}
	return sessionID, nil
}

type addBasketItemRequest struct {
	ModelID     uuid.UUID `json:"model_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
	DisplayName string    `json:"display_name"`
}
