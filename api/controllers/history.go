package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/api/middleware"
	"github.com/gearbookhq/gearbook-backend/api/responses"
	historysvc "github.com/gearbookhq/gearbook-backend/internal/history"
	"github.com/gearbookhq/gearbook-backend/pkg/db/models"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

// HistoryList returns the audit trail for one reservation, oldest first.
// Staff only.
func HistoryList(svc historysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		entries, err := svc.ListForReservation(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]historyEntryResponse, 0, len(entries))
		for i := range entries {
			out = append(out, newHistoryEntryResponse(&entries[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type historyEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Action        string    `json:"action"`
	Actor         string    `json:"actor"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newHistoryEntryResponse(entry *models.HistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		ID:            entry.ID,
		ReservationID: entry.ReservationID,
		Action:        string(entry.Action),
		Actor:         entry.Actor,
		Notes:         entry.Notes,
		CreatedAt:     entry.CreatedAt,
	}
}
