package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ReservationsHandler handles reservation endpoints.
type ReservationsHandler struct {
	DB  *sql.DB
	Svc *inventory.Service
}

type createReservationRequest struct {
	ResourceID int64     `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Quantity   int       `json:"quantity"`
	Purpose    string    `json:"purpose"`
}

// List handles GET /api/reservations.
func (h *ReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ReservationFilter{
		ResourceID: int64(queryInt(r, "resource_id", 0)),
		UserID:     int64(queryInt(r, "user_id", 0)),
		Status:     r.URL.Query().Get("status"),
	}
	if !isStaff(r) {
		filter.UserID = GetClaims(r.Context()).UserID
	}

	reservations, err := store.ListReservations(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	jsonResponse(w, http.StatusOK, reservations)
}

// Create handles POST /api/reservations.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	v, err := h.Svc.CreateReservation(r.Context(), claims.UserID, inventory.ReservationParams{
		ResourceID: req.ResourceID,
		Start:      req.StartTime,
		End:        req.EndTime,
		Quantity:   req.Quantity,
		Purpose:    req.Purpose,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("reservation created", "user", claims.Username, "resource", v.ResourceName, "quantity", v.Quantity)
	jsonResponse(w, http.StatusCreated, v)
}

// Get handles GET /api/reservations/{id}.
func (h *ReservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.visible(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// UpdateStatus handles PATCH /api/reservations/{id}/status.
func (h *ReservationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.setStatus(w, r, id, req.Status)
}

// Cancel handles POST /api/reservations/{id}/cancel. Owners may cancel their
// own reservations; staff may cancel any.
func (h *ReservationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	v, ok := h.visible(w, r)
	if !ok {
		return
	}
	h.setStatus(w, r, v.ID, model.ReservationCancelled)
}

func (h *ReservationsHandler) setStatus(w http.ResponseWriter, r *http.Request, id int64, status string) {
	claims := GetClaims(r.Context())
	v, err := h.Svc.UpdateReservationStatus(r.Context(), claims.UserID, id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("reservation status updated", "user", claims.Username, "reservation_id", id, "status", v.Status)
	jsonResponse(w, http.StatusOK, v)
}

// visible loads the {id} reservation if the caller may see it, writing a
// response and returning false otherwise.
func (h *ReservationsHandler) visible(w http.ResponseWriter, r *http.Request) (*model.Reservation, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid reservation id")
		return nil, false
	}

	v, err := store.GetReservation(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if v == nil || (!isStaff(r) && v.UserID != GetClaims(r.Context()).UserID) {
		jsonError(w, http.StatusNotFound, "reservation not found")
		return nil, false
	}
	return v, true
}
