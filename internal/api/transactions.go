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

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	DB  *sql.DB
	Svc *inventory.Service
}

type createTransactionRequest struct {
	TransactionType     string     `json:"transaction_type"`
	ResourceID          int64      `json:"resource_id"`
	Quantity            int        `json:"quantity"`
	ScheduledReturnDate *time.Time `json:"scheduled_return_date"`
	Notes               string     `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// List handles GET /api/transactions. Students and teachers only see their
// own transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TransactionFilter{
		ResourceID: int64(queryInt(r, "resource_id", 0)),
		UserID:     int64(queryInt(r, "user_id", 0)),
		Type:       model.TransactionType(q.Get("type")),
		Status:     model.TransactionStatus(q.Get("status")),
		Limit:      queryInt(r, "limit", 0),
	}
	if !isStaff(r) {
		filter.UserID = GetClaims(r.Context()).UserID
	}

	txs, err := store.ListTransactions(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// Overdue handles GET /api/transactions/overdue.
func (h *TransactionsHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.OverdueTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// User handles GET /api/transactions/user.
func (h *TransactionsHandler) User(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.UserTransactions(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := store.GetTransaction(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tx == nil || (!isStaff(r) && tx.UserID != GetClaims(r.Context()).UserID) {
		jsonError(w, http.StatusNotFound, "transaction not found")
		return
	}
	jsonResponse(w, http.StatusOK, tx)
}

// Create handles POST /api/transactions. Manual additions and removals are
// reserved for staff.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txReq, err := inventory.ParseRequest(req.TransactionType, req.ResourceID, req.Quantity, req.ScheduledReturnDate, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch txReq.Type() {
	case model.TypeAddition, model.TypeRemoval:
		if !isStaff(r) {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	claims := GetClaims(r.Context())
	tx, err := h.Svc.CreateTransaction(r.Context(), claims.UserID, txReq)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("transaction created",
		"user", claims.Username,
		"type", tx.Type,
		"resource", tx.ResourceName,
		"quantity", tx.Quantity,
		"status", tx.Status,
	)
	jsonResponse(w, http.StatusCreated, tx)
}

// UpdateStatus handles PATCH /api/transactions/{id}/status.
func (h *TransactionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	tx, err := h.Svc.UpdateTransactionStatus(r.Context(), claims.UserID, id, model.TransactionStatus(req.Status), req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("transaction status updated", "user", claims.Username, "transaction_id", id, "status", tx.Status)
	jsonResponse(w, http.StatusOK, tx)
}
