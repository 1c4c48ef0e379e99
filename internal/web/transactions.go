package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// TransactionsPage handles GET /transactions. Staff see everything and can
// filter by status; others see their own history.
func (s *Server) TransactionsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	staff := model.RoleAtLeast(claims.Role, model.RoleStaff)

	filter := store.TransactionFilter{
		Status: model.TransactionStatus(r.URL.Query().Get("status")),
		Limit:  200,
	}
	if !staff {
		filter.UserID = claims.UserID
	}
	txs, err := store.ListTransactions(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
	}

	var overdue []model.Transaction
	if staff {
		if overdue, err = s.Svc.OverdueTransactions(r.Context()); err != nil {
			slog.Error("failed to list overdue transactions", "error", err)
		}
	}

	s.Templates.Render(w, "transactions.html", &struct {
		PageData
		Transactions []model.Transaction
		Overdue      []model.Transaction
		Status       string
	}{
		PageData:     s.page(r, "Transactions"),
		Transactions: txs,
		Overdue:      overdue,
		Status:       string(filter.Status),
	})
}

// TransactionCreateSubmit handles POST /resources/{id}/transactions. The
// return date is a plain yyyy-mm-dd field and is taken as the end of that
// day in local time.
func (s *Server) TransactionCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/resources/%d", id)

	txType := r.FormValue("transaction_type")
	switch model.TransactionType(txType) {
	case model.TypeAddition, model.TypeRemoval:
		if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	var due *time.Time
	if v := r.FormValue("scheduled_return_date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			redirectWith(w, r, path, "error", "Return date must look like 2026-01-31.")
			return
		}
		d = d.Add(24*time.Hour - time.Second)
		due = &d
	}

	req, err := inventory.ParseRequest(txType, id, quantity, due, r.FormValue("notes"))
	if err != nil {
		redirectWith(w, r, path, "error", userMessage(err))
		return
	}

	tx, err := s.Svc.CreateTransaction(r.Context(), claims.UserID, req)
	if err != nil {
		slog.Warn("transaction failed", "error", err, "user", claims.Username, "type", txType)
		redirectWith(w, r, path, "error", userMessage(err))
		return
	}

	slog.Info("transaction created", "user", claims.Username, "type", tx.Type,
		"resource", tx.ResourceName, "quantity", tx.Quantity, "status", tx.Status)

	msg := "Done."
	if tx.Status == model.TxPending {
		msg = "Request sent for approval."
	}
	redirectWith(w, r, path, "ok", msg)
}

// TransactionStatusSubmit handles POST /transactions/{id}/status (staff only).
func (s *Server) TransactionStatusSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	back := r.FormValue("return_to")
	if back != "/" {
		back = "/transactions"
	}

	status := model.TransactionStatus(r.FormValue("status"))
	tx, err := s.Svc.UpdateTransactionStatus(r.Context(), claims.UserID, id, status, r.FormValue("notes"))
	if err != nil {
		slog.Warn("transaction status update failed", "error", err, "user", claims.Username)
		redirectWith(w, r, back, "error", userMessage(err))
		return
	}

	slog.Info("transaction status updated", "user", claims.Username, "transaction_id", id, "status", tx.Status)
	http.Redirect(w, r, back, http.StatusSeeOther)
}
