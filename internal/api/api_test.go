package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/notify"
	"github.com/erazemk/inventar/internal/store"
)

const testPassword = "password123"

type testServer struct {
	*httptest.Server
	DB *sql.DB
}

func newTestServer(t *testing.T, limiter *LoginLimiter) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	svc := inventory.NewService(database, notify.NewStore(database))
	issuer := auth.NewIssuer("test-secret", time.Hour)

	server := httptest.NewServer(LoggingMiddleware(NewRouter(database, svc, issuer, limiter)))
	t.Cleanup(server.Close)

	createUser(t, database, "admin", model.RoleAdmin)
	return &testServer{Server: server, DB: database}
}

func createUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	u, err := store.CreateUser(context.Background(), database, &model.User{
		Username: username, PasswordHash: hash, Role: role,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	resp := s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"username": username, "password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	var body loginResponse
	decode(t, resp, &body)
	if body.Token == "" {
		t.Fatal("empty token from login")
	}
	return body.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func expectKind(t *testing.T, resp *http.Response, status int, kind inventory.Kind) {
	t.Helper()
	expectStatus(t, resp, status)
	var body map[string]string
	decode(t, resp, &body)
	if body["kind"] != string(kind) {
		t.Errorf("expected kind %s, got %q (%s)", kind, body["kind"], body["error"])
	}
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "nobody", "password": testPassword})
	expectStatus(t, resp, http.StatusUnauthorized)

	token := s.login(t, "admin")
	resp = s.do(t, "GET", "/api/auth/me", token, nil)
	expectStatus(t, resp, http.StatusOK)
	var me model.User
	decode(t, resp, &me)
	if me.Username != "admin" || me.Role != model.RoleAdmin {
		t.Errorf("unexpected user %+v", me)
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, NewLoginLimiter(0.001, 2))

	bad := map[string]string{"username": "admin", "password": "wrong"}
	expectStatus(t, s.do(t, "POST", "/api/auth/login", "", bad), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "POST", "/api/auth/login", "", bad), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "POST", "/api/auth/login", "", bad), http.StatusTooManyRequests)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin")

	expectStatus(t, s.do(t, "POST", "/api/auth/logout", token, nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", "/api/auth/me", token, nil), http.StatusUnauthorized)

	// A fresh login still works.
	expectStatus(t, s.do(t, "GET", "/api/auth/me", s.login(t, "admin"), nil), http.StatusOK)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin")

	resp := s.do(t, "PUT", "/api/auth/password", token, map[string]string{
		"current_password": "wrong", "new_password": "another-password",
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "PUT", "/api/auth/password", token, map[string]string{
		"current_password": testPassword, "new_password": "short",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = s.do(t, "PUT", "/api/auth/password", token, map[string]string{
		"current_password": testPassword, "new_password": "another-password",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "another-password"})
	expectStatus(t, resp, http.StatusOK)
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := newTestServer(t, nil)

	expectStatus(t, s.do(t, "GET", "/api/resources", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "GET", "/api/resources", "not-a-token", nil), http.StatusUnauthorized)
}

func TestResourceTransactionFlow(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin")

	resp := s.do(t, "POST", "/api/categories", token, map[string]string{"name": "AV equipment"})
	expectStatus(t, resp, http.StatusCreated)
	var category model.Category
	decode(t, resp, &category)

	resp = s.do(t, "POST", "/api/resources", token, map[string]any{
		"name": "Projector", "category_id": category.ID, "quantity": 10, "min_quantity": 5,
	})
	expectStatus(t, resp, http.StatusCreated)
	var resource model.Resource
	decode(t, resp, &resource)
	if resource.Quantity != 10 || resource.Status != model.StatusAvailable {
		t.Fatalf("unexpected resource %+v", resource)
	}

	due := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	resp = s.do(t, "POST", "/api/transactions", token, map[string]any{
		"transaction_type": "check_out", "resource_id": resource.ID, "quantity": 6,
		"scheduled_return_date": due,
	})
	expectStatus(t, resp, http.StatusCreated)
	var checkout model.Transaction
	decode(t, resp, &checkout)
	if checkout.Status != model.TxApproved {
		t.Errorf("expected approved check-out, got %s", checkout.Status)
	}

	resp = s.do(t, "GET", fmt.Sprintf("/api/resources/%d", resource.ID), token, nil)
	expectStatus(t, resp, http.StatusOK)
	var detail struct {
		Resource           model.Resource      `json:"resource"`
		RecentTransactions []model.Transaction `json:"recent_transactions"`
	}
	decode(t, resp, &detail)
	if detail.Resource.Quantity != 4 || detail.Resource.Status != model.StatusLowStock {
		t.Errorf("expected 4 low_stock, got %d %s", detail.Resource.Quantity, detail.Resource.Status)
	}
	if len(detail.RecentTransactions) != 2 {
		t.Errorf("expected initial addition and check-out, got %d transactions", len(detail.RecentTransactions))
	}

	resp = s.do(t, "POST", "/api/transactions", token, map[string]any{
		"transaction_type": "check_out", "resource_id": resource.ID, "quantity": 1,
	})
	expectKind(t, resp, http.StatusBadRequest, inventory.KindMissingReturnDate)

	resp = s.do(t, "POST", "/api/transactions", token, map[string]any{
		"transaction_type": "check_out", "resource_id": resource.ID, "quantity": 100,
		"scheduled_return_date": due,
	})
	expectKind(t, resp, http.StatusConflict, inventory.KindInsufficientQuantity)

	resp = s.do(t, "POST", "/api/transactions", token, map[string]any{
		"transaction_type": "borrow", "resource_id": resource.ID, "quantity": 1,
	})
	expectKind(t, resp, http.StatusBadRequest, inventory.KindInvalidTransactionType)

	resp = s.do(t, "POST", "/api/transactions", token, map[string]any{
		"transaction_type": "check_in", "resource_id": resource.ID, "quantity": 6,
	})
	expectStatus(t, resp, http.StatusCreated)
	var checkin model.Transaction
	decode(t, resp, &checkin)
	if checkin.Status != model.TxCompleted || checkin.ActualReturnDate == nil {
		t.Errorf("expected completed check-in with return date, got %+v", checkin)
	}

	resp = s.do(t, "PATCH", fmt.Sprintf("/api/transactions/%d/status", checkin.ID), token, map[string]string{"status": "rejected"})
	expectKind(t, resp, http.StatusConflict, inventory.KindTerminalState)

	resp = s.do(t, "GET", "/api/notifications?unread=true", token, nil)
	expectStatus(t, resp, http.StatusOK)
	var notifications []model.Notification
	decode(t, resp, &notifications)
	types := map[string]bool{}
	for _, n := range notifications {
		types[n.Type] = true
	}
	if !types[model.NotificationLowStock] || !types[model.NotificationResourceAdded] {
		t.Errorf("expected low stock and resource added notifications, got %v", types)
	}

	resp = s.do(t, "POST", fmt.Sprintf("/api/notifications/%d/read", notifications[0].ID), token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = s.do(t, "GET", "/api/analytics/dashboard-stats", token, nil)
	expectStatus(t, resp, http.StatusOK)
	var stats dashboardStats
	decode(t, resp, &stats)
	if stats.Resources.TotalResources != 1 || stats.Resources.TotalUnits != 10 {
		t.Errorf("unexpected resource stats %+v", stats.Resources)
	}
	if stats.UnreadNotifications != len(notifications)-1 {
		t.Errorf("expected %d unread, got %d", len(notifications)-1, stats.UnreadNotifications)
	}

	// The category is still in use.
	resp = s.do(t, "DELETE", fmt.Sprintf("/api/categories/%d", category.ID), token, nil)
	expectStatus(t, resp, http.StatusConflict)
}

func TestRejectCheckOutRestoresStock(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "admin")

	resp := s.do(t, "POST", "/api/resources", admin, map[string]any{"name": "Microscope", "quantity": 3, "min_quantity": 1})
	expectStatus(t, resp, http.StatusCreated)
	var resource model.Resource
	decode(t, resp, &resource)

	resp = s.do(t, "PATCH", "/api/transactions/999/status", admin, map[string]string{"status": "approved"})
	expectKind(t, resp, http.StatusNotFound, inventory.KindNotFound)

	resp = s.do(t, "POST", "/api/transactions", admin, map[string]any{
		"transaction_type": "check_out", "resource_id": resource.ID, "quantity": 3,
		"scheduled_return_date": time.Now().Add(48 * time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	var checkout model.Transaction
	decode(t, resp, &checkout)

	resp = s.do(t, "PATCH", fmt.Sprintf("/api/transactions/%d/status", checkout.ID), admin, map[string]string{"status": "pending"})
	expectKind(t, resp, http.StatusConflict, inventory.KindInvalidTransition)

	resp = s.do(t, "PATCH", fmt.Sprintf("/api/transactions/%d/status", checkout.ID), admin, map[string]string{
		"status": "rejected", "notes": "wrong room",
	})
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &checkout)
	if checkout.Status != model.TxRejected || checkout.Notes != "wrong room" {
		t.Errorf("unexpected transaction %+v", checkout)
	}

	resp = s.do(t, "GET", fmt.Sprintf("/api/resources/%d", resource.ID), admin, nil)
	var detail struct {
		Resource model.Resource `json:"resource"`
	}
	decode(t, resp, &detail)
	if detail.Resource.Quantity != 3 || detail.Resource.Status != model.StatusAvailable {
		t.Errorf("rejected check-out should restore stock, got %d %s", detail.Resource.Quantity, detail.Resource.Status)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "admin")

	resp := s.do(t, "POST", "/api/users", admin, map[string]string{
		"username": "student1", "password": testPassword, "role": model.RoleStudent, "full_name": "Ana Novak",
	})
	expectStatus(t, resp, http.StatusCreated)
	createUser(t, s.DB, "student2", model.RoleStudent)

	resp = s.do(t, "POST", "/api/resources", admin, map[string]any{"name": "Laptop", "quantity": 5, "min_quantity": 1})
	var resource model.Resource
	decode(t, resp, &resource)

	student := s.login(t, "student1")
	expectStatus(t, s.do(t, "GET", "/api/users", student, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, "POST", "/api/resources", student, map[string]any{"name": "Pen", "quantity": 1}), http.StatusForbidden)
	expectStatus(t, s.do(t, "GET", "/api/transactions/overdue", student, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, "DELETE", fmt.Sprintf("/api/resources/%d", resource.ID), student, nil), http.StatusForbidden)

	resp = s.do(t, "POST", "/api/transactions", student, map[string]any{
		"transaction_type": "addition", "resource_id": resource.ID, "quantity": 5,
	})
	expectStatus(t, resp, http.StatusForbidden)

	resp = s.do(t, "POST", "/api/transactions", student, map[string]any{
		"transaction_type": "check_out", "resource_id": resource.ID, "quantity": 1,
		"scheduled_return_date": time.Now().Add(24 * time.Hour),
	})
	expectStatus(t, resp, http.StatusCreated)
	var own model.Transaction
	decode(t, resp, &own)

	// Students only see their own transactions.
	resp = s.do(t, "GET", "/api/transactions", student, nil)
	var listed []model.Transaction
	decode(t, resp, &listed)
	if len(listed) != 1 || listed[0].ID != own.ID {
		t.Errorf("expected only the student's check-out, got %d transactions", len(listed))
	}

	other := s.login(t, "student2")
	expectStatus(t, s.do(t, "GET", fmt.Sprintf("/api/transactions/%d", own.ID), other, nil), http.StatusNotFound)

	resp = s.do(t, "GET", "/api/transactions/user", other, nil)
	var mine []model.Transaction
	decode(t, resp, &mine)
	if len(mine) != 0 {
		t.Errorf("expected no transactions for student2, got %d", len(mine))
	}
}

func TestResourceListPaging(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin")

	for i := range 3 {
		resp := s.do(t, "POST", "/api/resources", token, map[string]any{"name": fmt.Sprintf("Tablet %d", i), "quantity": i})
		expectStatus(t, resp, http.StatusCreated)
	}

	resp := s.do(t, "GET", "/api/resources?limit=2&page=2", token, nil)
	expectStatus(t, resp, http.StatusOK)
	var page resourcePage
	decode(t, resp, &page)
	if page.Total != 3 || len(page.Resources) != 1 || page.Resources[0].Name != "Tablet 2" {
		t.Errorf("unexpected page %+v", page)
	}

	resp = s.do(t, "GET", "/api/resources/low-stock", token, nil)
	var low []model.Resource
	decode(t, resp, &low)
	if len(low) != 3 {
		t.Errorf("expected all three tablets under the default minimum, got %d", len(low))
	}
}

func TestReservationCancel(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "admin")
	createUser(t, s.DB, "teacher1", model.RoleTeacher)
	createUser(t, s.DB, "teacher2", model.RoleTeacher)

	resp := s.do(t, "POST", "/api/resources", admin, map[string]any{"name": "Lab room", "quantity": 1, "min_quantity": 0})
	var resource model.Resource
	decode(t, resp, &resource)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	teacher := s.login(t, "teacher1")
	resp = s.do(t, "POST", "/api/reservations", teacher, map[string]any{
		"resource_id": resource.ID, "start_time": start, "end_time": start.Add(2 * time.Hour), "purpose": "Chemistry",
	})
	expectStatus(t, resp, http.StatusCreated)
	var v model.Reservation
	decode(t, resp, &v)

	other := s.login(t, "teacher2")
	expectStatus(t, s.do(t, "POST", fmt.Sprintf("/api/reservations/%d/cancel", v.ID), other, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "PATCH", fmt.Sprintf("/api/reservations/%d/status", v.ID), teacher, map[string]string{"status": "approved"}), http.StatusForbidden)

	resp = s.do(t, "POST", fmt.Sprintf("/api/reservations/%d/cancel", v.ID), teacher, nil)
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &v)
	if v.Status != model.ReservationCancelled {
		t.Errorf("expected cancelled, got %s", v.Status)
	}

	resp = s.do(t, "POST", fmt.Sprintf("/api/reservations/%d/cancel", v.ID), teacher, nil)
	expectKind(t, resp, http.StatusConflict, inventory.KindTerminalState)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{inventory.ErrNotFound, http.StatusNotFound},
		{inventory.ErrConflict, http.StatusConflict},
		{inventory.ErrInsufficientQuantity, http.StatusConflict},
		{inventory.ErrTerminalState, http.StatusConflict},
		{inventory.ErrInvalidTransition, http.StatusConflict},
		{inventory.ErrValidation, http.StatusBadRequest},
		{inventory.ErrMissingReturnDate, http.StatusBadRequest},
		{inventory.ErrInvalidTransactionType, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", inventory.ErrNotFound), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest("GET", "/", nil), tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest("GET", "/", nil), errors.New("secret detail"))
	if bytes.Contains(rec.Body.Bytes(), []byte("secret detail")) {
		t.Error("internal error details must not leak")
	}
}

func TestLoggingMiddlewareRequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if _, err := uuid.Parse(seen); err != nil || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected generated request id, got %q", seen)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("expected incoming id %s to be kept, got %s", incoming, seen)
	}
}
