package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

const testPassword = "password123"

type browser struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func setup(t *testing.T, policy inventory.Policy) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	svc := inventory.NewService(database, nil, inventory.WithPolicy(policy))
	router, err := NewRouter(database, svc, auth.NewIssuer("test-secret", time.Hour))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	for username, role := range map[string]string{"admin": model.RoleAdmin, "student": model.RoleStudent} {
		hash, _ := auth.HashPassword(testPassword)
		if _, err := store.CreateUser(context.Background(), database, &model.User{
			Username: username, PasswordHash: hash, Role: role,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return server, database
}

func newBrowser(t *testing.T, server *httptest.Server) *browser {
	jar, _ := cookiejar.New(nil)
	return &browser{t: t, server: server, client: &http.Client{Jar: jar}}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.server.URL + path)
	if err != nil {
		b.t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (b *browser) post(path string, form url.Values) (int, string, *url.URL) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.server.URL+path, form)
	if err != nil {
		b.t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Request.URL
}

func (b *browser) login(username string) {
	b.t.Helper()
	_, body, final := b.post("/login", url.Values{"username": {username}, "password": {testPassword}})
	if final.Path != "/" {
		b.t.Fatalf("login as %s ended at %s: %s", username, final.Path, body)
	}
}

func TestLoginRequired(t *testing.T) {
	server, _ := setup(t, inventory.DefaultPolicy())
	b := newBrowser(t, server)

	_, body := b.get("/resources")
	if !strings.Contains(body, `action="/login"`) {
		t.Error("expected redirect to the login page")
	}

	_, body, _ = b.post("/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	if !strings.Contains(body, "Wrong username or password.") {
		t.Error("expected login error")
	}

	b.login("admin")
	status, body := b.get("/")
	if status != http.StatusOK || !strings.Contains(body, "Dashboard") {
		t.Errorf("expected dashboard, got %d", status)
	}

	b.post("/logout", nil)
	_, body = b.get("/")
	if !strings.Contains(body, `action="/login"`) {
		t.Error("expected to be signed out")
	}
}

func TestPendingCheckOutApproval(t *testing.T) {
	server, database := setup(t, inventory.Policy{AutoApproveCheckOut: false, AutoApproveCheckIn: true})
	ctx := context.Background()

	admin := newBrowser(t, server)
	admin.login("admin")
	_, _, final := admin.post("/resources", url.Values{
		"name": {"Graphing calculator"}, "quantity": {"8"}, "min_quantity": {"2"},
	})
	if !strings.HasPrefix(final.Path, "/resources/") {
		t.Fatalf("expected resource page, got %s", final.Path)
	}
	resourcePath := final.Path

	student := newBrowser(t, server)
	student.login("student")

	status, _, _ := student.post(resourcePath+"/transactions", url.Values{
		"transaction_type": {"addition"}, "quantity": {"5"},
	})
	if status != http.StatusForbidden {
		t.Errorf("students must not add stock, got %d", status)
	}

	_, body, _ := student.post(resourcePath+"/transactions", url.Values{
		"transaction_type": {"check_out"}, "quantity": {"3"},
	})
	if !strings.Contains(body, "Scheduled return date is required") {
		t.Error("expected missing return date message")
	}

	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	_, body, _ = student.post(resourcePath+"/transactions", url.Values{
		"transaction_type": {"check_out"}, "quantity": {"3"}, "scheduled_return_date": {due},
	})
	if !strings.Contains(body, "Request sent for approval.") {
		t.Fatal("expected pending check-out")
	}

	pending, err := store.ListTransactions(ctx, database, store.TransactionFilter{Status: model.TxPending})
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending transaction, got %d (%v)", len(pending), err)
	}
	tx := pending[0]

	// Students cannot approve, and pending stock has not moved yet.
	status, _, _ = student.post(fmt.Sprintf("/transactions/%d/status", tx.ID), url.Values{"status": {"approved"}})
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for student approval, got %d", status)
	}
	r, _ := store.GetResource(ctx, database, tx.ResourceID)
	if r.Quantity != 8 {
		t.Errorf("pending check-out must not move stock, got %d", r.Quantity)
	}

	_, body = admin.get("/")
	if !strings.Contains(body, "Waiting for approval") {
		t.Error("expected pending list on the staff dashboard")
	}

	_, _, final = admin.post(fmt.Sprintf("/transactions/%d/status", tx.ID), url.Values{
		"status": {"approved"}, "return_to": {"/"},
	})
	if final.Path != "/" {
		t.Errorf("expected to return to the dashboard, got %s", final.Path)
	}

	r, _ = store.GetResource(ctx, database, tx.ResourceID)
	if r.Quantity != 5 || r.Status != model.StatusAvailable {
		t.Errorf("expected 5 available after approval, got %d %s", r.Quantity, r.Status)
	}

	_, body = student.get("/transactions")
	if !strings.Contains(body, "Graphing calculator") || strings.Contains(body, "Approve") {
		t.Error("students see their own transactions without staff actions")
	}
}

func TestResourceMaintenanceToggle(t *testing.T) {
	server, database := setup(t, inventory.DefaultPolicy())
	admin := newBrowser(t, server)
	admin.login("admin")

	_, _, final := admin.post("/resources", url.Values{"name": {"3D printer"}, "quantity": {"1"}, "min_quantity": {"0"}})
	resourcePath := final.Path

	_, body, _ := admin.post(resourcePath, url.Values{
		"name": {"3D printer"}, "min_quantity": {"0"}, "maintenance": {"on"},
	})
	if !strings.Contains(body, "Saved.") || !strings.Contains(body, "Maintenance") {
		t.Error("expected resource in maintenance")
	}

	resources, _, err := store.ListResources(context.Background(), database, store.ResourceFilter{Status: model.StatusMaintenance})
	if err != nil || len(resources) != 1 {
		t.Fatalf("expected one resource in maintenance, got %d (%v)", len(resources), err)
	}

	admin.post(resourcePath, url.Values{"name": {"3D printer"}, "min_quantity": {"0"}})
	r, _ := store.GetResource(context.Background(), database, resources[0].ID)
	if r.Status != model.StatusAvailable {
		t.Errorf("expected available after leaving maintenance, got %s", r.Status)
	}
}
