package store

import (
	"context"
	"strings"
	"testing"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestAppendAudit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "admin", model.RoleAdmin)

	err := AppendAudit(ctx, database, &u.ID, AuditTransactionCreate, "transaction", 42,
		map[string]any{"quantity": 3})
	if err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	if err := AppendAudit(ctx, database, nil, AuditResourceDelete, "transaction", 42, nil); err != nil {
		t.Fatalf("AppendAudit without user: %v", err)
	}

	entries, err := ListAudit(ctx, database, "transaction", 42)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != nil || entries[0].Details != "" {
		t.Errorf("unexpected newest entry: %+v", entries[0])
	}
	if !strings.Contains(entries[1].Details, `"quantity":3`) {
		t.Errorf("expected JSON details, got %q", entries[1].Details)
	}
}
