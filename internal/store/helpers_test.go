package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/inventar/internal/model"
)

func mustCreateUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, &model.User{
		Username:     username,
		PasswordHash: "hash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func mustCreateResource(t *testing.T, database *sql.DB, name string, quantity, minQuantity int, status model.ResourceStatus) *model.Resource {
	t.Helper()
	r := &model.Resource{
		Name:        name,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		Status:      status,
	}
	if err := InsertResource(context.Background(), database, r); err != nil {
		t.Fatalf("InsertResource(%s): %v", name, err)
	}
	return r
}
