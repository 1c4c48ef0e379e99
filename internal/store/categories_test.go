package store

import (
	"context"
	"testing"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sci, err := CreateCategory(ctx, database, "Science", "Lab equipment")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := CreateCategory(ctx, database, "Art", ""); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := CreateCategory(ctx, database, "Science", ""); err == nil {
		t.Error("expected duplicate category name to fail")
	}

	categories, err := ListCategories(ctx, database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "Art" {
		t.Errorf("expected [Art Science], got %+v", categories)
	}

	r := &model.Resource{Name: "Beaker", CategoryID: &sci.ID, Quantity: 1, Status: model.StatusLowStock}
	if err := InsertResource(ctx, database, r); err != nil {
		t.Fatalf("InsertResource: %v", err)
	}
	if err := DeleteCategory(ctx, database, sci.ID); err == nil {
		t.Error("expected deleting a used category to fail")
	}

	if err := DeleteCategory(ctx, database, categories[0].ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if got, _ := GetCategory(ctx, database, categories[0].ID); got != nil {
		t.Error("expected category to be gone")
	}
}
