package store

import (
	"context"
	"testing"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, &model.User{
		Username:     "testuser",
		FullName:     "Test User",
		PasswordHash: "hash123",
		Role:         model.RoleTeacher,
		Department:   "Physics",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleTeacher {
		t.Errorf("expected role 'teacher', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.FullName != "Test User" || got.Department != "Physics" {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustCreateUser(t, database, "alice", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsersAndRoles(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := mustCreateUser(t, database, "a", model.RoleAdmin)
	staff := mustCreateUser(t, database, "b", model.RoleStaff)
	mustCreateUser(t, database, "c", model.RoleStudent)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}

	ids, err := ListUserIDsByRole(ctx, database, model.RoleAdmin, model.RoleStaff)
	if err != nil {
		t.Fatalf("ListUserIDsByRole: %v", err)
	}
	if len(ids) != 2 || ids[0] != admin.ID || ids[1] != staff.ID {
		t.Errorf("expected [%d %d], got %v", admin.ID, staff.ID, ids)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustCreateUser(t, database, "deleteme", model.RoleStudent)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	// The username is free again once the old account is deleted.
	mustCreateUser(t, database, "deleteme", model.RoleStudent)
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustCreateUser(t, database, "pwuser", model.RoleStudent)
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
