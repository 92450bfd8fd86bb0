package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// Using ":memory:" gives each test a fresh, isolated database that
// disappears when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:     email,
		Password:  "hashed-password",
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}
	if err := db.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "alice@example.com")

	if user.ID == 0 {
		t.Error("expected AUTOINCREMENT ID to be read back")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want default %q", user.Role, model.RoleUser)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice@example.com")

	dup := &model.User{Email: "alice@example.com", Password: "x", IsActive: true}
	err := db.Users.Create(context.Background(), dup)
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice@example.com")

	found, err := db.Users.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "alice@example.com" {
		t.Errorf("Email = %q", found.Email)
	}

	if _, err := db.Users.GetByID(context.Background(), 9999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing user: error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice@example.com")

	found, err := db.Users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	if _, err := db.Users.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing email: error = %v, want ErrNotFound", err)
	}
}

func TestUserList_ExcludesInactive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "a@example.com")
	b := createTestUser(t, db, "b@example.com")

	if err := db.Users.Deactivate(context.Background(), b.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	users, err := db.Users.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len = %d, want 1", len(users))
	}
	if users[0].Email != "a@example.com" {
		t.Errorf("Email = %q", users[0].Email)
	}
}

func TestUserUpdateRole(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com")

	if err := db.Users.UpdateRole(context.Background(), user.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}

	found, err := db.Users.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", found.Role)
	}

	if err := db.Users.UpdateRole(context.Background(), 9999, model.RoleAdmin); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing user: error = %v, want ErrNotFound", err)
	}
}

func TestUserDeactivate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com")

	if err := db.Users.Deactivate(context.Background(), user.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	found, err := db.Users.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.IsActive {
		t.Error("user still active after Deactivate")
	}
}

func TestUserCountByRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "a@example.com")
	createTestUser(t, db, "b@example.com")
	admin := createTestUser(t, db, "root@example.com")
	if err := db.Users.UpdateRole(context.Background(), admin.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}

	counts, err := db.Users.CountByRole(context.Background())
	if err != nil {
		t.Fatalf("CountByRole() error = %v", err)
	}
	if counts[model.RoleUser] != 2 {
		t.Errorf("user count = %d, want 2", counts[model.RoleUser])
	}
	if counts[model.RoleAdmin] != 1 {
		t.Errorf("admin count = %d, want 1", counts[model.RoleAdmin])
	}
}
