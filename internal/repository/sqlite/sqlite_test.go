package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/global-clipboard/internal/model"
)

// newTestDB opens a fresh in-memory database that is closed when the test
// finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a confirmed email account.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestCategory(t *testing.T, db *DB, userID, name string) *model.Category {
	t.Helper()
	c := &model.Category{UserID: userID, Name: name, Color: "#3b82f6"}
	if err := db.Categories().Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

func createTestSnippet(t *testing.T, db *DB, userID, content string, categoryID *string) *model.Snippet {
	t.Helper()
	sn := &model.Snippet{UserID: userID, Content: content, CategoryID: categoryID}
	if err := db.Snippets().Create(context.Background(), sn); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return sn
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var on int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("foreign_keys = %d, want 1", on)
	}
}
