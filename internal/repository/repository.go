// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
//
// Every category and snippet method is scoped by user ID: a row that
// belongs to someone else is reported as apperror.ErrNotFound, exactly as
// if it did not exist.
package repository

import (
	"context"
	"time"

	"github.com/sakif/global-clipboard/internal/model"
)

type CategoryRepository interface {
	// Create assigns ID and CreatedAt.
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, userID, id string) (*model.Category, error)
	// List returns the user's categories ordered by name.
	List(ctx context.Context, userID string) ([]model.Category, error)
	// Update writes Name and Color.
	Update(ctx context.Context, category *model.Category) error
	// Delete removes the category and clears it from every snippet that
	// referenced it, in one transaction. It returns how many snippets
	// were unassigned.
	Delete(ctx context.Context, userID, id string) (int64, error)
}

type SnippetRepository interface {
	// Create assigns ID and CreatedAt.
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, userID, id string) (*model.Snippet, error)
	// List returns the user's snippets, newest first.
	List(ctx context.Context, userID string) ([]model.Snippet, error)
	// Update writes Content, CategoryID and IsFavorite.
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, userID, id string) error
}

type UserRepository interface {
	// Create inserts an email/password account. A taken email is
	// apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Confirm marks the account holding token as confirmed and clears the
	// token so it cannot be replayed.
	Confirm(ctx context.Context, token string, at time.Time) (*model.User, error)
	// UpsertGitHub inserts or refreshes an account keyed by GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error
	// PurgeUnconfirmed deletes email accounts never confirmed and created
	// before cutoff. Returns the number removed.
	PurgeUnconfirmed(ctx context.Context, cutoff time.Time) (int64, error)
}
