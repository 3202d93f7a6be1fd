package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
)

func newTestSnippetService() (*SnippetService, *fakeSnippetRepo, *fakeCategoryRepo) {
	snippets := newFakeSnippetRepo()
	categories := newFakeCategoryRepo()
	return NewSnippetService(snippets, categories, testLogger()), snippets, categories
}

func seedCategory(t *testing.T, repo *fakeCategoryRepo, userID, name string) *model.Category {
	t.Helper()
	c := &model.Category{UserID: userID, Name: name, Color: model.DefaultCategoryColor}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	return c
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestSnippetCreate_KeepsContentVerbatim(t *testing.T) {
	svc, _, _ := newTestSnippetService()
	content := "  indented\n\tcode  \n"

	sn, err := svc.Create(context.Background(), "u1", content, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sn.Content != content {
		t.Errorf("Content = %q, want %q", sn.Content, content)
	}
	if sn.CategoryID != nil || sn.IsFavorite {
		t.Errorf("Create() = %+v, want uncategorized and not favorite", sn)
	}
}

func TestSnippetCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", " \n\t "},
		{"too long", strings.Repeat("x", MaxContentLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestSnippetService()

			_, err := svc.Create(context.Background(), "u1", tt.content, nil)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			if len(repo.rows) != 0 {
				t.Error("invalid snippet reached the repository")
			}
		})
	}
}

func TestSnippetCreate_Category(t *testing.T) {
	svc, _, categories := newTestSnippetService()
	ctx := context.Background()
	mine := seedCategory(t, categories, "u1", "Mine")
	theirs := seedCategory(t, categories, "u2", "Theirs")

	sn, err := svc.Create(ctx, "u1", "x", &mine.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !sn.HasCategory(mine.ID) {
		t.Errorf("CategoryID = %v, want %q", sn.CategoryID, mine.ID)
	}

	_, err = svc.Create(ctx, "u1", "x", &theirs.ID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "categoryId" {
		t.Fatalf("Create() with another user's category error = %v", err)
	}

	empty := ""
	sn, err = svc.Create(ctx, "u1", "x", &empty)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sn.CategoryID != nil {
		t.Errorf("empty category ID should mean none, got %q", *sn.CategoryID)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func decodePatch(t *testing.T, body string) model.SnippetPatch {
	t.Helper()
	var p model.SnippetPatch
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decoding patch: %v", err)
	}
	return p
}

func TestSnippetUpdate_PartialFields(t *testing.T) {
	svc, _, categories := newTestSnippetService()
	ctx := context.Background()
	cat := seedCategory(t, categories, "u1", "Work")
	sn, _ := svc.Create(ctx, "u1", "original", &cat.ID)

	// Only the favorite flag changes; category stays because the key is absent.
	got, err := svc.Update(ctx, "u1", sn.ID, decodePatch(t, `{"isFavorite": true}`))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.IsFavorite || got.Content != "original" || !got.HasCategory(cat.ID) {
		t.Errorf("after favorite patch: %+v", got)
	}

	// Explicit null clears the category.
	got, err = svc.Update(ctx, "u1", sn.ID, decodePatch(t, `{"categoryId": null}`))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.CategoryID != nil || !got.IsFavorite {
		t.Errorf("after clearing category: %+v", got)
	}

	got, err = svc.Update(ctx, "u1", sn.ID, decodePatch(t, `{"content": "edited", "categoryId": "`+cat.ID+`"}`))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Content != "edited" || !got.HasCategory(cat.ID) {
		t.Errorf("after content patch: %+v", got)
	}
}

func TestSnippetUpdate_Rejections(t *testing.T) {
	svc, repo, _ := newTestSnippetService()
	ctx := context.Background()
	sn, _ := svc.Create(ctx, "u1", "original", nil)
	blank := "   "
	missing := "nope"

	tests := []struct {
		name  string
		id    string
		patch model.SnippetPatch
		want  error
	}{
		{"empty patch", sn.ID, model.SnippetPatch{}, apperror.ErrValidation},
		{"blank content", sn.ID, model.SnippetPatch{Content: &blank}, apperror.ErrValidation},
		{"unknown category", sn.ID, model.SnippetPatch{CategoryID: model.SetID(&missing)}, apperror.ErrValidation},
		{"blank id", " ", model.SnippetPatch{Content: &missing}, apperror.ErrValidation},
		{"unknown snippet", "snip-999", model.SnippetPatch{Content: &missing}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, "u1", tt.id, tt.patch)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Update() error = %v, want %v", err, tt.want)
			}
			if repo.rows[sn.ID].Content != "original" {
				t.Error("rejected update modified the stored snippet")
			}
		})
	}
}

func TestSnippetUpdate_OtherUser(t *testing.T) {
	svc, _, _ := newTestSnippetService()
	ctx := context.Background()
	sn, _ := svc.Create(ctx, "u1", "mine", nil)
	fav := true

	_, err := svc.Update(ctx, "u2", sn.ID, model.SnippetPatch{IsFavorite: &fav})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST / DELETE TESTS
// =========================================================================

func TestSnippetList_Scoped(t *testing.T) {
	svc, _, _ := newTestSnippetService()
	ctx := context.Background()
	svc.Create(ctx, "u1", "a", nil)
	svc.Create(ctx, "u1", "b", nil)
	svc.Create(ctx, "u2", "c", nil)

	got, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d snippets, want 2", len(got))
	}
}

func TestSnippetList_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestSnippetService()
	repo.err = errors.New("db down")

	if _, err := svc.List(context.Background(), "u1"); err == nil {
		t.Fatal("List() expected error")
	}
}

func TestSnippetDelete(t *testing.T) {
	svc, repo, _ := newTestSnippetService()
	ctx := context.Background()
	sn, _ := svc.Create(ctx, "u1", "bye", nil)

	if err := svc.Delete(ctx, "u2", sn.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() by other user error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "u1", sn.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.rows) != 0 {
		t.Error("snippet still stored after Delete()")
	}
}

func TestSnippetGetByID(t *testing.T) {
	svc, _, _ := newTestSnippetService()
	ctx := context.Background()
	sn, _ := svc.Create(ctx, "u1", "x", nil)

	got, err := svc.GetByID(ctx, "u1", sn.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != sn.ID {
		t.Errorf("GetByID() = %+v", got)
	}
	if _, err := svc.GetByID(ctx, "u1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetByID(\"\") error = %v, want ErrValidation", err)
	}
}
