package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// Hand-written in-memory repositories. Each has an err field that, when
// set, makes every call fail like a broken database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeCategoryRepo struct {
	rows   map[string]model.Category
	nextID int
	err    error
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{rows: map[string]model.Category{}}
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	c.ID = fmt.Sprintf("cat-%d", f.nextID)
	c.CreatedAt = time.Now()
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, userID, id string) (*model.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return nil, apperror.NotFound("category", id)
	}
	return &c, nil
}

func (f *fakeCategoryRepo) List(_ context.Context, userID string) ([]model.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Category{}
	for _, c := range f.rows {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, c *model.Category) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.rows[c.ID]
	if !ok || existing.UserID != c.UserID {
		return apperror.NotFound("category", c.ID)
	}
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, userID, id string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	c, ok := f.rows[id]
	if !ok || c.UserID != userID {
		return 0, apperror.NotFound("category", id)
	}
	delete(f.rows, id)
	return 0, nil
}

type fakeSnippetRepo struct {
	rows   map[string]model.Snippet
	nextID int
	err    error
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{rows: map[string]model.Snippet{}}
}

func (f *fakeSnippetRepo) Create(_ context.Context, sn *model.Snippet) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	sn.ID = fmt.Sprintf("snip-%d", f.nextID)
	sn.CreatedAt = time.Now()
	f.rows[sn.ID] = *sn
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, userID, id string) (*model.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	sn, ok := f.rows[id]
	if !ok || sn.UserID != userID {
		return nil, apperror.NotFound("snippet", id)
	}
	return &sn, nil
}

func (f *fakeSnippetRepo) List(_ context.Context, userID string) ([]model.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Snippet{}
	for _, sn := range f.rows {
		if sn.UserID == userID {
			out = append(out, sn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, sn *model.Snippet) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.rows[sn.ID]
	if !ok || existing.UserID != sn.UserID {
		return apperror.NotFound("snippet", sn.ID)
	}
	f.rows[sn.ID] = *sn
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, userID, id string) error {
	if f.err != nil {
		return f.err
	}
	sn, ok := f.rows[id]
	if !ok || sn.UserID != userID {
		return apperror.NotFound("snippet", id)
	}
	delete(f.rows, id)
	return nil
}

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	err    error
	// purgeCutoff records the last PurgeUnconfirmed argument.
	purgeCutoff time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.GitHubID == nil && existing.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.GitHubID == nil && u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) Confirm(_ context.Context, token string, at time.Time) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if token != "" && u.ConfirmToken == token {
			u.ConfirmToken = ""
			u.ConfirmedAt = &at
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("confirmation", token)
}

func (f *fakeUserRepo) UpsertGitHub(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.GitHubID != nil && *existing.GitHubID == *u.GitHubID {
			existing.Login = u.Login
			existing.Email = u.Email
			existing.AvatarURL = u.AvatarURL
			*u = *existing
			return nil
		}
	}
	f.nextID++
	now := time.Now()
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = now
	u.UpdatedAt = now
	u.ConfirmedAt = &now
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) PurgeUnconfirmed(_ context.Context, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.purgeCutoff = cutoff
	var n int64
	for id, u := range f.users {
		if u.ConfirmedAt == nil && u.GitHubID == nil && u.CreatedAt.Before(cutoff) {
			delete(f.users, id)
			n++
		}
	}
	return n, nil
}
