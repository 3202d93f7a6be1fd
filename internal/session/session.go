// Package session holds the signed-in user's categories and snippets and
// keeps them in step with the remote data store.
//
// The remote store is the source of truth; the lists held here are a
// read-through cache. Every mutation follows the same two-phase contract:
//
//	Pending   → the remote request is in flight, local state is untouched
//	Committed → the store confirmed; exactly one local transition is applied
//	Rejected  → the store (or validation) refused; local state is untouched
//
// Local state is therefore never ahead of the store, only briefly behind it.
// Nothing is applied optimistically, so nothing ever needs rolling back.
//
// The lock is never held across a remote call. Each committed transition
// builds fresh slices and swaps them in under the write lock, so readers
// always see a fully committed snapshot. Two operations on the same entity
// race; whichever confirmation is applied last wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/filter"
	"github.com/sakif/global-clipboard/internal/model"
)

// DataStore is typed CRUD over the two record collections, already scoped to
// the signed-in user.
type DataStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error) // ordered by name
	CreateCategory(ctx context.Context, name, color string) (*model.Category, error)
	// UpdateCategory returns the row as stored, after any normalization.
	UpdateCategory(ctx context.Context, id, name, color string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListSnippets(ctx context.Context) ([]model.Snippet, error) // newest first
	CreateSnippet(ctx context.Context, content string, categoryID *string) (*model.Snippet, error)
	// UpdateSnippet returns the row as stored, after any normalization.
	UpdateSnippet(ctx context.Context, id string, patch model.SnippetPatch) (*model.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
}

// AuthProvider issues the identity every DataStore call is scoped to.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) error
	// SignUp returns a message describing the out-of-band confirmation step.
	SignUp(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns nil, nil when nobody is signed in.
	CurrentUser(ctx context.Context) (*model.User, error)
}

// Copier puts text on the clipboard, best-effort.
type Copier interface {
	Copy(text string) bool
}

// State is a consistent, caller-owned view of the session.
type State struct {
	Categories   []model.Category
	Snippets     []model.Snippet
	ActiveFilter filter.Filter
	SearchText   string
}

// Session is the single writer of the local category/snippet lists.
// Create one per signed-in user; it is safe for concurrent use.
type Session struct {
	store  DataStore
	copier Copier
	logger *slog.Logger
	user   *model.User

	mu         sync.RWMutex
	categories []model.Category
	snippets   []model.Snippet
	active     filter.Filter
	search     string
}

// New returns an empty session over store. Call Load to populate it.
func New(store DataStore, copier Copier, logger *slog.Logger) *Session {
	return &Session{
		store:      store,
		copier:     copier,
		logger:     logger,
		categories: []model.Category{},
		snippets:   []model.Snippet{},
		active:     filter.All,
	}
}

// Open checks that someone is signed in, then loads their data.
func Open(ctx context.Context, auth AuthProvider, store DataStore, copier Copier, logger *slog.Logger) (*Session, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: looking up current user: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("not signed in")
	}

	s := New(store, copier, logger)
	s.user = user
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// User is the identity the session was opened for (nil after New).
func (s *Session) User() *model.User {
	return s.user
}

// Load replaces both lists with the store's current contents. On failure
// the previous lists are kept.
func (s *Session) Load(ctx context.Context) error {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return s.rejected("loading categories", err)
	}
	snippets, err := s.store.ListSnippets(ctx)
	if err != nil {
		return s.rejected("loading snippets", err)
	}

	if categories == nil {
		categories = []model.Category{}
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}

	s.mu.Lock()
	s.categories = categories
	s.snippets = snippets
	s.mu.Unlock()

	s.logger.Debug("session loaded",
		slog.Int("categories", len(categories)),
		slog.Int("snippets", len(snippets)),
	)
	return nil
}

// =========================================================================
// READ STATE
// =========================================================================

// Snapshot returns all read state taken under one lock.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Categories:   cloneCategories(s.categories),
		Snippets:     cloneSnippets(s.snippets),
		ActiveFilter: s.active,
		SearchText:   s.search,
	}
}

func (s *Session) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCategories(s.categories)
}

func (s *Session) Snippets() []model.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnippets(s.snippets)
}

// CategoryByID looks a category up in the local list.
func (s *Session) CategoryByID(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// SnippetByID looks a snippet up in the local list.
func (s *Session) SnippetByID(id string) (model.Snippet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sn := range s.snippets {
		if sn.ID == id {
			return sn, true
		}
	}
	return model.Snippet{}, false
}

func (s *Session) ActiveFilter() filter.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Session) SetActiveFilter(f filter.Filter) {
	if f == "" {
		f = filter.All
	}
	s.mu.Lock()
	s.active = f
	s.mu.Unlock()
}

func (s *Session) SearchText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

func (s *Session) SetSearchText(text string) {
	s.mu.Lock()
	s.search = text
	s.mu.Unlock()
}

// Visible is the projection of the current snapshot: the only list a
// snippet view should render.
func (s *Session) Visible() []model.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Visible(s.snippets, s.active, s.search)
}

// =========================================================================
// HELPERS
// =========================================================================

// rejected logs a refused remote call and wraps it for the caller.
// Typed errors from the store keep their sentinel; anything else is marked
// as a remote failure.
func (s *Session) rejected(op string, err error) error {
	s.logger.Warn("remote call rejected, local state unchanged",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		err = apperror.Remote(op, err)
	}
	return fmt.Errorf("session: %s: %w", op, err)
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" must not be empty")
	}
	return nil
}

func cloneCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	copy(out, in)
	return out
}

// cloneSnippets copies the slice. CategoryID pointers are shared: the
// session never writes through them, it only replaces them.
func cloneSnippets(in []model.Snippet) []model.Snippet {
	out := make([]model.Snippet, len(in))
	copy(out, in)
	return out
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
