package session

import (
	"context"
	"log/slog"

	"github.com/sakif/global-clipboard/internal/model"
)

// AddSnippet creates a snippet and puts it at the front of the local list:
// newest first.
func (s *Session) AddSnippet(ctx context.Context, content string, categoryID *string) (*model.Snippet, error) {
	if err := requireText("content", content); err != nil {
		return nil, err
	}

	created, err := s.store.CreateSnippet(ctx, content, copyID(categoryID))
	if err != nil {
		return nil, s.rejected("adding snippet", err)
	}

	s.mu.Lock()
	next := make([]model.Snippet, 0, len(s.snippets)+1)
	next = append(next, *created)
	s.snippets = append(next, s.snippets...)
	s.mu.Unlock()

	s.logger.Info("snippet added", slog.String("id", created.ID))
	return created, nil
}

// UpdateSnippet replaces content and category. Position, favorite flag and
// creation time are kept.
func (s *Session) UpdateSnippet(ctx context.Context, id, content string, categoryID *string) error {
	if err := requireText("content", content); err != nil {
		return err
	}

	patch := model.SnippetPatch{Content: &content, CategoryID: model.SetID(copyID(categoryID))}
	return s.patchSnippet(ctx, "updating snippet", id, patch)
}

// ToggleFavorite sets the favorite flag to value.
func (s *Session) ToggleFavorite(ctx context.Context, id string, value bool) error {
	return s.patchSnippet(ctx, "toggling favorite", id, model.SnippetPatch{IsFavorite: &value})
}

// SetSnippetCategory reassigns a snippet. A nil categoryID uncategorizes it.
func (s *Session) SetSnippetCategory(ctx context.Context, id string, categoryID *string) error {
	patch := model.SnippetPatch{CategoryID: model.SetID(copyID(categoryID))}
	return s.patchSnippet(ctx, "setting snippet category", id, patch)
}

// DeleteSnippet removes a snippet.
func (s *Session) DeleteSnippet(ctx context.Context, id string) error {
	if err := s.store.DeleteSnippet(ctx, id); err != nil {
		return s.rejected("deleting snippet", err)
	}

	s.mu.Lock()
	next := make([]model.Snippet, 0, len(s.snippets))
	for _, sn := range s.snippets {
		if sn.ID != id {
			next = append(next, sn)
		}
	}
	s.snippets = next
	s.mu.Unlock()

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// CopySnippet puts content on the clipboard. Failures are logged by the
// copier and never returned; the result only says whether it worked.
func (s *Session) CopySnippet(content string) bool {
	if s.copier == nil {
		s.logger.Error("clipboard copy failed: no copier configured")
		return false
	}
	return s.copier.Copy(content)
}

// patchSnippet sends patch and, once the store confirms, swaps the returned
// row in at the snippet's current position.
func (s *Session) patchSnippet(ctx context.Context, op, id string, patch model.SnippetPatch) error {
	updated, err := s.store.UpdateSnippet(ctx, id, patch)
	if err != nil {
		return s.rejected(op, err)
	}

	s.mu.Lock()
	next := cloneSnippets(s.snippets)
	for i := range next {
		if next[i].ID == id {
			next[i] = *updated
		}
	}
	s.snippets = next
	s.mu.Unlock()

	s.logger.Info("snippet updated", slog.String("op", op), slog.String("id", id))
	return nil
}
