package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/global-clipboard/internal/filter"
	"github.com/sakif/global-clipboard/internal/model"
)

// AddCategory creates a category and appends it to the end of the local list.
// color may be a hex value, a palette name, or empty for the default.
func (s *Session) AddCategory(ctx context.Context, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	color = resolveColor(color)

	created, err := s.store.CreateCategory(ctx, name, color)
	if err != nil {
		return nil, s.rejected("adding category", err)
	}

	s.mu.Lock()
	next := make([]model.Category, 0, len(s.categories)+1)
	next = append(next, s.categories...)
	s.categories = append(next, *created)
	s.mu.Unlock()

	s.logger.Info("category added", slog.String("id", created.ID))
	return created, nil
}

// UpdateCategory renames/recolors a category in place. The local entry is
// replaced by the row the store returns.
func (s *Session) UpdateCategory(ctx context.Context, id, name, color string) error {
	name = strings.TrimSpace(name)
	if err := requireText("name", name); err != nil {
		return err
	}
	color = resolveColor(color)

	updated, err := s.store.UpdateCategory(ctx, id, name, color)
	if err != nil {
		return s.rejected("updating category", err)
	}

	s.mu.Lock()
	next := cloneCategories(s.categories)
	for i := range next {
		if next[i].ID == id {
			next[i] = *updated
		}
	}
	s.categories = next
	s.mu.Unlock()

	s.logger.Info("category updated", slog.String("id", id))
	return nil
}

// DeleteCategory removes a category. In the same critical section it clears
// the reference on every snippet that pointed at it and, if the category was
// the active filter, resets the filter to All. No reader can observe one of
// these effects without the others.
func (s *Session) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return s.rejected("deleting category", err)
	}

	s.mu.Lock()
	categories := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.ID != id {
			categories = append(categories, c)
		}
	}

	snippets := cloneSnippets(s.snippets)
	cleared := 0
	for i := range snippets {
		if snippets[i].HasCategory(id) {
			snippets[i].CategoryID = nil
			cleared++
		}
	}

	s.categories = categories
	s.snippets = snippets
	if s.active == filter.Category(id) {
		s.active = filter.All
	}
	s.mu.Unlock()

	s.logger.Info("category deleted",
		slog.String("id", id),
		slog.Int("snippetsUnassigned", cleared),
	)
	return nil
}

func resolveColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return model.DefaultCategoryColor
	}
	return model.ColorByName(color)
}
