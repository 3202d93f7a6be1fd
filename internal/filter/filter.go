// Package filter derives the visible snippet list from the full list, the
// active view selector and the search text.
//
// Visible is a pure function: it never mutates its input, keeps no index
// between calls and preserves input order (newest first). It is recomputed
// from scratch whenever any input changes.
package filter

import (
	"strings"

	"github.com/sakif/global-clipboard/internal/model"
)

// Filter is the active view selector: All, Favorites, or a category ID.
type Filter string

const (
	All       Filter = "all"
	Favorites Filter = "favorites"
)

// Parse normalizes a user-supplied selector. Empty input means All.
func Parse(s string) Filter {
	switch s = strings.TrimSpace(s); strings.ToLower(s) {
	case "", string(All):
		return All
	case string(Favorites), "favorite", "fav":
		return Favorites
	default:
		return Filter(s)
	}
}

// Category returns a selector for a single category.
func Category(id string) Filter {
	return Filter(id)
}

// IsCategory reports whether f selects a single category.
func (f Filter) IsCategory() bool {
	return f != All && f != Favorites && f != ""
}

// CategoryID returns the selected category ID, or "" for All/Favorites.
func (f Filter) CategoryID() string {
	if !f.IsCategory() {
		return ""
	}
	return string(f)
}

// Visible returns the snippets matching active and search, in input order.
//
//  1. Favorites keeps only favorites.
//  2. A category ID keeps only snippets referencing that category.
//  3. All (or "") keeps everything.
//  4. A non-empty search keeps snippets whose content contains it,
//     case-insensitively.
func Visible(snippets []model.Snippet, active Filter, search string) []model.Snippet {
	needle := strings.ToLower(search)

	out := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if !matchesFilter(s, active) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(s.Content), needle) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesFilter(s model.Snippet, active Filter) bool {
	switch {
	case active == Favorites:
		return s.IsFavorite
	case active.IsCategory():
		return s.HasCategory(string(active))
	default:
		return true
	}
}
