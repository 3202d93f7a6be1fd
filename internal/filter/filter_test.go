package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/global-clipboard/internal/model"
)

func ids(snippets []model.Snippet) []string {
	out := make([]string, 0, len(snippets))
	for _, s := range snippets {
		out = append(out, s.ID)
	}
	return out
}

// fixture mirrors the composition example: two favorites across two
// categories, one non-favorite in X.
func fixture() []model.Snippet {
	return []model.Snippet{
		{ID: "S1", IsFavorite: true, CategoryID: model.StringPtr("X"), Content: "abc"},
		{ID: "S2", IsFavorite: false, CategoryID: model.StringPtr("X"), Content: "xyz"},
		{ID: "S3", IsFavorite: true, CategoryID: model.StringPtr("Y"), Content: "abx"},
	}
}

func TestVisible_Composition(t *testing.T) {
	tests := []struct {
		name   string
		active Filter
		search string
		want   []string
	}{
		{name: "favorites", active: Favorites, want: []string{"S1", "S3"}},
		{name: "category X", active: Category("X"), want: []string{"S1", "S2"}},
		{name: "all with search", active: All, search: "ab", want: []string{"S1", "S3"}},
		{name: "all", active: All, want: []string{"S1", "S2", "S3"}},
		{name: "empty selector means all", active: "", want: []string{"S1", "S2", "S3"}},
		{name: "category and search", active: Category("X"), search: "XY", want: []string{"S2"}},
		{name: "favorites and search", active: Favorites, search: "abx", want: []string{"S3"}},
		{name: "unknown category", active: Category("Z"), want: []string{}},
		{name: "no match", active: All, search: "nope", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible(fixture(), tt.active, tt.search)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestVisible_CaseInsensitive(t *testing.T) {
	snippets := []model.Snippet{
		{ID: "a", Content: "Hello World"},
		{ID: "b", Content: "ÜBER cool"},
	}

	assert.Equal(t, []string{"a"}, ids(Visible(snippets, All, "hello")))
	assert.Equal(t, []string{"a"}, ids(Visible(snippets, All, "WORLD")))
	assert.Equal(t, []string{"b"}, ids(Visible(snippets, All, "über")))
}

func TestVisible_UncategorizedNeverMatchesCategory(t *testing.T) {
	snippets := []model.Snippet{{ID: "a"}, {ID: "b", CategoryID: model.StringPtr("c1")}}
	assert.Equal(t, []string{"b"}, ids(Visible(snippets, Category("c1"), "")))
}

func TestVisible_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = Visible(in, Favorites, "a")
	assert.Equal(t, fixture(), in)
}

func TestParse(t *testing.T) {
	assert.Equal(t, All, Parse(""))
	assert.Equal(t, All, Parse("  ALL "))
	assert.Equal(t, Favorites, Parse("favorites"))
	assert.Equal(t, Favorites, Parse("fav"))
	assert.Equal(t, Filter("cv37rs3pp9olc6atsptg"), Parse("cv37rs3pp9olc6atsptg"))
}

func TestFilter_CategoryID(t *testing.T) {
	assert.Equal(t, "", All.CategoryID())
	assert.Equal(t, "", Favorites.CategoryID())
	assert.Equal(t, "x", Category("x").CategoryID())
	assert.True(t, Category("x").IsCategory())
	assert.False(t, Filter("").IsCategory())
}
