package model

import (
	"strings"
	"time"
)

// Category is a named, colored tag used to group snippets.
// Names are not unique; IDs are.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// NamedColor is one entry of the preset category palette.
type NamedColor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CategoryColors is the preset palette offered when creating a category.
// The first entry is the default.
var CategoryColors = []NamedColor{
	{Name: "Blue", Value: "#3b82f6"},
	{Name: "Green", Value: "#10b981"},
	{Name: "Purple", Value: "#8b5cf6"},
	{Name: "Pink", Value: "#ec4899"},
	{Name: "Orange", Value: "#f59e0b"},
	{Name: "Red", Value: "#ef4444"},
	{Name: "Teal", Value: "#14b8a6"},
	{Name: "Indigo", Value: "#6366f1"},
}

// DefaultCategoryColor is used when a category is created without a color.
var DefaultCategoryColor = CategoryColors[0].Value

// ColorByName resolves a palette name ("green", "Teal") to its hex value.
// Unknown names are returned unchanged so callers may pass raw hex strings.
func ColorByName(name string) string {
	for _, c := range CategoryColors {
		if strings.EqualFold(c.Name, name) {
			return c.Value
		}
	}
	return name
}
