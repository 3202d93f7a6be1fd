// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with struct tags
// that describe how they travel as JSON.
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Snippet is a stored text fragment.
//
// CategoryID is a weak reference: it names a Category by ID but does not own
// it. A nil pointer means "no category". When the referenced category is
// deleted, the reference is cleared rather than left dangling.
type Snippet struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Content    string    `json:"content"`
	CategoryID *string   `json:"categoryId"`
	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasCategory reports whether the snippet references the given category.
func (s Snippet) HasCategory(id string) bool {
	return s.CategoryID != nil && *s.CategoryID == id
}

// StringPtr returns a pointer to a fresh copy of s, or nil when s is empty.
// Handy for turning a CLI flag or form value into an optional category ID.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SnippetPatch is a partial update. Nil fields are left untouched.
type SnippetPatch struct {
	Content    *string    `json:"content,omitempty"`
	CategoryID OptionalID `json:"categoryId"`
	IsFavorite *bool      `json:"isFavorite,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p SnippetPatch) IsEmpty() bool {
	return p.Content == nil && !p.CategoryID.Set && p.IsFavorite == nil
}

// OptionalID distinguishes three wire states of a nullable ID:
//
//	field absent        → Set=false
//	"categoryId": null  → Set=true, Value=nil
//	"categoryId": "abc" → Set=true, Value="abc"
//
// A plain *string cannot tell "absent" from "null" apart after decoding.
type OptionalID struct {
	Set   bool
	Value *string
}

// SetID returns an OptionalID that sets the field to id (nil clears it).
func SetID(id *string) OptionalID {
	return OptionalID{Set: true, Value: id}
}

// UnmarshalJSON is only called when the key is present, including for null.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON writes the value (or null). Encoders that must omit an unset
// field check Set themselves.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
