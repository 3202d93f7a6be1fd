// Package service contains the business rules of the backend.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → reads/writes the database
//
// Services accept primitives and model types, never HTTP types, and return
// apperror values that the handler layer maps to status codes. Every
// category and snippet method takes the caller's user ID, which the HTTP
// layer derives from the session token.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/repository"
)

const MaxCategoryNameLength = 50

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryService handles business logic for categories.
type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

// Create validates and saves a new category. An empty color becomes the
// default palette color; palette names ("green") are accepted too.
func (s *CategoryService) Create(ctx context.Context, userID, name, color string) (*model.Category, error) {
	name, color, err := validateCategory(name, color)
	if err != nil {
		return nil, err
	}

	c := &model.Category{UserID: userID, Name: name, Color: color}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create category",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.logger.Info("category created",
		slog.String("id", c.ID),
		slog.String("userID", userID),
	)
	return c, nil
}

// List returns the user's categories ordered by name.
func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	categories, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Update renames and recolors a category.
func (s *CategoryService) Update(ctx context.Context, userID, id, name, color string) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category ID is required")
	}
	name, color, err := validateCategory(name, color)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Color = color

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}

	s.logger.Info("category updated", slog.String("id", id))
	return c, nil
}

// Delete removes a category. Snippets that referenced it become
// uncategorized.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "category ID is required")
	}

	cleared, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}

	s.logger.Info("category deleted",
		slog.String("id", id),
		slog.Int64("snippetsUnassigned", cleared),
	)
	return nil
}

func validateCategory(name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperror.ValidationFailed("name", "category name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return "", "", apperror.ValidationFailed("name",
			fmt.Sprintf("category name must be %d characters or less", MaxCategoryNameLength))
	}

	color = strings.TrimSpace(color)
	if color == "" {
		color = model.DefaultCategoryColor
	}
	color = model.ColorByName(color)
	if !hexColor.MatchString(color) {
		return "", "", apperror.ValidationFailed("color", "color must be a hex value like #3b82f6")
	}
	return name, strings.ToLower(color), nil
}
