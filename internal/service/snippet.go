package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/repository"
)

// MaxContentLength bounds a single snippet (~100KB of text).
const MaxContentLength = 100000

// SnippetService handles business logic for snippets.
//
// It also holds the category repository: a snippet may only reference a
// category owned by the same user.
type SnippetService struct {
	repo       repository.SnippetRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewSnippetService(repo repository.SnippetRepository, categories repository.CategoryRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{repo: repo, categories: categories, logger: logger}
}

// Create validates and saves a new snippet. Content is stored exactly as
// given; it is only trimmed to decide whether it is empty.
func (s *SnippetService) Create(ctx context.Context, userID, content string, categoryID *string) (*model.Snippet, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	categoryID, err := s.checkCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	sn := &model.Snippet{UserID: userID, Content: content, CategoryID: categoryID}
	if err := s.repo.Create(ctx, sn); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", sn.ID),
		slog.String("userID", userID),
	)
	return sn, nil
}

func (s *SnippetService) GetByID(ctx context.Context, userID, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's snippets, newest first.
func (s *SnippetService) List(ctx context.Context, userID string) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update applies a partial update: fetch, apply the fields the patch sets,
// save. An empty patch is rejected so a typo in a field name does not
// silently succeed.
func (s *SnippetService) Update(ctx context.Context, userID, id string, patch model.SnippetPatch) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if patch.IsEmpty() {
		return nil, apperror.ValidationFailed("", "nothing to update")
	}
	if patch.Content != nil {
		if err := validateContent(*patch.Content); err != nil {
			return nil, err
		}
	}

	sn, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Content != nil {
		sn.Content = *patch.Content
	}
	if patch.CategoryID.Set {
		categoryID, err := s.checkCategory(ctx, userID, patch.CategoryID.Value)
		if err != nil {
			return nil, err
		}
		sn.CategoryID = categoryID
	}
	if patch.IsFavorite != nil {
		sn.IsFavorite = *patch.IsFavorite
	}

	if err := s.repo.Update(ctx, sn); err != nil {
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", id))
	return sn, nil
}

func (s *SnippetService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("content", "snippet content is required")
	}
	if len(content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d bytes or less", MaxContentLength))
	}
	return nil
}

// checkCategory normalizes an optional category reference: nil and "" mean
// none, anything else must be one of the user's categories.
func (s *SnippetService) checkCategory(ctx context.Context, userID string, categoryID *string) (*string, error) {
	if categoryID == nil || strings.TrimSpace(*categoryID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*categoryID)
	if _, err := s.categories.GetByID(ctx, userID, id); err != nil {
		if apperror.Code(err) == "not_found" {
			return nil, apperror.ValidationFailed("categoryId", fmt.Sprintf("category %s does not exist", id))
		}
		return nil, fmt.Errorf("checking category: %w", err)
	}
	return &id, nil
}
