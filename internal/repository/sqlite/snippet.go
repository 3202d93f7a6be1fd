package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/repository"
)

// Compile-time check that *SnippetStore implements the interface.
var _ repository.SnippetRepository = (*SnippetStore)(nil)

// SnippetStore implements repository.SnippetRepository.
type SnippetStore struct {
	conn *sql.DB
}

const snippetColumns = `id, user_id, content, category_id, is_favorite, created_at`

// Create inserts a snippet. ID is an xid: 20 URL-safe chars that sort by
// creation time, which also breaks created_at ties in List.
func (s *SnippetStore) Create(ctx context.Context, sn *model.Snippet) error {
	sn.ID = xid.New().String()
	sn.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sn.ID, sn.UserID, sn.Content, nullString(sn.CategoryID), sn.IsFavorite, sn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}
	return nil
}

func (s *SnippetStore) GetByID(ctx context.Context, userID, id string) (*model.Snippet, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	sn, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return sn, nil
}

// List returns newest first.
func (s *SnippetStore) List(ctx context.Context, userID string) ([]model.Snippet, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}

// Update writes the mutable fields. ID, owner and created_at never change.
func (s *SnippetStore) Update(ctx context.Context, sn *model.Snippet) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET content = ?, category_id = ?, is_favorite = ?
		 WHERE id = ? AND user_id = ?`,
		sn.Content, nullString(sn.CategoryID), sn.IsFavorite, sn.ID, sn.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", sn.ID, err)
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", sn.ID, err)
	}
	if !ok {
		return apperror.NotFound("snippet", sn.ID)
	}
	return nil
}

func (s *SnippetStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (*model.Snippet, error) {
	var (
		sn         model.Snippet
		categoryID sql.NullString
	)
	if err := row.Scan(&sn.ID, &sn.UserID, &sn.Content, &categoryID, &sn.IsFavorite, &sn.CreatedAt); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		sn.CategoryID = &categoryID.String
	}
	return &sn, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
