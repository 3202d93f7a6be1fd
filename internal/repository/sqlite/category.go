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

var _ repository.CategoryRepository = (*CategoryStore)(nil)

// CategoryStore implements repository.CategoryRepository.
type CategoryStore struct {
	conn *sql.DB
}

func (s *CategoryStore) Create(ctx context.Context, c *model.Category) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating category: %w", err)
	}
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, userID, id string) (*model.Category, error) {
	var c model.Category
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, created_at
		 FROM categories
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}
	return &c, nil
}

// List orders by name, then by creation so equal names stay stable.
func (s *CategoryStore) List(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, name, color, created_at
		 FROM categories
		 WHERE user_id = ?
		 ORDER BY name, created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryStore) Update(ctx context.Context, c *model.Category) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?
		 WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.ID, c.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating category %s: %w", c.ID, err)
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlite: updating category %s: %w", c.ID, err)
	}
	if !ok {
		return apperror.NotFound("category", c.ID)
	}
	return nil
}

// Delete clears snippet references before removing the row. The foreign
// key would do the same, but the count is reported back to the caller.
func (s *CategoryStore) Delete(ctx context.Context, userID, id string) (int64, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning category delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE snippets SET category_id = NULL
		 WHERE user_id = ? AND category_id = ?`,
		userID, id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: unassigning snippets from %s: %w", id, err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: unassigning snippets from %s: %w", id, err)
	}

	res, err = tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}
	ok, err := rowsAffected(res)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}
	if !ok {
		return 0, apperror.NotFound("category", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing category delete: %w", err)
	}
	return cleared, nil
}
