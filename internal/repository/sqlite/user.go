package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, confirm_token, github_id, login,
	avatar_url, confirmed_at, created_at, updated_at`

// Create inserts an email/password account.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, NULL, '', '', ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.ConfirmToken,
		nullTime(u.ConfirmedAt), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "an account with this email already exists",
				Field:   "email",
			}
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail finds the email/password account for email. GitHub accounts
// sharing the address are not returned.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND github_id IS NULL`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) Confirm(ctx context.Context, token string, at time.Time) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFound("confirmation", "(empty)")
	}

	// Look the row up first so nothing is held open during the UPDATE.
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE confirm_token = ?`, token,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("confirmation", token)
		}
		return nil, fmt.Errorf("sqlite: looking up confirmation token: %w", err)
	}

	at = at.UTC()
	_, err = s.conn.ExecContext(ctx,
		`UPDATE users SET confirmed_at = ?, confirm_token = '', updated_at = ?
		 WHERE id = ?`,
		at, at, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: confirming user %s: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// UpsertGitHub keeps the internal ID of an existing GitHub account and
// refreshes its profile; new accounts are confirmed on creation.
func (s *UserStore) UpsertGitHub(ctx context.Context, u *model.User) error {
	if u.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting GitHub user: missing github id")
	}

	var existingID string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, *u.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *u.GitHubID, err)
	}

	now := time.Now().UTC()
	if existingID != "" {
		u.ID = existingID
		u.UpdatedAt = now
		_, err = s.conn.ExecContext(ctx,
			`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			u.Login, u.Email, u.AvatarURL, u.UpdatedAt, u.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", u.ID, err)
		}
	} else {
		u.ID = xid.New().String()
		u.CreatedAt = now
		u.UpdatedAt = now
		u.ConfirmedAt = &now

		_, err = s.conn.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES (?, ?, '', '', ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, *u.GitHubID, u.Login, u.AvatarURL,
			nullTime(u.ConfirmedAt), u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", *u.GitHubID, err)
		}
	}

	// Read back the canonical row (created_at, confirmed_at of existing users).
	stored, err := s.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

func (s *UserStore) PurgeUnconfirmed(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM users
		 WHERE confirmed_at IS NULL AND github_id IS NULL AND created_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging unconfirmed users: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging unconfirmed users: %w", err)
	}
	return n, nil
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u           model.User
		githubID    sql.NullInt64
		confirmedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.ConfirmToken, &githubID, &u.Login,
		&u.AvatarURL, &confirmedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		u.ConfirmedAt = &t
	}
	return &u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// isUniqueViolation matches SQLite's "UNIQUE constraint failed" message.
// The driver's typed error lives in an internal lib package.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
