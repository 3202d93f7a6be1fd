package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/auth"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/repository"
)

const MinPasswordLength = 8

// AuthOptions tunes the sign-up flow.
type AuthOptions struct {
	// BaseURL prefixes the confirmation link ("https://clip.example.com").
	BaseURL string
	// AutoConfirm skips email confirmation. Development and tests only.
	AutoConfirm bool
}

// AuthService handles sign-up, confirmation, sign-in and GitHub login.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
//
// There is no mail transport: the confirmation link is written to the
// server log, and the sign-up response tells the user to follow it.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	opts      AuthOptions
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// AuthResult bundles the user and the issued token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignUpResult describes the pending account.
type SignUpResult struct {
	User *model.User
	// Message is shown to the user as-is.
	Message string
	// ConfirmURL is empty when the account was auto-confirmed.
	ConfirmURL string
}

// SignUp creates an email/password account that must be confirmed before
// it can sign in.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if s.opts.AutoConfirm {
		now := s.now().UTC()
		user.ConfirmedAt = &now
	} else {
		user.ConfirmToken = uuid.NewString()
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	if s.opts.AutoConfirm {
		s.logger.Info("user signed up (auto-confirmed)", slog.String("userID", user.ID))
		return &SignUpResult{User: user, Message: "Account created. You can sign in now."}, nil
	}

	confirmURL := s.opts.BaseURL + "/auth/confirm?token=" + url.QueryEscape(user.ConfirmToken)
	s.logger.Info("user signed up, confirmation pending",
		slog.String("userID", user.ID),
		slog.String("email", email),
		slog.String("confirmURL", confirmURL),
	)
	return &SignUpResult{
		User:       user,
		Message:    "Check your email for the confirmation link.",
		ConfirmURL: confirmURL,
	}, nil
}

// Confirm activates the account holding token and signs it in.
func (s *AuthService) Confirm(ctx context.Context, token string) (*AuthResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.ValidationFailed("token", "confirmation token is required")
	}

	user, err := s.users.Confirm(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("token", "confirmation link is invalid or already used")
		}
		return nil, fmt.Errorf("service/auth: confirming: %w", err)
	}

	s.logger.Info("user confirmed", slog.String("userID", user.ID))
	return s.issue(user)
}

// SignIn checks email and password. Unknown email and wrong password give
// the same message so the response does not reveal which accounts exist.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("sign-in rejected", slog.String("userID", user.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	if !user.Confirmed() {
		return nil, apperror.Forbidden("email not confirmed yet: follow the link sent at sign-up")
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub upserts the GitHub account and issues a token.
// GitHub identities are trusted as confirmed.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	ghID := ghUser.ID
	user := &model.User{
		GitHubID:  &ghID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)
	return s.issue(user)
}

// GetUserByID backs /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("not signed in")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Token outlived its account (purged or deleted).
			return nil, apperror.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user ID a token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// TokenTTL is how long issued tokens stay valid; the auth cookie uses the
// same lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// PurgeUnconfirmed removes sign-ups never confirmed within olderThan.
func (s *AuthService) PurgeUnconfirmed(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.users.PurgeUnconfirmed(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("service/auth: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged unconfirmed sign-ups", slog.Int64("count", n))
	}
	return n, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email address is not valid")
	}
	return email, nil
}
