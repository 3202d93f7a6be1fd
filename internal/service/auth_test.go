package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/auth"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo, opts AuthOptions) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// Cost 4 is the bcrypt minimum and keeps tests fast.
	ps := auth.NewPasswordServiceWithCost(4)

	return NewAuthService(repo, ts, ps, opts, testLogger())
}

// =========================================================================
// SIGN-UP / CONFIRM
// =========================================================================

func TestSignUp_PendingConfirmation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, AuthOptions{BaseURL: "http://clip.test"})

	res, err := svc.SignUp(context.Background(), "  Me@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if res.User.Email != "me@example.com" {
		t.Errorf("Email = %q, want normalized", res.User.Email)
	}
	if res.User.Confirmed() {
		t.Error("new account is confirmed without AutoConfirm")
	}
	if res.User.PasswordHash == "" || res.User.PasswordHash == "correct horse" {
		t.Error("password was not hashed")
	}
	if !strings.HasPrefix(res.ConfirmURL, "http://clip.test/auth/confirm?token=") {
		t.Errorf("ConfirmURL = %q", res.ConfirmURL)
	}
	if res.Message == "" {
		t.Error("Message is empty")
	}

	// Unconfirmed accounts cannot sign in.
	_, err = svc.SignIn(context.Background(), "me@example.com", "correct horse")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("SignIn() before confirm error = %v, want ErrForbidden", err)
	}

	confirmed, err := svc.Confirm(context.Background(), res.User.ConfirmToken)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Token == "" || !confirmed.User.Confirmed() {
		t.Errorf("Confirm() = %+v", confirmed)
	}

	signedIn, err := svc.SignIn(context.Background(), "ME@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	userID, err := svc.ValidateToken(signedIn.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != res.User.ID {
		t.Errorf("token subject = %q, want %q", userID, res.User.ID)
	}
}

func TestSignUp_AutoConfirm(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{AutoConfirm: true})

	res, err := svc.SignUp(context.Background(), "a@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if !res.User.Confirmed() || res.ConfirmURL != "" {
		t.Errorf("SignUp() = %+v, want confirmed without link", res)
	}
	if _, err := svc.SignIn(context.Background(), "a@example.com", "password1"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"empty email", "", "password1", "email"},
		{"bad email", "not-an-email", "password1", "email"},
		{"display name form", "Me <me@example.com>", "password1", "email"},
		{"short password", "a@example.com", "short", "password"},
		{"long password", "a@example.com", strings.Repeat("p", 73), "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{})

			_, err := svc.SignUp(context.Background(), tt.email, tt.password)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("SignUp() error = %v, want validation error", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{})
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "dup@example.com", "password1"); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	_, err := svc.SignUp(ctx, "dup@example.com", "password2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second SignUp() error = %v, want ErrConflict", err)
	}
}

func TestConfirm_InvalidToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{})

	if _, err := svc.Confirm(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Confirm(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := svc.Confirm(context.Background(), "unknown"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Confirm(unknown) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SIGN-IN
// =========================================================================

func TestSignIn_SameMessageForUnknownAndWrong(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{AutoConfirm: true})
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "a@example.com", "password1"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	_, errWrong := svc.SignIn(ctx, "a@example.com", "password2")
	_, errUnknown := svc.SignIn(ctx, "b@example.com", "password1")

	if !errors.Is(errWrong, apperror.ErrUnauthorized) || !errors.Is(errUnknown, apperror.ErrUnauthorized) {
		t.Fatalf("errors = %v / %v, want ErrUnauthorized", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("messages differ: %q vs %q", errWrong.Error(), errUnknown.Error())
	}
}

func TestSignIn_PasswordLengthLimit(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{AutoConfirm: true})
	ctx := context.Background()
	password := strings.Repeat("p", auth.MaxPasswordBytes)
	if _, err := svc.SignUp(ctx, "a@example.com", password); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if _, err := svc.SignIn(ctx, "a@example.com", password); err != nil {
		t.Fatalf("SignIn() with %d bytes error = %v", auth.MaxPasswordBytes, err)
	}

	// One byte more shares the stored prefix but is still a wrong password.
	_, err := svc.SignIn(ctx, "a@example.com", password+"p")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("SignIn() error = %v, want ErrUnauthorized", err)
	}
	if err.Error() != "invalid email or password" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSignIn_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{})

	if _, err := svc.SignIn(context.Background(), "", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("SignIn() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// GITHUB
// =========================================================================

func TestLoginOrRegisterGitHub(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, AuthOptions{})
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "octo"})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if first.Token == "" || !first.User.Confirmed() {
		t.Errorf("first login = %+v", first)
	}

	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "octocat"})
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("ID changed: %s → %s", first.User.ID, second.User.ID)
	}
	if second.User.Login != "octocat" {
		t.Errorf("Login = %q, want refreshed", second.User.Login)
	}
}

func TestLoginOrRegisterGitHub_Errors(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, AuthOptions{})

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Error("nil GitHub user should fail")
	}

	dbErr := errors.New("db down")
	repo.err = dbErr
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1}); !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped %v", err, dbErr)
	}
}

// =========================================================================
// USERS AND PURGE
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{AutoConfirm: true})
	ctx := context.Background()
	res, _ := svc.SignUp(ctx, "a@example.com", "password1")

	u, err := svc.GetUserByID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if u.Email != "a@example.com" {
		t.Errorf("Email = %q", u.Email)
	}

	if _, err := svc.GetUserByID(ctx, "gone"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetUserByID(gone) error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetUserByID(ctx, ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrUnauthorized", err)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), AuthOptions{})

	if _, err := svc.ValidateToken("garbage"); err == nil {
		t.Fatal("ValidateToken() expected error")
	}
}

func TestPurgeUnconfirmed(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, AuthOptions{})
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, _ := svc.SignUp(ctx, "stale@example.com", "password1")
	repo.users[res.User.ID].CreatedAt = fixed.Add(-72 * time.Hour)
	fresh, _ := svc.SignUp(ctx, "fresh@example.com", "password1")
	repo.users[fresh.User.ID].CreatedAt = fixed.Add(-time.Hour)

	n, err := svc.PurgeUnconfirmed(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("PurgeUnconfirmed() error = %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if !repo.purgeCutoff.Equal(fixed.Add(-48 * time.Hour)) {
		t.Errorf("cutoff = %v, want %v", repo.purgeCutoff, fixed.Add(-48*time.Hour))
	}
	if _, ok := repo.users[fresh.User.ID]; !ok {
		t.Error("fresh sign-up was purged")
	}
}
