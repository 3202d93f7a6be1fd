package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/auth"
	"github.com/sakif/global-clipboard/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler manages sign-up, confirmation, sign-in and GitHub login.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignUp         → create an account pending confirmation
//   - HandleConfirm        → follow the confirmation link, sign in
//   - HandleSignIn         → check credentials, issue JWT (body + cookie)
//   - HandleSignOut        → clear the JWT cookie
//   - HandleMe             → return the signed-in user's profile
//   - HandleGitHubLogin    → redirect the browser to GitHub
//   - HandleGitHubCallback → exchange the code, issue JWT cookie
//
// Sign-in and sign-out accept both JSON (API client) and HTML form posts
// (the /login page). Form posts are answered with redirects.
type AuthHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider // nil when GitHub login is not configured
	secure bool                 // mark cookies Secure (HTTPS deployments)
	logger *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		secure: secureCookies,
		logger: logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is returned by sign-in and JSON confirmation.
type SignInResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// SignUpResponse carries the message to show; the confirmation link itself
// only goes out of band.
type SignUpResponse struct {
	Message string `json:"message"`
	User    any    `json:"user"`
}

// HandleSignUp creates an email/password account.
//
// HTTP: POST /auth/signup
// REQUEST BODY: {"email": "me@example.com", "password": "..."}
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, err := h.readCredentials(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if isForm(r) {
		http.Redirect(w, r, "/login?notice="+url.QueryEscape(res.Message), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, SignUpResponse{Message: res.Message, User: res.User})
}

// HandleConfirm activates an account from the emailed link and signs the
// browser in.
//
// HTTP: GET /auth/confirm?token=...
func (h *AuthHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Confirm(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Warn("confirmation failed", slog.String("error", err.Error()))
		if wantsJSON(r) {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, "/login?error="+url.QueryEscape(errorMessage(err)), http.StatusSeeOther)
		return
	}

	h.setTokenCookie(w, res.Token)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, SignInResponse{Token: res.Token, User: res.User})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSignIn checks email and password.
//
// HTTP: POST /auth/signin
// RESPONSE: {"token": "...", "user": {...}} and an HttpOnly "token" cookie
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	creds, err := h.readCredentials(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	if isForm(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, SignInResponse{Token: res.Token, User: res.User})
}

// HandleSignOut clears the JWT cookie.
//
// HTTP: POST /auth/signout
//
// Tokens are stateless: the JWT stays valid until it expires, but the
// browser no longer sends it. API clients drop their stored copy.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if isForm(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state goes into a short-lived cookie; the callback checks that
// GitHub echoed the same value back (CSRF protection).
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("login provider", "github"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Upsert the user and issue a JWT cookie
//  4. Redirect to the dashboard
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("login provider", "github"))
		return
	}

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: invalid state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/login?error="+url.QueryEscape("GitHub sign-in was cancelled"), http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	// --- Step 3: Upsert and issue token ---
	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	h.setTokenCookie(w, res.Token)

	// --- Step 4: Redirect to the app ---
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.auth.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readCredentials accepts a JSON body or a form post.
func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var creds credentialsRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return creds, apperror.ValidationFailed("", "invalid form body")
		}
		creds.Email = r.PostForm.Get("email")
		creds.Password = r.PostForm.Get("password")
		return creds, nil
	}
	err := decodeJSON(w, r, &creds)
	return creds, err
}

// fail answers a form post with a redirect back to the login page and
// anything else with a JSON error.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isForm(r) {
		http.Redirect(w, r, "/login?error="+url.QueryEscape(errorMessage(err)), http.StatusSeeOther)
		return
	}
	writeError(w, err)
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// errorMessage is the text safe to show a user for err.
func errorMessage(err error) string {
	if apperror.Code(err) == "internal_error" {
		return "Something went wrong. Please try again."
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
