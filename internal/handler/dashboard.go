// Package handler contains the HTTP request handlers.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming HTTP request (query params, body, headers)
//  2. Call the service layer
//  3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules: validation and ownership checks live in
// internal/service, status mapping in writeError.
package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/auth"
	"github.com/sakif/global-clipboard/internal/filter"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/render"
	"github.com/sakif/global-clipboard/internal/service"
)

// DashboardHandler serves the server-rendered pages: the snippet dashboard
// and the sign-in form. Templates are parsed once at startup.
//
// Each page is its own template set: base.html provides the layout with a
// {{template "content" .}} placeholder and the page file defines "content".
type DashboardHandler struct {
	pages         map[string]*template.Template
	auth          *service.AuthService
	categories    *service.CategoryService
	snippets      *service.SnippetService
	githubEnabled bool
	logger        *slog.Logger
}

func NewDashboardHandler(
	templateDir string,
	authService *service.AuthService,
	categories *service.CategoryService,
	snippets *service.SnippetService,
	githubEnabled bool,
	logger *slog.Logger,
) (*DashboardHandler, error) {
	funcs := template.FuncMap{"render": render.Snippet}

	pages := map[string]*template.Template{}
	for _, page := range []string{"dashboard", "login"} {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, page+".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", page, err)
		}
		pages[page] = tmpl
	}

	return &DashboardHandler{
		pages:         pages,
		auth:          authService,
		categories:    categories,
		snippets:      snippets,
		githubEnabled: githubEnabled,
		logger:        logger,
	}, nil
}

// CategoryView is a sidebar entry.
type CategoryView struct {
	model.Category
	Count  int
	Active bool
}

// SnippetView is a card: the snippet plus its resolved category.
type SnippetView struct {
	model.Snippet
	Category *model.Category // nil when uncategorized
	HTML     template.HTML
}

// DashboardData is the template data for the dashboard.
type DashboardData struct {
	Title      string
	User       *model.User
	Categories []CategoryView
	Snippets   []SnippetView
	Filter     filter.Filter
	Search     string
	Total      int
	Favorites  int
	Palette    []model.NamedColor
}

// LoginData is the template data for the sign-in page.
type LoginData struct {
	Title         string
	User          *model.User
	Error         string
	Notice        string
	GitHubEnabled bool
}

// HandleDashboard renders the visible snippets.
//
// HTTP: GET /?filter=all|favorites|<categoryID>&q=<search>
//
// A filter naming a category the user no longer has falls back to All.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.serverError(w, err)
		return
	}

	categories, err := h.categories.List(r.Context(), userID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	snippets, err := h.snippets.List(r.Context(), userID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	active := filter.Parse(r.URL.Query().Get("filter"))
	search := r.URL.Query().Get("q")

	byID := make(map[string]*model.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	if active.IsCategory() && byID[active.CategoryID()] == nil {
		active = filter.All
	}

	data := DashboardData{
		Title:   "Global Clipboard",
		User:    user,
		Filter:  active,
		Search:  search,
		Total:   len(snippets),
		Palette: model.CategoryColors,
	}

	counts := map[string]int{}
	for _, sn := range snippets {
		if sn.CategoryID != nil {
			counts[*sn.CategoryID]++
		}
		if sn.IsFavorite {
			data.Favorites++
		}
	}
	for _, c := range categories {
		data.Categories = append(data.Categories, CategoryView{
			Category: c,
			Count:    counts[c.ID],
			Active:   active == filter.Category(c.ID),
		})
	}

	for _, sn := range filter.Visible(snippets, active, search) {
		view := SnippetView{Snippet: sn, HTML: render.Snippet(sn.Content)}
		if sn.CategoryID != nil {
			view.Category = byID[*sn.CategoryID]
		}
		data.Snippets = append(data.Snippets, view)
	}

	h.render(w, "dashboard", data)
}

// HandleLogin renders the sign-in and sign-up forms.
//
// HTTP: GET /login?error=...&notice=...
func (h *DashboardHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, "login", LoginData{
		Title:         "Sign in · Global Clipboard",
		Error:         r.URL.Query().Get("error"),
		Notice:        r.URL.Query().Get("notice"),
		GitHubEnabled: h.githubEnabled,
	})
}

func (h *DashboardHandler) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *DashboardHandler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("dashboard: loading data failed", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
