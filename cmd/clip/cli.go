package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/client"
	"github.com/sakif/global-clipboard/internal/clipboard"
	"github.com/sakif/global-clipboard/internal/config"
	"github.com/sakif/global-clipboard/internal/filter"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/session"
)

// app carries what every command needs.
type app struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
	copier session.Copier
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(in io.Reader, out io.Writer, logger *slog.Logger) *cli.App {
	a := &app{in: in, out: out, logger: logger, copier: clipboard.New(logger)}
	return a.cliApp()
}

func (a *app) cliApp() *cli.App {
	cliApp := &cli.App{
		Name:    "clip",
		Usage:   "Keep snippets in sync across machines",
		Version: Version,
		Writer:  a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", EnvVars: []string{"CLIP_CONFIG_DIR"}, Usage: "Directory holding config.json"},
			&cli.StringFlag{Name: "server", EnvVars: []string{"CLIP_SERVER"}, Usage: "Server URL (saved on sign-in)"},
		},
		Commands: []*cli.Command{
			a.signUpCmd(),
			a.signInCmd(),
			a.signOutCmd(),
			a.whoamiCmd(),
			a.listCmd(),
			a.addCmd(),
			a.editCmd(),
			a.favoriteCmd("fav", true),
			a.favoriteCmd("unfav", false),
			a.moveCmd(),
			a.removeCmd(),
			a.copyCmd(),
			a.categoriesCmd(),
			a.categoryCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, err error) {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return cliApp
}

// =========================================================================
// ACCOUNT COMMANDS
// =========================================================================

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"CLIP_PASSWORD"}, Required: true, Usage: "Account password"},
	}
}

func (a *app) signUpCmd() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account",
		Flags: credentialFlags(),
		Action: func(c *cli.Context) error {
			cfg, api, err := a.client(c)
			if err != nil {
				return outputError(err)
			}
			msg, err := api.SignUp(c.Context, c.String("email"), c.String("password"))
			if err != nil {
				return outputError(err)
			}
			if err := a.save(c, cfg, api); err != nil {
				return outputError(err)
			}
			return a.outputJSON(map[string]string{"message": msg})
		},
	}
}

func (a *app) signInCmd() *cli.Command {
	return &cli.Command{
		Name:  "signin",
		Usage: "Sign in and remember the session",
		Flags: credentialFlags(),
		Action: func(c *cli.Context) error {
			cfg, api, err := a.client(c)
			if err != nil {
				return outputError(err)
			}
			if err := api.SignIn(c.Context, c.String("email"), c.String("password")); err != nil {
				return outputError(err)
			}
			if err := a.save(c, cfg, api); err != nil {
				return outputError(err)
			}
			user, err := api.CurrentUser(c.Context)
			if err != nil {
				return outputError(err)
			}
			return a.outputJSON(user)
		},
	}
}

func (a *app) signOutCmd() *cli.Command {
	return &cli.Command{
		Name:  "signout",
		Usage: "Forget the saved session",
		Action: func(c *cli.Context) error {
			cfg, api, err := a.client(c)
			if err != nil {
				return outputError(err)
			}
			_ = api.SignOut(c.Context)
			if err := a.save(c, cfg, api); err != nil {
				return outputError(err)
			}
			return a.outputJSON(map[string]bool{"signedIn": false})
		},
	}
}

func (a *app) whoamiCmd() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: func(c *cli.Context) error {
			_, api, err := a.client(c)
			if err != nil {
				return outputError(err)
			}
			user, err := api.CurrentUser(c.Context)
			if err != nil {
				return outputError(err)
			}
			if user == nil {
				return a.outputJSON(map[string]bool{"signedIn": false})
			}
			return a.outputJSON(user)
		},
	}
}

// =========================================================================
// SNIPPET COMMANDS
// =========================================================================

func (a *app) listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List visible snippets, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Value: "all", Usage: "all, favorites, or a category ID"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Case-insensitive content search"},
		},
		Action: func(c *cli.Context) error {
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			s.SetActiveFilter(filter.Parse(c.String("filter")))
			s.SetSearchText(c.String("search"))
			return a.outputJSON(s.Visible())
		},
	}
}

func (a *app) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Save a snippet (reads stdin when no content is given)",
		ArgsUsage: "[content...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category ID"},
		},
		Action: func(c *cli.Context) error {
			content := strings.Join(c.Args().Slice(), " ")
			if c.NArg() == 0 {
				text, err := a.readInput()
				if err != nil {
					return outputError(err)
				}
				content = text
			}

			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			sn, err := s.AddSnippet(c.Context, content, model.StringPtr(c.String("category")))
			if err != nil {
				return outputError(err)
			}
			return a.outputJSON(sn)
		},
	}
}

func (a *app) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a snippet's content or category",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Usage: "New content"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category ID"},
			&cli.BoolFlag{Name: "no-category", Usage: "Remove the category"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "snippet ID")
			if err != nil {
				return outputError(err)
			}
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			current, ok := s.SnippetByID(id)
			if !ok {
				return outputError(apperror.NotFound("snippet", id))
			}

			content := current.Content
			if c.IsSet("content") {
				content = c.String("content")
			}
			categoryID := current.CategoryID
			switch {
			case c.Bool("no-category"):
				categoryID = nil
			case c.IsSet("category"):
				categoryID = model.StringPtr(c.String("category"))
			}

			if err := s.UpdateSnippet(c.Context, id, content, categoryID); err != nil {
				return outputError(err)
			}
			return a.outputSnippet(s, id)
		},
	}
}

func (a *app) favoriteCmd(name string, value bool) *cli.Command {
	usage := "Mark a snippet as favorite"
	if !value {
		usage = "Unmark a favorite snippet"
	}
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "snippet ID")
			if err != nil {
				return outputError(err)
			}
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			if err := s.ToggleFavorite(c.Context, id, value); err != nil {
				return outputError(err)
			}
			return a.outputSnippet(s, id)
		},
	}
}

func (a *app) moveCmd() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a snippet to a category (none when --category is omitted)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Target category ID"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "snippet ID")
			if err != nil {
				return outputError(err)
			}
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			if err := s.SetSnippetCategory(c.Context, id, model.StringPtr(c.String("category"))); err != nil {
				return outputError(err)
			}
			return a.outputSnippet(s, id)
		},
	}
}

func (a *app) removeCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a snippet",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "snippet ID")
			if err != nil {
				return outputError(err)
			}
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			if err := s.DeleteSnippet(c.Context, id); err != nil {
				return outputError(err)
			}
			return a.outputJSON(map[string]string{"deleted": id})
		},
	}
}

func (a *app) copyCmd() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy a snippet to the clipboard",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "snippet ID")
			if err != nil {
				return outputError(err)
			}
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			sn, ok := s.SnippetByID(id)
			if !ok {
				return outputError(apperror.NotFound("snippet", id))
			}
			copied := s.CopySnippet(sn.Content)
			if !copied {
				// The snippet is still useful on stdout.
				return a.outputJSON(map[string]any{"copied": false, "content": sn.Content})
			}
			return a.outputJSON(map[string]any{"copied": true, "id": id})
		},
	}
}

// =========================================================================
// CATEGORY COMMANDS
// =========================================================================

func (a *app) categoriesCmd() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List categories by name",
		Action: func(c *cli.Context) error {
			s, err := a.open(c)
			if err != nil {
				return outputError(err)
			}
			return a.outputJSON(s.Categories())
		},
	}
}

func (a *app) categoryCmd() *cli.Command {
	colorUsage := "Hex color or palette name (" + paletteNames() + ")"
	return &cli.Command{
		Name:  "category",
		Usage: "Manage categories",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Category name"},
					&cli.StringFlag{Name: "color", Usage: colorUsage},
				},
				Action: func(c *cli.Context) error {
					s, err := a.open(c)
					if err != nil {
						return outputError(err)
					}
					created, err := s.AddCategory(c.Context, c.String("name"), c.String("color"))
					if err != nil {
						return outputError(err)
					}
					return a.outputJSON(created)
				},
			},
			{
				Name:      "edit",
				Usage:     "Rename or recolor a category",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "color", Usage: colorUsage},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "category ID")
					if err != nil {
						return outputError(err)
					}
					s, err := a.open(c)
					if err != nil {
						return outputError(err)
					}
					current, ok := s.CategoryByID(id)
					if !ok {
						return outputError(apperror.NotFound("category", id))
					}
					name, color := current.Name, current.Color
					if c.IsSet("name") {
						name = c.String("name")
					}
					if c.IsSet("color") {
						color = c.String("color")
					}
					if err := s.UpdateCategory(c.Context, id, name, color); err != nil {
						return outputError(err)
					}
					updated, _ := s.CategoryByID(id)
					return a.outputJSON(updated)
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a category; its snippets become uncategorized",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "category ID")
					if err != nil {
						return outputError(err)
					}
					s, err := a.open(c)
					if err != nil {
						return outputError(err)
					}
					if err := s.DeleteCategory(c.Context, id); err != nil {
						return outputError(err)
					}
					return a.outputJSON(map[string]string{"deleted": id})
				},
			},
		},
	}
}

// =========================================================================
// HELPERS
// =========================================================================

func configDir(c *cli.Context) (string, error) {
	if dir := c.String("config-dir"); dir != "" {
		return dir, nil
	}
	return config.DefaultClientDir()
}

// client loads the saved config and builds an API client from it. The
// --server flag overrides the saved URL.
func (a *app) client(c *cli.Context) (*config.Client, *client.Client, error) {
	dir, err := configDir(c)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadClient(dir)
	if err != nil {
		return nil, nil, err
	}
	if server := c.String("server"); server != "" {
		cfg.ServerURL = server
	}
	return cfg, client.New(cfg.ServerURL, cfg.Token, a.logger), nil
}

// save persists the server URL and whatever token the client now holds.
func (a *app) save(c *cli.Context, cfg *config.Client, api *client.Client) error {
	dir, err := configDir(c)
	if err != nil {
		return err
	}
	cfg.Token = api.Token()
	return config.SaveClient(dir, cfg)
}

// open returns a loaded session for the saved sign-in.
func (a *app) open(c *cli.Context) (*session.Session, error) {
	_, api, err := a.client(c)
	if err != nil {
		return nil, err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := session.Open(ctx, api, api, a.copier, a.logger)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return nil, apperror.Unauthorized("not signed in: run `clip signin`")
		}
		return nil, err
	}
	return s, nil
}

func (a *app) outputSnippet(s *session.Session, id string) error {
	sn, ok := s.SnippetByID(id)
	if !ok {
		return outputError(apperror.NotFound("snippet", id))
	}
	return a.outputJSON(sn)
}

// outputJSON writes v to stdout as indented JSON.
func (a *app) outputJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as "[code] message" with exit status 1.
func outputError(err error) error {
	code := apperror.Code(err)
	if errors.Is(err, apperror.ErrRemote) {
		code = "remote_error"
	}
	msg := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", code, msg), 1)
}

// readInput reads snippet content from stdin. One trailing newline (the
// one a shell pipe adds) is dropped; everything else is kept verbatim.
func (a *app) readInput() (string, error) {
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() < 1 || strings.TrimSpace(c.Args().First()) == "" {
		return "", apperror.ValidationFailed("id", what+" is required")
	}
	return c.Args().First(), nil
}

func paletteNames() string {
	names := make([]string, len(model.CategoryColors))
	for i, c := range model.CategoryColors {
		names[i] = strings.ToLower(c.Name)
	}
	return strings.Join(names, ", ")
}
