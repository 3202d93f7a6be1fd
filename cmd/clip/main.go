// Command clip is the terminal client for Global Clipboard.
//
// It keeps the server URL and session token in a small JSON file in the
// user's config directory, opens a session for every command, performs one
// operation through it and prints the result as JSON.
package main

import (
	"log/slog"
	"os"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	// Diagnostics go to stderr so stdout stays valid JSON.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	app := newCLIApp(os.Stdin, os.Stdout, logger)
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
