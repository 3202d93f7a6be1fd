// Package clipboard copies text to the user's clipboard.
//
// Two mechanisms are tried in order:
//
//  1. The OS clipboard (xclip/xsel/wl-copy on Linux, pbcopy on macOS, the
//     Win32 API on Windows) via github.com/atotto/clipboard.
//  2. An OSC 52 escape sequence written to the controlling terminal. Most
//     modern terminal emulators (and tmux, with set-clipboard on) turn it
//     into a clipboard write on the machine the user is sitting at.
//
// The OS clipboard is skipped when it is unsupported or when the process
// runs inside an SSH session, where it would be the remote host's clipboard.
//
// Copying is best-effort: failures are logged, never returned.
package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
)

// Writer is one way of putting text on a clipboard.
type Writer interface {
	// Available reports whether the mechanism can be used in this process.
	Available() bool
	WriteText(text string) error
}

// Copier tries the primary writer, then the fallback.
type Copier struct {
	primary  Writer
	fallback Writer
	logger   *slog.Logger
}

// New returns a Copier wired to the OS clipboard with an OSC 52 fallback on
// the controlling terminal.
func New(logger *slog.Logger) *Copier {
	return NewWithWriters(SystemWriter{}, NewTerminalWriter(), logger)
}

// NewWithWriters builds a Copier from explicit writers (tests, other UIs).
func NewWithWriters(primary, fallback Writer, logger *slog.Logger) *Copier {
	return &Copier{primary: primary, fallback: fallback, logger: logger}
}

// Copy puts text on the clipboard and reports whether any mechanism
// succeeded. The result only drives a "copied" indicator.
func (c *Copier) Copy(text string) bool {
	if c.primary != nil && c.primary.Available() {
		err := c.primary.WriteText(text)
		if err == nil {
			return true
		}
		c.logger.Warn("system clipboard write failed, falling back",
			slog.String("error", err.Error()),
		)
	}

	if c.fallback == nil || !c.fallback.Available() {
		c.logger.Error("clipboard copy failed: no clipboard mechanism available")
		return false
	}
	if err := c.fallback.WriteText(text); err != nil {
		c.logger.Error("clipboard copy failed",
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// SystemWriter writes to the OS clipboard.
type SystemWriter struct{}

// Available is false when no clipboard utility exists or when running over
// SSH.
func (SystemWriter) Available() bool {
	return !clipboard.Unsupported && !inSSHSession()
}

func (SystemWriter) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: system write: %w", err)
	}
	return nil
}

func inSSHSession() bool {
	return os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != ""
}

// TerminalWriter emits an OSC 52 "set clipboard" sequence.
type TerminalWriter struct {
	open func() (io.WriteCloser, error)
}

// NewTerminalWriter writes to /dev/tty, opened per copy.
func NewTerminalWriter() *TerminalWriter {
	return &TerminalWriter{open: openTTY}
}

// NewTerminalWriterTo writes to w instead of the controlling terminal.
func NewTerminalWriterTo(w io.Writer) *TerminalWriter {
	return &TerminalWriter{open: func() (io.WriteCloser, error) {
		return nopCloser{w}, nil
	}}
}

func (t *TerminalWriter) Available() bool {
	return t.open != nil
}

func (t *TerminalWriter) WriteText(text string) error {
	out, err := t.open()
	if err != nil {
		return fmt.Errorf("clipboard: opening terminal: %w", err)
	}
	defer out.Close()

	if _, err := io.WriteString(out, OSC52(text)); err != nil {
		return fmt.Errorf("clipboard: writing OSC 52 sequence: %w", err)
	}
	return nil
}

// OSC52 returns the escape sequence that asks the terminal to place text on
// the system clipboard ("c" selection).
func OSC52(text string) string {
	return "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
}

var errNoTTY = errors.New("no controlling terminal")

func openTTY() (io.WriteCloser, error) {
	f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Join(errNoTTY, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
