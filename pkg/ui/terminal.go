package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Banner is printed at the start of a sync
const Banner = `
  ┌─────────────────────────────────────────┐
  │  followsync · followers → Google Sheets │
  └─────────────────────────────────────────┘
`

var (
	cyan    = color.New(color.FgCyan).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

// Terminal writes colored status lines. In quiet mode only errors are shown.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	quiet bool
}

// NewTerminal creates a terminal writing to out and errOut
func NewTerminal(out, errOut io.Writer, quiet bool) *Terminal {
	return &Terminal{out: out, err: errOut, quiet: quiet}
}

var (
	std     = NewTerminal(os.Stdout, os.Stderr, false)
	stdLock sync.RWMutex
)

// Default returns the process-wide terminal
func Default() *Terminal {
	stdLock.RLock()
	defer stdLock.RUnlock()
	return std
}

// SetQuietMode switches the process-wide terminal to errors only
func SetQuietMode(quiet bool) {
	stdLock.Lock()
	defer stdLock.Unlock()
	std = NewTerminal(std.out, std.err, quiet)
}

// SetNoColor disables ANSI colors everywhere
func SetNoColor(disabled bool) {
	color.NoColor = disabled
}

// Quiet reports whether t only prints errors
func (t *Terminal) Quiet() bool {
	return t.quiet
}

func (t *Terminal) println(w io.Writer, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(w, s)
}

// Banner prints the banner
func (t *Terminal) Banner() {
	if t.quiet {
		return
	}
	t.println(t.out, cyan(Banner))
}

// Error prints an error message in red. It is shown even in quiet mode.
func (t *Terminal) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	t.println(t.err, red(msg))
}

// Success prints a success message in green
func (t *Terminal) Success(msg string) {
	if t.quiet {
		return
	}
	t.println(t.out, green(msg))
}

// Info prints a label and value
func (t *Terminal) Info(label, value string) {
	if t.quiet {
		return
	}
	t.println(t.out, fmt.Sprintf("%s: %s", cyan(label), yellow(value)))
}

// Warning prints a warning message in yellow
func (t *Terminal) Warning(msg string, args ...interface{}) {
	if t.quiet {
		return
	}
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	t.println(t.out, yellow(msg))
}

// Highlight prints a message in magenta
func (t *Terminal) Highlight(msg string) {
	if t.quiet {
		return
	}
	t.println(t.out, magenta(msg))
}

// PrintSuccess prints a success message on the default terminal
func PrintSuccess(msg string) { Default().Success(msg) }

// PrintInfo prints a label and value on the default terminal
func PrintInfo(label, value string) { Default().Info(label, value) }

// PrintWarning prints a warning on the default terminal
func PrintWarning(msg string, args ...interface{}) { Default().Warning(msg, args...) }

// PrintHighlight prints a highlighted message on the default terminal
func PrintHighlight(msg string) { Default().Highlight(msg) }
