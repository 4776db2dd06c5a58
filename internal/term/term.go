// Package term decides whether output is colored and paints strings.
//
// Callers ask for a [Color] by name and wrap text with [Paint]; whether the
// escape sequences are emitted is settled once by [Configure].
package term

import (
	"os"
	"strings"
	"sync/atomic"

	xterm "golang.org/x/term"

	"github.com/backmassage/smbfix/internal/config"
)

// Color is an ANSI SGR sequence.
type Color string

const (
	Red     Color = "\033[1;91m"
	Green   Color = "\033[1;92m"
	Yellow  Color = "\033[1;93m"
	Orange  Color = "\033[1;38;5;208m"
	Blue    Color = "\033[1;94m"
	Cyan    Color = "\033[1;96m"
	Magenta Color = "\033[1;95m"

	reset = "\033[0m"
)

var enabled atomic.Bool

// Configure resolves mode against the environment. Called from
// [logging.NewLogger] at startup.
func Configure(mode config.ColorMode) {
	enabled.Store(resolve(mode, os.Stdout, os.Getenv))
}

// Enabled reports whether Paint emits escape sequences.
func Enabled() bool { return enabled.Load() }

// Paint wraps s in c and a reset. It returns s unchanged when colors are off
// or c is empty.
func Paint(c Color, s string) string {
	if c == "" || !enabled.Load() {
		return s
	}
	return string(c) + s + reset
}

// resolve honours NO_COLOR (https://no-color.org) and TERM=dumb in auto mode.
func resolve(mode config.ColorMode, out *os.File, getenv func(string) string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if getenv("NO_COLOR") != "" || strings.EqualFold(getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return xterm.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or fallback when f is not a TTY.
func Width(f *os.File, fallback int) int {
	if !IsTerminal(f) {
		return fallback
	}
	w, _, err := xterm.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
