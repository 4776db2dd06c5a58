// Package logging provides the leveled, optionally colored logger used by the
// CLI. Every line is timestamped; ERROR goes to stderr, everything else to
// stdout, and all levels are appended to the optional log file uncolored.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/term"
)

// Level is a log severity. The zero value is LevelInfo.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

func (l Level) color() term.Color {
	switch l {
	case LevelSuccess:
		return term.Green
	case LevelWarn:
		return term.Yellow
	case LevelError:
		return term.Red
	case LevelDebug:
		return term.Cyan
	default:
		return term.Blue
	}
}

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	mu      sync.Mutex
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// NewLogger configures terminal colors from cfg and optionally opens
// cfg.LogFile for appending. Call Close() when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	l := &Logger{
		verbose: cfg.Verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

// SetOutput redirects terminal output; used when a full-screen view owns
// stdout and only the log file should receive lines.
func (l *Logger) SetOutput(stdout, stderr io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = stdout
	l.stderr = stderr
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level Level, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	name := level.String()
	plain := ts + " [" + name + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.stdout
	if level == LevelError {
		out = l.stderr
	}
	if term.Enabled() {
		_, _ = io.WriteString(out, ts+" "+term.Paint(level.color(), "["+name+"]")+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Log writes text at the given level. DEBUG lines are dropped unless the
// logger was created with Verbose set.
func (l *Logger) Log(level Level, text string) {
	if level == LevelDebug && !l.verbose {
		return
	}
	l.line(level, text)
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line(LevelInfo, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line(LevelSuccess, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), also to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line(LevelError, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.line(LevelDebug, fmt.Sprintf(format, args...))
}
