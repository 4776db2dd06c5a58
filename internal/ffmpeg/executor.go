package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/smbfix/internal/planner"
)

// DefaultTailLines is how much diagnostic output an EncodeError keeps.
const DefaultTailLines = 20

// Executor runs the encoder for one Job at a time.
type Executor struct {
	Path      string // ffmpeg binary; looked up on PATH when it has no separator
	Encoder   Encoder
	TailLines int

	// OnLine, when set, receives each diagnostic line; progress records
	// are excluded (verbose mode).
	OnLine func(line string)
}

// NewExecutor returns an Executor for the ffmpeg at path using enc.
func NewExecutor(path string, enc Encoder) *Executor {
	if path == "" {
		path = "ffmpeg"
	}
	return &Executor{Path: path, Encoder: enc, TailLines: DefaultTailLines}
}

// Encode runs ffmpeg for job, reading its merged stdout and stderr line by
// line. Each recognized progress record is passed to onProgress. The context
// is checked before every line; on cancellation the process is killed and
// ErrCancelled is returned. A non-zero exit yields *EncodeError.
func (e *Executor) Encode(ctx context.Context, job *planner.Job, onProgress func(Progress)) error {
	if err := ctx.Err(); err != nil {
		return ErrCancelled
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Path, Build(job, e.Encoder)...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start %s: %w", e.Path, err)
	}
	// The child holds its own copy of the write end; closing ours lets the
	// reader see EOF when the child exits.
	pw.Close()

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		lr := NewLineReader(pr)
		for {
			line, ok := lr.Next()
			if !ok {
				// Keep the child from blocking on a full pipe after an
				// oversized line stopped the scanner.
				_, _ = io.Copy(io.Discard, pr)
				return
			}
			lines <- line
		}
	}()

	var parser ProgressParser
	tail := newTailBuffer(e.TailLines)
	cancelled := false

read:
	for {
		select {
		case <-ctx.Done():
			cancelled = true
			break read
		case line, ok := <-lines:
			if !ok {
				break read
			}
			if ctx.Err() != nil {
				cancelled = true
				break read
			}
			if p, ok := parser.Feed(line); ok {
				if onProgress != nil {
					onProgress(p)
				}
				continue
			}
			if !isProgressKey(line) {
				tail.Add(line)
				if e.OnLine != nil {
					e.OnLine(line)
				}
			}
		}
	}

	if cancelled {
		_ = cmd.Process.Kill()
		// Unblock the reader even if a grandchild still holds the pipe.
		pr.Close()
		for range lines {
		}
		_ = cmd.Wait()
		return ErrCancelled
	}

	pr.Close()
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &EncodeError{ExitCode: code, Tail: tail.String(), Err: waitErr}
	}
	return nil
}

// isProgressKey reports whether line is one of the key=value records of the
// -progress stream (frame=, fps=, bitrate=...), which are not diagnostics.
func isProgressKey(line string) bool {
	key, _, ok := strings.Cut(line, "=")
	if !ok || key == "" {
		return false
	}
	for _, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
