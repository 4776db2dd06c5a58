package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrCancelled is returned by Executor.Encode when the context was cancelled
// while the encoder was running. The process has been killed.
var ErrCancelled = errors.New("encode cancelled")

// EncodeError reports a non-zero encoder exit.
type EncodeError struct {
	ExitCode int
	Tail     string // last lines of non-progress output, newline-joined
	Err      error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	if h := Hint(e.Tail); h != "" {
		msg += " (" + h + ")"
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Pre-compiled patterns for classifying the encoder's diagnostic output.
// Checked in order by Hint; the first match wins.
var (
	reUnknownEncoder = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder not found|Unrecognized option 'hwaccel'`)

	reHWDevice = regexp.MustCompile(
		`(?i)Device creation failed|Cannot load (libcuda|nvcuda)|No NVENC capable devices|` +
			`Error creating a (VideoToolbox|CUDA)|hwaccel initialisation returned error|` +
			`OpenEncodeSessionEx failed|Failed setup for format (cuda|videotoolbox)`)

	reBadInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`could not find codec parameters|EBML header parsing failed`)

	reNoSpace = regexp.MustCompile(`(?i)No space left on device`)

	rePermission = regexp.MustCompile(`(?i)Permission denied|Read-only file system`)
)

// Hint classifies encoder output into a short human-readable cause, or ""
// when nothing recognizable was printed.
func Hint(tail string) string {
	switch {
	case reUnknownEncoder.MatchString(tail):
		return "encoder unavailable in this ffmpeg build; try --encoder cpu"
	case reHWDevice.MatchString(tail):
		return "hardware encoder could not be initialised; try --encoder cpu"
	case reBadInput.MatchString(tail):
		return "input is damaged or not a media file"
	case reNoSpace.MatchString(tail):
		return "output filesystem is full"
	case rePermission.MatchString(tail):
		return "permission denied"
	}
	return ""
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	lines []string
	n     int
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{lines: make([]string, 0, n), n: n}
}

func (t *tailBuffer) Add(line string) {
	if t.n <= 0 {
		return
	}
	if len(t.lines) == t.n {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.n-1]
	}
	t.lines = append(t.lines, line)
}

func (t *tailBuffer) String() string { return strings.Join(t.lines, "\n") }
