package ffmpeg

import (
	"bufio"
	"io"
	"strings"
)

// maxLineBytes bounds one line of encoder output. The default 64 KiB
// scanner limit can be exceeded by metadata dumps on stderr.
const maxLineBytes = 1024 * 1024

// Progress is one recognized record from the -progress stream.
type Progress struct {
	OutTime string // last reported output timestamp, e.g. "00:00:05.000000"; empty if none yet
	Done    bool   // progress=end was seen; the process still has to be waited on
}

// ProgressParser turns whole lines of `-progress pipe:1` output into
// Progress records. The zero value is ready to use.
type ProgressParser struct {
	last string
}

// Feed consumes one line. It returns a record for out_time=VALUE (when VALUE
// is a real timestamp) and for progress=end; everything else, including
// progress=continue and interleaved stderr noise, yields nothing.
func (p *ProgressParser) Feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "out_time":
		if value == "" || value == "N/A" {
			return Progress{}, false
		}
		p.last = value
		return Progress{OutTime: value}, true
	case "progress":
		if value == "end" {
			return Progress{OutTime: p.last, Done: true}, true
		}
	}
	return Progress{}, false
}

// Last returns the most recent out_time value seen.
func (p *ProgressParser) Last() string { return p.last }

// LineReader reassembles arbitrary reads into whole lines.
type LineReader struct {
	sc *bufio.Scanner
}

// NewLineReader wraps r with a 1 MiB line limit.
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &LineReader{sc: sc}
}

// Next returns the next line without its terminator, or false at EOF/error.
func (lr *LineReader) Next() (string, bool) {
	if !lr.sc.Scan() {
		return "", false
	}
	return strings.TrimRight(lr.sc.Text(), "\r"), true
}

// Err returns the first non-EOF read error.
func (lr *LineReader) Err() error { return lr.sc.Err() }
