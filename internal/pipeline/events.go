package pipeline

import (
	"fmt"
	"time"

	"github.com/backmassage/smbfix/internal/logging"
	"github.com/backmassage/smbfix/internal/probe"
)

// Kind discriminates Event payloads.
type Kind int

const (
	KindLog Kind = iota
	KindProgress
	KindResult
)

// ProgressEvent reports encoder progress for the file currently in flight.
type ProgressEvent struct {
	Index      int // 1-based
	Total      int
	FileName   string
	Elapsed    string // encoder out_time; meaningful only when HasElapsed
	HasElapsed bool
	Terminal   bool // encoder reported progress=end
}

// Outcome is the final state of one file.
type Outcome int

const (
	OutcomeEncoded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeFinalizeFailed
	OutcomeCancelled
	OutcomePlanned // dry run: would have been encoded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEncoded:
		return "encoded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeFinalizeFailed:
		return "finalize_failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomePlanned:
		return "planned"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// FileResult is the per-file record emitted after each file and handed to
// the Recorder.
type FileResult struct {
	BatchID     string
	Index       int
	File        MediaFile
	Destination string // final artifact path; empty when nothing was written
	Info        probe.StreamInfo
	Outcome     Outcome
	Err         error
	InputBytes  int64
	OutputBytes int64
	Duration    time.Duration
}

// Event is one message on a batch's output channel.
type Event struct {
	Kind     Kind
	Level    logging.Level // KindLog
	Message  string        // KindLog
	Progress ProgressEvent // KindProgress
	Result   *FileResult   // KindResult
}

// emitter sends events on a channel; a nil channel discards them. Sends
// block, so consumers must drain until the channel is closed.
type emitter struct {
	ch chan<- Event
}

func (e emitter) send(ev Event) {
	if e.ch != nil {
		e.ch <- ev
	}
}

func (e emitter) log(level logging.Level, format string, args ...any) {
	e.send(Event{Kind: KindLog, Level: level, Message: fmt.Sprintf(format, args...)})
}

func (e emitter) progress(p ProgressEvent) {
	e.send(Event{Kind: KindProgress, Progress: p})
}

func (e emitter) result(r FileResult) {
	e.send(Event{Kind: KindResult, Result: &r})
}
