package pipeline

import (
	"errors"
	"fmt"
)

// ErrConfig wraps every batch setup failure. Nothing on disk has been
// touched when it is returned.
var ErrConfig = errors.New("invalid batch configuration")

// ErrAlreadyRunning is returned by Handle.Start when the handle has already
// been started.
var ErrAlreadyRunning = errors.New("batch already running")

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

var errEmptyOutput = errors.New("output is empty")

// FinalizeError reports a failure applying the output policy after a
// successful encode. Under the overwrite policy both the source and the
// temporary output are still present.
type FinalizeError struct {
	Op   string // "verify" or "replace"
	Path string
	Err  error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }
