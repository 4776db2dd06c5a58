package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/backmassage/smbfix/internal/config"
)

// BatchInfo describes a batch when it starts.
type BatchInfo struct {
	ID        string
	InputDir  string
	OutputDir string
	Policy    config.OutputPolicy
	Preset    config.Preset
	Encoder   string
	DryRun    bool
	Total     int
	Started   time.Time
}

// Recorder observes a batch: the history journal and the metrics collector
// implement it. Errors are logged as warnings and never stop the batch.
// Calls come from the batch goroutine only.
type Recorder interface {
	BeginBatch(ctx context.Context, b BatchInfo) error
	RecordFile(ctx context.Context, r FileResult) error
	EndBatch(ctx context.Context, s RunStats) error
}

type nopRecorder struct{}

func (nopRecorder) BeginBatch(context.Context, BatchInfo) error  { return nil }
func (nopRecorder) RecordFile(context.Context, FileResult) error { return nil }
func (nopRecorder) EndBatch(context.Context, RunStats) error     { return nil }

// MultiRecorder fans out to every non-nil recorder and joins their errors.
func MultiRecorder(recs ...Recorder) Recorder {
	var m multiRecorder
	for _, r := range recs {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

type multiRecorder []Recorder

func (m multiRecorder) BeginBatch(ctx context.Context, b BatchInfo) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.BeginBatch(ctx, b))
	}
	return errors.Join(errs...)
}

func (m multiRecorder) RecordFile(ctx context.Context, res FileResult) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordFile(ctx, res))
	}
	return errors.Join(errs...)
}

func (m multiRecorder) EndBatch(ctx context.Context, s RunStats) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.EndBatch(ctx, s))
	}
	return errors.Join(errs...)
}
