package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
)

// EventBuffer is the capacity of a Handle's event channel.
const EventBuffer = 256

// Handle owns one batch running in a background goroutine. The caller
// starts it, may request cancellation at any time, and must drain Events
// until the channel is closed. A Handle runs at most one batch.
type Handle struct {
	opts    Options
	events  chan Event
	done    chan struct{}
	started atomic.Bool
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc

	// Written by the worker before done is closed.
	stats RunStats
	err   error
}

// NewHandle prepares a batch without starting it.
func NewHandle(opts Options) *Handle {
	return &Handle{
		opts:   opts,
		events: make(chan Event, EventBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the batch. It returns ErrAlreadyRunning if the handle was
// started before. Setup failures are reported on Events and by Err, not
// here, so the caller always drains the same way.
func (h *Handle) Start(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.running.Store(true)
	go func() {
		defer close(h.done)
		defer close(h.events)
		defer cancel()

		stats, err := Run(ctx, h.opts, h.events)
		h.stats, h.err = stats, err
		h.running.Store(false)
	}()
	return nil
}

// RequestCancel asks the running batch to stop. The in-flight encoder is
// killed and no further files are started. Safe to call from any goroutine,
// any number of times; a no-op before Start.
func (h *Handle) RequestCancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
}

// Events returns the batch's event stream. It is closed when the batch ends.
func (h *Handle) Events() <-chan Event { return h.events }

// Running reports whether the batch goroutine is still working.
func (h *Handle) Running() bool { return h.running.Load() }

// Done is closed once the batch has finished and Events is closed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the batch finishes and returns its stats. It must only
// be called after a successful Start, and the caller (or another goroutine)
// must keep draining Events.
func (h *Handle) Wait() RunStats {
	<-h.done
	return h.stats
}

// Err returns the fatal setup error of a finished batch, if any.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
