package main

import (
	"os"
	"slices"
	"testing"
)

func TestWatchSignals_FirstSignalReleasesHandler(t *testing.T) {
	sigCh := make(chan os.Signal, 2)
	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	var calls []string
	watchSignals(sigCh,
		func() { calls = append(calls, "stop") },
		func() { calls = append(calls, "cancel") })

	if !slices.Equal(calls, []string{"stop", "cancel"}) {
		t.Errorf("calls = %v, want [stop cancel]", calls)
	}
	if len(sigCh) != 1 {
		t.Errorf("second signal should be left for the default handler, %d queued", len(sigCh))
	}
}

func TestWatchSignals_ClosedChannel(t *testing.T) {
	sigCh := make(chan os.Signal)
	close(sigCh)

	called := false
	watchSignals(sigCh, func() { called = true }, func() { called = true })
	if called {
		t.Error("closed channel must not cancel the batch")
	}
}
