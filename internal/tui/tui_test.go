package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/backmassage/smbfix/internal/logging"
	"github.com/backmassage/smbfix/internal/pipeline"
)

func TestModel_AppliesEvents(t *testing.T) {
	var forwarded int
	m := NewModel(nil, nil, "/in -> /out", func(pipeline.Event) { forwarded++ })

	m = update(t, m, eventMsg{Kind: pipeline.KindLog, Level: logging.LevelInfo, Message: "Batch abc: found 2 files"})
	m = update(t, m, eventMsg{Kind: pipeline.KindLog, Level: logging.LevelDebug, Message: "debug noise"})
	m = update(t, m, eventMsg{Kind: pipeline.KindProgress, Progress: pipeline.ProgressEvent{
		Index: 1, Total: 2, FileName: "clip.mkv", Elapsed: "00:01:02.500000", HasElapsed: true,
	}})
	m = update(t, m, eventMsg{Kind: pipeline.KindResult, Result: &pipeline.FileResult{Outcome: pipeline.OutcomeEncoded}})

	if forwarded != 4 {
		t.Errorf("onEvent saw %d events, want 4", forwarded)
	}
	if len(m.logs) != 1 {
		t.Errorf("debug lines should not be shown, logs = %v", m.logs)
	}
	if m.completed != 1 || m.encoded != 1 || m.fraction() != 0.5 {
		t.Errorf("completed=%d encoded=%d fraction=%v", m.completed, m.encoded, m.fraction())
	}

	view := m.View()
	for _, want := range []string{"/in -> /out", "[1/2]", "clip.mkv", "00:01:02.50", "1/2 files", "1 encoded", "Batch abc", "q: cancel batch"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "debug noise") {
		t.Error("view shows debug line")
	}
}

func TestModel_CountsOutcomes(t *testing.T) {
	m := NewModel(nil, nil, "", nil)
	for _, o := range []pipeline.Outcome{
		pipeline.OutcomeEncoded, pipeline.OutcomeSkipped, pipeline.OutcomeSkipped,
		pipeline.OutcomeFailed, pipeline.OutcomeFinalizeFailed, pipeline.OutcomeCancelled,
	} {
		m = update(t, m, eventMsg{Kind: pipeline.KindResult, Result: &pipeline.FileResult{Outcome: o}})
	}
	if m.completed != 6 || m.encoded != 1 || m.skipped != 2 || m.failed != 2 {
		t.Errorf("completed=%d encoded=%d skipped=%d failed=%d", m.completed, m.encoded, m.skipped, m.failed)
	}
}

func TestModel_LogTail(t *testing.T) {
	m := NewModel(nil, nil, "", nil)
	for i := range logTail + 5 {
		m = update(t, m, eventMsg{Kind: pipeline.KindLog, Message: fmt.Sprintf("line %d", i)})
	}
	if len(m.logs) != logTail {
		t.Fatalf("kept %d lines, want %d", len(m.logs), logTail)
	}
	if m.logs[0].text != "line 5" || m.logs[logTail-1].text != fmt.Sprintf("line %d", logTail+4) {
		t.Errorf("tail = %v", m.logs)
	}
}

func TestModel_CancelKey(t *testing.T) {
	cancels := 0
	m := NewModel(nil, func() { cancels++ }, "", nil)

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		next, cmd := m.Update(key)
		m = next.(Model)
		if cmd != nil {
			t.Errorf("%s while running should not quit", key)
		}
	}
	if cancels != 1 {
		t.Errorf("cancel called %d times, want 1", cancels)
	}
	if !m.cancelling || !strings.Contains(m.View(), "cancelling…") {
		t.Error("model should show the cancelling state")
	}
}

func TestModel_QuitsWhenEventsClose(t *testing.T) {
	ch := make(chan pipeline.Event, 1)
	ch <- pipeline.Event{Kind: pipeline.KindLog, Message: "hello"}
	close(ch)

	m := NewModel(ch, nil, "", nil)
	wait := waitForEvent(ch)

	msg := wait()
	if ev, ok := msg.(eventMsg); !ok || ev.Message != "hello" {
		t.Fatalf("first msg = %#v", msg)
	}
	if _, ok := wait().(doneMsg); !ok {
		t.Fatal("closed channel should yield doneMsg")
	}

	next, cmd := m.Update(doneMsg{})
	m = next.(Model)
	if !m.done {
		t.Error("done not set")
	}
	if cmd == nil {
		t.Fatal("doneMsg should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("doneMsg should return tea.Quit")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q after done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q after done should quit")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(nil, nil, "", nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.progress.Width != 90 {
		t.Errorf("progress width = %d, want 90", m.progress.Width)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	if m.progress.Width != 20 {
		t.Errorf("progress width = %d, want minimum 20", m.progress.Width)
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}
