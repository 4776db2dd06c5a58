// Package tui renders a running batch as an interactive terminal view. It is
// a consumer of the batch event channel only: it drains events, draws them,
// and turns q/ctrl+c into a cancellation request.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/smbfix/internal/display"
	"github.com/backmassage/smbfix/internal/logging"
	"github.com/backmassage/smbfix/internal/pipeline"
)

// logTail is the number of recent log lines kept on screen.
const logTail = 8

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			MarginLeft(2)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(2)
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).MarginLeft(2)
)

// eventMsg wraps one batch event.
type eventMsg pipeline.Event

// doneMsg reports that the event channel was closed.
type doneMsg struct{}

type logLine struct {
	level logging.Level
	text  string
}

// Model is the bubbletea model for a batch.
type Model struct {
	events  <-chan pipeline.Event
	cancel  func()
	onEvent func(pipeline.Event)

	title    string
	spinner  spinner.Model
	progress progress.Model
	width    int

	current    pipeline.ProgressEvent
	completed  int
	encoded    int
	skipped    int
	failed     int
	logs       []logLine
	cancelling bool
	done       bool
}

// NewModel builds a model reading events. cancel is called once when the
// user asks to stop; onEvent, if set, sees every event (e.g. to keep the log
// file complete while the view owns the terminal).
func NewModel(events <-chan pipeline.Event, cancel func(), title string, onEvent func(pipeline.Event)) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	p.Width = 60

	return Model{
		events:   events,
		cancel:   cancel,
		onEvent:  onEvent,
		title:    title,
		spinner:  s,
		progress: p,
	}
}

// Run shows the view for h until its event channel closes.
func Run(h *pipeline.Handle, title string, onEvent func(pipeline.Event)) error {
	m := NewModel(h.Events(), h.RequestCancel, title, onEvent)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-30, 20)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.cancelling {
				m.cancelling = true
				m.pushLog(logging.LevelWarn, "Cancelling: stopping the encoder…")
				if m.cancel != nil {
					m.cancel()
				}
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(pipeline.Event(msg))
		return m, waitForEvent(m.events)

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// apply folds one event into the model.
func (m *Model) apply(ev pipeline.Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
	switch ev.Kind {
	case pipeline.KindLog:
		if ev.Level != logging.LevelDebug {
			m.pushLog(ev.Level, ev.Message)
		}
	case pipeline.KindProgress:
		m.current = ev.Progress
	case pipeline.KindResult:
		m.completed++
		switch ev.Result.Outcome {
		case pipeline.OutcomeEncoded, pipeline.OutcomePlanned:
			m.encoded++
		case pipeline.OutcomeSkipped:
			m.skipped++
		case pipeline.OutcomeFailed, pipeline.OutcomeFinalizeFailed:
			m.failed++
		}
	}
}

func (m *Model) pushLog(level logging.Level, text string) {
	m.logs = append(m.logs, logLine{level: level, text: text})
	if len(m.logs) > logTail {
		m.logs = m.logs[len(m.logs)-logTail:]
	}
}

// fraction is the share of the batch that is finished.
func (m Model) fraction() float64 {
	if m.current.Total == 0 {
		return 0
	}
	return float64(m.completed) / float64(m.current.Total)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("smbfix"))
	b.WriteString("\n")
	if m.title != "" {
		b.WriteString(dimStyle.Render(m.title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// --- Current file ---
	if m.current.Total > 0 {
		name := m.current.FileName
		if m.width > 40 {
			name = display.Truncate(name, m.width-30)
		}
		status := "starting"
		if m.current.HasElapsed {
			status = display.FormatMediaTime(m.current.Elapsed)
		}
		if m.current.Terminal {
			status = "finalizing"
		}
		fmt.Fprintf(&b, "  %s [%d/%d] %s  %s\n\n",
			m.spinner.View(), m.current.Index, m.current.Total, fileStyle.Render(name), status)

		b.WriteString("  ")
		b.WriteString(m.progress.ViewAs(m.fraction()))
		fmt.Fprintf(&b, " %d/%d files\n", m.completed, m.current.Total)
	} else if !m.done {
		fmt.Fprintf(&b, "  %s Scanning…\n", m.spinner.View())
	}
	fmt.Fprintf(&b, "  %s • %s • %s\n\n",
		successStyle.Render(fmt.Sprintf("%d encoded", m.encoded)),
		fmt.Sprintf("%d skipped", m.skipped),
		errorStyle.Render(fmt.Sprintf("%d failed", m.failed)))

	// --- Log tail ---
	for _, l := range m.logs {
		b.WriteString("  ")
		b.WriteString(styleFor(l.level).Render(l.text))
		b.WriteString("\n")
	}

	// --- Footer ---
	b.WriteString("\n")
	switch {
	case m.done:
		b.WriteString(doneStyle.Render("✓ Batch finished"))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("q: quit"))
	case m.cancelling:
		b.WriteString(dimStyle.Render("cancelling…"))
	default:
		b.WriteString(dimStyle.Render("q: cancel batch"))
	}
	b.WriteString("\n")
	return b.String()
}

func styleFor(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelSuccess:
		return successStyle
	case logging.LevelWarn:
		return warnStyle
	case logging.LevelError:
		return errorStyle
	default:
		return lipgloss.NewStyle()
	}
}

// waitForEvent reads the next batch event; a closed channel yields doneMsg.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}
