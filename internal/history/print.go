package history

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/backmassage/smbfix/internal/display"
	"github.com/backmassage/smbfix/internal/term"
)

// PrintRecent writes entries as a table, newest first, for --history.
func PrintRecent(w io.Writer, entries []Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded yet")
		return
	}
	for _, e := range entries {
		size := display.FormatBytes(e.InputBytes)
		if e.Outcome == "encoded" {
			size += " -> " + display.FormatBytes(e.OutputBytes)
		}
		fmt.Fprintf(w, "  %s  %s  %-40s  %-22s  %s\n",
			padRight(display.FormatAgo(e.RecordedAt), 16),
			term.Paint(outcomeColor(e.Outcome), padRight(e.Outcome, 15)),
			display.Truncate(filepath.Base(e.Source), 40),
			e.Streams,
			size,
		)
		if e.Error != "" {
			fmt.Fprintf(w, "      %s\n", term.Paint(term.Red, display.Truncate(e.Error, 100)))
		}
	}
}

// PrintBatches writes one line per batch.
func PrintBatches(w io.Writer, batches []Batch) {
	for _, b := range batches {
		state := "finished"
		switch {
		case b.Finished.IsZero():
			state = "interrupted"
		case b.Cancelled:
			state = "cancelled"
		case b.DryRun:
			state = "dry run"
		}
		fmt.Fprintf(w, "  %s  %s  %d files: %d encoded, %d skipped, %d failed (%s) [%s]\n",
			b.ID[:min(8, len(b.ID))], display.FormatAgo(b.Started),
			b.Total, b.Encoded, b.Skipped, b.Failed,
			display.FormatBytesWithSign(b.OutputBytes-b.InputBytes), state)
	}
}

func outcomeColor(outcome string) term.Color {
	switch outcome {
	case "encoded":
		return term.Green
	case "skipped", "planned":
		return term.Cyan
	case "cancelled":
		return term.Yellow
	default:
		return term.Red
	}
}

func padRight(s string, n int) string {
	return fmt.Sprintf("%-*s", n, s)
}
