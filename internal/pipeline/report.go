package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/backmassage/smbfix/internal/display"
	"github.com/backmassage/smbfix/internal/planner"
	"github.com/backmassage/smbfix/internal/probe"
	"github.com/backmassage/smbfix/internal/term"
)

// ReportSummary counts the outcome of a Report.
type ReportSummary struct {
	Files      int
	Compatible int
	Transcode  int // includes Unknown
	Unknown    int // probe returned no stream info
	Cancelled  bool
}

// reportRow holds the probed per-file data for the report table.
type reportRow struct {
	Name   string
	Info   probe.StreamInfo
	Action planner.Action
}

// Report enumerates and probes opts.InputDir without encoding anything and
// writes a compatibility table to w. Only InputDir, Recursive, Prober and
// Profile are used. While probing, a live counter is drawn when w is a TTY.
func Report(ctx context.Context, opts Options, w io.Writer) (ReportSummary, error) {
	var sum ReportSummary
	if opts.InputDir == "" {
		return sum, configError("input directory is required")
	}
	if opts.Prober == nil {
		return sum, configError("no media prober configured")
	}
	if len(opts.Profile.VideoCodecs) == 0 {
		opts.Profile = planner.SMBProfile
	}

	seq, err := Enumerate(opts.InputDir, opts.Recursive)
	if err != nil {
		return sum, err
	}
	var files []MediaFile
	for f, err := range seq {
		if err != nil {
			fmt.Fprintf(w, "  warning: %v\n", err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "No media files found in %s\n", opts.InputDir)
		return sum, nil
	}

	f, ok := w.(*os.File)
	isTTY := ok && term.IsTerminal(f)

	rows := make([]reportRow, 0, len(files))
	for i, mf := range files {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}
		printProgress(w, isTTY, i+1, len(files), mf.RelPath)
		info := opts.Prober.Inspect(ctx, mf.Path)
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}
		rows = append(rows, reportRow{
			Name:   mf.RelPath,
			Info:   info,
			Action: planner.Decide(info, opts.Profile),
		})
	}
	if isTTY {
		clearProgress(w)
	}

	for _, r := range rows {
		sum.Files++
		switch {
		case r.Action == planner.ActionSkip:
			sum.Compatible++
		case !r.Info.Known():
			sum.Unknown++
			sum.Transcode++
		default:
			sum.Transcode++
		}
	}

	printReportTable(w, rows, opts.Profile)
	fmt.Fprintf(w, "%d files: %d compatible, %d need transcoding", sum.Files, sum.Compatible, sum.Transcode)
	if sum.Unknown > 0 {
		fmt.Fprintf(w, " (%d could not be probed)", sum.Unknown)
	}
	fmt.Fprintln(w)
	return sum, nil
}

const maxNameWidth = 50

func printReportTable(w io.Writer, rows []reportRow, p planner.Profile) {
	nameW, vcW, pfW, acW := len("File"), len("Video"), len("Pix Fmt"), len("Audio")
	for _, r := range rows {
		nameW = max(nameW, len([]rune(r.Name)))
		vcW = max(vcW, len(orUnknown(r.Info.VideoCodec)))
		pfW = max(pfW, len(orUnknown(r.Info.PixFmt)))
		acW = max(acW, len(orUnknown(r.Info.AudioCodec)))
	}
	nameW = min(nameW, maxNameWidth)

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %s",
		nameW, "File", vcW, "Video", pfW, "Pix Fmt", acW, "Audio", "Status")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2+len("transcode")-len("Status")))

	for _, r := range rows {
		// Pad the plain text first, then wrap in ANSI color, so %-*s does not
		// count escape bytes as visible width.
		fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n",
			padRunes(display.Truncate(r.Name, nameW), nameW),
			colorPad(orUnknown(r.Info.VideoCodec), vcW, r.Info.VideoCodec != "" && !slices.Contains(p.VideoCodecs, r.Info.VideoCodec)),
			colorPad(orUnknown(r.Info.PixFmt), pfW, r.Info.PixFmt != "" && r.Info.PixFmt != p.PixFmt),
			colorPad(orUnknown(r.Info.AudioCodec), acW, r.Info.AudioCodec != "" && !slices.Contains(p.AudioCodecs, r.Info.AudioCodec)),
			statusCell(r),
		)
	}
	fmt.Fprintln(w)
}

func statusCell(r reportRow) string {
	switch {
	case r.Action == planner.ActionSkip:
		return term.Paint(term.Green, "ok")
	case !r.Info.Known():
		return term.Paint(term.Red, "unknown")
	default:
		return term.Paint(term.Yellow, "transcode")
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// padRunes pads s with spaces to width runes.
func padRunes(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// colorPad pads a plain string to width, then highlights it when it is the
// reason a file needs transcoding.
func colorPad(s string, width int, offending bool) string {
	padded := fmt.Sprintf("%-*s", width, s)
	if offending {
		return term.Paint(term.Orange, padded)
	}
	return padded
}

// printProgress shows a live probe counter. On a TTY it writes an inline
// \r-overwritten line; otherwise it is a no-op.
func printProgress(w io.Writer, isTTY bool, current, total int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% %s", current, total, pct, display.Truncate(name, 40))
	if n := len([]rune(status)); n < 80 {
		status += strings.Repeat(" ", 80-n)
	}
	fmt.Fprintf(w, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}
