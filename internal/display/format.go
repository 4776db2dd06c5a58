// Package display holds the banner and human-readable value formatting
// shared by the CLI, the batch summary, and the history listing.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable IEC size (B, KiB, MiB, GiB, ...).
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatDuration renders an elapsed wall time as "1h02m03s", "4m05s" or "12s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatMediaTime trims ffmpeg's microsecond out_time ("00:01:02.500000")
// to centiseconds for display ("00:01:02.50").
func FormatMediaTime(outTime string) string {
	if i := strings.LastIndexByte(outTime, '.'); i >= 0 && len(outTime)-i > 3 {
		return outTime[:i+3]
	}
	return outTime
}

// FormatAgo renders a timestamp relative to now ("3 minutes ago").
func FormatAgo(t time.Time) string {
	return humanize.Time(t)
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
