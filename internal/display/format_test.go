package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/term"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical file 700 MiB", 734003200, "700 MiB"},
		{"negative", -2048, "-2.0 KiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"positive", 1024 * 1024, "+ 1.0 MiB"},
		{"negative", -1024 * 1024, "- 1.0 MiB"},
		{"zero", 0, "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytesWithSign(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytesWithSign(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{12 * time.Second, "12s"},
		{4*time.Minute + 5*time.Second, "4m05s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
		{1500 * time.Millisecond, "2s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMediaTime(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"00:00:05.000000", "00:00:05.00"},
		{"01:02:03.456789", "01:02:03.45"},
		{"00:00:05", "00:00:05"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatMediaTime(tt.in); got != tt.want {
			t.Errorf("FormatMediaTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("holiday-2019.mkv", 8); got != "holiday…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short.mp4", 20); got != "short.mp4" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestPrintBanner_NoColor(t *testing.T) {
	term.Configure(config.ColorNever)
	var buf bytes.Buffer
	PrintBanner(&buf)
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("banner contains escape codes with colors disabled: %q", buf.String())
	}
	if buf.Len() == 0 {
		t.Error("banner is empty")
	}
}
