package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseVideoCSV(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		wantCodec  string
		wantPixFmt string
		wantErr    bool
	}{
		{"typical", "h264,yuv420p\n", "h264", "yuv420p", false},
		{"trailing comma", "hevc,yuv420p10le,\n", "hevc", "yuv420p10le", false},
		{"leading blank line", "\nmpeg4,yuv420p\n", "mpeg4", "yuv420p", false},
		{"crlf", "h264,yuvj420p\r\n", "h264", "yuvj420p", false},
		{"empty (no video stream)", "", "", "", true},
		{"missing pix_fmt", "h264\n", "", "", true},
		{"empty pix_fmt", "h264, \n", "", "", true},
		{"too many fields", "h264,yuv420p,extra\n", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, pixFmt, err := ParseVideoCSV(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVideoCSV(%q) error = %v, wantErr %v", tt.out, err, tt.wantErr)
			}
			if codec != tt.wantCodec || pixFmt != tt.wantPixFmt {
				t.Errorf("ParseVideoCSV(%q) = %q, %q; want %q, %q", tt.out, codec, pixFmt, tt.wantCodec, tt.wantPixFmt)
			}
		})
	}
}

func TestParseAudioCSV(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr bool
	}{
		{"aac", "aac\n", "aac", false},
		{"trailing comma", "mp3,\n", "mp3", false},
		{"no audio stream", "", "", true},
		{"two fields", "aac,stereo\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAudioCSV(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAudioCSV(%q) error = %v, wantErr %v", tt.out, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAudioCSV(%q) = %q, want %q", tt.out, got, tt.want)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	got := Args("/in/clip.mkv", "v:0", "stream=codec_name,pix_fmt")
	want := []string{"-v", "error", "-select_streams", "v:0", "-show_entries", "stream=codec_name,pix_fmt", "-of", "csv=p=0", "/in/clip.mkv"}
	if len(got) != len(want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamInfo_String(t *testing.T) {
	s := StreamInfo{VideoCodec: "hevc", PixFmt: "yuv420p10le", AudioCodec: "ac3"}
	if got := s.String(); got != "hevc/ac3/yuv420p10le" {
		t.Errorf("String() = %q", got)
	}
	if got := (StreamInfo{}).String(); got != "?/?/?" {
		t.Errorf("zero String() = %q", got)
	}
	if (StreamInfo{VideoCodec: "h264", PixFmt: "yuv420p"}).Known() {
		t.Error("Known() should be false with empty audio codec")
	}
}

// --- FFprobe against a scripted stand-in binary ---

func TestFFprobe_Inspect(t *testing.T) {
	bin := fakeFFprobe(t, `
case "$*" in
  *v:0*) echo "h264,yuv420p" ;;
  *a:0*) echo "aac" ;;
esac
`)
	got := NewFFprobe(bin).Inspect(context.Background(), "/in/clip.mp4")
	want := StreamInfo{VideoCodec: "h264", PixFmt: "yuv420p", AudioCodec: "aac"}
	if got != want {
		t.Errorf("Inspect = %+v, want %+v", got, want)
	}
}

func TestFFprobe_FailuresCollapseToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"non-zero exit", `echo "boom" >&2; exit 1`},
		{"no audio stream", `case "$*" in *v:0*) echo "h264,yuv420p" ;; esac`},
		{"malformed video", `case "$*" in *v:0*) echo "garbage" ;; *a:0*) echo "aac" ;; esac`},
		{"audio probe fails", `case "$*" in *v:0*) echo "h264,yuv420p" ;; *) exit 2 ;; esac`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := fakeFFprobe(t, tt.script)
			got := NewFFprobe(bin).Inspect(context.Background(), "/in/clip.mkv")
			if got != (StreamInfo{}) {
				t.Errorf("Inspect = %+v, want zero StreamInfo", got)
			}
		})
	}
}

func TestFFprobe_MissingBinary(t *testing.T) {
	p := NewFFprobe(filepath.Join(t.TempDir(), "no-such-ffprobe"))
	if got := p.Inspect(context.Background(), "/in/clip.mkv"); got != (StreamInfo{}) {
		t.Errorf("Inspect = %+v, want zero StreamInfo", got)
	}
}

func TestFunc(t *testing.T) {
	var p Prober = Func(func(_ context.Context, path string) StreamInfo {
		return StreamInfo{VideoCodec: filepath.Ext(path)}
	})
	if got := p.Inspect(context.Background(), "a.mov"); got.VideoCodec != ".mov" {
		t.Errorf("Func.Inspect = %+v", got)
	}
}

func fakeFFprobe(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake ffprobe: %v", err)
	}
	return path
}
