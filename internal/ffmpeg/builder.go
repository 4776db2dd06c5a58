package ffmpeg

import (
	"strings"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/planner"
)

// Target stream parameters shared by every encoder backend.
const (
	TargetPixFmt     = "yuv420p"
	TargetAudioCodec = "aac"
)

// Encoder describes one H.264 encoding backend.
type Encoder struct {
	Mode    config.EncoderMode
	Codec   string // ffmpeg -c:v value
	HWAccel string // ffmpeg -hwaccel value; empty for software decode
}

// EncoderFor returns the backend for mode. Unknown modes fall back to the
// software encoder.
func EncoderFor(mode config.EncoderMode) Encoder {
	switch mode {
	case config.EncoderVideoToolbox:
		return Encoder{Mode: mode, Codec: "h264_videotoolbox", HWAccel: "videotoolbox"}
	case config.EncoderNVENC:
		return Encoder{Mode: mode, Codec: "h264_nvenc", HWAccel: "cuda"}
	default:
		return Encoder{Mode: config.EncoderCPU, Codec: "libx264"}
	}
}

// Build constructs the ffmpeg argument slice (without the program name) for
// job. Every option precedes the destination, which is always last.
func Build(job *planner.Job, enc Encoder) []string {
	p := job.Preset
	args := make([]string, 0, 32)

	// --- Preamble ---
	args = append(args, "-hide_banner", "-nostdin", "-y")

	// --- Hardware decode ---
	if enc.HWAccel != "" {
		args = append(args, "-hwaccel", enc.HWAccel)
	}

	// --- Input ---
	args = append(args, "-i", job.Source.Path)

	// --- Video ---
	args = append(args,
		"-c:v", enc.Codec,
		"-b:v", p.VideoBitrate,
		"-pix_fmt", TargetPixFmt,
		"-movflags", "+faststart",
	)

	// --- Audio ---
	args = append(args,
		"-c:a", TargetAudioCodec,
		"-b:a", p.AudioBitrate,
		"-ar", p.SampleRate,
	)

	// --- Progress on stdout, no human-readable stats ---
	args = append(args, "-progress", "pipe:1", "-nostats")

	// --- Output ---
	args = append(args, job.Destination)
	return args
}

// CommandLine renders bin and args as a shell-pasteable line for debug logs.
func CommandLine(bin string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{bin}, args...) {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
