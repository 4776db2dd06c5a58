// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation (CheckDeps) for ffmpeg, ffprobe, the H.264 backend
// and the AAC encoder.
package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/smbfix/internal/config"
	"github.com/backmassage/smbfix/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found")
	ErrFfprobeNotFound = errors.New("ffprobe not found")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// CheckDeps verifies that the configured ffmpeg and ffprobe binaries
// resolve. It runs before any batch starts so a missing tool fails once
// instead of once per file. The returned error wraps ErrFfmpegNotFound or
// ErrFfprobeNotFound.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return fmt.Errorf("%w (%s): install ffmpeg or set ffmpeg_path", ErrFfmpegNotFound, cfg.FFmpegPath)
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return fmt.Errorf("%w (%s): install ffmpeg or set ffprobe_path", ErrFfprobeNotFound, cfg.FFprobePath)
	}
	return nil
}

// RunCheck runs the interactive --check flow: tool versions, the H.264
// encoders ffmpeg reports, a short test encode with the selected backend,
// and an AAC test encode. It returns false if anything required failed.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkTool(log, "ffmpeg", cfg.FFmpegPath)
	ok = checkTool(log, "ffprobe", cfg.FFprobePath) && ok
	if !ok {
		return false
	}

	listH264Encoders(log, cfg.FFmpegPath)
	ok = checkEncoder(log, cfg.FFmpegPath, ffmpeg.EncoderFor(cfg.EncoderMode)) && ok
	ok = checkAAC(log, cfg.FFmpegPath) && ok
	return ok
}

// checkTool verifies bin resolves and logs its version line.
func checkTool(log Logger, name, bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("%s not found (%s)", name, bin)
		return false
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return true
	}
	log.Success("%s", firstLine(string(out)))
	return true
}

// listH264Encoders logs every H.264 encoder line from ffmpeg -encoders.
func listH264Encoders(log Logger, bin string) {
	log.Info("H.264 encoders:")
	out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, line := range H264Encoders(string(out)) {
		log.Info("  %s", line)
	}
}

// H264Encoders filters `ffmpeg -encoders` output down to the H.264 lines.
func H264Encoders(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(strings.ToLower(line), "264") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

// checkEncoder runs a tiny encode with the selected backend.
func checkEncoder(log Logger, bin string, enc ffmpeg.Encoder) bool {
	log.Info("Testing %s (%s)...", enc.Codec, enc.Mode)
	if runSilent(bin, encoderTestArgs(enc)...) {
		log.Success("%s works", enc.Codec)
		return true
	}
	log.Error("%s test encode failed", enc.Codec)
	if enc.Mode != config.EncoderCPU {
		log.Warn("Hardware encoding is unavailable here; try --encoder cpu")
	}
	return false
}

// checkAAC runs a minimal AAC encode to verify the audio encoder works.
func checkAAC(log Logger, bin string) bool {
	log.Info("Testing AAC encoder...")
	if runSilent(bin, aacTestArgs()...) {
		log.Success("AAC encoder works")
		return true
	}
	log.Error("AAC encoder test failed")
	return false
}

// --- internal helpers ---

// encoderTestArgs returns ffmpeg arguments for a 0.1s test encode.
func encoderTestArgs(enc ffmpeg.Encoder) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", enc.Codec, "-pix_fmt", ffmpeg.TargetPixFmt,
		"-f", "null", "-",
	}
}

func aacTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", ffmpeg.TargetAudioCodec, "-f", "null", "-",
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}
