package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Prober inspects a media file. Implementations must absorb every failure
// into the zero StreamInfo.
type Prober interface {
	Inspect(ctx context.Context, path string) StreamInfo
}

// Func adapts a plain function to the Prober interface.
type Func func(ctx context.Context, path string) StreamInfo

// Inspect calls f.
func (f Func) Inspect(ctx context.Context, path string) StreamInfo { return f(ctx, path) }

// FFprobe runs the ffprobe executable at Path (looked up on PATH when it has
// no separator).
type FFprobe struct {
	Path string
}

// NewFFprobe returns an FFprobe using path, defaulting to "ffprobe".
func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{Path: path}
}

// Inspect runs two ffprobe calls (first video stream, then first audio
// stream). Any failure in either call yields StreamInfo{}.
func (p *FFprobe) Inspect(ctx context.Context, path string) StreamInfo {
	info, err := p.inspect(ctx, path)
	if err != nil {
		return StreamInfo{}
	}
	return info
}

func (p *FFprobe) inspect(ctx context.Context, path string) (StreamInfo, error) {
	vout, err := p.run(ctx, path, "v:0", "stream=codec_name,pix_fmt")
	if err != nil {
		return StreamInfo{}, err
	}
	vcodec, pixfmt, err := ParseVideoCSV(vout)
	if err != nil {
		return StreamInfo{}, err
	}

	aout, err := p.run(ctx, path, "a:0", "stream=codec_name")
	if err != nil {
		return StreamInfo{}, err
	}
	acodec, err := ParseAudioCSV(aout)
	if err != nil {
		return StreamInfo{}, err
	}

	return StreamInfo{VideoCodec: vcodec, PixFmt: pixfmt, AudioCodec: acodec}, nil
}

// Args returns the ffprobe arguments for one stream selector, e.g. "v:0".
func Args(path, selector, entries string) []string {
	return []string{
		"-v", "error",
		"-select_streams", selector,
		"-show_entries", entries,
		"-of", "csv=p=0",
		path,
	}
}

func (p *FFprobe) run(ctx context.Context, path, selector, entries string) (string, error) {
	cmd := exec.CommandContext(ctx, p.Path, Args(path, selector, entries)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ffprobe %s %q: %w", selector, path, err)
	}
	return string(out), nil
}

var errNoStream = errors.New("no matching stream")

// ParseVideoCSV parses "codec,pix_fmt" from ffprobe's csv=p=0 output.
// Exported for testing without a real ffprobe binary.
func ParseVideoCSV(out string) (codec, pixFmt string, err error) {
	line := firstLine(out)
	if line == "" {
		return "", "", errNoStream
	}
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return "", "", fmt.Errorf("malformed video probe output %q", line)
	}
	codec = strings.TrimSpace(fields[0])
	pixFmt = strings.TrimSpace(fields[1])
	if codec == "" || pixFmt == "" {
		return "", "", fmt.Errorf("malformed video probe output %q", line)
	}
	return codec, pixFmt, nil
}

// ParseAudioCSV parses the single codec_name field from ffprobe's
// csv=p=0 output.
func ParseAudioCSV(out string) (string, error) {
	line := firstLine(out)
	if line == "" {
		return "", errNoStream
	}
	if strings.Contains(line, ",") {
		return "", fmt.Errorf("malformed audio probe output %q", line)
	}
	return line, nil
}

// firstLine returns the first non-blank line with any trailing separator
// comma removed (ffprobe appends one for some containers).
func firstLine(out string) string {
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimRight(l, ",")
		if l != "" {
			return l
		}
	}
	return ""
}
