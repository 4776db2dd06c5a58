package planner

import (
	"slices"

	"github.com/backmassage/smbfix/internal/probe"
)

// Action describes the per-file processing decision.
type Action int

const (
	ActionEncode Action = iota
	ActionSkip
)

func (a Action) String() string {
	if a == ActionSkip {
		return "skip"
	}
	return "encode"
}

// Profile is a target compatibility profile: the video codecs, pixel format
// and audio codecs a file must already have to be left alone.
type Profile struct {
	VideoCodecs []string
	PixFmt      string
	AudioCodecs []string
}

// SMBProfile plays back reliably when streamed from a network share to
// common clients. Treat as read-only.
var SMBProfile = Profile{
	VideoCodecs: []string{"h264", "mpeg4"},
	PixFmt:      "yuv420p",
	AudioCodecs: []string{"aac", "mp3"},
}

// IsCompatible reports whether info already satisfies p. Empty fields (a
// failed probe) never match, so unknown files are always re-encoded.
func IsCompatible(info probe.StreamInfo, p Profile) bool {
	if info.VideoCodec == "" || info.PixFmt == "" || info.AudioCodec == "" {
		return false
	}
	return slices.Contains(p.VideoCodecs, info.VideoCodec) &&
		info.PixFmt == p.PixFmt &&
		slices.Contains(p.AudioCodecs, info.AudioCodec)
}

// Decide maps the compatibility check onto an Action.
func Decide(info probe.StreamInfo, p Profile) Action {
	if IsCompatible(info, p) {
		return ActionSkip
	}
	return ActionEncode
}
