package probe

// StreamInfo is the reduced inspection result. Empty fields mean the value
// could not be determined.
type StreamInfo struct {
	VideoCodec string
	PixFmt     string
	AudioCodec string
}

// Known reports whether every field was determined.
func (s StreamInfo) Known() bool {
	return s.VideoCodec != "" && s.PixFmt != "" && s.AudioCodec != ""
}

// String renders the info as "video/audio/pix_fmt" with "?" for unknown
// fields, matching the per-file transcode log line.
func (s StreamInfo) String() string {
	return orUnknown(s.VideoCodec) + "/" + orUnknown(s.AudioCodec) + "/" + orUnknown(s.PixFmt)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
