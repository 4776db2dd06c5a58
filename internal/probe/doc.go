// Package probe inspects media files with ffprobe and reduces the result to
// the three fields the compatibility check needs: first video stream codec
// and pixel format, and first audio stream codec.
//
// Inspection never fails loudly. Any problem (missing binary, non-zero exit,
// unparseable output, no such stream) yields the zero [StreamInfo], which the
// planner treats as "not compatible" so the file is transcoded.
package probe
