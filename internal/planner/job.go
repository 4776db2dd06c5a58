package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/smbfix/internal/config"
)

const (
	// TargetExt is the container extension of every encoded output.
	TargetExt = ".mp4"
	// TempSuffix marks in-progress outputs written next to their source under
	// the overwrite policy. Files carrying it are never treated as sources.
	TempSuffix = ".tmp.smbfix" + TargetExt
)

// MediaFile is one candidate found by the enumerator.
type MediaFile struct {
	Path    string // absolute
	RelPath string // relative to the scan root
	Ext     string // original extension including the dot, as found on disk
}

// Name returns the base file name.
func (f MediaFile) Name() string { return filepath.Base(f.Path) }

// Job is everything needed to encode one file and finalize its output.
type Job struct {
	Source      MediaFile
	Destination string
	Preset      config.Preset
	Policy      config.OutputPolicy
}

// IsTempOutput reports whether name carries the reserved temporary marker.
func IsTempOutput(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), TempSuffix)
}

// TempPath returns the overwrite-policy destination for src:
// "dir/clip.mkv" becomes "dir/clip.tmp.smbfix.mp4".
func TempPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + TempSuffix
}

// SeparatePath returns outputRoot/relPath with the extension forced to .mp4.
func SeparatePath(outputRoot, relPath string) string {
	stem := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return filepath.Join(outputRoot, stem+TargetExt)
}

// Destination derives where file is encoded to under policy without
// touching the filesystem.
func Destination(file MediaFile, policy config.OutputPolicy, outputRoot string) (string, error) {
	switch policy {
	case config.PolicyOverwrite:
		return TempPath(file.Path), nil
	case config.PolicySeparate:
		if outputRoot == "" {
			return "", fmt.Errorf("separate output policy requires an output directory")
		}
		if file.RelPath == "" || filepath.IsAbs(file.RelPath) {
			return "", fmt.Errorf("invalid relative path %q for %s", file.RelPath, file.Path)
		}
		return SeparatePath(outputRoot, file.RelPath), nil
	}
	return "", fmt.Errorf("unknown output policy %q", policy)
}

// BuildJob derives the destination for file under policy and, for the
// separate policy, creates the destination's parent directories.
func BuildJob(file MediaFile, policy config.OutputPolicy, outputRoot string, preset config.Preset) (*Job, error) {
	dest, err := Destination(file, policy, outputRoot)
	if err != nil {
		return nil, err
	}
	if policy == config.PolicySeparate {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	return &Job{Source: file, Destination: dest, Preset: preset, Policy: policy}, nil
}
