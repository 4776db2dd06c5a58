// Package config holds runtime configuration: defaults, the optional YAML
// config file, CLI flag parsing, quality presets, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// EncoderMode selects the H.264 encoding backend.
type EncoderMode string

const (
	EncoderVideoToolbox EncoderMode = "videotoolbox" // macOS hardware encoder (default).
	EncoderNVENC        EncoderMode = "nvenc"        // NVIDIA hardware encoder.
	EncoderCPU          EncoderMode = "cpu"          // Software libx264 fallback.
)

// OutputPolicy decides where encoded files end up.
type OutputPolicy string

const (
	// PolicyOverwrite encodes to a temporary sibling and then replaces the source.
	PolicyOverwrite OutputPolicy = "overwrite"
	// PolicySeparate mirrors the input tree under OutputDir with .mp4 outputs.
	PolicySeparate OutputPolicy = "separate"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadFile] and [ParseFlags], before being passed (by pointer) to
// the packages that need it.
type Config struct {
	// Paths (set from positional args).
	InputDir  string
	OutputDir string

	// Batch behavior.
	Policy    OutputPolicy // Default: separate. --overwrite selects overwrite.
	Recursive bool         // Default: true.
	DryRun    bool

	// Encoding.
	EncoderMode  EncoderMode // Default: "videotoolbox".
	PresetName   string      // Default: "standard".
	Presets      []Preset    // Ordered preset list; replaced wholesale by the config file.
	VideoBitrate string      // Custom override, mutually exclusive with an explicit preset.
	AudioBitrate string
	SampleRate   string

	// presetExplicit records whether --preset was passed on the command line.
	presetExplicit bool

	// External tools.
	FFmpegPath  string // Default: "ffmpeg" (resolved on PATH).
	FFprobePath string // Default: "ffprobe".

	// Persistence and metrics.
	HistoryDB   string // SQLite journal path; empty disables recording.
	ShowHistory int    // --history N: print the last N recorded results and exit.
	MetricsFile string // Prometheus textfile written at the end of a batch.

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional log file path.
	UseTUI     bool      // Interactive progress view instead of plain log lines.
	ReportOnly bool      // Probe and print a compatibility table, no encoding.
	CheckOnly  bool      // Run --check diagnostics and exit.

	// ConfigFile is the YAML file that was loaded, if any.
	ConfigFile string
}

// DefaultConfig returns a Config with the built-in defaults. Used as the base
// before [LoadFile] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		Policy:      PolicySeparate,
		Recursive:   true,
		EncoderMode: EncoderVideoToolbox,
		PresetName:  DefaultPresetName,
		Presets:     DefaultPresets(),
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		ColorMode:   ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks that enum fields hold valid values, that the preset
// selection resolves, and (outside the check/history modes) that the
// positional paths fit the output policy.
func (c *Config) Validate() error {
	switch c.EncoderMode {
	case EncoderVideoToolbox, EncoderNVENC, EncoderCPU:
		// valid
	default:
		return errors.New("invalid encoder (use 'videotoolbox', 'nvenc' or 'cpu')")
	}

	switch c.Policy {
	case PolicyOverwrite, PolicySeparate:
		// valid
	default:
		return errors.New("invalid output policy (use 'overwrite' or 'separate')")
	}

	if _, err := c.ResolvePreset(); err != nil {
		return err
	}

	if c.CheckOnly || c.ShowHistory > 0 {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need input_dir")
	}
	if c.ReportOnly {
		return nil
	}
	if c.Policy == PolicySeparate && c.OutputDir == "" {
		return errors.New("need output_dir (or --overwrite to replace files in place)")
	}
	if c.Policy == PolicyOverwrite && c.OutputDir != "" {
		return errors.New("output_dir cannot be combined with --overwrite")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	return ValidatePaths(inputAbs, outputAbs)
}

// ValidatePaths is the policy-independent form of [Config.ValidatePaths].
func ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// ResolvePreset returns the effective encoding preset. An explicit --preset
// and custom bitrate flags are mutually exclusive; custom flags alone are
// layered on top of the default preset.
func (c *Config) ResolvePreset() (Preset, error) {
	custom := c.VideoBitrate != "" || c.AudioBitrate != "" || c.SampleRate != ""
	if custom && c.presetExplicit {
		return Preset{}, errors.New("--preset cannot be combined with --video-bitrate/--audio-bitrate/--sample-rate")
	}

	p, ok := FindPreset(c.Presets, c.PresetName)
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (have: %s)", c.PresetName, strings.Join(PresetNames(c.Presets), ", "))
	}
	if !custom {
		return p, nil
	}

	p.Name = "custom"
	if c.VideoBitrate != "" {
		p.VideoBitrate = c.VideoBitrate
	}
	if c.AudioBitrate != "" {
		p.AudioBitrate = c.AudioBitrate
	}
	if c.SampleRate != "" {
		p.SampleRate = c.SampleRate
	}
	return p, nil
}
