package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into output, encoding, behavior, display, and utility.
// Negated flags (e.g. --no-recursive) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrVersionShown is returned by ParseFlags after --version printed the version.
var ErrVersionShown = errors.New("version shown")

// ParseFlags parses args (without the program name) into cfg. The YAML file
// named by --config (or the default location) is applied first so that
// flags override it. On --help it prints usage and returns flag.ErrHelp; on
// --version it prints the version and returns ErrVersionShown.
func ParseFlags(cfg *Config, version string, args []string) error {
	if path, ok := findConfigArg(args); ok {
		if err := LoadFile(cfg, path, true); err != nil {
			return err
		}
	} else if err := LoadFile(cfg, DefaultFilePath(), false); err != nil {
		return err
	}

	fs := flag.NewFlagSet("smbfix", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that defaults hold unless the user passes the flag.
	var negated negatedFlags
	var configPath string

	defineOutputFlags(fs, cfg, &negated)
	defineEncodingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated, &configPath)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(version)
		}
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "preset" || f.Name == "p" {
			cfg.presetExplicit = true
		}
	})

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		return flag.ErrHelp
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "smbfix v"+version)
		return ErrVersionShown
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	overwrite   bool
	noRecursive bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// findConfigArg extracts the --config value ahead of the real parse.
func findConfigArg(args []string) (string, bool) {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v, true
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// defineOutputFlags registers --overwrite and --no-recursive.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.overwrite, "overwrite", false, "Replace source files in place")
	fs.BoolVar(&n.overwrite, "o", false, "Same as --overwrite")
	fs.BoolVar(&n.noRecursive, "no-recursive", false, "Only process files directly in input_dir")
}

// defineEncodingFlags registers --encoder, --preset and the custom bitrate flags.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&encoderModeValue{&cfg.EncoderMode}, "encoder", "Encoder: videotoolbox | nvenc | cpu")
	fs.Var(&encoderModeValue{&cfg.EncoderMode}, "e", "Same as --encoder")
	fs.StringVar(&cfg.PresetName, "preset", cfg.PresetName, "Quality preset name")
	fs.StringVar(&cfg.PresetName, "p", cfg.PresetName, "Same as --preset")
	fs.StringVar(&cfg.VideoBitrate, "video-bitrate", "", "Custom video bitrate (e.g. 6M)")
	fs.StringVar(&cfg.AudioBitrate, "audio-bitrate", "", "Custom audio bitrate (e.g. 160k)")
	fs.StringVar(&cfg.SampleRate, "sample-rate", "", "Custom audio sample rate (e.g. 48000)")
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg executable")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "ffprobe executable")
}

// defineBehaviorFlags registers dry-run, report, history and metrics flags.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Probe and report decisions; do not encode")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.ReportOnly, "report", false, "Print a compatibility table and exit")
	fs.StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "Record per-file results in this SQLite file")
	fs.Var(&positiveIntValue{&cfg.ShowHistory}, "history", "Print the last N recorded results and exit")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file after the batch")
}

// defineDisplayFlags registers --color, --no-color, verbose, --tui, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.UseTUI, "tui", false, "Interactive progress view")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --config, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags, configPath *string) {
	fs.StringVar(configPath, "config", "", "YAML config file")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.overwrite {
		cfg.Policy = PolicyOverwrite
	}
	if n.noRecursive {
		cfg.Recursive = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir and (optionally) OutputDir.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly || cfg.ShowHistory > 0 {
		return nil
	}
	switch len(args) {
	case 1:
		cfg.InputDir = NormalizeDirArg(args[0])
	case 2:
		cfg.InputDir = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
	default:
		return fmt.Errorf("need input_dir and optionally output_dir (got %d arguments)", len(args))
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "smbfix v" + version + ": transcode videos for network-share playback"},
		{"", ""},
		{"  smbfix [OPTIONS] <input_dir> <output_dir>", ""},
		{"  smbfix [OPTIONS] --overwrite <input_dir>", ""},
		{"", ""},
		{"Output", ""},
		{"  -o, --overwrite", "Replace source files in place"},
		{"  --no-recursive", "Do not descend into subdirectories"},
		{"", ""},
		{"Encoding", ""},
		{"  -e, --encoder <name>", "videotoolbox | nvenc | cpu (default: videotoolbox)"},
		{"  -p, --preset <name>", "low | standard | high | ultra (default: standard)"},
		{"  --video-bitrate <rate>", "Custom video bitrate (excludes --preset)"},
		{"  --audio-bitrate <rate>", "Custom audio bitrate (excludes --preset)"},
		{"  --sample-rate <hz>", "Custom audio sample rate (excludes --preset)"},
		{"  --ffmpeg <path>", "ffmpeg executable (default: ffmpeg)"},
		{"  --ffprobe <path>", "ffprobe executable (default: ffprobe)"},
		{"", ""},
		{"Behavior", ""},
		{"  -d, --dry-run", "Probe and report decisions; do not encode"},
		{"  --report", "Print a compatibility table and exit"},
		{"  --history-db <path>", "Record per-file results (SQLite)"},
		{"  --history <n>", "Print the last n recorded results"},
		{"  --metrics-file <path>", "Write Prometheus metrics after the batch"},
		{"", ""},
		{"Display", ""},
		{"  --tui", "Interactive progress view (q to stop)"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "YAML config file (default: ~/.config/smbfix/config.yaml)"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, encoders)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types with flag.Var.

type encoderModeValue struct{ p *EncoderMode }

func (e *encoderModeValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}

func (e *encoderModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "videotoolbox", "vt":
		*e.p = EncoderVideoToolbox
	case "nvenc":
		*e.p = EncoderNVENC
	case "cpu":
		*e.p = EncoderCPU
	default:
		return fmt.Errorf("invalid encoder %q (use 'videotoolbox', 'nvenc' or 'cpu')", s)
	}
	return nil
}

type positiveIntValue struct{ p *int }

func (v *positiveIntValue) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.Itoa(*v.p)
}

func (v *positiveIntValue) Set(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive whole number (got %q)", s)
	}
	*v.p = n
	return nil
}
