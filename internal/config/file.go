package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML representation. Every field is optional; zero
// values leave the corresponding Config default in place.
type File struct {
	Encoder     string   `yaml:"encoder"`
	Overwrite   *bool    `yaml:"overwrite"`
	Recursive   *bool    `yaml:"recursive"`
	Preset      string   `yaml:"preset"`
	Presets     []Preset `yaml:"presets"`
	FFmpegPath  string   `yaml:"ffmpeg_path"`
	FFprobePath string   `yaml:"ffprobe_path"`
	HistoryDB   string   `yaml:"history_db"`
	MetricsFile string   `yaml:"metrics_file"`
	LogFile     string   `yaml:"log_file"`
	Color       string   `yaml:"color"`
}

// DefaultFilePath returns ~/.config/smbfix/config.yaml (or "" when the home
// directory cannot be determined).
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "smbfix", "config.yaml")
}

// LoadFile reads a YAML config file and applies it to cfg. When required is
// false a missing file is not an error (used for the default location).
func LoadFile(cfg *Config, path string, required bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := f.apply(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

func (f *File) apply(cfg *Config) error {
	if f.Encoder != "" {
		if err := (&encoderModeValue{&cfg.EncoderMode}).Set(f.Encoder); err != nil {
			return err
		}
	}
	if f.Overwrite != nil {
		if *f.Overwrite {
			cfg.Policy = PolicyOverwrite
		} else {
			cfg.Policy = PolicySeparate
		}
	}
	if f.Recursive != nil {
		cfg.Recursive = *f.Recursive
	}
	if len(f.Presets) > 0 {
		for i, p := range f.Presets {
			if p.Name == "" || p.VideoBitrate == "" || p.AudioBitrate == "" || p.SampleRate == "" {
				return fmt.Errorf("preset #%d: name, video_bitrate, audio_bitrate and sample_rate are required", i+1)
			}
		}
		cfg.Presets = f.Presets
	}
	if f.Preset != "" {
		cfg.PresetName = f.Preset
	}
	if f.FFmpegPath != "" {
		cfg.FFmpegPath = f.FFmpegPath
	}
	if f.FFprobePath != "" {
		cfg.FFprobePath = f.FFprobePath
	}
	if f.HistoryDB != "" {
		cfg.HistoryDB = f.HistoryDB
	}
	if f.MetricsFile != "" {
		cfg.MetricsFile = f.MetricsFile
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if f.Color != "" {
		switch ColorMode(f.Color) {
		case ColorAuto, ColorAlways, ColorNever:
			cfg.ColorMode = ColorMode(f.Color)
		default:
			return fmt.Errorf("invalid color %q (use 'auto', 'always' or 'never')", f.Color)
		}
	}
	return nil
}
