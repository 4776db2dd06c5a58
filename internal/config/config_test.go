package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_EncoderMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    EncoderMode
		wantErr bool
	}{
		{"videotoolbox is valid", EncoderVideoToolbox, false},
		{"nvenc is valid", EncoderNVENC, false},
		{"cpu is valid", EncoderCPU, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "vaapi", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip path requirement
			cfg.EncoderMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_PolicyPaths(t *testing.T) {
	tests := []struct {
		name    string
		policy  OutputPolicy
		in, out string
		wantErr bool
	}{
		{"separate with both paths", PolicySeparate, "/in", "/out", false},
		{"separate without output", PolicySeparate, "/in", "", true},
		{"overwrite with input only", PolicyOverwrite, "/in", "", false},
		{"overwrite with output", PolicyOverwrite, "/in", "/out", true},
		{"missing input", PolicyOverwrite, "", "", true},
		{"unknown policy", "mirror", "/in", "/out", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Policy = tt.policy
			cfg.InputDir = tt.in
			cfg.OutputDir = tt.out
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CheckOnlySkipsPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass with empty paths when CheckOnly is true, got: %v", err)
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		wantErr bool
	}{
		{"separate directories", "/media/in", "/media/out", false},
		{"output equals input", "/media/lib", "/media/lib", true},
		{"output inside input", "/media/lib", "/media/lib/output", true},
		{"output is parent of input", "/media/lib/sub", "/media/lib", false},
		{"similar prefix not nested", "/media/library", "/media/library2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaths(tt.input, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v",
					tt.input, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.EncoderMode != EncoderVideoToolbox {
		t.Errorf("default EncoderMode = %q, want %q", cfg.EncoderMode, EncoderVideoToolbox)
	}
	if cfg.Policy != PolicySeparate {
		t.Errorf("default Policy = %q, want %q", cfg.Policy, PolicySeparate)
	}
	if !cfg.Recursive {
		t.Error("default Recursive should be true")
	}
	if cfg.DryRun {
		t.Error("default DryRun should be false")
	}
	p, err := cfg.ResolvePreset()
	if err != nil {
		t.Fatalf("ResolvePreset: %v", err)
	}
	if p.VideoBitrate != "5M" || p.AudioBitrate != "128k" || p.SampleRate != "44100" {
		t.Errorf("default preset = %+v, want 5M/128k/44100", p)
	}
}

func TestResolvePreset(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		explicit bool
		vb, ab   string
		sr       string
		want     Preset
		wantErr  bool
	}{
		{
			name:   "named preset",
			preset: "high",
			want:   Preset{Name: "high", VideoBitrate: "8M", AudioBitrate: "192k", SampleRate: "48000"},
		},
		{
			name:   "case-insensitive name",
			preset: "ULTRA",
			want:   Preset{Name: "ultra", VideoBitrate: "12M", AudioBitrate: "256k", SampleRate: "48000"},
		},
		{
			name:   "custom video only fills from default",
			preset: DefaultPresetName,
			vb:     "6500k",
			want:   Preset{Name: "custom", VideoBitrate: "6500k", AudioBitrate: "128k", SampleRate: "44100"},
		},
		{
			name:     "explicit preset conflicts with custom",
			preset:   "low",
			explicit: true,
			ab:       "64k",
			wantErr:  true,
		},
		{
			name:    "unknown preset",
			preset:  "insane",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PresetName = tt.preset
			cfg.presetExplicit = tt.explicit
			cfg.VideoBitrate, cfg.AudioBitrate, cfg.SampleRate = tt.vb, tt.ab, tt.sr
			got, err := cfg.ResolvePreset()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolvePreset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got.Description = ""
			if got != tt.want {
				t.Errorf("ResolvePreset() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	err := ParseFlags(&cfg, "test", []string{"--overwrite", "--no-recursive", "-e", "cpu", "--preset", "low", "/media/in/"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.Policy != PolicyOverwrite {
		t.Errorf("Policy = %q, want overwrite", cfg.Policy)
	}
	if cfg.Recursive {
		t.Error("Recursive should be false after --no-recursive")
	}
	if cfg.EncoderMode != EncoderCPU {
		t.Errorf("EncoderMode = %q, want cpu", cfg.EncoderMode)
	}
	if cfg.InputDir != "/media/in" || cfg.OutputDir != "" {
		t.Errorf("paths = %q, %q", cfg.InputDir, cfg.OutputDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseFlags_PresetConflict(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--preset", "high", "--video-bitrate", "9M", "/in", "/out"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject --preset combined with --video-bitrate")
	}
}

func TestParseFlags_HelpAndVersion(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--version"}); !errors.Is(err, ErrVersionShown) {
		t.Errorf("--version: got %v, want ErrVersionShown", err)
	}
	cfg = DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: got %v, want flag.ErrHelp", err)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smbfix.yaml")
	yaml := `
encoder: nvenc
overwrite: true
recursive: false
preset: tiny
presets:
  - name: tiny
    video_bitrate: 1M
    audio_bitrate: 64k
    sample_rate: "22050"
history_db: /var/lib/smbfix/history.db
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, "test", []string{"--config", path, "-e", "cpu", "/in"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.EncoderMode != EncoderCPU {
		t.Errorf("flag should override file: EncoderMode = %q", cfg.EncoderMode)
	}
	if cfg.Policy != PolicyOverwrite || cfg.Recursive {
		t.Errorf("file values not applied: policy=%q recursive=%v", cfg.Policy, cfg.Recursive)
	}
	if cfg.HistoryDB != "/var/lib/smbfix/history.db" {
		t.Errorf("HistoryDB = %q", cfg.HistoryDB)
	}
	p, err := cfg.ResolvePreset()
	if err != nil {
		t.Fatalf("ResolvePreset: %v", err)
	}
	if p.Name != "tiny" || p.SampleRate != "22050" {
		t.Errorf("preset = %+v, want tiny/22050", p)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	if err := LoadFile(&cfg, filepath.Join(dir, "missing.yaml"), false); err != nil {
		t.Errorf("optional missing file: %v", err)
	}
	if err := LoadFile(&cfg, filepath.Join(dir, "missing.yaml"), true); err == nil {
		t.Error("required missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("presets:\n  - name: broken\n"), 0o644)
	if err := LoadFile(&cfg, bad, true); err == nil {
		t.Error("incomplete preset should fail")
	}
}
