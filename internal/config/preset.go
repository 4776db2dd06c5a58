package config

import "strings"

// DefaultPresetName is the preset used when none is selected.
const DefaultPresetName = "standard"

// Preset is a named set of encoder rates. Values are passed to ffmpeg
// verbatim (e.g. "5M", "128k", "44100").
type Preset struct {
	Name         string `yaml:"name"`
	VideoBitrate string `yaml:"video_bitrate"`
	AudioBitrate string `yaml:"audio_bitrate"`
	SampleRate   string `yaml:"sample_rate"`
	Description  string `yaml:"description,omitempty"`
}

// DefaultPresets returns the built-in preset list, lowest quality first.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "low", VideoBitrate: "2M", AudioBitrate: "96k", SampleRate: "32000", Description: "smallest files, speech recordings"},
		{Name: "standard", VideoBitrate: "5M", AudioBitrate: "128k", SampleRate: "44100", Description: "general video and lectures"},
		{Name: "high", VideoBitrate: "8M", AudioBitrate: "192k", SampleRate: "48000", Description: "720p to 1080p"},
		{Name: "ultra", VideoBitrate: "12M", AudioBitrate: "256k", SampleRate: "48000", Description: "4K or high-bitrate sources"},
	}
}

// FindPreset looks up a preset by name, case-insensitively.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames returns preset names in list order.
func PresetNames(presets []Preset) []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return names
}

// Label renders a preset for logs, e.g. "standard (5M / 128k / 44100 Hz)".
func (p Preset) Label() string {
	return p.Name + " (" + p.VideoBitrate + " / " + p.AudioBitrate + " / " + p.SampleRate + " Hz)"
}
