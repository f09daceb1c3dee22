package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"compressd/models"
)

// DefaultPresets returns the built-in quality preset tables. "ultrafast"
// matches the bot's historical aggressive defaults (640x360, x265 crf 30);
// "balanced" and "high" trade encode time for quality. "audio" is the
// audio-only shrink profile (32k mono mp3).
func DefaultPresets() map[models.QualityPreset]models.PresetParams {
	return map[models.QualityPreset]models.PresetParams{
		models.PresetUltrafast: {
			VideoCodec:      "libx265",
			CRF:             30,
			SpeedPreset:     "ultrafast",
			Scale:           "640:360",
			FPS:             24,
			PixelFormat:     "yuv420p",
			MinVideoKbps:    60,
			AudioCodec:      "aac",
			AudioKbps:       48,
			AudioChannels:   1,
			AudioSampleRate: 44100,
			Extension:       "mp4",
		},
		models.PresetBalanced: {
			VideoCodec:      "libx264",
			CRF:             23,
			SpeedPreset:     "medium",
			Scale:           "1280:720",
			FPS:             0,
			PixelFormat:     "yuv420p",
			MinVideoKbps:    150,
			AudioCodec:      "aac",
			AudioKbps:       96,
			AudioChannels:   2,
			AudioSampleRate: 44100,
			Extension:       "mp4",
		},
		models.PresetHigh: {
			VideoCodec:      "libx265",
			CRF:             20,
			SpeedPreset:     "slow",
			Scale:           "",
			FPS:             0,
			PixelFormat:     "yuv420p",
			MinVideoKbps:    400,
			AudioCodec:      "aac",
			AudioKbps:       128,
			AudioChannels:   2,
			AudioSampleRate: 48000,
			Extension:       "mp4",
		},
		models.PresetAudio: {
			AudioCodec:      "libmp3lame",
			AudioKbps:       32,
			AudioChannels:   1,
			AudioSampleRate: 44100,
			Extension:       "mp3",
		},
	}
}

type presetsFile struct {
	Presets map[string]models.PresetParams `yaml:"presets"`
}

// mergePresetsFile overlays preset tables from a YAML file onto the defaults.
// Unknown preset names are accepted so operators can define their own.
func mergePresetsFile(dst map[models.QualityPreset]models.PresetParams, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	for name, params := range file.Presets {
		dst[models.QualityPreset(name)] = params
	}
	return nil
}
