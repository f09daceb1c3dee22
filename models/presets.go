package models

// PresetParams is the parameter table one quality preset expands to. Video
// and audio fields coexist so a video encode carries the settings for its
// audio track as well.
type PresetParams struct {
	// Video
	VideoCodec   string `yaml:"video_codec" json:"video_codec"`
	CRF          int    `yaml:"crf" json:"crf"`
	SpeedPreset  string `yaml:"speed_preset" json:"speed_preset"` // ffmpeg -preset
	Scale        string `yaml:"scale" json:"scale"`               // "W:H", empty keeps source
	FPS          int    `yaml:"fps" json:"fps"`                   // 0 keeps source
	PixelFormat  string `yaml:"pixel_format" json:"pixel_format"`
	MinVideoKbps int    `yaml:"min_video_kbps" json:"min_video_kbps"` // feasibility floor

	// Audio
	AudioCodec      string `yaml:"audio_codec" json:"audio_codec"`
	AudioKbps       int    `yaml:"audio_kbps" json:"audio_kbps"`
	AudioChannels   int    `yaml:"audio_channels" json:"audio_channels"`
	AudioSampleRate int    `yaml:"audio_sample_rate" json:"audio_sample_rate"`

	// Container extension for the output file, e.g. "mp4", "mp3".
	Extension string `yaml:"extension" json:"extension"`
}
