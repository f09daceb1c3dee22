package compressor

import (
	"fmt"
	"os/exec"

	"compressd/logger"
	"compressd/models"
)

// hard floor for any audio track; below this ffmpeg output is unusable
const minAudioKbps = 32

// Strategy binds a preset name to its parameter table and the media type it
// handles. Selection asks Handles; planning turns options into an encodePlan.
type Strategy struct {
	Name      models.QualityPreset
	MediaType models.MediaType
	Params    models.PresetParams
}

// Handles reports whether this strategy can process the probed input.
func (s Strategy) Handles(info MediaInfo) bool {
	switch s.MediaType {
	case models.MediaVideo:
		return info.HasVideo
	case models.MediaAudio:
		return info.HasAudio
	}
	return false
}

// encodePlan is a fully resolved encode: arguments, output extension and the
// bitrate targets used for a constrained re-encode pass.
type encodePlan struct {
	strategy  Strategy
	ext       string
	videoKbps int // 0 means CRF mode
	audioKbps int
	threads   int
}

// Plan resolves options against the probed input. Returns
// ErrSizeConstraintUnmet when the requested maximum output size cannot be
// met even at the preset's floor bitrates.
func (s Strategy) Plan(info MediaInfo, opts models.CompressionOptions) (encodePlan, error) {
	plan := encodePlan{
		strategy:  s,
		ext:       s.Params.Extension,
		audioKbps: s.Params.AudioKbps,
		threads:   opts.ThreadHint,
	}

	if opts.MaxSizeBytes <= 0 {
		return plan, nil // unconstrained, CRF mode
	}

	durSec := info.Duration.Seconds()
	if durSec <= 0 {
		// no duration means no feasibility math; the post-encode size
		// check still guards the constraint
		return plan, nil
	}

	// 5% container overhead margin
	totalKbps := int(float64(opts.MaxSizeBytes*8) / durSec / 1000 * 0.95)

	if s.MediaType == models.MediaAudio || !info.HasVideo {
		if totalKbps < minAudioKbps {
			return plan, fmt.Errorf("%w: need at least %d kbps audio for %.0fs, limit allows %d kbps",
				models.ErrSizeConstraintUnmet, minAudioKbps, durSec, totalKbps)
		}
		if totalKbps < plan.audioKbps {
			plan.audioKbps = totalKbps
		}
		return plan, nil
	}

	videoKbps := totalKbps - plan.audioKbps
	if videoKbps < s.Params.MinVideoKbps {
		// try squeezing the audio track before giving up
		plan.audioKbps = minAudioKbps
		videoKbps = totalKbps - plan.audioKbps
	}
	if videoKbps < s.Params.MinVideoKbps {
		return plan, fmt.Errorf("%w: %.0fs video needs at least %d kbps, limit allows %d kbps",
			models.ErrSizeConstraintUnmet, durSec, s.Params.MinVideoKbps+minAudioKbps, totalKbps)
	}
	plan.videoKbps = videoKbps
	return plan, nil
}

// tighten scales the bitrate targets down after an encode overshot the size
// limit. Returns false when the plan is already at the floor.
func (p *encodePlan) tighten(actualBytes, maxBytes int64) bool {
	ratio := float64(maxBytes) / float64(actualBytes) * 0.95
	if p.videoKbps == 0 && p.strategy.MediaType == models.MediaVideo {
		// CRF pass overshot; there were no bitrate targets yet
		return false
	}
	if p.strategy.MediaType == models.MediaAudio {
		next := int(float64(p.audioKbps) * ratio)
		if next < minAudioKbps {
			return false
		}
		p.audioKbps = next
		return true
	}
	next := int(float64(p.videoKbps) * ratio)
	if next < p.strategy.Params.MinVideoKbps {
		return false
	}
	p.videoKbps = next
	return true
}

// buildRegistry creates one strategy per preset, gated on ffmpeg being
// available, in the same spirit the encoder registry always checked its
// commands up front.
func buildRegistry(presets map[models.QualityPreset]models.PresetParams) map[models.QualityPreset]Strategy {
	registry := make(map[models.QualityPreset]Strategy)

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		logger.Warnf("compression strategies skipped: command 'ffmpeg' not found in PATH")
		return registry
	}

	for name, params := range presets {
		mediaType := models.MediaVideo
		if params.VideoCodec == "" {
			mediaType = models.MediaAudio
		}
		registry[name] = Strategy{Name: name, MediaType: mediaType, Params: params}
		logger.Debugf("strategy [%s] registered (%s, codec: %s)", name, mediaType, codecName(params))
	}
	return registry
}

func codecName(p models.PresetParams) string {
	if p.VideoCodec != "" {
		return p.VideoCodec
	}
	return p.AudioCodec
}
