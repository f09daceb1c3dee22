package compressor

import (
	"fmt"
	"strings"
)

// args builds the full ffmpeg argument list for a resolved plan.
func (p encodePlan) args(input, output string) []string {
	args := []string{"-y", "-i", input}

	if p.strategy.Params.VideoCodec != "" {
		args = append(args, videoArgs(p)...)
	} else {
		args = append(args, "-vn")
	}
	args = append(args, audioArgs(p)...)

	if p.threads > 0 {
		args = append(args, "-threads", fmt.Sprint(p.threads))
	}

	args = append(args,
		"-progress", "pipe:1",
		"-nostats",
		"-loglevel", "error",
		output,
	)
	return args
}

func videoArgs(p encodePlan) []string {
	params := p.strategy.Params

	var filters []string
	if params.Scale != "" {
		filters = append(filters, "scale="+params.Scale)
	}
	if params.FPS > 0 {
		filters = append(filters, fmt.Sprintf("fps=%d", params.FPS))
	}

	args := []string{}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}
	args = append(args, "-c:v", params.VideoCodec)

	if p.videoKbps > 0 {
		// size-constrained pass: bitrate target with a matched buffer
		kbps := fmt.Sprintf("%dk", p.videoKbps)
		args = append(args, "-b:v", kbps, "-maxrate", kbps,
			"-bufsize", fmt.Sprintf("%dk", p.videoKbps*2))
	} else {
		args = append(args, "-crf", fmt.Sprint(params.CRF))
	}

	if params.SpeedPreset != "" {
		args = append(args, "-preset", params.SpeedPreset)
	}
	if params.PixelFormat != "" {
		args = append(args, "-pix_fmt", params.PixelFormat)
	}
	return args
}

func audioArgs(p encodePlan) []string {
	params := p.strategy.Params
	args := []string{"-c:a", params.AudioCodec, "-b:a", fmt.Sprintf("%dk", p.audioKbps)}
	if params.AudioChannels > 0 {
		args = append(args, "-ac", fmt.Sprint(params.AudioChannels))
	}
	if params.AudioSampleRate > 0 {
		args = append(args, "-ar", fmt.Sprint(params.AudioSampleRate))
	}
	return args
}
