package compressor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"compressd/models"
)

// MediaInfo is what ffprobe tells us about an input file.
type MediaInfo struct {
	Path       string
	Container  string
	SizeBytes  int64
	Duration   time.Duration
	HasVideo   bool
	HasAudio   bool
	VideoCodec string
	AudioCodec string
	Width      int
	Height     int
}

// MediaType classifies the probed input for strategy selection.
func (m MediaInfo) MediaType() models.MediaType {
	if m.HasVideo {
		return models.MediaVideo
	}
	return models.MediaAudio
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe inspects the input with ffprobe. A file ffprobe cannot parse is an
// unsupported format; a missing or crashing ffprobe is an execution failure.
func Probe(ctx context.Context, path string) (MediaInfo, error) {
	info := MediaInfo{Path: path}

	if _, err := exec.LookPath("ffprobe"); err != nil {
		return info, fmt.Errorf("%w: ffprobe not found in PATH", models.ErrExecutionFailure)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return info, ctx.Err()
		}
		return info, fmt.Errorf("%w: ffprobe: %s", models.ErrUnsupportedFormat, tail(stderr.String()))
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return info, fmt.Errorf("%w: parse ffprobe output: %v", models.ErrExecutionFailure, err)
	}

	info.Container = probed.Format.FormatName
	if secs, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second))
	}
	if size, err := strconv.ParseInt(probed.Format.Size, 10, 64); err == nil {
		info.SizeBytes = size
	} else if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}

	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			// cover art in audio files shows up as a video stream
			if s.CodecName == "mjpeg" || s.CodecName == "png" {
				continue
			}
			info.HasVideo = true
			info.VideoCodec = s.CodecName
			if s.Width > 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = s.CodecName
		}
	}

	if !info.HasVideo && !info.HasAudio {
		return info, fmt.Errorf("%w: no audio or video streams in %s", models.ErrUnsupportedFormat, path)
	}

	return info, nil
}

// tail returns the last few lines of tool output for error details.
func tail(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
