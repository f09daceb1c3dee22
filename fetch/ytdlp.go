package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"compressd/logger"
	"compressd/models"
)

// yt-dlp prints "[download]  42.7% of ..." per line with --newline
var ytProgressRE = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

// downloadYouTube fetches a YouTube-style URL with yt-dlp into destDir and
// returns the downloaded file's path.
func (r *Resolver) downloadYouTube(ctx context.Context, ref, destDir string, report func(percent int)) (string, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return "", fmt.Errorf("%w: yt-dlp not found in PATH", models.ErrExecutionFailure)
	}

	outputTemplate := filepath.Join(destDir, "source.%(ext)s")
	args := []string{
		"--newline",
		"--no-playlist",
		"-f", "best[ext=mp4]/best",
		"-o", outputTemplate,
		"--print", "after_move:filepath",
	}
	if r.maxBytes > 0 {
		args = append(args, "--max-filesize", fmt.Sprint(r.maxBytes))
	}
	args = append(args, ref)

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: yt-dlp stdout pipe: %v", models.ErrExecutionFailure, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: start yt-dlp: %v", models.ErrExecutionFailure, err)
	}

	// the final non-progress line is the printed filepath
	var lastLine string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if m := ytProgressRE.FindStringSubmatch(line); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil && report != nil {
				p := int(pct)
				if p > 99 {
					p = 99
				}
				report(p)
			}
			continue
		}
		if line != "" {
			lastLine = line
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: yt-dlp: %v: %s", models.ErrExecutionFailure, err, stderr.String())
	}
	if lastLine == "" {
		return "", fmt.Errorf("%w: yt-dlp reported no output file for %s", models.ErrExecutionFailure, ref)
	}

	if report != nil {
		report(100)
	}
	logger.Infof("yt-dlp downloaded %s to %s", ref, lastLine)
	return lastLine, nil
}
