package compressor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"compressd/models"
)

// runFFmpeg executes one encode, streaming percent-complete from ffmpeg's
// machine-readable progress output. total may be zero when the input's
// duration is unknown; progress then stays at 0 until completion.
func runFFmpeg(ctx context.Context, args []string, total time.Duration, report func(percent int)) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg stdout pipe: %v", models.ErrExecutionFailure, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start ffmpeg: %v", models.ErrExecutionFailure, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := parseProgressLine(scanner.Text(), total); ok && report != nil {
			report(pct)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: ffmpeg: %v: %s", models.ErrExecutionFailure, err, tail(stderr.String()))
	}
	return nil
}

// parseProgressLine extracts percent complete from one key=value line of
// ffmpeg -progress output. out_time_us is microseconds; the older
// out_time_ms key is, despite its name, also microseconds.
func parseProgressLine(line string, total time.Duration) (int, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}

	switch key {
	case "out_time_us", "out_time_ms":
		if total <= 0 {
			return 0, false
		}
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		pct := int(us * 100 / int64(total/time.Microsecond))
		if pct > 99 {
			pct = 99 // 100 is reserved for the completed encode
		}
		return pct, true
	case "progress":
		if strings.TrimSpace(value) == "end" {
			return 99, true
		}
	}
	return 0, false
}
