// Package fetch resolves a job's input reference into a local file. Local
// paths pass through; http(s) URLs are downloaded, with YouTube-style links
// handed to yt-dlp.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"compressd/logger"
	"compressd/models"
)

var youtubeRE = regexp.MustCompile(`(https?://)?(www\.)?(youtube\.com/(watch\?v=|shorts/)|youtu\.be/)[\w-]+`)

// IsRemote reports whether the reference is an http(s) URL rather than a
// local path.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Validate checks that a reference is resolvable enough to admit: a remote
// URL must parse, a local path must be a readable regular file. Failures are
// ErrInvalidInput.
func Validate(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: empty input reference", models.ErrInvalidInput)
	}

	if IsRemote(ref) {
		u, err := url.Parse(ref)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: malformed URL %q", models.ErrInvalidInput, ref)
		}
		return nil
	}

	st, err := os.Stat(ref)
	if err != nil {
		return fmt.Errorf("%w: unreadable local path %q: %v", models.ErrInvalidInput, ref, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %q is a directory", models.ErrInvalidInput, ref)
	}
	return nil
}

// Resolver downloads remote references into job work directories.
type Resolver struct {
	client   *http.Client
	maxBytes int64
}

func NewResolver(maxBytes int64) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: 30 * time.Minute},
		maxBytes: maxBytes,
	}
}

// Resolve produces a local file for the reference inside destDir. Local
// paths are returned as-is. report receives 0-100 download progress.
func (r *Resolver) Resolve(ctx context.Context, ref, destDir string, report func(percent int)) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}
	if youtubeRE.MatchString(ref) {
		return r.downloadYouTube(ctx, ref, destDir, report)
	}
	return r.downloadHTTP(ctx, ref, destDir, report)
}

func (r *Resolver) downloadHTTP(ctx context.Context, ref, destDir string, report func(percent int)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", models.ErrExecutionFailure, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: fetch %s: %v", models.ErrExecutionFailure, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: status %d", models.ErrExecutionFailure, ref, resp.StatusCode)
	}
	if r.maxBytes > 0 && resp.ContentLength > r.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d",
			models.ErrInvalidInput, ref, resp.ContentLength, r.maxBytes)
	}

	destPath := filepath.Join(destDir, remoteFilename(ref))
	file, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", models.ErrExecutionFailure, destPath, err)
	}
	defer file.Close()

	body := io.Reader(resp.Body)
	if r.maxBytes > 0 {
		body = io.LimitReader(resp.Body, r.maxBytes+1)
	}

	written, err := copyWithProgress(file, body, resp.ContentLength, report)
	if err != nil {
		os.Remove(destPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: download %s: %v", models.ErrExecutionFailure, ref, err)
	}
	if r.maxBytes > 0 && written > r.maxBytes {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: %s exceeds the %d byte input limit", models.ErrInvalidInput, ref, r.maxBytes)
	}

	logger.Infof("downloaded %s (%d bytes) to %s", ref, written, destPath)
	return destPath, nil
}

// copyWithProgress streams src to dst reporting percent when the total size
// is known.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, report func(percent int)) (int64, error) {
	buf := make([]byte, 256<<10)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if report != nil && total > 0 {
				pct := int(written * 100 / total)
				if pct > 99 {
					pct = 99
				}
				report(pct)
			}
		}
		if readErr == io.EOF {
			if report != nil {
				report(100)
			}
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// remoteFilename picks a safe local name for a URL's file.
func remoteFilename(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return "input"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "input"
	}
	return name
}
