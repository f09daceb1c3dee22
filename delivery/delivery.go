// Package delivery writes a finished job's output to its destination and
// returns the reference handed back to the caller.
package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"compressd/models"
)

// Writer delivers outputs. serveDir is the default local destination.
type Writer struct {
	serveDir string
}

func NewWriter(serveDir string) *Writer {
	return &Writer{serveDir: serveDir}
}

// Deliver places localPath at the destination named by spec and returns the
// delivered reference. A nil spec means the local serve directory.
func (w *Writer) Deliver(ctx context.Context, localPath string, spec *models.DeliverySpec) (string, error) {
	if spec == nil {
		spec = &models.DeliverySpec{Type: "local"}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open output %s: %w", localPath, err)
	}
	defer file.Close()

	filename := filepath.Base(localPath)

	switch spec.Type {
	case "local", "":
		ref, err := w.toLocal(spec.Subdir, filename, file)
		if err != nil {
			return "", fmt.Errorf("failed to deliver to serve dir: %w", err)
		}
		return ref, nil
	case "s3":
		ref, err := toS3(ctx, spec.S3, filename, file)
		if err != nil {
			return "", fmt.Errorf("failed to deliver to S3: %w", err)
		}
		return ref, nil
	case "gcs":
		ref, err := toGCS(ctx, spec.GCS, filename, file)
		if err != nil {
			return "", fmt.Errorf("failed to deliver to GCS: %w", err)
		}
		return ref, nil
	case "sftp":
		ref, err := toSFTP(ctx, spec.SFTP, filename, file)
		if err != nil {
			return "", fmt.Errorf("failed to deliver to SFTP: %w", err)
		}
		return ref, nil
	default:
		return "", fmt.Errorf("unknown delivery type: %s", spec.Type)
	}
}
