package delivery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"compressd/logger"
)

// toLocal copies the output into the serve directory, optionally under a
// subfolder, where the HTTP server (or anything else) can pick it up.
func (w *Writer) toLocal(subdir, filename string, reader io.Reader) (string, error) {
	fullDir := filepath.Join(w.serveDir, subdir)
	fullPath := filepath.Join(fullDir, filename)

	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return "", fmt.Errorf("create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return "", fmt.Errorf("write file %s: %w", fullPath, err)
	}

	logger.Debugf("delivered output to %s", fullPath)
	return fullPath, nil
}
