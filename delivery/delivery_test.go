package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

func writeOutput(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("encoded media"), 0644))
	return p
}

func TestDeliverNilSpecGoesLocal(t *testing.T) {
	serveDir := t.TempDir()
	w := NewWriter(serveDir)

	ref, err := w.Deliver(context.Background(), writeOutput(t, "clip_balanced.mp4"), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(serveDir, "clip_balanced.mp4"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "encoded media", string(data))
}

func TestDeliverLocalSubdir(t *testing.T) {
	serveDir := t.TempDir()
	w := NewWriter(serveDir)

	ref, err := w.Deliver(context.Background(), writeOutput(t, "clip.mp4"),
		&models.DeliverySpec{Type: "local", Subdir: "bot-42"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(serveDir, "bot-42", "clip.mp4"), ref)
	assert.FileExists(t, ref)
}

func TestDeliverMissingSource(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.Deliver(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), nil)
	assert.Error(t, err)
}

func TestDeliverUnknownType(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.Deliver(context.Background(), writeOutput(t, "clip.mp4"),
		&models.DeliverySpec{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown delivery type")
}
