package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 32, cfg.MaxQueue)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.CancelGrace)
	assert.EqualValues(t, 100<<20, cfg.MaxInputBytes)
	assert.Equal(t, "log", cfg.NotifyBackend)
	assert.Empty(t, cfg.JWTSecret)

	require.Len(t, cfg.Presets, 4)
	assert.Contains(t, cfg.Presets, models.PresetUltrafast)
	assert.Contains(t, cfg.Presets, models.PresetBalanced)
	assert.Contains(t, cfg.Presets, models.PresetHigh)
	assert.Contains(t, cfg.Presets, models.PresetAudio)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COMPRESSD_LISTEN", ":9000")
	t.Setenv("COMPRESSD_WORKERS", "4")
	t.Setenv("COMPRESSD_MAX_QUEUE", "64")
	t.Setenv("COMPRESSD_MAX_RETRIES", "3")
	t.Setenv("COMPRESSD_RETRY_BACKOFF", "1s")
	t.Setenv("COMPRESSD_CANCEL_GRACE", "30s")
	t.Setenv("COMPRESSD_MAX_INPUT_MB", "500")
	t.Setenv("COMPRESSD_JWT_SECRET", "hunter2")
	t.Setenv("COMPRESSD_NOTIFY", "webhook")
	t.Setenv("COMPRESSD_WEBHOOK_URL", "https://bot.example.com/hook")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 64, cfg.MaxQueue)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.CancelGrace)
	assert.EqualValues(t, 500<<20, cfg.MaxInputBytes)
	assert.Equal(t, "hunter2", cfg.JWTSecret)
	assert.Equal(t, "webhook", cfg.NotifyBackend)
	assert.Equal(t, "https://bot.example.com/hook", cfg.WebhookURL)
}

func TestLoadRejectsBadScheduling(t *testing.T) {
	t.Setenv("COMPRESSD_WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("COMPRESSD_WORKERS", "8")
	t.Setenv("COMPRESSD_MAX_QUEUE", "4")
	_, err = Load()
	assert.Error(t, err)
}

func TestHistoryDBPath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/compressd"}
	assert.Equal(t, filepath.Join("/var/lib/compressd", "history.db"), cfg.HistoryDBPath())
}

func TestMergePresetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  ultrafast:
    video_codec: libx264
    crf: 28
    speed_preset: veryfast
    scale: "854:480"
    min_video_kbps: 80
    audio_codec: aac
    audio_kbps: 64
    extension: mp4
  tiny:
    video_codec: libx265
    crf: 35
    scale: "426:240"
    min_video_kbps: 40
    audio_codec: aac
    audio_kbps: 32
    extension: mp4
`), 0644))

	presets := DefaultPresets()
	require.NoError(t, mergePresetsFile(presets, path))

	// overlay replaces the whole table for a named preset
	uf := presets[models.PresetUltrafast]
	assert.Equal(t, "libx264", uf.VideoCodec)
	assert.Equal(t, 28, uf.CRF)
	assert.Equal(t, "854:480", uf.Scale)

	// operator-defined presets are kept alongside the built-ins
	tiny, ok := presets[models.QualityPreset("tiny")]
	require.True(t, ok)
	assert.Equal(t, 35, tiny.CRF)

	// untouched presets keep their defaults
	assert.Equal(t, "libx264", presets[models.PresetBalanced].VideoCodec)
}

func TestMergePresetsFileErrors(t *testing.T) {
	presets := DefaultPresets()
	assert.Error(t, mergePresetsFile(presets, filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("presets: [not, a, map]"), 0644))
	assert.Error(t, mergePresetsFile(presets, bad))
}

func TestLoadAppliesPresetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  high:\n    video_codec: libsvtav1\n    crf: 32\n    min_video_kbps: 200\n    audio_codec: libopus\n    audio_kbps: 96\n    extension: webm\n"), 0644))
	t.Setenv("COMPRESSD_PRESETS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "libsvtav1", cfg.Presets[models.PresetHigh].VideoCodec)
	assert.Equal(t, "webm", cfg.Presets[models.PresetHigh].Extension)
}
