package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

var testPresets = map[models.QualityPreset]models.PresetParams{
	models.PresetBalanced:  {VideoCodec: "libx264", Extension: "mp4"},
	models.PresetUltrafast: {VideoCodec: "libx265", Extension: "mp4"},
	models.PresetAudio:     {AudioCodec: "libmp3lame", Extension: "mp3"},
}

func localFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(p, []byte("not really a video"), 0644))
	return p
}

func TestBuildJobLocalFile(t *testing.T) {
	input := localFile(t)
	job, err := BuildJob(Request{Input: input}, testPresets)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, input, job.InputRef)
	assert.Equal(t, models.StatusPending, job.Status)
	assert.EqualValues(t, 18, job.InputBytes)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestBuildJobRemoteURL(t *testing.T) {
	job, err := BuildJob(Request{
		Input:   "https://example.com/media/clip.mp4",
		Options: models.CompressionOptions{Preset: models.PresetUltrafast, MaxSizeBytes: 8 << 20},
	}, testPresets)
	require.NoError(t, err)
	assert.Equal(t, models.PresetUltrafast, job.Options.Preset)
	assert.Zero(t, job.InputBytes, "remote inputs have no known size at intake")
}

func TestBuildJobUniqueIDs(t *testing.T) {
	input := localFile(t)
	a, err := BuildJob(Request{Input: input}, testPresets)
	require.NoError(t, err)
	b, err := BuildJob(Request{Input: input}, testPresets)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBuildJobRejectsBadInputs(t *testing.T) {
	cases := map[string]Request{
		"empty input":      {Input: ""},
		"missing file":     {Input: filepath.Join(t.TempDir(), "nope.mp4")},
		"directory":        {Input: t.TempDir()},
		"hostless url":     {Input: "https:///clip.mp4"},
		"unknown preset":   {Input: localFile(t), Options: models.CompressionOptions{Preset: "lossless"}},
		"negative size":    {Input: localFile(t), Options: models.CompressionOptions{MaxSizeBytes: -1}},
		"negative threads": {Input: localFile(t), Options: models.CompressionOptions{ThreadHint: -2}},
		"bad callback":     {Input: localFile(t), CallbackURL: "ftp://example.com/hook"},
	}
	for name, req := range cases {
		_, err := BuildJob(req, testPresets)
		assert.ErrorIs(t, err, models.ErrInvalidInput, name)
	}
}

func TestMaxSizeBytesDomain(t *testing.T) {
	// zero means unconstrained and is accepted
	_, err := BuildJob(Request{Input: localFile(t), Options: models.CompressionOptions{MaxSizeBytes: 0}}, testPresets)
	require.NoError(t, err)

	_, err = BuildJob(Request{Input: localFile(t), Options: models.CompressionOptions{MaxSizeBytes: -1}}, testPresets)
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestBuildJobDeliveryValidation(t *testing.T) {
	input := localFile(t)

	_, err := BuildJob(Request{Input: input, Delivery: &models.DeliverySpec{Type: "s3"}}, testPresets)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "s3 without bucket")

	_, err = BuildJob(Request{Input: input, Delivery: &models.DeliverySpec{Type: "carrier-pigeon"}}, testPresets)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "unknown type")

	job, err := BuildJob(Request{Input: input, Delivery: &models.DeliverySpec{
		Type: "s3",
		S3:   &models.S3Target{Bucket: "media-out", Region: "eu-west-1"},
	}}, testPresets)
	require.NoError(t, err)
	assert.Equal(t, "media-out", job.Delivery.S3.Bucket)

	_, err = BuildJob(Request{Input: input, Delivery: &models.DeliverySpec{Type: "sftp"}}, testPresets)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "sftp without host")
}

func TestBuildJobCallback(t *testing.T) {
	input := localFile(t)
	job, err := BuildJob(Request{
		Input:           input,
		CallbackURL:     "https://bot.example.com/jobs/done",
		CallbackHeaders: map[string]string{"X-Auth": "token"},
	}, testPresets)
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/jobs/done", job.CallbackURL)
	assert.Equal(t, "token", job.CallbackHeaders["X-Auth"])
}
