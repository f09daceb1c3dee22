// Package intake validates submission requests and constructs Jobs.
package intake

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"compressd/fetch"
	"compressd/models"
)

// Request is the submit API body.
type Request struct {
	Input           string                    `json:"input"` // local path or http(s) URL
	Options         models.CompressionOptions `json:"options"`
	Delivery        *models.DeliverySpec      `json:"delivery,omitempty"`
	CallbackURL     string                    `json:"callback_url,omitempty"`
	CallbackHeaders map[string]string         `json:"callback_headers,omitempty"`
}

// BuildJob validates the request against the configured presets and returns
// a Pending job ready for the scheduler. All validation failures wrap
// ErrInvalidInput.
func BuildJob(req Request, presets map[models.QualityPreset]models.PresetParams) (*models.Job, error) {
	if err := fetch.Validate(req.Input); err != nil {
		return nil, err
	}
	if err := validateOptions(req.Options, presets); err != nil {
		return nil, err
	}
	if err := validateDelivery(req.Delivery); err != nil {
		return nil, err
	}
	if req.CallbackURL != "" {
		u, err := url.Parse(req.CallbackURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: malformed callback URL %q", models.ErrInvalidInput, req.CallbackURL)
		}
	}

	job := &models.Job{
		ID:              uuid.NewString(),
		InputRef:        req.Input,
		Options:         req.Options,
		Status:          models.StatusPending,
		CreatedAt:       time.Now(),
		Delivery:        req.Delivery,
		CallbackURL:     req.CallbackURL,
		CallbackHeaders: req.CallbackHeaders,
	}
	if !fetch.IsRemote(req.Input) {
		if st, err := os.Stat(req.Input); err == nil {
			job.InputBytes = st.Size()
		}
	}
	return job, nil
}

func validateOptions(opts models.CompressionOptions, presets map[models.QualityPreset]models.PresetParams) error {
	if opts.Preset != "" {
		if _, ok := presets[opts.Preset]; !ok {
			return fmt.Errorf("%w: unknown preset %q", models.ErrInvalidInput, opts.Preset)
		}
	}
	if opts.MaxSizeBytes < 0 {
		return fmt.Errorf("%w: max_size_bytes must not be negative, got %d", models.ErrInvalidInput, opts.MaxSizeBytes)
	}
	if opts.ThreadHint < 0 {
		return fmt.Errorf("%w: thread_hint must not be negative, got %d", models.ErrInvalidInput, opts.ThreadHint)
	}
	return nil
}

func validateDelivery(spec *models.DeliverySpec) error {
	if spec == nil {
		return nil
	}
	switch spec.Type {
	case "", "local":
		return nil
	case "s3":
		if spec.S3 == nil || spec.S3.Bucket == "" {
			return fmt.Errorf("%w: s3 delivery needs a bucket", models.ErrInvalidInput)
		}
	case "gcs":
		if spec.GCS == nil || spec.GCS.Bucket == "" {
			return fmt.Errorf("%w: gcs delivery needs a bucket", models.ErrInvalidInput)
		}
	case "sftp":
		if spec.SFTP == nil || spec.SFTP.Host == "" {
			return fmt.Errorf("%w: sftp delivery needs a host", models.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown delivery type %q", models.ErrInvalidInput, spec.Type)
	}
	return nil
}
