package models

import "time"

// JobStatus is the lifecycle state of a compression job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// QualityPreset names a compression parameter set.
type QualityPreset string

const (
	PresetUltrafast QualityPreset = "ultrafast"
	PresetBalanced  QualityPreset = "balanced"
	PresetHigh      QualityPreset = "high"
	PresetAudio     QualityPreset = "audio"
)

// MediaType classifies the probed input.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// CompressionOptions is the caller-requested compression tuning. Value
// object, compared by value.
type CompressionOptions struct {
	Preset       QualityPreset `json:"preset,omitempty"`
	MaxSizeBytes int64         `json:"max_size_bytes,omitempty"`
	ThreadHint   int           `json:"thread_hint,omitempty"`
}

// Job is one unit of requested compression work. Created on intake, mutated
// only by the scheduler, immutable once Status is terminal.
type Job struct {
	ID          string    `json:"id"`
	InputRef    string    `json:"input_ref"` // local path or http(s) URL
	InputBytes  int64     `json:"input_bytes,omitempty"`
	Options     CompressionOptions `json:"options"`
	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	OutputRef   string    `json:"output_ref,omitempty"` // set only on success
	Error       string    `json:"error,omitempty"`      // set only on failure

	Delivery        *DeliverySpec     `json:"delivery,omitempty"`
	CallbackURL     string            `json:"callback_url,omitempty"`
	CallbackHeaders map[string]string `json:"callback_headers,omitempty"`
}

// ProgressEvent is a point-in-time completion signal for a job. Percent is
// non-decreasing within a job; Terminal events carry the final status.
type ProgressEvent struct {
	JobID     string    `json:"job_id"`
	Percent   int       `json:"percent"` // 0-100
	Phase     string    `json:"phase"`   // e.g. "downloading", "encoding"
	Terminal  bool      `json:"terminal"`
	Status    JobStatus `json:"status,omitempty"`     // terminal events only
	OutputRef string    `json:"output_ref,omitempty"` // terminal success only
	Detail    string    `json:"detail,omitempty"`     // terminal failure only
	Timestamp time.Time `json:"timestamp"`
}
