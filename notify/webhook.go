package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"compressd/logger"
	"compressd/models"
)

// Webhook POSTs progress events as JSON to a fixed endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Notify(ctx context.Context, ev models.ProgressEvent) error {
	return post(ctx, w.client, w.url, nil, payload(ev))
}

// callbackClient is shared by all per-job callbacks.
var callbackClient = &http.Client{Timeout: 30 * time.Second}

// SendCallback POSTs a job's terminal record to the per-job callback URL the
// submitter registered. Best effort; the caller logs and moves on.
func SendCallback(job models.Job) error {
	if job.CallbackURL == "" {
		return nil
	}

	body := map[string]interface{}{
		"job_id":    job.ID,
		"status":    string(job.Status),
		"timestamp": time.Now().Unix(),
	}
	if job.OutputRef != "" {
		body["output_ref"] = job.OutputRef
	}
	if job.Error != "" {
		body["error"] = job.Error
	}

	if err := post(context.Background(), callbackClient, job.CallbackURL, job.CallbackHeaders, body); err != nil {
		return err
	}
	logger.Infof("sent completion callback for job %s to %s", job.ID, job.CallbackURL)
	return nil
}

func post(ctx context.Context, client *http.Client, url string, headers map[string]string, body map[string]interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "compressd/1.0")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return nil
}
