// Package notify implements the outbound notification channel backends the
// progress reporter pushes through.
package notify

import (
	"fmt"

	"compressd/config"
	"compressd/models"
	"compressd/progress"
)

// New selects the notification backend named by the configuration.
// we switch based on the backend type, e.g., log, webhook, redis, kafka
func New(cfg *config.Config) (progress.Notifier, error) {
	switch cfg.NotifyBackend {
	case "log", "":
		return &LogNotifier{}, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook notifier needs COMPRESSD_WEBHOOK_URL")
		}
		return NewWebhook(cfg.WebhookURL, cfg.NotifyTimeout), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisChannel), nil
	case "kafka":
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unknown notify backend: %s", cfg.NotifyBackend)
	}
}

var _ progress.Notifier = (*LogNotifier)(nil)
var _ progress.Notifier = (*Webhook)(nil)
var _ progress.Notifier = (*Redis)(nil)
var _ progress.Notifier = (*Kafka)(nil)

// event payload shared by all backends
func payload(ev models.ProgressEvent) map[string]interface{} {
	m := map[string]interface{}{
		"job_id":    ev.JobID,
		"percent":   ev.Percent,
		"phase":     ev.Phase,
		"timestamp": ev.Timestamp.Unix(),
	}
	if ev.Terminal {
		m["terminal"] = true
		m["status"] = string(ev.Status)
		if ev.OutputRef != "" {
			m["output_ref"] = ev.OutputRef
		}
		if ev.Detail != "" {
			m["detail"] = ev.Detail
		}
	}
	return m
}
